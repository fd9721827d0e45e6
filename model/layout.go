// Package model defines the layout configuration document format, the
// validation and render result types derived from it, and the shared error
// envelope. Documents are serialized with camelCase keys because the same
// files are consumed directly by the frontend.
package model

// Layout structure types.
const (
	LayoutTypeSlots = "slots"
	LayoutTypeGrid  = "grid"
	LayoutTypeFlex  = "flex"
)

// CRM entity types a layout can target.
const (
	EntityOrganizations = "organizations"
	EntityContacts      = "contacts"
	EntityOpportunities = "opportunities"
	EntityProducts      = "products"
	EntityInteractions  = "interactions"
)

// Responsive breakpoints.
const (
	BreakpointMobile  = "mobile"
	BreakpointTablet  = "tablet"
	BreakpointLaptop  = "laptop"
	BreakpointDesktop = "desktop"
)

// ValidLayoutTypes enumerates the accepted values of LayoutConfiguration.Type.
var ValidLayoutTypes = []string{LayoutTypeSlots, LayoutTypeGrid, LayoutTypeFlex}

// ValidEntityTypes enumerates the accepted values of LayoutConfiguration.EntityType.
var ValidEntityTypes = []string{
	EntityOrganizations, EntityContacts, EntityOpportunities,
	EntityProducts, EntityInteractions,
}

// ValidSlotTypes enumerates the accepted values of SlotConfiguration.Type.
var ValidSlotTypes = []string{
	"header", "title", "subtitle", "meta", "actions", "filters",
	"search", "content", "sidebar", "footer", "custom",
}

// ValidPriorityLevels enumerates the organization priority grades.
var ValidPriorityLevels = []string{"A+", "A", "B", "C", "D"}

// ValidAuthorityLevels enumerates the contact authority levels.
var ValidAuthorityLevels = []string{"primary", "secondary", "influencer"}

// LayoutConfiguration is the versioned, serializable description of a page's
// composition. A configuration missing any of id, name, version, type,
// entityType, metadata, or structure is invalid and must never be rendered.
type LayoutConfiguration struct {
	ID             string                 `yaml:"id"             json:"id"`
	Name           string                 `yaml:"name"           json:"name"`
	Version        string                 `yaml:"version"        json:"version"`
	Type           string                 `yaml:"type"           json:"type"`
	EntityType     string                 `yaml:"entityType"     json:"entityType"`
	Metadata       LayoutMetadata         `yaml:"metadata"       json:"metadata"`
	Structure      StructureConfiguration `yaml:"structure"      json:"structure"`
	EntitySpecific map[string]any         `yaml:"entitySpecific,omitempty" json:"entitySpecific,omitempty"`
	PersistChanges bool                   `yaml:"persistChanges,omitempty" json:"persistChanges,omitempty"`
	StorageKey     string                 `yaml:"storageKey,omitempty"     json:"storageKey,omitempty"`

	// Checksum and SourceFile are computed at load time, not part of the document.
	Checksum   string `yaml:"-" json:"-"`
	SourceFile string `yaml:"-" json:"-"`
}

// LayoutMetadata carries the descriptive fields of a layout configuration.
type LayoutMetadata struct {
	DisplayName string   `yaml:"displayName" json:"displayName"`
	Description string   `yaml:"description" json:"description"`
	Category    string   `yaml:"category"    json:"category"`
	Tags        []string `yaml:"tags"        json:"tags"`
	CreatedAt   string   `yaml:"createdAt"   json:"createdAt"`
	UpdatedAt   string   `yaml:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	Author      string   `yaml:"author,omitempty"    json:"author,omitempty"`
}

// StructureConfiguration is the variant payload of a layout. Which fields are
// meaningful depends on LayoutConfiguration.Type.
type StructureConfiguration struct {
	Slots       []SlotConfiguration       `yaml:"slots,omitempty"       json:"slots,omitempty"`
	Composition *CompositionConfiguration `yaml:"composition,omitempty" json:"composition,omitempty"`
	Grid        *GridConfiguration        `yaml:"grid,omitempty"        json:"grid,omitempty"`
	Flex        *FlexConfiguration        `yaml:"flex,omitempty"        json:"flex,omitempty"`
}

// CompositionConfiguration constrains how slots compose into a page.
type CompositionConfiguration struct {
	RequiredSlots []string `yaml:"requiredSlots,omitempty" json:"requiredSlots,omitempty"`
	SlotOrder     []string `yaml:"slotOrder,omitempty"     json:"slotOrder,omitempty"`
}

// GridConfiguration describes a grid-based layout structure.
type GridConfiguration struct {
	Columns int      `yaml:"columns"         json:"columns"`
	Gap     string   `yaml:"gap,omitempty"   json:"gap,omitempty"`
	Areas   []string `yaml:"areas,omitempty" json:"areas,omitempty"`
}

// FlexConfiguration describes a flex-based layout structure.
type FlexConfiguration struct {
	Direction string `yaml:"direction"      json:"direction"`
	Wrap      bool   `yaml:"wrap,omitempty" json:"wrap,omitempty"`
	Gap       string `yaml:"gap,omitempty"  json:"gap,omitempty"`
}

// SlotConfiguration is one named region within a slot-based layout. Slots
// reference registry components by name only; a dangling reference is a
// validation error, never a crash.
type SlotConfiguration struct {
	ID                string                             `yaml:"id"                json:"id"`
	Type              string                             `yaml:"type"              json:"type"`
	Name              string                             `yaml:"name"              json:"name"`
	Required          bool                               `yaml:"required"          json:"required"`
	Multiple          bool                               `yaml:"multiple"          json:"multiple"`
	DefaultComponent  string                             `yaml:"defaultComponent,omitempty"  json:"defaultComponent,omitempty"`
	AllowedComponents []string                           `yaml:"allowedComponents,omitempty" json:"allowedComponents,omitempty"`
	Props             map[string]any                     `yaml:"props,omitempty"             json:"props,omitempty"`
	Responsive        map[string]BreakpointConfiguration `yaml:"responsive,omitempty"        json:"responsive,omitempty"`
}

// BreakpointConfiguration describes per-breakpoint slot behavior.
type BreakpointConfiguration struct {
	Visible *bool `yaml:"visible,omitempty" json:"visible,omitempty"`
	Order   int   `yaml:"order,omitempty"   json:"order,omitempty"`
	Span    int   `yaml:"span,omitempty"    json:"span,omitempty"`
}

// Well-known slot prop keys.
const (
	PropEnableVirtualization    = "enableVirtualization"
	PropVirtualizationThreshold = "virtualizationThreshold"
	PropEnableCaching           = "enableCaching"
	PropItemsPath               = "itemsPath"
)

// VirtualizationModeFrom normalizes an enableVirtualization value from a
// prop set, merged or raw, to "auto", "true", "false", or "" when unset.
func VirtualizationModeFrom(props map[string]any) string {
	v, ok := props[PropEnableVirtualization]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// VirtualizationThresholdFrom returns the configured threshold in a prop
// set, if any.
func VirtualizationThresholdFrom(props map[string]any) (int, bool) {
	v, ok := props[PropVirtualizationThreshold]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}

// DefaultStorageKey returns the client-storage key the layout choice for an
// entity type is persisted under.
func DefaultStorageKey(entityType string) string {
	if entityType == "" {
		return "layout-global"
	}
	return "layout-" + entityType
}

// contains reports whether list has the given value. Shared by the enum checks.
func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// IsValidEntityType reports whether v is a known entity type.
func IsValidEntityType(v string) bool { return contains(ValidEntityTypes, v) }

// IsValidLayoutType reports whether v is a known layout structure type.
func IsValidLayoutType(v string) bool { return contains(ValidLayoutTypes, v) }

// IsValidSlotType reports whether v is a known slot type.
func IsValidSlotType(v string) bool { return contains(ValidSlotTypes, v) }
