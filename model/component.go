package model

import "github.com/getkin/kin-openapi/openapi3"

// ComponentEntry maps a component name to its render contract: category
// metadata, the slot and entity types it supports, default props, and an
// optional prop schema. Slots reference entries by name only; the registry
// exclusively owns entries.
type ComponentEntry struct {
	ID                string          `yaml:"id"                json:"id"`
	Name              string          `yaml:"name"              json:"name"`
	Category          string          `yaml:"category"          json:"category"`
	Description       string          `yaml:"description"       json:"description,omitempty"`
	SupportedSlots    []string        `yaml:"supportedSlots"    json:"supportedSlots,omitempty"`
	SupportedEntities []string        `yaml:"supportedEntities" json:"supportedEntities,omitempty"`
	DefaultProps      map[string]any  `yaml:"defaultProps"      json:"defaultProps,omitempty"`
	PropsSchema       *openapi3.Schema `yaml:"-"                json:"-"`

	// Bind computes server-side props for a render context. Optional.
	Bind func(ctx RenderContext, props map[string]any) (map[string]any, error) `yaml:"-" json:"-"`
}

// SupportsSlot reports whether the entry can occupy the given slot type.
// An empty SupportedSlots list means the component is slot-agnostic.
func (e ComponentEntry) SupportsSlot(slotType string) bool {
	return len(e.SupportedSlots) == 0 || contains(e.SupportedSlots, slotType)
}

// SupportsEntity reports whether the entry can serve the given entity type.
func (e ComponentEntry) SupportsEntity(entityType string) bool {
	return len(e.SupportedEntities) == 0 || contains(e.SupportedEntities, entityType)
}

// ComponentPatch is a partial update to a registered entry. Nil fields are
// left unchanged.
type ComponentPatch struct {
	Name              *string
	Category          *string
	Description       *string
	SupportedSlots    []string
	SupportedEntities []string
	DefaultProps      map[string]any
	PropsSchema       *openapi3.Schema
}

// RenderContext describes where a component is about to be mounted.
type RenderContext struct {
	EntityType string `json:"entityType"`
	SlotID     string `json:"slotId"`
	SlotType   string `json:"slotType"`
	RenderMode string `json:"renderMode"`
	Breakpoint string `json:"breakpoint,omitempty"`
}

// ResolvedComponent is a registry entry cleared for a specific render
// context. Props is a caller-owned copy of the entry's default props, safe
// to merge and mutate without touching registry state.
type ResolvedComponent struct {
	Entry ComponentEntry `json:"entry"`
	Props map[string]any `json:"props,omitempty"`
}

// PropValidation is the outcome of checking a prop set against a component's
// schema before mounting it. Distinct from layout-schema validation.
type PropValidation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
