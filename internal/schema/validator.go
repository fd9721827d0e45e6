// Package schema validates layout configuration documents: structural
// completeness, type conformance, entity-specific business rules, component
// registry references, performance characteristics, and responsive coverage.
// Findings are always returned as data; malformed input becomes a critical
// finding, never a panic or error return.
package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/slatehq/slate/internal/layout"
	"github.com/slatehq/slate/model"
)

// Validation issue codes.
const (
	CodeParseError           = "parse-error"
	CodeMissingField         = "missing-required-field"
	CodeInvalidIDFormat      = "invalid-id-format"
	CodeInvalidVersionFormat = "invalid-version-format"
	CodeInvalidMetadata      = "invalid-metadata"
	CodeMissingMetadataField = "missing-metadata-field"
	CodeInvalidMetadataTags  = "invalid-metadata-tags"
	CodeInvalidLayoutType    = "invalid-layout-type"
	CodeInvalidEntityType    = "invalid-entity-type"
	CodeInvalidStructure     = "invalid-structure"
	CodeInvalidSlots         = "invalid-slots-structure"
	CodeInvalidSlot          = "invalid-slot"
	CodeMissingSlotField     = "missing-slot-field"
	CodeInvalidSlotType      = "invalid-slot-type"
	CodeDuplicateSlotID      = "duplicate-slot-id"
	CodeInvalidComposition   = "invalid-composition"
	CodeUnknownOrderSlot     = "unknown-slot-in-order"
	CodeUnknownRequiredSlot  = "unknown-required-slot"
	CodeUnknownComponent     = "unknown-component"
	CodeMissingMobile        = "missing-mobile-responsive"
	CodeMissingDesktop       = "missing-desktop-responsive"
	CodeInvalidThresholdType = "invalid-threshold-type"
)

// Performance tip codes.
const (
	TipMissingThreshold       = "missing-virtualization-threshold"
	TipVirtualizationDisabled = "virtualization-disabled"
	TipNoCaching              = "no-slot-caching"
)

// Auto-fix codes.
const (
	FixAddThreshold = "add-virtualization-threshold"
	FixLowercaseID  = "lowercase-id"
	FixDefaultTags  = "default-tags"
)

var (
	idPattern      = regexp.MustCompile(`^[a-z0-9-]+$`)
	versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// requiredTopLevelFields must all be present for a configuration to render.
var requiredTopLevelFields = []string{
	"id", "name", "version", "type", "entityType", "metadata", "structure",
}

// requiredMetadataFields must all be present within metadata.
var requiredMetadataFields = []string{
	"displayName", "description", "category", "tags", "createdAt",
}

// requiredSlotFields must all be present on every slot.
var requiredSlotFields = []string{"id", "type", "name", "required", "multiple"}

// ComponentSource is the registry contract the validator needs. Any external
// component provider can satisfy it.
type ComponentSource interface {
	Has(id string) bool
	Keys() []string
}

// GroupStatus marks whether a rule group is enforced or an extension point.
type GroupStatus string

// Rule group statuses.
const (
	StatusActive         GroupStatus = "active"
	StatusNotImplemented GroupStatus = "not-implemented"
	StatusDisabled       GroupStatus = "disabled"
)

// RuleGroup identifies one of the fixed-order validation passes.
type RuleGroup struct {
	Name   string      `json:"name"`
	Status GroupStatus `json:"status"`
}

// Options toggles individual rule groups. The zero value disables
// everything; use DefaultOptions.
type Options struct {
	Components  bool
	Entity      bool
	Performance bool
	Responsive  bool
	CrossRef    bool
	Warnings    bool
}

// DefaultOptions enables every rule group.
func DefaultOptions() Options {
	return Options{
		Components:  true,
		Entity:      true,
		Performance: true,
		Responsive:  true,
		CrossRef:    true,
		Warnings:    true,
	}
}

// Validator validates layout documents. Results are cached per content
// checksum for the lifetime of the instance; validation is otherwise
// stateless, so repeated runs on unchanged input are identical.
type Validator struct {
	components ComponentSource
	opts       Options

	mu    sync.Mutex
	cache map[string]model.ValidationResult
}

// NewValidator creates a Validator. components may be nil, in which case
// component-reference rules are skipped (e.g. a CLI run with --no-components).
func NewValidator(components ComponentSource, opts Options) *Validator {
	return &Validator{
		components: components,
		opts:       opts,
		cache:      make(map[string]model.ValidationResult),
	}
}

// Groups returns the rule groups in execution order with their status.
// Cross-reference and best-practice rules are declared extension points:
// they are listed, never silently assumed.
func (v *Validator) Groups() []RuleGroup {
	componentStatus := StatusActive
	if v.components == nil || !v.opts.Components {
		componentStatus = StatusDisabled
	}
	return []RuleGroup{
		{Name: "structure", Status: StatusActive},
		{Name: "type", Status: StatusActive},
		{Name: "entity", Status: StatusActive},
		{Name: "components", Status: componentStatus},
		{Name: "performance", Status: StatusActive},
		{Name: "responsive", Status: StatusActive},
		{Name: "cross-reference", Status: StatusNotImplemented},
		{Name: "best-practice", Status: StatusNotImplemented},
	}
}

// Validate produces a complete ValidationResult for one document. A document
// that failed to load yields a single critical parse-error finding with
// score 0 rather than an error return, so batch runs are isolated per file.
func (v *Validator) Validate(doc layout.Document) model.ValidationResult {
	if doc.LoadErr != nil {
		return model.ValidationResult{
			SourceFile: doc.SourceFile,
			Valid:      false,
			Errors: []model.ValidationIssue{{
				Path:     doc.SourceFile,
				Code:     CodeParseError,
				Severity: model.SeverityCritical,
				Message:  doc.LoadErr.Error(),
			}},
			Warnings:        []model.ValidationIssue{},
			PerformanceTips: []model.PerformanceTip{},
			Score:           0,
		}
	}

	if doc.Checksum != "" {
		v.mu.Lock()
		cached, hit := v.cache[doc.Checksum]
		v.mu.Unlock()
		if hit {
			return cached
		}
	}

	c := &collector{}

	// Rule groups run in fixed order; order affects only display order of
	// findings, not correctness.
	v.structureRules(doc.Raw, c)
	v.typeRules(doc.Raw, c)
	if v.opts.Entity {
		v.entityRules(doc.Raw, c)
	}
	if v.opts.Components && v.components != nil {
		v.componentRules(doc.Raw, c)
	}
	if v.opts.Performance {
		v.performanceRules(doc.Raw, c)
	}
	if v.opts.Responsive {
		v.responsiveRules(doc.Raw, c)
	}
	// Cross-reference and best-practice groups: extension points, no rules
	// enforced. See Groups().

	result := c.result(doc)

	if doc.Checksum != "" {
		v.mu.Lock()
		v.cache[doc.Checksum] = result
		v.mu.Unlock()
	}
	return result
}

// CacheLen returns the number of cached results. For testing.
func (v *Validator) CacheLen() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.cache)
}

// collector accumulates findings for one run.
type collector struct {
	errors   []model.ValidationIssue
	warnings []model.ValidationIssue
	tips     []model.PerformanceTip
	fixes    []model.AutoFix
}

func (c *collector) errorf(path, code, format string, args ...any) {
	c.errors = append(c.errors, model.ValidationIssue{
		Path:     path,
		Code:     code,
		Severity: model.SeverityError,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *collector) errorWithDetails(path, code, msg string, details []string) {
	c.errors = append(c.errors, model.ValidationIssue{
		Path:     path,
		Code:     code,
		Severity: model.SeverityError,
		Message:  msg,
		Details:  details,
	})
}

func (c *collector) warnf(path, code, format string, args ...any) {
	c.warnings = append(c.warnings, model.ValidationIssue{
		Path:     path,
		Code:     code,
		Severity: model.SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *collector) tip(code, message, suggestion, impact string) {
	c.tips = append(c.tips, model.PerformanceTip{
		Code:           code,
		Message:        message,
		Suggestion:     suggestion,
		ExpectedImpact: impact,
	})
}

func (c *collector) fix(code, path, description string) {
	c.fixes = append(c.fixes, model.AutoFix{Code: code, Path: path, Description: description})
}

func (c *collector) result(doc layout.Document) model.ValidationResult {
	r := model.ValidationResult{
		SourceFile:      doc.SourceFile,
		Errors:          c.errors,
		Warnings:        c.warnings,
		PerformanceTips: c.tips,
		Fixes:           c.fixes,
	}
	if r.Errors == nil {
		r.Errors = []model.ValidationIssue{}
	}
	if r.Warnings == nil {
		r.Warnings = []model.ValidationIssue{}
	}
	if r.PerformanceTips == nil {
		r.PerformanceTips = []model.PerformanceTip{}
	}
	if id, ok := stringField(doc.Raw, "id"); ok {
		r.LayoutID = id
	}
	if et, ok := stringField(doc.Raw, "entityType"); ok {
		r.EntityType = et
	}
	r.Valid = r.ErrorCount() == 0
	r.Score = model.ComputeScore(len(r.Errors), len(r.Warnings))
	return r
}

// structureRules checks required top-level fields, id and version formats,
// and metadata completeness.
func (v *Validator) structureRules(raw map[string]any, c *collector) {
	for _, field := range requiredTopLevelFields {
		if _, ok := raw[field]; !ok {
			c.errorf(field, CodeMissingField, "required field %q is missing", field)
		}
	}

	if idv, ok := raw["id"]; ok {
		id, isStr := asString(idv)
		if !isStr {
			c.errorf("id", CodeInvalidIDFormat, "id must be a string")
		} else if !idPattern.MatchString(id) {
			c.errorf("id", CodeInvalidIDFormat,
				"id %q must contain only lowercase letters, digits, and hyphens", id)
			if lowered := strings.ToLower(id); idPattern.MatchString(lowered) {
				c.fix(FixLowercaseID, "id", fmt.Sprintf("lowercase id to %q", lowered))
			}
		}
	}

	if vv, ok := raw["version"]; ok {
		version, isStr := asString(vv)
		if !isStr || !versionPattern.MatchString(version) {
			c.errorf("version", CodeInvalidVersionFormat,
				"version must match MAJOR.MINOR.PATCH, got %v", vv)
		}
	}

	if mv, ok := raw["metadata"]; ok {
		meta, isMap := asMap(mv)
		if !isMap {
			c.errorf("metadata", CodeInvalidMetadata, "metadata must be an object")
			return
		}
		for _, field := range requiredMetadataFields {
			if _, ok := meta[field]; !ok {
				c.errorf("metadata."+field, CodeMissingMetadataField,
					"metadata field %q is missing", field)
				if field == "tags" {
					c.fix(FixDefaultTags, "metadata.tags", "set tags to an empty array")
				}
			}
		}
		if tv, ok := meta["tags"]; ok {
			if _, isSlice := asSlice(tv); !isSlice {
				c.errorf("metadata.tags", CodeInvalidMetadataTags, "metadata.tags must be an array")
				c.fix(FixDefaultTags, "metadata.tags", "set tags to an empty array")
			}
		}
	}
}

// typeRules checks the layout and entity type enums and dispatches to the
// structure checks for the declared layout type.
func (v *Validator) typeRules(raw map[string]any, c *collector) {
	if tv, ok := raw["type"]; ok {
		t, isStr := asString(tv)
		if !isStr || !model.IsValidLayoutType(t) {
			c.errorWithDetails("type", CodeInvalidLayoutType,
				fmt.Sprintf("invalid layout type %v", tv), model.ValidLayoutTypes)
		}
	}

	if ev, ok := raw["entityType"]; ok {
		et, isStr := asString(ev)
		if !isStr || !model.IsValidEntityType(et) {
			c.errorWithDetails("entityType", CodeInvalidEntityType,
				fmt.Sprintf("invalid entity type %v", ev), model.ValidEntityTypes)
		}
	}

	sv, ok := raw["structure"]
	if !ok {
		return
	}
	structure, isMap := asMap(sv)
	if !isMap {
		c.errorf("structure", CodeInvalidStructure, "structure must be an object")
		return
	}

	t, _ := stringField(raw, "type")
	switch t {
	case model.LayoutTypeSlots:
		v.slotRules(structure, c)
	case model.LayoutTypeGrid, model.LayoutTypeFlex:
		// Grid and flex structures carry no further constraints here.
	}
}

// slotRules validates the slot list and composition block of a slot-based
// layout.
func (v *Validator) slotRules(structure map[string]any, c *collector) {
	slotsVal, present := structure["slots"]
	if !present {
		c.errorf("structure.slots", CodeInvalidSlots, "slot-based layouts require structure.slots")
		return
	}
	slots, isSlice := asSlice(slotsVal)
	if !isSlice {
		c.errorf("structure.slots", CodeInvalidSlots, "structure.slots must be an array")
		return
	}

	seen := make(map[string]bool)
	declared := make(map[string]bool)
	for i, sv := range slots {
		path := fmt.Sprintf("structure.slots[%d]", i)
		slot, isMap := asMap(sv)
		if !isMap {
			c.errorf(path, CodeInvalidSlot, "slot must be an object")
			continue
		}

		for _, field := range requiredSlotFields {
			if _, ok := slot[field]; !ok {
				c.errorf(path+"."+field, CodeMissingSlotField,
					"slot field %q is missing", field)
			}
		}

		if tv, ok := slot["type"]; ok {
			st, isStr := asString(tv)
			if !isStr || !model.IsValidSlotType(st) {
				c.errorWithDetails(path+".type", CodeInvalidSlotType,
					fmt.Sprintf("invalid slot type %v", tv), model.ValidSlotTypes)
			}
		}

		if id, ok := stringField(slot, "id"); ok {
			declared[id] = true
			if seen[id] {
				c.errorf(path+".id", CodeDuplicateSlotID, "duplicate slot id %q", id)
			}
			seen[id] = true
		}

		if acv, ok := slot["allowedComponents"]; ok {
			if _, isSlice := asSlice(acv); !isSlice {
				c.errorf(path+".allowedComponents", CodeInvalidSlot,
					"allowedComponents must be an array")
			}
		}

		if props, ok := mapField(slot, "props"); ok {
			if tv, ok := props[model.PropVirtualizationThreshold]; ok && !isNumber(tv) {
				c.warnf(path+".props.virtualizationThreshold", CodeInvalidThresholdType,
					"virtualizationThreshold should be a number, got %v", tv)
			}
		}
	}

	compVal, present := structure["composition"]
	if !present {
		return
	}
	comp, ok := asMap(compVal)
	if !ok {
		c.errorf("structure.composition", CodeInvalidComposition, "composition must be an object")
		return
	}

	for _, key := range []string{"requiredSlots", "slotOrder"} {
		val, present := comp[key]
		if !present {
			continue
		}
		items, isSlice := asSlice(val)
		if !isSlice {
			c.errorf("structure.composition."+key, CodeInvalidComposition,
				"composition.%s must be an array", key)
			continue
		}
		for _, item := range stringItems(items) {
			if declared[item] {
				continue
			}
			if key == "requiredSlots" {
				c.errorf("structure.composition.requiredSlots", CodeUnknownRequiredSlot,
					"required slot %q is not declared", item)
			} else if v.opts.Warnings {
				c.warnf("structure.composition.slotOrder", CodeUnknownOrderSlot,
					"slot order references undeclared slot %q", item)
			}
		}
	}
}

// componentRules checks that every component reference resolves against the
// registry. Unresolved names include the currently known registry keys as a
// diagnostic aid.
func (v *Validator) componentRules(raw map[string]any, c *collector) {
	slots := rawSlots(raw)
	if slots == nil {
		return
	}

	var known []string // built lazily; sorted for stable diagnostics
	knownKeys := func() []string {
		if known == nil {
			known = v.components.Keys()
			sort.Strings(known)
		}
		return known
	}

	for i, slot := range slots {
		path := fmt.Sprintf("structure.slots[%d]", i)
		if name, ok := stringField(slot, "defaultComponent"); ok && !v.components.Has(name) {
			c.errorWithDetails(path+".defaultComponent", CodeUnknownComponent,
				fmt.Sprintf("component %q is not registered", name), knownKeys())
		}
		if items, ok := sliceField(slot, "allowedComponents"); ok {
			for _, name := range stringItems(items) {
				if !v.components.Has(name) {
					c.errorWithDetails(path+".allowedComponents", CodeUnknownComponent,
						fmt.Sprintf("component %q is not registered", name), knownKeys())
				}
			}
		}
	}
}

// performanceRules emits advisory tips. Tips never affect validity or score.
func (v *Validator) performanceRules(raw map[string]any, c *collector) {
	slots := rawSlots(raw)
	if slots == nil {
		return
	}

	anyCaching := false
	for i, slot := range slots {
		props, _ := mapField(slot, "props")
		if enabled, ok := asBool(props[model.PropEnableCaching]); ok && enabled {
			anyCaching = true
		}

		slotType, _ := stringField(slot, "type")
		if slotType != "content" {
			continue
		}

		switch mode := props[model.PropEnableVirtualization].(type) {
		case string:
			if mode != "auto" {
				break
			}
			if _, ok := props[model.PropVirtualizationThreshold]; !ok {
				path := fmt.Sprintf("structure.slots[%d].props.%s", i, model.PropVirtualizationThreshold)
				c.tip(TipMissingThreshold,
					"content slot uses auto virtualization without a virtualizationThreshold",
					fmt.Sprintf("set virtualizationThreshold (default %d)", model.DefaultVirtualizationThreshold),
					model.ImpactModerate)
				c.fix(FixAddThreshold, path,
					fmt.Sprintf("set virtualizationThreshold to %d", model.DefaultVirtualizationThreshold))
			}
		case bool:
			if !mode {
				c.tip(TipVirtualizationDisabled,
					"content slot disables virtualization; large row sets will render slowly",
					"set enableVirtualization to \"auto\"",
					model.ImpactSignificant)
			}
		}
	}

	if !anyCaching && len(slots) > 0 {
		c.tip(TipNoCaching,
			"no slot opts into render caching",
			"set enableCaching on stable slots",
			model.ImpactMinor)
	}
}

// responsiveRules requires mobile and desktop behavior on every slot that
// declares a responsive block. Tablet and laptop may be omitted.
func (v *Validator) responsiveRules(raw map[string]any, c *collector) {
	slots := rawSlots(raw)
	for i, slot := range slots {
		responsive, ok := mapField(slot, "responsive")
		if !ok {
			continue
		}
		path := fmt.Sprintf("structure.slots[%d].responsive", i)
		if _, ok := responsive[model.BreakpointMobile]; !ok {
			c.errorf(path, CodeMissingMobile, "responsive slots must define mobile behavior")
		}
		if _, ok := responsive[model.BreakpointDesktop]; !ok {
			c.errorf(path, CodeMissingDesktop, "responsive slots must define desktop behavior")
		}
	}
}

// rawSlots returns the slot maps of a slot-based document, or nil when the
// document is not slot-based or the slots are malformed (already reported by
// the type rules).
func rawSlots(raw map[string]any) []map[string]any {
	if t, _ := stringField(raw, "type"); t != model.LayoutTypeSlots {
		return nil
	}
	structure, ok := mapField(raw, "structure")
	if !ok {
		return nil
	}
	items, ok := sliceField(structure, "slots")
	if !ok {
		return nil
	}
	slots := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := asMap(item); ok {
			slots = append(slots, m)
		} else {
			slots = append(slots, nil)
		}
	}
	return slots
}
