package layout

import (
	"fmt"

	"github.com/slatehq/slate/model"
)

// LegacyTemplate is the deprecated pre-slot page template shape. It named
// fixed regions and attached a component plus props to each. Kept only so
// existing templates can be migrated; nothing renders it directly.
type LegacyTemplate struct {
	ID         string                     `yaml:"id"         json:"id"`
	Title      string                     `yaml:"title"      json:"title"`
	Entity     string                     `yaml:"entity"     json:"entity"`
	Version    string                     `yaml:"version"    json:"version,omitempty"`
	Components map[string]LegacyComponent `yaml:"components" json:"components"`
	Order      []string                   `yaml:"order"      json:"order,omitempty"`
}

// LegacyComponent is one region binding in a legacy template.
type LegacyComponent struct {
	Component string         `yaml:"component" json:"component"`
	Props     map[string]any `yaml:"props"     json:"props,omitempty"`
	Required  bool           `yaml:"required"  json:"required,omitempty"`
}

// legacySlotTypes maps legacy region names to slot types:
//
//	header  -> header      toolbar -> actions
//	search  -> search      filters -> filters
//	body    -> content     aside   -> sidebar
//	footer  -> footer
//
// Unknown region names map to the custom slot type.
var legacySlotTypes = map[string]string{
	"header":  "header",
	"toolbar": "actions",
	"search":  "search",
	"filters": "filters",
	"body":    "content",
	"aside":   "sidebar",
	"footer":  "footer",
}

// FromLegacyTemplate converts a legacy template into a slot-based layout
// configuration. Pure data transformation; the result still goes through the
// validator like any other configuration.
func FromLegacyTemplate(t LegacyTemplate) model.LayoutConfiguration {
	version := t.Version
	if version == "" {
		version = "1.0.0"
	}

	cfg := model.LayoutConfiguration{
		ID:         t.ID,
		Name:       t.Title,
		Version:    version,
		Type:       model.LayoutTypeSlots,
		EntityType: t.Entity,
		Metadata: model.LayoutMetadata{
			DisplayName: t.Title,
			Description: fmt.Sprintf("Migrated from legacy template %q", t.ID),
			Category:    "migrated",
			Tags:        []string{"legacy"},
		},
	}

	order := t.Order
	if len(order) == 0 {
		// Fall back to the canonical legacy region order.
		order = []string{"header", "toolbar", "search", "filters", "body", "aside", "footer"}
	}

	var slotOrder []string
	var requiredSlots []string
	for _, region := range order {
		lc, ok := t.Components[region]
		if !ok {
			continue
		}

		slotType, known := legacySlotTypes[region]
		if !known {
			slotType = "custom"
		}

		cfg.Structure.Slots = append(cfg.Structure.Slots, model.SlotConfiguration{
			ID:               region,
			Type:             slotType,
			Name:             region,
			Required:         lc.Required,
			Multiple:         false,
			DefaultComponent: lc.Component,
			Props:            lc.Props,
		})
		slotOrder = append(slotOrder, region)
		if lc.Required {
			requiredSlots = append(requiredSlots, region)
		}
	}

	if len(slotOrder) > 0 {
		cfg.Structure.Composition = &model.CompositionConfiguration{
			RequiredSlots: requiredSlots,
			SlotOrder:     slotOrder,
		}
	}

	return cfg
}
