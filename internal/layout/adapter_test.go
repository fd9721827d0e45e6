package layout

import (
	"testing"

	"github.com/slatehq/slate/model"
)

func legacyFixture() LegacyTemplate {
	return LegacyTemplate{
		ID:     "org-classic",
		Title:  "Classic Organizations",
		Entity: model.EntityOrganizations,
		Components: map[string]LegacyComponent{
			"header":  {Component: "page-header", Required: true},
			"toolbar": {Component: "action-bar"},
			"body":    {Component: "data-table", Required: true, Props: map[string]any{"pageSize": 25}},
		},
		Order: []string{"header", "toolbar", "body"},
	}
}

func TestFromLegacyTemplate_maps_regions(t *testing.T) {
	cfg := FromLegacyTemplate(legacyFixture())

	if cfg.ID != "org-classic" || cfg.Type != model.LayoutTypeSlots {
		t.Fatalf("cfg = %q type %q", cfg.ID, cfg.Type)
	}
	if cfg.Version != "1.0.0" {
		t.Errorf("version = %q, want default 1.0.0", cfg.Version)
	}
	if len(cfg.Structure.Slots) != 3 {
		t.Fatalf("slots = %d, want 3", len(cfg.Structure.Slots))
	}

	types := map[string]string{}
	for _, slot := range cfg.Structure.Slots {
		types[slot.ID] = slot.Type
	}
	if types["header"] != "header" || types["toolbar"] != "actions" || types["body"] != "content" {
		t.Errorf("slot types = %v", types)
	}
}

func TestFromLegacyTemplate_composition(t *testing.T) {
	cfg := FromLegacyTemplate(legacyFixture())

	comp := cfg.Structure.Composition
	if comp == nil {
		t.Fatal("composition should be set")
	}
	wantOrder := []string{"header", "toolbar", "body"}
	if len(comp.SlotOrder) != len(wantOrder) {
		t.Fatalf("slotOrder = %v", comp.SlotOrder)
	}
	for i, id := range wantOrder {
		if comp.SlotOrder[i] != id {
			t.Errorf("slotOrder[%d] = %q, want %q", i, comp.SlotOrder[i], id)
		}
	}
	if len(comp.RequiredSlots) != 2 {
		t.Errorf("requiredSlots = %v, want header and body", comp.RequiredSlots)
	}
}

func TestFromLegacyTemplate_props_carried(t *testing.T) {
	cfg := FromLegacyTemplate(legacyFixture())
	for _, slot := range cfg.Structure.Slots {
		if slot.ID == "body" {
			if slot.Props["pageSize"] != 25 || slot.DefaultComponent != "data-table" {
				t.Errorf("body slot = %+v", slot)
			}
			return
		}
	}
	t.Fatal("body slot missing")
}

func TestFromLegacyTemplate_unknown_region_becomes_custom(t *testing.T) {
	tmpl := legacyFixture()
	tmpl.Components["ticker"] = LegacyComponent{Component: "metric-tiles"}
	tmpl.Order = append(tmpl.Order, "ticker")

	cfg := FromLegacyTemplate(tmpl)
	last := cfg.Structure.Slots[len(cfg.Structure.Slots)-1]
	if last.ID != "ticker" || last.Type != "custom" {
		t.Errorf("slot = %+v, want custom type", last)
	}
}

func TestFromLegacyTemplate_default_order_skips_absent_regions(t *testing.T) {
	tmpl := legacyFixture()
	tmpl.Order = nil

	cfg := FromLegacyTemplate(tmpl)
	if len(cfg.Structure.Slots) != 3 {
		t.Fatalf("slots = %d, want only the defined regions", len(cfg.Structure.Slots))
	}
	// Canonical region order puts header before body.
	if cfg.Structure.Slots[0].ID != "header" || cfg.Structure.Slots[2].ID != "body" {
		t.Errorf("order = %v", cfg.Structure.Composition.SlotOrder)
	}
}

func TestFromLegacyTemplate_keeps_explicit_version(t *testing.T) {
	tmpl := legacyFixture()
	tmpl.Version = "2.3.0"
	if cfg := FromLegacyTemplate(tmpl); cfg.Version != "2.3.0" {
		t.Errorf("version = %q", cfg.Version)
	}
}
