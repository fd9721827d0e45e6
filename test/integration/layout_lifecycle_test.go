package integration

import (
	"net/http"
	"testing"

	"github.com/slatehq/slate/model"
)

func TestLayoutLifecycle_switch_persists_across_restart(t *testing.T) {
	h := NewTestHarness(t)

	var listing struct {
		ActiveLayout string `json:"activeLayout"`
		State        string `json:"state"`
	}
	resp := h.GET("/ui/entities/organizations/layouts")
	h.AssertStatus(t, resp, http.StatusOK)
	h.ParseJSON(resp, &listing)
	if listing.ActiveLayout != "org-list" || listing.State != "ready" {
		t.Fatalf("initial listing = %+v, want org-list active", listing)
	}

	resp = h.POST("/ui/entities/organizations/switch", map[string]string{"layoutId": "org-kanban"})
	h.AssertStatus(t, resp, http.StatusOK)

	resp = h.GET("/ui/entities/organizations/layouts/active")
	h.AssertStatus(t, resp, http.StatusOK)
	var active model.LayoutConfiguration
	h.ParseJSON(resp, &active)
	if active.ID != "org-kanban" {
		t.Fatalf("active = %q, want org-kanban", active.ID)
	}

	// A fresh instance sharing the store picks up the persisted choice.
	restarted := NewTestHarness(t, WithStore(h.Store))
	resp = restarted.GET("/ui/entities/organizations/layouts/active")
	restarted.AssertStatus(t, resp, http.StatusOK)
	restarted.ParseJSON(resp, &active)
	if active.ID != "org-kanban" {
		t.Errorf("active after restart = %q, want persisted org-kanban", active.ID)
	}
}

func TestLayoutLifecycle_unknown_switch_keeps_active(t *testing.T) {
	h := NewTestHarness(t)

	resp := h.POST("/ui/entities/organizations/switch", map[string]string{"layoutId": "org-ghost"})
	h.AssertStatus(t, resp, http.StatusNotFound)

	resp = h.GET("/ui/entities/organizations/layouts/active")
	h.AssertStatus(t, resp, http.StatusOK)
	var active model.LayoutConfiguration
	h.ParseJSON(resp, &active)
	if active.ID != "org-list" {
		t.Errorf("active = %q, want unchanged org-list", active.ID)
	}
}

func TestLayoutLifecycle_entities_are_independent(t *testing.T) {
	h := NewTestHarness(t)

	resp := h.POST("/ui/entities/organizations/switch", map[string]string{"layoutId": "org-kanban"})
	h.AssertStatus(t, resp, http.StatusOK)

	resp = h.GET("/ui/entities/contacts/layouts/active")
	h.AssertStatus(t, resp, http.StatusOK)
	var active model.LayoutConfiguration
	h.ParseJSON(resp, &active)
	if active.ID != "contact-list" {
		t.Errorf("contacts active = %q, want contact-list", active.ID)
	}
}

func TestPutLayout_then_render(t *testing.T) {
	h := NewTestHarness(t)

	doc := layoutFixture("org-table")
	resp := h.PUT("/ui/layouts/org-table", doc)
	h.AssertStatus(t, resp, http.StatusCreated)

	// The new layout is immediately available for its entity type.
	var listing struct {
		Layouts []model.LayoutConfiguration `json:"layouts"`
	}
	resp = h.GET("/ui/entities/organizations/layouts")
	h.AssertStatus(t, resp, http.StatusOK)
	h.ParseJSON(resp, &listing)
	if len(listing.Layouts) != 3 {
		t.Fatalf("layouts = %d, want 3 after upsert", len(listing.Layouts))
	}

	resp = h.POST("/ui/layouts/org-table/render", map[string]any{
		"data": map[string]any{"rows": []any{
			map[string]any{"name": "Acme"},
			map[string]any{"name": "Globex"},
		}},
	})
	h.AssertStatus(t, resp, http.StatusOK)

	var result model.RenderResult
	h.ParseJSON(resp, &result)
	if !result.Success {
		t.Fatalf("render failed: %v", result.Errors)
	}
	if len(result.Root.Children) != 2 {
		t.Fatalf("children = %d, want header and main", len(result.Root.Children))
	}
	main := result.Root.Children[1]
	if main.Component != "data-table" {
		t.Errorf("main component = %q", main.Component)
	}
	items, ok := main.Props["items"].([]any)
	if !ok || len(items) != 2 {
		t.Errorf("items = %v, want the two bound rows", main.Props["items"])
	}
}

func TestPutLayout_invalid_is_rejected(t *testing.T) {
	h := NewTestHarness(t)

	doc := layoutFixture("org-bad")
	doc["version"] = "not-semver"
	resp := h.PUT("/ui/layouts/org-bad", doc)
	h.AssertStatus(t, resp, http.StatusUnprocessableEntity)

	resp = h.GET("/ui/layouts/org-bad")
	h.AssertStatus(t, resp, http.StatusNotFound)
}

func TestValidate_endpoint_reports_findings(t *testing.T) {
	h := NewTestHarness(t)

	doc := layoutFixture("org-check")
	doc["entityType"] = "martians"
	resp := h.POST("/ui/validate", map[string]any{"layout": doc})
	h.AssertStatus(t, resp, http.StatusOK)

	var body struct {
		Result  model.ValidationResult  `json:"result"`
		Summary model.ValidationSummary `json:"summary"`
	}
	h.ParseJSON(resp, &body)
	if body.Result.Valid {
		t.Fatal("unknown entity type should be invalid")
	}
	if body.Summary.InvalidSchemas != 1 {
		t.Errorf("summary invalid = %d, want 1", body.Summary.InvalidSchemas)
	}
}

func TestStartup_invalid_fixture_is_skipped(t *testing.T) {
	h := NewTestHarness(t,
		WithLayoutYAML("good.yaml", orgLayoutYAML("org-list", "default")),
		WithLayoutYAML("broken.yaml", "id: [unclosed"),
	)

	var listing struct {
		Count int `json:"count"`
	}
	resp := h.GET("/ui/layouts")
	h.AssertStatus(t, resp, http.StatusOK)
	h.ParseJSON(resp, &listing)
	if listing.Count != 1 {
		t.Errorf("count = %d, want only the valid layout", listing.Count)
	}
}

// layoutFixture builds a valid organizations layout document as the JSON
// shape the API accepts.
func layoutFixture(id string) map[string]any {
	return map[string]any{
		"id":         id,
		"name":       id,
		"version":    "1.0.0",
		"type":       "slots",
		"entityType": "organizations",
		"metadata": map[string]any{
			"displayName": id,
			"description": "fixture",
			"category":    "list",
			"tags":        []string{"test"},
			"createdAt":   "2025-01-01T00:00:00Z",
		},
		"structure": map[string]any{
			"slots": []any{
				map[string]any{
					"id": "header", "type": "header", "name": "Header",
					"required": false, "multiple": false,
					"defaultComponent": "page-header",
				},
				map[string]any{
					"id": "main", "type": "content", "name": "Main",
					"required": true, "multiple": false,
					"defaultComponent": "data-table",
					"props":            map[string]any{"itemsPath": "$.rows"},
				},
			},
			"composition": map[string]any{
				"requiredSlots": []string{"main"},
				"slotOrder":     []string{"header", "main"},
			},
		},
		"persistChanges": true,
	}
}
