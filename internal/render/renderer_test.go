package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/slatehq/slate/internal/component"
	"github.com/slatehq/slate/internal/schema"
	"github.com/slatehq/slate/model"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	reg := component.NewRegistry()
	if err := component.RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	return NewRenderer(reg, Options{
		Validator: schema.NewValidator(reg, schema.DefaultOptions()),
	}, zap.NewNop())
}

func listConfig() *model.LayoutConfiguration {
	return &model.LayoutConfiguration{
		ID:         "org-list",
		Name:       "Organization List",
		Version:    "1.0.0",
		Type:       model.LayoutTypeSlots,
		EntityType: model.EntityOrganizations,
		Metadata: model.LayoutMetadata{
			DisplayName: "Organization List",
			Description: "Default list layout",
			Category:    "list",
			Tags:        []string{"default"},
			CreatedAt:   "2025-01-01T00:00:00Z",
		},
		Structure: model.StructureConfiguration{
			Slots: []model.SlotConfiguration{
				{
					ID: "header", Type: "header", Name: "Header",
					DefaultComponent: "page-header",
				},
				{
					ID: "main", Type: "content", Name: "Main", Required: true,
					DefaultComponent: "data-table",
					Props: map[string]any{
						model.PropItemsPath:            "$.data.organizations",
						model.PropEnableVirtualization: "auto",
						model.PropVirtualizationThreshold: 3,
					},
				},
			},
			Composition: &model.CompositionConfiguration{
				RequiredSlots: []string{"main"},
				SlotOrder:     []string{"header", "main"},
			},
		},
	}
}

func orgPayload(rows int) map[string]any {
	items := make([]any, rows)
	for i := range items {
		items[i] = map[string]any{"id": i}
	}
	return map[string]any{"data": map[string]any{"organizations": items}}
}

func TestRender_success(t *testing.T) {
	r := testRenderer(t)
	result, err := r.Render(context.Background(), listConfig(), orgPayload(2), model.DefaultRenderOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("success = false, errors = %v", result.Errors)
	}
	if len(result.Root.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(result.Root.Children))
	}
	// Slot order follows composition.slotOrder.
	if result.Root.Children[0].Component != "page-header" || result.Root.Children[1].Component != "data-table" {
		t.Errorf("order = %s, %s, want page-header then data-table",
			result.Root.Children[0].Component, result.Root.Children[1].Component)
	}
	if result.Metadata == nil || result.Metadata.RenderID == "" {
		t.Error("metadata should carry a render id")
	}
	if result.Metadata.ComponentCount != 3 {
		t.Errorf("componentCount = %d, want 3 (root plus two slots)", result.Metadata.ComponentCount)
	}
}

func TestRender_binds_items(t *testing.T) {
	r := testRenderer(t)
	result, err := r.Render(context.Background(), listConfig(), orgPayload(2), model.DefaultRenderOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	table := result.Root.Children[1]
	items, ok := table.Props[component.PropItems].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("items = %v, want 2 bound rows", table.Props[component.PropItems])
	}
	if _, leaked := table.Props[component.PropData]; leaked {
		t.Error("raw payload must not reach the client tree")
	}
}

func TestRender_auto_virtualization_threshold(t *testing.T) {
	r := testRenderer(t)

	small, _ := r.Render(context.Background(), listConfig(), orgPayload(2), model.DefaultRenderOptions())
	if small.Root.Children[1].Virtualized {
		t.Error("2 rows under threshold 3 should not virtualize")
	}
	if small.Metadata.VirtualizedRows != 0 {
		t.Errorf("virtualizedRows = %d, want 0", small.Metadata.VirtualizedRows)
	}

	large, _ := r.Render(context.Background(), listConfig(), orgPayload(10), model.DefaultRenderOptions())
	if !large.Root.Children[1].Virtualized {
		t.Error("10 rows over threshold 3 should virtualize")
	}
	if large.Metadata.VirtualizedRows != 10 {
		t.Errorf("virtualizedRows = %d, want 10", large.Metadata.VirtualizedRows)
	}
}

func TestRender_auto_virtualization_default_threshold(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	// No virtualization props on the slot: auto mode falls back to the
	// renderer default of 500 rows.
	cfg.Structure.Slots[1].Props = map[string]any{
		model.PropItemsPath: "$.data.organizations",
	}

	opts := model.DefaultRenderOptions()
	opts.EnableCaching = false
	under, _ := r.Render(context.Background(), cfg, orgPayload(500), opts)
	if under.Root.Children[1].Virtualized {
		t.Error("500 rows at the default threshold should not virtualize")
	}
	over, _ := r.Render(context.Background(), cfg, orgPayload(1000), opts)
	if !over.Root.Children[1].Virtualized {
		t.Error("1000 rows over the default threshold of 500 should virtualize")
	}
}

func TestRender_component_defaults_feed_virtualization(t *testing.T) {
	reg := component.NewRegistry()
	if err := component.RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	// The component carries the threshold; the slot declares nothing.
	if err := reg.Update("data-table", model.ComponentPatch{
		DefaultProps: map[string]any{
			model.PropEnableVirtualization:    "auto",
			model.PropVirtualizationThreshold: 3,
		},
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	r := NewRenderer(reg, Options{}, zap.NewNop())

	cfg := listConfig()
	cfg.Structure.Slots[1].Props = map[string]any{
		model.PropItemsPath: "$.data.organizations",
	}
	opts := model.DefaultRenderOptions()
	opts.EnableCaching = false
	result, err := r.Render(context.Background(), cfg, orgPayload(10), opts)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !result.Root.Children[1].Virtualized {
		t.Error("the component's default threshold of 3 should apply to 10 rows")
	}
}

func TestRender_request_option_overrides_slot(t *testing.T) {
	r := testRenderer(t)

	opts := model.DefaultRenderOptions()
	opts.Virtualization = model.VirtualizeNever
	result, _ := r.Render(context.Background(), listConfig(), orgPayload(10), opts)
	if result.Root.Children[1].Virtualized {
		t.Error("never should override the slot's auto mode")
	}

	opts.Virtualization = model.VirtualizeAlways
	result, _ = r.Render(context.Background(), listConfig(), orgPayload(1), opts)
	if !result.Root.Children[1].Virtualized {
		t.Error("always should override the slot's auto mode")
	}
}

func TestRender_error_boundary_for_optional_slot(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	// footer-summary does not support header slots, so resolution fails.
	cfg.Structure.Slots[0].DefaultComponent = "footer-summary"

	result, err := r.Render(context.Background(), cfg, orgPayload(1), model.DefaultRenderOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !result.Success {
		t.Fatal("optional slot failure should not fail the render")
	}
	boundary := result.Root.Children[0]
	if boundary.Component != "error-boundary" || boundary.Slot != "header" {
		t.Errorf("node = %+v, want an error boundary in the header slot", boundary)
	}
	if boundary.Error == "" {
		t.Error("boundary should carry a message")
	}
}

func TestRender_production_mode_hides_error_detail(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	cfg.Structure.Slots[0].DefaultComponent = "footer-summary"

	opts := model.DefaultRenderOptions()
	opts.RenderMode = model.RenderModeDevelopment
	dev, _ := r.Render(context.Background(), cfg, nil, opts)

	opts.RenderMode = model.RenderModeProduction
	prod, _ := r.Render(context.Background(), cfg, nil, opts)

	if dev.Root.Children[0].Error == prod.Root.Children[0].Error {
		t.Error("development and production boundary messages should differ")
	}
}

func TestRender_invalid_props_fail_required_slot(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	cfg.Structure.Slots[1].Props = map[string]any{"pageSize": 0}

	result, err := r.Render(context.Background(), cfg, nil, model.DefaultRenderOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if result.Success {
		t.Fatal("a schema-violating prop set on a required slot must fail the render")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "data-table") {
		t.Errorf("errors = %v, want the offending component named", result.Errors)
	}
}

func TestRender_invalid_props_become_boundary_on_optional_slot(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	// A wrongly typed title on the optional header slot.
	cfg.Structure.Slots[0].Props = map[string]any{"title": 42}

	result, err := r.Render(context.Background(), cfg, orgPayload(1), model.DefaultRenderOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("optional slot prop violation should not fail the render: %v", result.Errors)
	}
	boundary := result.Root.Children[0]
	if boundary.Component != "error-boundary" || boundary.Slot != "header" {
		t.Errorf("node = %+v, want an error boundary in the header slot", boundary)
	}
}

func TestRender_required_slot_failure_fails_render(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	cfg.Structure.Slots[1].DefaultComponent = "ghost-component"

	result, err := r.Render(context.Background(), cfg, nil, model.DefaultRenderOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if result.Success {
		t.Fatal("required slot failure must fail the render")
	}
	if result.Root != nil {
		t.Error("failed render should carry no partial tree")
	}
	if len(result.Errors) == 0 {
		t.Error("failure must carry messages")
	}
}

func TestRender_missing_required_slot_declaration(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	cfg.Structure.Composition.RequiredSlots = []string{"main", "ghost"}

	result, err := r.Render(context.Background(), cfg, nil, model.DefaultRenderOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if result.Success {
		t.Error("undeclared required slot must fail the render")
	}
}

func TestRender_empty_tree_is_fallback_state(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	cfg.Structure.Slots[0].DefaultComponent = ""
	cfg.Structure.Slots[1].DefaultComponent = ""
	cfg.Structure.Slots[1].Required = false

	result, err := r.Render(context.Background(), cfg, nil, model.DefaultRenderOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !result.Success {
		t.Fatal("a layout with no component bindings still renders successfully")
	}
	if !result.Empty() {
		t.Error("result should report the empty fallback state")
	}
}

func TestRender_strict_validation_rejects_invalid(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	cfg.Version = "not-semver"

	opts := model.DefaultRenderOptions()
	opts.StrictValidation = true
	result, err := r.Render(context.Background(), cfg, nil, opts)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if result.Success {
		t.Error("strict mode must reject an invalid configuration")
	}
	if len(result.Errors) == 0 {
		t.Error("rejection should explain itself")
	}
}

func TestRender_cache_hit(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	payload := orgPayload(2)
	opts := model.DefaultRenderOptions()

	first, _ := r.Render(context.Background(), cfg, payload, opts)
	second, _ := r.Render(context.Background(), cfg, payload, opts)

	if first.Metadata.CacheHit {
		t.Error("first render should be a miss")
	}
	if !second.Metadata.CacheHit {
		t.Error("second render should be a hit")
	}
	if first.Metadata.RenderID == second.Metadata.RenderID {
		t.Error("each render keeps its own id even when served from cache")
	}
}

func TestRender_cache_varies_by_payload_and_version(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	opts := model.DefaultRenderOptions()

	r.Render(context.Background(), cfg, orgPayload(1), opts)
	other, _ := r.Render(context.Background(), cfg, orgPayload(2), opts)
	if other.Metadata.CacheHit {
		t.Error("different payload must miss")
	}

	cfg.Version = "1.0.1"
	bumped, _ := r.Render(context.Background(), cfg, orgPayload(1), opts)
	if bumped.Metadata.CacheHit {
		t.Error("version bump must miss")
	}
}

func TestRender_cache_varies_by_render_mode(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	// An optional failing slot keeps the render successful and cacheable
	// while producing a mode-dependent boundary message.
	cfg.Structure.Slots[0].DefaultComponent = "footer-summary"

	opts := model.DefaultRenderOptions()
	opts.RenderMode = model.RenderModeDevelopment
	dev, _ := r.Render(context.Background(), cfg, nil, opts)

	opts.RenderMode = model.RenderModeProduction
	prod, _ := r.Render(context.Background(), cfg, nil, opts)

	if prod.Metadata.CacheHit {
		t.Fatal("a production render must not be served from a development cache entry")
	}
	if prod.Root.Children[0].Error == dev.Root.Children[0].Error {
		t.Error("the cached development boundary detail leaked into production")
	}
}

type captureMetrics struct {
	renders int
	hits    int
	misses  int
}

func (m *captureMetrics) ObserveRender(string, time.Duration, bool) { m.renders++ }

func (m *captureMetrics) ObserveCache(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func TestRender_performance_monitoring_toggle(t *testing.T) {
	reg := component.NewRegistry()
	if err := component.RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	metrics := &captureMetrics{}
	r := NewRenderer(reg, Options{Metrics: metrics}, zap.NewNop())

	opts := model.DefaultRenderOptions()
	opts.EnableCaching = false
	opts.EnablePerformanceMonitoring = false
	off, err := r.Render(context.Background(), listConfig(), orgPayload(1), opts)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if metrics.renders != 0 {
		t.Error("monitoring off: no render duration should be observed")
	}
	if off.Metadata.RenderTimeMS != 0 {
		t.Error("monitoring off: metadata should not carry a render time")
	}

	opts.EnablePerformanceMonitoring = true
	if _, err := r.Render(context.Background(), listConfig(), orgPayload(1), opts); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if metrics.renders != 1 {
		t.Errorf("monitoring on: renders observed = %d, want 1", metrics.renders)
	}
}

func TestRender_invalidate_layout(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	opts := model.DefaultRenderOptions()

	r.Render(context.Background(), cfg, nil, opts)
	r.InvalidateLayout(cfg.ID)
	again, _ := r.Render(context.Background(), cfg, nil, opts)
	if again.Metadata.CacheHit {
		t.Error("invalidation should force a fresh render")
	}
}

func TestRender_context_cancellation(t *testing.T) {
	r := testRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := model.DefaultRenderOptions()
	opts.EnableCaching = false
	if _, err := r.Render(ctx, listConfig(), nil, opts); err == nil {
		t.Error("canceled context should surface as an error")
	}
}

func TestRender_nil_configuration(t *testing.T) {
	r := testRenderer(t)
	if _, err := r.Render(context.Background(), nil, nil, model.DefaultRenderOptions()); err == nil {
		t.Error("nil configuration is a caller error")
	}
}

func TestRender_non_slot_layout_rejected(t *testing.T) {
	r := testRenderer(t)
	cfg := listConfig()
	cfg.Type = model.LayoutTypeGrid
	cfg.Structure = model.StructureConfiguration{Grid: &model.GridConfiguration{Columns: 12}}

	opts := model.DefaultRenderOptions()
	opts.EnableCaching = false
	_, err := r.Render(context.Background(), cfg, nil, opts)
	var envelope *model.ErrorEnvelope
	if !errors.As(err, &envelope) || envelope.Code != model.ErrRenderFailed {
		t.Errorf("error = %v, want a render failure for non-slot layouts", err)
	}
}

func TestResultCache_expiry(t *testing.T) {
	c := newResultCache(10*time.Millisecond, 4)
	c.put("k", model.RenderResult{Success: true})
	if _, hit := c.get("k"); !hit {
		t.Fatal("fresh entry should hit")
	}
	time.Sleep(20 * time.Millisecond)
	if _, hit := c.get("k"); hit {
		t.Error("expired entry should miss")
	}
}
