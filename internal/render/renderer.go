// Package render resolves a layout configuration plus a data payload into a
// component tree the UI framework can paint. Rendering never panics the
// host: slot failures become error boundary nodes, whole-render failures
// become an unsuccessful result with messages, and an empty tree is a
// distinct fallback state.
package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slatehq/slate/internal/component"
	"github.com/slatehq/slate/internal/layout"
	"github.com/slatehq/slate/model"
)

// ConfigValidator re-checks a configuration before a strict render. The
// schema validator satisfies it.
type ConfigValidator interface {
	Validate(doc layout.Document) model.ValidationResult
}

// Metrics receives render measurements. The observability package provides
// the production implementation; a nil Metrics is a no-op.
type Metrics interface {
	ObserveRender(layoutID string, duration time.Duration, success bool)
	ObserveCache(hit bool)
}

// Options configures a Renderer instance, as opposed to model.RenderOptions
// which travels with each request.
type Options struct {
	CacheTTL                time.Duration
	CacheMaxEntries         int
	VirtualizationThreshold int
	Validator               ConfigValidator
	Metrics                 Metrics
}

// Renderer turns layout configurations into render trees.
type Renderer struct {
	components *component.Registry
	validator  ConfigValidator
	metrics    Metrics
	cache      *resultCache
	threshold  int
	logger     *zap.Logger
}

// NewRenderer creates a Renderer backed by the given component registry.
func NewRenderer(components *component.Registry, opts Options, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := opts.VirtualizationThreshold
	if threshold <= 0 {
		threshold = model.DefaultVirtualizationThreshold
	}
	return &Renderer{
		components: components,
		validator:  opts.Validator,
		metrics:    opts.Metrics,
		cache:      newResultCache(opts.CacheTTL, opts.CacheMaxEntries),
		threshold:  threshold,
		logger:     logger,
	}
}

// InvalidateLayout drops cached renders of a layout. Called on layout
// updates and hot reloads.
func (r *Renderer) InvalidateLayout(layoutID string) {
	r.cache.invalidateLayout(layoutID)
}

// ClearCache drops every cached render. Used on full registry swaps.
func (r *Renderer) ClearCache() {
	r.cache.purge()
}

// Render resolves the configuration into a component tree. The returned
// result is always usable; err is non-nil only for caller mistakes (nil
// configuration, canceled context).
func (r *Renderer) Render(
	ctx context.Context,
	cfg *model.LayoutConfiguration,
	data any,
	opts model.RenderOptions,
) (model.RenderResult, error) {
	if cfg == nil {
		return model.RenderResult{}, model.NewBadRequestError("no layout configuration to render")
	}
	start := time.Now()
	renderID := uuid.NewString()
	log := r.logger.With(zap.String("layout_id", cfg.ID), zap.String("render_id", renderID))

	if opts.EnableCaching {
		key := cacheKey(cfg, data, opts)
		if cached, hit := r.cache.get(key); hit {
			r.observeCache(true)
			meta := *cached.Metadata
			meta.RenderID = renderID
			meta.CacheHit = true
			cached.Metadata = &meta
			log.Debug("render served from cache")
			return cached, nil
		}
		r.observeCache(false)
	}

	if opts.StrictValidation && r.validator != nil {
		doc, err := layout.FromConfig(cfg)
		if err != nil {
			return r.failure(cfg, start, renderID, opts, []string{fmt.Sprintf("configuration not serializable: %v", err)}), nil
		}
		if vr := r.validator.Validate(doc); !vr.Valid {
			msgs := make([]string, 0, len(vr.Errors))
			for _, issue := range vr.Errors {
				msgs = append(msgs, fmt.Sprintf("%s: %s", issue.Path, issue.Message))
			}
			log.Warn("strict validation rejected layout", zap.Int("errors", len(msgs)))
			return r.failure(cfg, start, renderID, opts, msgs), nil
		}
	}

	result, err := r.renderTree(ctx, cfg, data, opts, log)
	if err != nil {
		return model.RenderResult{}, err
	}

	meta := model.RenderMetadata{
		RenderID:        renderID,
		ComponentCount:  countComponents(result.Root),
		VirtualizedRows: result.virtualizedRows,
	}
	if opts.EnablePerformanceMonitoring {
		meta.RenderTimeMS = float64(time.Since(start).Microseconds()) / 1000
	}
	out := model.RenderResult{
		Success:  result.success,
		Root:     result.Root,
		Errors:   result.errors,
		Metadata: &meta,
	}

	if opts.EnableCaching && out.Success {
		r.cache.put(cacheKey(cfg, data, opts), out)
	}
	if r.metrics != nil && opts.EnablePerformanceMonitoring {
		r.metrics.ObserveRender(cfg.ID, time.Since(start), out.Success)
	}
	if out.Empty() {
		log.Info("render produced no components, host shows fallback")
	}
	return out, nil
}

type treeResult struct {
	Root            *model.RenderNode
	success         bool
	errors          []string
	virtualizedRows int
}

// renderTree walks the slot list in composition order, resolving and binding
// each slot's component. Context cancellation is honored between slots.
func (r *Renderer) renderTree(
	ctx context.Context,
	cfg *model.LayoutConfiguration,
	data any,
	opts model.RenderOptions,
	log *zap.Logger,
) (treeResult, error) {
	if cfg.Type != model.LayoutTypeSlots {
		return treeResult{}, model.NewRenderFailedError(
			fmt.Sprintf("layout type %q is not renderable, only slot-based layouts are", cfg.Type))
	}

	slots := orderedSlots(&cfg.Structure)

	if missing := missingRequiredSlots(&cfg.Structure); len(missing) > 0 {
		msgs := make([]string, 0, len(missing))
		for _, id := range missing {
			msgs = append(msgs, fmt.Sprintf("required slot %q is not declared", id))
		}
		return treeResult{errors: msgs}, nil
	}

	root := &model.RenderNode{Component: "layout-root", Props: map[string]any{"layoutId": cfg.ID}}
	result := treeResult{Root: root, success: true}

	for _, slot := range slots {
		if err := ctx.Err(); err != nil {
			return treeResult{}, err
		}

		if slot.DefaultComponent == "" {
			continue
		}

		node, rows, renderErr := r.renderSlot(cfg, slot, data, opts)
		if renderErr != nil {
			log.Warn("slot render failed",
				zap.String("slot", slot.ID), zap.Error(renderErr))
			if slot.Required || !opts.EnableErrorBoundaries {
				result.success = false
				result.errors = append(result.errors,
					fmt.Sprintf("slot %q: %v", slot.ID, renderErr))
				continue
			}
			root.Children = append(root.Children, boundaryNode(slot, renderErr, opts))
			continue
		}
		result.virtualizedRows += rows
		root.Children = append(root.Children, node)
	}

	if !result.success {
		result.Root = nil
	}
	return result, nil
}

// renderSlot resolves one slot to a node. Resolution is retried up to
// MaxRetries extra attempts.
func (r *Renderer) renderSlot(
	cfg *model.LayoutConfiguration,
	slot model.SlotConfiguration,
	data any,
	opts model.RenderOptions,
) (model.RenderNode, int, error) {
	rctx := model.RenderContext{
		EntityType: cfg.EntityType,
		SlotID:     slot.ID,
		SlotType:   slot.Type,
		RenderMode: opts.RenderMode,
	}

	var resolved model.ResolvedComponent
	var err error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		resolved, err = r.components.Resolve(slot.DefaultComponent, rctx)
		if err == nil {
			break
		}
	}
	if err != nil {
		return model.RenderNode{}, 0, err
	}
	entry := resolved.Entry

	merged := component.MergeProps(resolved.Props, slot.Props)
	if pv, pvErr := r.components.ValidateProps(entry.ID, merged); pvErr != nil {
		return model.RenderNode{}, 0, pvErr
	} else if !pv.Valid {
		return model.RenderNode{}, 0, model.NewRenderFailedError(
			fmt.Sprintf("props rejected by the %q schema: %s",
				entry.ID, strings.Join(pv.Errors, "; ")))
	}

	props := merged
	if data != nil {
		props[component.PropData] = data
	}
	if entry.Bind != nil {
		bound, bindErr := entry.Bind(rctx, props)
		if bindErr != nil {
			return model.RenderNode{}, 0, bindErr
		}
		props = bound
	} else {
		delete(props, component.PropData)
	}

	rows := 0
	if items, ok := props[component.PropItems].([]any); ok {
		rows = len(items)
	}
	virtualized := r.shouldVirtualize(merged, opts, rows)

	return model.RenderNode{
		Component:   entry.ID,
		Slot:        slot.ID,
		SlotType:    slot.Type,
		Props:       props,
		Virtualized: virtualized,
	}, virtualizedRowCount(virtualized, rows), nil
}

// shouldVirtualize decides per slot over the merged prop set. The
// request-level option wins when it forces a mode; a prop-level "true" or
// "false" decides next; otherwise auto mode compares the bound row count
// against the configured threshold, falling back to the renderer default.
func (r *Renderer) shouldVirtualize(props map[string]any, opts model.RenderOptions, rows int) bool {
	switch opts.Virtualization {
	case model.VirtualizeAlways:
		return true
	case model.VirtualizeNever:
		return false
	}

	switch model.VirtualizationModeFrom(props) {
	case "true":
		return true
	case "false":
		return false
	}

	threshold := r.threshold
	if t, ok := model.VirtualizationThresholdFrom(props); ok {
		threshold = t
	}
	return rows > threshold
}

func virtualizedRowCount(virtualized bool, rows int) int {
	if virtualized {
		return rows
	}
	return 0
}

// boundaryNode wraps a slot failure so the rest of the page still paints.
// Production mode hides the underlying message from the client.
func boundaryNode(slot model.SlotConfiguration, err error, opts model.RenderOptions) model.RenderNode {
	msg := "component failed to render"
	if opts.RenderMode == model.RenderModeDevelopment {
		msg = err.Error()
	}
	return model.RenderNode{
		Component: "error-boundary",
		Slot:      slot.ID,
		SlotType:  slot.Type,
		Error:     msg,
	}
}

func (r *Renderer) failure(cfg *model.LayoutConfiguration, start time.Time, renderID string, opts model.RenderOptions, errs []string) model.RenderResult {
	if r.metrics != nil && opts.EnablePerformanceMonitoring {
		r.metrics.ObserveRender(cfg.ID, time.Since(start), false)
	}
	meta := model.RenderMetadata{RenderID: renderID}
	if opts.EnablePerformanceMonitoring {
		meta.RenderTimeMS = float64(time.Since(start).Microseconds()) / 1000
	}
	return model.RenderResult{
		Success:  false,
		Errors:   errs,
		Metadata: &meta,
	}
}

func (r *Renderer) observeCache(hit bool) {
	if r.metrics != nil {
		r.metrics.ObserveCache(hit)
	}
}

// orderedSlots returns the slots in composition order. Slots named by
// slotOrder come first in that order; declared slots it does not mention
// follow in declaration order. Unknown names in slotOrder are skipped, the
// validator already warns about them.
func orderedSlots(structure *model.StructureConfiguration) []model.SlotConfiguration {
	byID := make(map[string]model.SlotConfiguration, len(structure.Slots))
	for _, slot := range structure.Slots {
		byID[slot.ID] = slot
	}

	var order []string
	if structure.Composition != nil {
		order = structure.Composition.SlotOrder
	}
	if len(order) == 0 {
		return structure.Slots
	}

	placed := make(map[string]bool, len(order))
	out := make([]model.SlotConfiguration, 0, len(structure.Slots))
	for _, id := range order {
		if slot, ok := byID[id]; ok && !placed[id] {
			out = append(out, slot)
			placed[id] = true
		}
	}
	for _, slot := range structure.Slots {
		if !placed[slot.ID] {
			out = append(out, slot)
		}
	}
	return out
}

// missingRequiredSlots lists composition.requiredSlots ids with no matching
// declared slot.
func missingRequiredSlots(structure *model.StructureConfiguration) []string {
	if structure.Composition == nil {
		return nil
	}
	declared := make(map[string]bool, len(structure.Slots))
	for _, slot := range structure.Slots {
		declared[slot.ID] = true
	}
	var missing []string
	for _, id := range structure.Composition.RequiredSlots {
		if !declared[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func countComponents(root *model.RenderNode) int {
	if root == nil {
		return 0
	}
	n := 1
	for i := range root.Children {
		n += countComponents(&root.Children[i])
	}
	return n
}
