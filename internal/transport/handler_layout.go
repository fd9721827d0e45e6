package transport

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/slatehq/slate/internal/component"
	"github.com/slatehq/slate/internal/layout"
	"github.com/slatehq/slate/internal/observability"
	"github.com/slatehq/slate/model"
)

// listLayouts returns every registered layout configuration.
func (h *handlers) listLayouts(w http.ResponseWriter, r *http.Request) {
	configs := h.deps.Layouts.All()
	WriteJSON(w, http.StatusOK, map[string]any{
		"layouts":  configs,
		"count":    len(configs),
		"checksum": h.deps.Layouts.Checksum(),
	})
}

// getLayout returns one layout by id.
func (h *handlers) getLayout(w http.ResponseWriter, r *http.Request) {
	layoutID := chi.URLParam(r, "layoutId")
	cfg, ok := h.deps.Layouts.Get(layoutID)
	if !ok {
		WriteNotFound(w, fmt.Sprintf("layout %q not found", layoutID))
		return
	}
	WriteJSON(w, http.StatusOK, cfg)
}

// putLayout validates and upserts a layout configuration. The body must be
// valid under the full rule set before it reaches the registry.
func (h *handlers) putLayout(w http.ResponseWriter, r *http.Request) {
	layoutID := chi.URLParam(r, "layoutId")

	var cfg model.LayoutConfiguration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		WriteError(w, model.NewBadRequestError(fmt.Sprintf("invalid layout body: %v", err)))
		return
	}
	if cfg.ID != layoutID {
		WriteError(w, model.NewBadRequestError(
			fmt.Sprintf("body id %q does not match path id %q", cfg.ID, layoutID)))
		return
	}

	doc, err := layout.FromConfig(&cfg)
	if err != nil {
		WriteError(w, model.NewBadRequestError(err.Error()))
		return
	}
	result := h.deps.Validator.Validate(doc)
	if !result.Valid {
		WriteValidationError(w, result.Errors)
		return
	}

	_, existed := h.deps.Layouts.Get(layoutID)
	h.deps.Layouts.Upsert(cfg)
	h.deps.Renderer.InvalidateLayout(layoutID)
	h.deps.Providers.RefreshAll()

	observability.LoggerFrom(r.Context(), h.logger).Info("layout upserted",
		zap.String("layout_id", layoutID),
		zap.Bool("created", !existed))

	status := http.StatusOK
	if !existed {
		status = http.StatusCreated
	}
	WriteJSON(w, status, map[string]any{
		"layout":   cfg,
		"warnings": result.Warnings,
	})
}

// listEntityLayouts returns the layouts available for an entity type.
func (h *handlers) listEntityLayouts(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	if !model.IsValidEntityType(entityType) {
		WriteError(w, model.NewBadRequestError(fmt.Sprintf("unknown entity type %q", entityType)))
		return
	}

	p, err := h.deps.Providers.ForEntity(r.Context(), entityType)
	if err != nil {
		WriteError(w, model.NewNotFoundError(err.Error()))
		return
	}

	response := map[string]any{
		"entityType": entityType,
		"layouts":    p.Available(),
		"state":      p.State(),
	}
	if active, ok := p.Active(); ok {
		response["activeLayout"] = active.ID
	}
	WriteJSON(w, http.StatusOK, response)
}

// activeLayout returns the entity type's currently active layout.
func (h *handlers) activeLayout(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	if !model.IsValidEntityType(entityType) {
		WriteError(w, model.NewBadRequestError(fmt.Sprintf("unknown entity type %q", entityType)))
		return
	}

	p, err := h.deps.Providers.ForEntity(r.Context(), entityType)
	if err != nil {
		WriteError(w, model.NewNotFoundError(err.Error()))
		return
	}
	active, ok := p.Active()
	if !ok {
		WriteNotFound(w, fmt.Sprintf("no active layout for entity type %q", entityType))
		return
	}
	WriteJSON(w, http.StatusOK, active)
}

// switchLayout changes the active layout for an entity type.
func (h *handlers) switchLayout(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	if !model.IsValidEntityType(entityType) {
		WriteError(w, model.NewBadRequestError(fmt.Sprintf("unknown entity type %q", entityType)))
		return
	}

	var body struct {
		LayoutID string `json:"layoutId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.LayoutID == "" {
		WriteError(w, model.NewBadRequestError("body must carry a layoutId"))
		return
	}

	p, err := h.deps.Providers.ForEntity(r.Context(), entityType)
	if err != nil {
		WriteError(w, model.NewNotFoundError(err.Error()))
		return
	}

	cfg, err := p.Switch(r.Context(), body.LayoutID)
	if err != nil {
		if h.deps.Metrics != nil {
			h.deps.Metrics.RecordLayoutSwitch(entityType, "rejected")
		}
		WriteError(w, err)
		return
	}
	if h.deps.Metrics != nil {
		h.deps.Metrics.RecordLayoutSwitch(entityType, "ok")
	}
	WriteJSON(w, http.StatusOK, cfg)
}

// listComponents returns the component catalog, optionally filtered.
func (h *handlers) listComponents(w http.ResponseWriter, r *http.Request) {
	entries := h.deps.Components.List(componentFilterFromQuery(r))
	WriteJSON(w, http.StatusOK, map[string]any{
		"components": entries,
		"count":      len(entries),
	})
}

// getComponent returns one component entry.
func (h *handlers) getComponent(w http.ResponseWriter, r *http.Request) {
	componentID := chi.URLParam(r, "componentId")
	entry, ok := h.deps.Components.Get(componentID)
	if !ok {
		WriteNotFound(w, fmt.Sprintf("component %q not found", componentID))
		return
	}
	WriteJSON(w, http.StatusOK, entry)
}

func componentFilterFromQuery(r *http.Request) component.ListFilter {
	q := r.URL.Query()
	return component.ListFilter{
		Category:   q.Get("category"),
		SlotType:   q.Get("slotType"),
		EntityType: q.Get("entityType"),
	}
}
