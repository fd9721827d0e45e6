package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/slatehq/slate/internal/layout"
	"github.com/slatehq/slate/internal/schema"
	"github.com/slatehq/slate/model"
)

// renderRequest is the body of POST /ui/layouts/{layoutId}/render.
type renderRequest struct {
	Data    any                  `json:"data"`
	Options *model.RenderOptions `json:"options"`
}

// renderLayout resolves a layout into a component tree. Render failures are
// reported in the result body with a 200; only caller mistakes get an error
// status.
func (h *handlers) renderLayout(w http.ResponseWriter, r *http.Request) {
	layoutID := chi.URLParam(r, "layoutId")
	cfg, ok := h.deps.Layouts.Get(layoutID)
	if !ok {
		WriteNotFound(w, fmt.Sprintf("layout %q not found", layoutID))
		return
	}

	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, model.NewBadRequestError(fmt.Sprintf("invalid render request: %v", err)))
		return
	}
	opts := model.DefaultRenderOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	result, err := h.deps.Renderer.Render(r.Context(), &cfg, req.Data, opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// validateRequest is the body of POST /ui/validate: either an inline layout
// document or a typed configuration.
type validateRequest struct {
	Layout map[string]any `json:"layout"`
}

// validateLayout runs the full rule set over a submitted document and
// returns the findings. The endpoint never rejects invalid documents with
// an error status; the findings are the payload.
func (h *handlers) validateLayout(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, model.NewBadRequestError(fmt.Sprintf("invalid validate request: %v", err)))
		return
	}
	if req.Layout == nil {
		WriteError(w, model.NewBadRequestError("body must carry a layout document"))
		return
	}

	data, err := json.Marshal(req.Layout)
	if err != nil {
		WriteError(w, model.NewBadRequestError(err.Error()))
		return
	}
	doc := layout.Parse(data, "request-body")
	result := h.deps.Validator.Validate(doc)

	if h.deps.Metrics != nil {
		h.deps.Metrics.RecordValidation(result.Valid, len(result.Errors), len(result.Warnings), result.Score)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"result":  result,
		"summary": schema.Summarize([]model.ValidationResult{result}),
	})
}
