// Package component implements the component registry: the authoritative
// name-indexed catalog of renderable components, their prop schemas, and
// their data-binding hooks. Layout validation and rendering both resolve
// component references through it.
package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/slatehq/slate/model"
)

// ListFilter narrows List results. Zero value matches everything.
type ListFilter struct {
	Category   string
	SlotType   string
	EntityType string
}

// Registry is a concurrency-safe component catalog. Registrations normally
// happen at startup (builtins plus an optional manifest); runtime mutation
// is supported for the admin API.
type Registry struct {
	mu         sync.RWMutex
	byID       map[string]*model.ComponentEntry
	byCategory map[string][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:       make(map[string]*model.ComponentEntry),
		byCategory: make(map[string][]string),
	}
}

// Register adds a component. Registering an existing id is a conflict; use
// Update for changes.
func (r *Registry) Register(entry model.ComponentEntry) error {
	if entry.ID == "" {
		return model.NewBadRequestError("component id is required")
	}
	if entry.Name == "" {
		return model.NewBadRequestError("component name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[entry.ID]; exists {
		return model.NewConflictError(fmt.Sprintf("component %q is already registered", entry.ID))
	}
	stored := entry
	r.byID[entry.ID] = &stored
	r.byCategory[entry.Category] = append(r.byCategory[entry.Category], entry.ID)
	return nil
}

// Unregister removes a component by id.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.byID[id]
	if !exists {
		return model.NewNotFoundError(fmt.Sprintf("component %q is not registered", id))
	}
	delete(r.byID, id)
	ids := r.byCategory[entry.Category]
	for i, known := range ids {
		if known == id {
			r.byCategory[entry.Category] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(r.byCategory[entry.Category]) == 0 {
		delete(r.byCategory, entry.Category)
	}
	return nil
}

// Update applies a partial patch to an existing component. Nil patch fields
// leave the current value untouched.
func (r *Registry) Update(id string, patch model.ComponentPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.byID[id]
	if !exists {
		return model.NewNotFoundError(fmt.Sprintf("component %q is not registered", id))
	}

	if patch.Name != nil {
		entry.Name = *patch.Name
	}
	if patch.Description != nil {
		entry.Description = *patch.Description
	}
	if patch.Category != nil && *patch.Category != entry.Category {
		old := entry.Category
		ids := r.byCategory[old]
		for i, known := range ids {
			if known == id {
				r.byCategory[old] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(r.byCategory[old]) == 0 {
			delete(r.byCategory, old)
		}
		entry.Category = *patch.Category
		r.byCategory[entry.Category] = append(r.byCategory[entry.Category], id)
	}
	if patch.SupportedSlots != nil {
		entry.SupportedSlots = patch.SupportedSlots
	}
	if patch.SupportedEntities != nil {
		entry.SupportedEntities = patch.SupportedEntities
	}
	if patch.DefaultProps != nil {
		entry.DefaultProps = patch.DefaultProps
	}
	if patch.PropsSchema != nil {
		entry.PropsSchema = patch.PropsSchema
	}
	return nil
}

// Get returns a copy of the component entry.
func (r *Registry) Get(id string) (model.ComponentEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byID[id]
	if !ok {
		return model.ComponentEntry{}, false
	}
	return *entry, true
}

// Has reports whether a component id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// Keys returns all registered component ids, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.byID))
	for id := range r.byID {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Categories returns all known categories, sorted.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cats := make([]string, 0, len(r.byCategory))
	for c := range r.byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// List returns entries matching the filter, sorted by id.
func (r *Registry) List(filter ListFilter) []model.ComponentEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.ComponentEntry
	for _, entry := range r.byID {
		if filter.Category != "" && entry.Category != filter.Category {
			continue
		}
		if filter.SlotType != "" && !entry.SupportsSlot(filter.SlotType) {
			continue
		}
		if filter.EntityType != "" && !entry.SupportsEntity(filter.EntityType) {
			continue
		}
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resolve looks up a component for rendering in a given context. The
// component must exist and support the slot and entity it is placed into.
// Failures are resolution errors that the renderer turns into error
// boundaries or render failures.
func (r *Registry) Resolve(id string, rctx model.RenderContext) (model.ResolvedComponent, error) {
	r.mu.RLock()
	entry, ok := r.byID[id]
	if !ok {
		r.mu.RUnlock()
		return model.ResolvedComponent{}, model.NewResolutionError(
			fmt.Sprintf("component %q is not registered", id))
	}
	resolved := *entry
	r.mu.RUnlock()

	if rctx.SlotType != "" && !resolved.SupportsSlot(rctx.SlotType) {
		return model.ResolvedComponent{}, model.NewResolutionError(
			fmt.Sprintf("component %q does not support slot type %q", id, rctx.SlotType))
	}
	if rctx.EntityType != "" && !resolved.SupportsEntity(rctx.EntityType) {
		return model.ResolvedComponent{}, model.NewResolutionError(
			fmt.Sprintf("component %q does not support entity type %q", id, rctx.EntityType))
	}

	var props map[string]any
	if len(resolved.DefaultProps) > 0 {
		props = make(map[string]any, len(resolved.DefaultProps))
		for k, v := range resolved.DefaultProps {
			props[k] = v
		}
	}
	return model.ResolvedComponent{Entry: resolved, Props: props}, nil
}

// CheckLayouts verifies at startup that every component referenced by the
// given configurations resolves. Returned issues use the same shape as
// validation findings so callers can report them uniformly.
func (r *Registry) CheckLayouts(configs []model.LayoutConfiguration) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for _, cfg := range configs {
		for _, slot := range cfg.Structure.Slots {
			if slot.DefaultComponent != "" && !r.Has(slot.DefaultComponent) {
				issues = append(issues, model.ValidationIssue{
					Path:     fmt.Sprintf("%s/%s.defaultComponent", cfg.ID, slot.ID),
					Code:     "unknown-component",
					Severity: model.SeverityError,
					Message:  fmt.Sprintf("component %q is not registered", slot.DefaultComponent),
				})
			}
			for _, name := range slot.AllowedComponents {
				if !r.Has(name) {
					issues = append(issues, model.ValidationIssue{
						Path:     fmt.Sprintf("%s/%s.allowedComponents", cfg.ID, slot.ID),
						Code:     "unknown-component",
						Severity: model.SeverityError,
						Message:  fmt.Sprintf("component %q is not registered", name),
					})
				}
			}
		}
	}
	return issues
}
