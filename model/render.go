package model

// Virtualization modes for the renderer.
const (
	VirtualizeAuto   = "auto"
	VirtualizeAlways = "always"
	VirtualizeNever  = "never"
)

// Render modes.
const (
	RenderModeDevelopment = "development"
	RenderModeProduction  = "production"
)

// DefaultVirtualizationThreshold is the row count above which a content slot
// switches to virtualized rendering when no explicit threshold is configured.
const DefaultVirtualizationThreshold = 500

// RenderOptions controls one render invocation.
type RenderOptions struct {
	Virtualization              string `json:"enableVirtualization,omitempty"`
	EnableErrorBoundaries       bool   `json:"enableErrorBoundaries"`
	EnablePerformanceMonitoring bool   `json:"enablePerformanceMonitoring"`
	EnableCaching               bool   `json:"enableCaching"`
	StrictValidation            bool   `json:"strictValidation"`
	RenderMode                  string `json:"renderMode,omitempty"`
	MaxRetries                  int    `json:"maxRetries,omitempty"`
}

// DefaultRenderOptions returns the options used when the caller supplies none.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Virtualization:              VirtualizeAuto,
		EnableErrorBoundaries:       true,
		EnablePerformanceMonitoring: true,
		EnableCaching:               true,
		RenderMode:                  RenderModeProduction,
		MaxRetries:                  2,
	}
}

// RenderNode is one node of the resolved component tree handed to the UI
// framework for painting.
type RenderNode struct {
	Component   string         `json:"component"`
	Slot        string         `json:"slot,omitempty"`
	SlotType    string         `json:"slotType,omitempty"`
	Props       map[string]any `json:"props,omitempty"`
	Virtualized bool           `json:"virtualized,omitempty"`
	Error       string         `json:"error,omitempty"`
	Children    []RenderNode   `json:"children,omitempty"`
}

// RenderMetadata carries per-render measurements.
type RenderMetadata struct {
	RenderID        string  `json:"renderId"`
	RenderTimeMS    float64 `json:"renderTimeMs"`
	ComponentCount  int     `json:"componentCount"`
	VirtualizedRows int     `json:"virtualizedRows"`
	CacheHit        bool    `json:"cacheHit"`
}

// RenderResult is the outcome of one render. Failures are reported here as
// data; the renderer never surfaces a raw error to the host.
type RenderResult struct {
	Success  bool            `json:"success"`
	Root     *RenderNode     `json:"root,omitempty"`
	Errors   []string        `json:"errors,omitempty"`
	Metadata *RenderMetadata `json:"metadata,omitempty"`
}

// Empty reports a render that succeeded but produced no components. Hosts
// show a fallback panel for this state rather than a blank page.
func (r RenderResult) Empty() bool {
	return r.Success && (r.Root == nil || len(r.Root.Children) == 0)
}
