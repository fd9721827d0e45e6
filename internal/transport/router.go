package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/slatehq/slate/internal/component"
	"github.com/slatehq/slate/internal/config"
	"github.com/slatehq/slate/internal/layout"
	"github.com/slatehq/slate/internal/observability"
	"github.com/slatehq/slate/internal/provider"
	"github.com/slatehq/slate/internal/render"
	"github.com/slatehq/slate/internal/schema"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Layouts    *layout.Registry
	Components *component.Registry
	Validator  *schema.Validator
	Renderer   *render.Renderer
	Providers  *provider.Manager
	Health     *observability.Health
	Metrics    *observability.Metrics
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// request middleware chain.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{deps: deps, logger: logger}

	r := chi.NewRouter()

	r.Use(Recovery(logger))
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)

	// Infrastructure routes.
	r.Get("/ui/health", deps.Health.LiveHandler())
	r.Get("/ui/ready", deps.Health.ReadyHandler())
	if deps.Config.Observability.Metrics.Enabled {
		r.Method(http.MethodGet, deps.Config.Observability.Metrics.Path, observability.Handler())
	}

	// API routes.
	r.Group(func(r chi.Router) {
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(logger))
		if deps.Metrics != nil {
			r.Use(deps.Metrics.MetricsMiddleware)
		}

		r.Get("/ui/entities/{entityType}/layouts", h.listEntityLayouts)
		r.Get("/ui/entities/{entityType}/layouts/active", h.activeLayout)
		r.Post("/ui/entities/{entityType}/switch", h.switchLayout)
		r.Get("/ui/layouts", h.listLayouts)
		r.Get("/ui/layouts/{layoutId}", h.getLayout)
		r.Put("/ui/layouts/{layoutId}", h.putLayout)
		r.Post("/ui/layouts/{layoutId}/render", h.renderLayout)
		r.Post("/ui/validate", h.validateLayout)
		r.Get("/ui/components", h.listComponents)
		r.Get("/ui/components/{componentId}", h.getComponent)
	})

	return r
}

// handlers carries the shared dependencies of all route handlers.
type handlers struct {
	deps   Dependencies
	logger *zap.Logger
}
