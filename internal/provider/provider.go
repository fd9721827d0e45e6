package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/slatehq/slate/internal/layout"
	"github.com/slatehq/slate/model"
)

// State is the lifecycle phase of a Provider.
type State string

// Provider states. Error is reached only when the available layout set
// cannot be computed; persistence failures degrade to defaults instead.
const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateError         State = "error"
)

// StateMetrics receives provider lifecycle transitions. The observability
// Metrics type satisfies it; a nil sink is a no-op.
type StateMetrics interface {
	SetProviderState(entityType string, state float64)
}

// GaugeValue maps a state to its slate_provider_state gauge value.
func (s State) GaugeValue() float64 {
	switch s {
	case StateLoading:
		return 1
	case StateReady:
		return 2
	case StateError:
		return 3
	default:
		return 0
	}
}

// persistedChoice is the JSON value stored per entity type.
type persistedChoice struct {
	LayoutID  string `json:"layoutId"`
	UpdatedAt string `json:"updatedAt"`
}

// Provider tracks the active layout for one entity type. All methods are
// safe for concurrent use; the single mutex mirrors the single-threaded
// context it models.
type Provider struct {
	entityType string
	registry   *layout.Registry
	store      Store
	logger     *zap.Logger

	mu        sync.Mutex
	state     State
	metrics   StateMetrics
	active    *model.LayoutConfiguration
	available []model.LayoutConfiguration
	lastErr   error
}

// NewProvider creates an uninitialized Provider for one entity type.
func NewProvider(entityType string, registry *layout.Registry, store Store, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		entityType: entityType,
		registry:   registry,
		store:      store,
		logger:     logger.With(zap.String("entity_type", entityType)),
		state:      StateUninitialized,
	}
}

// SetMetrics attaches a state gauge sink and reports the current state.
func (p *Provider) SetMetrics(m StateMetrics) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = m
	if m != nil {
		m.SetProviderState(p.entityType, p.state.GaugeValue())
	}
}

// setState records a lifecycle transition and reports it to the metrics
// sink. Must be called with mu held.
func (p *Provider) setState(s State) {
	p.state = s
	if p.metrics != nil {
		p.metrics.SetProviderState(p.entityType, s.GaugeValue())
	}
}

// Init computes the available layouts and selects the active one, in
// priority order: the persisted choice, then a layout tagged "default",
// then the first available. A missing or unreadable persisted choice falls
// through to the defaults; an empty available set is the error state.
func (p *Provider) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.setState(StateLoading)
	p.available = p.registry.ForEntity(p.entityType)
	if len(p.available) == 0 {
		p.lastErr = fmt.Errorf("no layouts available for entity type %q", p.entityType)
		p.setState(StateError)
		return p.lastErr
	}

	active := p.defaultLayout()

	if persisted, ok := p.loadPersisted(ctx); ok {
		if cfg := p.findAvailable(persisted.LayoutID); cfg != nil {
			active = cfg
		} else {
			p.logger.Warn("persisted layout no longer available, using default",
				zap.String("persisted_layout", persisted.LayoutID))
		}
	}

	p.active = active
	p.lastErr = nil
	p.setState(StateReady)
	p.logger.Info("layout provider ready",
		zap.String("active_layout", active.ID),
		zap.Int("available", len(p.available)))
	return nil
}

// Switch makes another available layout the active one. Unknown ids are a
// not-found error; a persistence failure logs and keeps the switch.
func (p *Provider) Switch(ctx context.Context, layoutID string) (model.LayoutConfiguration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateReady {
		return model.LayoutConfiguration{}, model.NewConflictError(
			fmt.Sprintf("layout provider for %q is %s, not ready", p.entityType, p.state))
	}
	cfg := p.findAvailable(layoutID)
	if cfg == nil {
		return model.LayoutConfiguration{}, model.NewNotFoundError(
			fmt.Sprintf("layout %q is not available for entity type %q", layoutID, p.entityType))
	}

	p.active = cfg
	if cfg.PersistChanges {
		p.persist(ctx, cfg)
	}
	p.logger.Info("switched layout", zap.String("layout_id", cfg.ID))
	return *cfg, nil
}

// Refresh recomputes the available set after a registry change. The active
// layout is kept when still available, otherwise re-selected as in Init.
func (p *Provider) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateUninitialized {
		return
	}
	p.available = p.registry.ForEntity(p.entityType)
	if len(p.available) == 0 {
		p.active = nil
		p.lastErr = fmt.Errorf("no layouts available for entity type %q", p.entityType)
		p.setState(StateError)
		return
	}

	if p.active != nil {
		if cfg := p.findAvailable(p.active.ID); cfg != nil {
			p.active = cfg
			p.lastErr = nil
			p.setState(StateReady)
			return
		}
		p.logger.Warn("active layout removed, falling back to default",
			zap.String("layout_id", p.active.ID))
	}
	p.active = p.defaultLayout()
	p.lastErr = nil
	p.setState(StateReady)
}

// Active returns the active layout. Only meaningful in the ready state.
func (p *Provider) Active() (model.LayoutConfiguration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReady || p.active == nil {
		return model.LayoutConfiguration{}, false
	}
	return *p.active, true
}

// Available returns the layouts selectable for this entity type.
func (p *Provider) Available() []model.LayoutConfiguration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.LayoutConfiguration, len(p.available))
	copy(out, p.available)
	return out
}

// State returns the current lifecycle state.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the error that put the provider in the error state, if any.
func (p *Provider) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// defaultLayout picks the fallback active layout: the first one tagged
// "default", else the first available. Must be called with mu held and a
// non-empty available set.
func (p *Provider) defaultLayout() *model.LayoutConfiguration {
	for i := range p.available {
		for _, tag := range p.available[i].Metadata.Tags {
			if tag == "default" {
				return &p.available[i]
			}
		}
	}
	return &p.available[0]
}

func (p *Provider) findAvailable(layoutID string) *model.LayoutConfiguration {
	for i := range p.available {
		if p.available[i].ID == layoutID {
			return &p.available[i]
		}
	}
	return nil
}

// loadPersisted reads the stored choice. Failures are logged and treated as
// no stored choice.
func (p *Provider) loadPersisted(ctx context.Context) (persistedChoice, bool) {
	if p.store == nil {
		return persistedChoice{}, false
	}
	data, found, err := p.store.Load(ctx, model.DefaultStorageKey(p.entityType))
	if err != nil {
		p.logger.Warn("loading persisted layout choice failed, using default", zap.Error(err))
		return persistedChoice{}, false
	}
	if !found {
		return persistedChoice{}, false
	}
	var choice persistedChoice
	if err := json.Unmarshal(data, &choice); err != nil {
		p.logger.Warn("persisted layout choice is corrupt, using default", zap.Error(err))
		return persistedChoice{}, false
	}
	return choice, choice.LayoutID != ""
}

// persist writes the active choice. Failures are logged, never surfaced:
// losing a preference is strictly better than losing the page.
func (p *Provider) persist(ctx context.Context, cfg *model.LayoutConfiguration) {
	if p.store == nil {
		return
	}
	data, err := json.Marshal(persistedChoice{
		LayoutID:  cfg.ID,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		p.logger.Warn("encoding layout choice failed", zap.Error(err))
		return
	}
	if err := p.store.Save(ctx, model.DefaultStorageKey(p.entityType), data); err != nil {
		p.logger.Warn("persisting layout choice failed, continuing in memory", zap.Error(err))
	}
}
