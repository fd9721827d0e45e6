package provider

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/slatehq/slate/internal/layout"
)

// Manager holds one Provider per entity type, created lazily on first use.
type Manager struct {
	registry *layout.Registry
	store    Store
	logger   *zap.Logger

	mu        sync.Mutex
	metrics   StateMetrics
	providers map[string]*Provider
}

// NewManager creates a Manager.
func NewManager(registry *layout.Registry, store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		registry:  registry,
		store:     store,
		logger:    logger,
		providers: make(map[string]*Provider),
	}
}

// SetMetrics attaches a state gauge sink to every provider, current and
// future.
func (m *Manager) SetMetrics(metrics StateMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = metrics
	for _, p := range m.providers {
		p.SetMetrics(metrics)
	}
}

// ForEntity returns the entity type's provider, initializing it on first
// access. An initialization failure leaves the provider in its error state
// and is returned to the caller.
func (m *Manager) ForEntity(ctx context.Context, entityType string) (*Provider, error) {
	m.mu.Lock()
	p, ok := m.providers[entityType]
	if !ok {
		p = NewProvider(entityType, m.registry, m.store, m.logger)
		if m.metrics != nil {
			p.SetMetrics(m.metrics)
		}
		m.providers[entityType] = p
	}
	m.mu.Unlock()

	if p.State() == StateUninitialized {
		if err := p.Init(ctx); err != nil {
			return p, err
		}
	}
	return p, nil
}

// RefreshAll re-syncs every initialized provider with the registry. Called
// after hot reloads and layout updates.
func (m *Manager) RefreshAll() {
	m.mu.Lock()
	providers := make([]*Provider, 0, len(m.providers))
	for _, p := range m.providers {
		providers = append(providers, p)
	}
	m.mu.Unlock()

	for _, p := range providers {
		p.Refresh()
	}
}

// Close releases the backing store.
func (m *Manager) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}
