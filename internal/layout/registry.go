package layout

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/slatehq/slate/model"
)

// snapshot is an immutable collection of layout configurations indexed by ID
// and by entity type.
type snapshot struct {
	byID     map[string]model.LayoutConfiguration
	byEntity map[string][]model.LayoutConfiguration
	checksum string
}

// Registry is a read-optimized, thread-safe store of loaded layout
// configurations. It uses atomic pointer swap for lock-free concurrent reads.
type Registry struct {
	snap atomic.Pointer[snapshot]
}

// NewRegistry creates a Registry from the given configurations.
func NewRegistry(configs []model.LayoutConfiguration) *Registry {
	r := &Registry{}
	r.Replace(configs)
	return r
}

// Replace atomically swaps the registry contents with a new snapshot built
// from the given configurations. Entity-type lists are sorted by layout ID
// so "first available" is deterministic.
func (r *Registry) Replace(configs []model.LayoutConfiguration) {
	s := &snapshot{
		byID:     make(map[string]model.LayoutConfiguration, len(configs)),
		byEntity: make(map[string][]model.LayoutConfiguration),
	}

	var checksumParts []string
	for _, cfg := range configs {
		s.byID[cfg.ID] = cfg
		s.byEntity[cfg.EntityType] = append(s.byEntity[cfg.EntityType], cfg)
		checksumParts = append(checksumParts, cfg.Checksum)
	}
	for _, list := range s.byEntity {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	sort.Strings(checksumParts)
	combined := strings.Join(checksumParts, ":")
	s.checksum = fmt.Sprintf("%x", sha256.Sum256([]byte(combined)))

	r.snap.Store(s)
}

func (r *Registry) current() *snapshot {
	return r.snap.Load()
}

// Get returns the layout configuration with the given ID.
func (r *Registry) Get(layoutID string) (model.LayoutConfiguration, bool) {
	cfg, ok := r.current().byID[layoutID]
	return cfg, ok
}

// ForEntity returns the layout configurations for the given entity type,
// sorted by ID.
func (r *Registry) ForEntity(entityType string) []model.LayoutConfiguration {
	list := r.current().byEntity[entityType]
	out := make([]model.LayoutConfiguration, len(list))
	copy(out, list)
	return out
}

// All returns every loaded layout configuration.
func (r *Registry) All() []model.LayoutConfiguration {
	s := r.current()
	out := make([]model.LayoutConfiguration, 0, len(s.byID))
	for _, cfg := range s.byID {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Upsert replaces or adds a single configuration, building a new snapshot.
func (r *Registry) Upsert(cfg model.LayoutConfiguration) {
	existing := r.All()
	replaced := false
	for i := range existing {
		if existing[i].ID == cfg.ID {
			existing[i] = cfg
			replaced = true
			break
		}
	}
	if !replaced {
		existing = append(existing, cfg)
	}
	r.Replace(existing)
}

// Len returns the number of loaded configurations.
func (r *Registry) Len() int {
	return len(r.current().byID)
}

// Checksum returns the combined checksum of all loaded configurations.
func (r *Registry) Checksum() string {
	return r.current().checksum
}
