// Package provider manages the active-layout state per entity type: which
// layout a page renders with, persisted across sessions when the layout
// opts in. It mirrors the client-side layout context of the UI.
package provider

import "context"

// Store persists layout choices under string keys. Implementations must be
// safe for concurrent use. Persistence failures are advisory: the provider
// logs and continues on the in-memory state.
type Store interface {
	// Load returns the stored value and whether the key exists.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
