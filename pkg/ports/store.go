package ports

import "context"

// SnapshotStore defines the interface for persisting serialized state
// snapshots. This allows for durable state, enabling "Stop & Resume"
// across process restarts. Snapshots are opaque bytes (the facade
// serializes the application state as JSON).
type SnapshotStore interface {
	// Save persists the snapshot under the given key.
	Save(ctx context.Context, key string, snapshot []byte) error

	// Load retrieves the snapshot for a key.
	// Returns domain.ErrSnapshotNotFound if the key does not exist.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the snapshot for a key.
	Delete(ctx context.Context, key string) error

	// List returns the known snapshot keys.
	List(ctx context.Context) ([]string, error)
}
