package ports

import "context"

// SnapshotStore persists whole registry documents under a key. Registries are
// read once at boot and written once at shutdown, so no partial updates exist.
type SnapshotStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}
