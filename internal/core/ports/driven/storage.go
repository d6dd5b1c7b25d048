package driven

import (
	"context"
	"time"
)

// ObjectInfo describes one object in a storage backend.
type ObjectInfo struct {
	// Path is the backend-qualified object path.
	Path string

	// Size is the object size in bytes.
	Size int64

	// ModTime is the last modification time, when the backend reports one.
	ModTime time.Time
}

// Storage is the blob storage capability for one backend. Managed files
// and their sidecars live in a backend-owned namespace addressed by
// relative paths. Implementations must make writes atomic enough that a
// concurrent reader observes an object as fully present or absent,
// never half-written.
type Storage interface {
	// Backend returns the configured backend name (e.g. "local", "minio").
	Backend() string

	// List returns the objects under a path prefix, in unspecified order.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Read returns the full content of an object.
	// Returns domain.ErrNotFound if the object does not exist.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores an object, replacing any existing content.
	Write(ctx context.Context, path string, data []byte) error

	// Exists reports whether an object is present.
	Exists(ctx context.Context, path string) (bool, error)

	// Hash returns the SHA-256 of an object's content, hex encoded.
	// Returns domain.ErrNotFound if the object does not exist.
	Hash(ctx context.Context, path string) (string, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}
