// Package artifact defines the named blob store used for model artifacts.
package artifact

import "context"

// Store reads and writes whole blobs by name.
// Get returns domain.ErrArtifactNotFound for missing names.
type Store interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	Exists(ctx context.Context, name string) (bool, error)
	Ping(ctx context.Context) error
	// Describe returns a human-readable location, e.g. "gs://bucket/prefix".
	Describe() string
}
