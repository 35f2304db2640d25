package storage

import "context"

// ObjectStore persists image blobs under hierarchical keys. Implementations
// must return the canonical key that was written; that key is what attempt
// records reference.
type ObjectStore interface {
	Write(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
