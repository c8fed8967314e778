// Package storage provides the persistent client-state store backing the
// session manager and UI preferences. It is the durable key-value surface
// that survives a frontend reload, with pluggable backends.
package storage

import "context"

// Store is the persistence interface for client state. Values are opaque
// bytes; callers own serialization. All entries are best-effort: a corrupt
// value is treated as absent by callers, never as a fatal condition.
type Store interface {
	// Get retrieves the value for key. Returns ErrNotFound when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the value for key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// ErrNotFound is returned when a key is not present in the store.
type notFoundError struct{}

func (notFoundError) Error() string { return "storage: key not found" }

var ErrNotFound error = notFoundError{}
