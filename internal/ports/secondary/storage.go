package secondary

import (
	"context"
	"fmt"
)

// Namespace identifies one of the two key-value tiers.
type Namespace string

const (
	// NamespaceSync is the small-quota tier shared across devices.
	NamespaceSync Namespace = "sync"
	// NamespaceLocal is the unbounded single-device tier.
	NamespaceLocal Namespace = "local"
)

// KeyValueStore defines the secondary port for one key-value namespace.
// Values are opaque JSON documents. Collections are written whole;
// there is no sub-document patch primitive.
type KeyValueStore interface {
	// Get returns the values for the given keys. Absent keys are omitted.
	// With no keys, every entry in the namespace is returned.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)

	// Set writes all entries atomically.
	Set(ctx context.Context, entries map[string][]byte) error

	// Remove deletes the given keys. Absent keys are ignored.
	Remove(ctx context.Context, keys ...string) error

	// BytesInUse returns the key+value byte size of the given keys,
	// or of the whole namespace when no keys are given.
	BytesInUse(ctx context.Context, keys ...string) (int, error)
}

// QuotaExceededError is returned by a quota-enforcing store when a write
// would exceed its byte budget.
type QuotaExceededError struct {
	Namespace Namespace
	Quota     int
	Required  int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s storage quota exceeded: %d bytes required, %d allowed", e.Namespace, e.Required, e.Quota)
}
