// Package watchlist contains the pure business rules for tracked items:
// naming, canonical URLs, thresholds, settings, and refresh planning.
// This is part of the Functional Core - no I/O, only pure functions.
package watchlist

import "fmt"

// ValidationError reports missing or malformed input. Not retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation on an id absent from item metadata.
type NotFoundError struct {
	ItemID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item %s not found", e.ItemID)
}

// ConflictError reports a threshold update that kept losing to a concurrent
// writer until the retry budget ran out. Callers should re-fetch and retry.
type ConflictError struct {
	ItemID   string
	Attempts int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("threshold update for item %s conflicted with a concurrent write after %d attempts", e.ItemID, e.Attempts)
}
