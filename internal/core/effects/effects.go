// Package effects defines effect types as data structures representing I/O operations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// NotifyEffect represents a user-facing price notification.
type NotifyEffect struct {
	ItemID  string
	Kind    string // "low", "high", "change"
	Title   string
	Message string
}

func (e NotifyEffect) EffectType() string { return "notify" }

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// NoEffect represents an operation that produces no side effects.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }
