// Package ctxutil carries the acting caller through a context so the
// activity log can attribute watchlist and settings changes. It imports no
// other getracker package.
package ctxutil

import "context"

// Callers that mutate the watchlist.
const (
	ActorCLI    = "cli"
	ActorDaemon = "daemon"
	ActorAPI    = "api"
)

// Actors lists every actor id in display order.
var Actors = []string{ActorCLI, ActorDaemon, ActorAPI}

// ActorKey is the context key for the actor id.
type ActorKey struct{}

// WithActorID returns a context tagged with actorID.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ActorKey{}, actorID)
}

// ActorFromContext returns the actor id, or "" when ctx carries none.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ActorKey{}).(string); ok {
		return v
	}
	return ""
}

// IsKnownActor reports whether id is one of Actors.
func IsKnownActor(id string) bool {
	for _, a := range Actors {
		if a == id {
			return true
		}
	}
	return false
}
