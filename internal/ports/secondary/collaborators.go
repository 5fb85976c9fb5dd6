package secondary

import (
	"context"

	"github.com/example/getracker/internal/core/watchlist"
)

// PriceSource defines the secondary port for fetching an item's price.
// Implementations never return errors: failures are logged and yield nil.
type PriceSource interface {
	Fetch(ctx context.Context, itemID string) *watchlist.Quote
}

// Notification is one user-facing price event.
type Notification struct {
	ItemID  string
	Kind    string // "low", "high", "change"
	Title   string
	Message string
}

// Notifier defines the secondary port for dispatching notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
