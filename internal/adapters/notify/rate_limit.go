package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/secondary"
)

// defaultHourlyLimit applies when notificationLimit is 0.
const defaultHourlyLimit = 10

// SettingsProvider returns the current user settings.
type SettingsProvider interface {
	Get(ctx context.Context) (*watchlist.Settings, error)
}

// RateLimitedNotifier drops notifications when desktopNotifications is off
// or notificationLimit notifications were already sent in the last hour.
type RateLimitedNotifier struct {
	next     secondary.Notifier
	settings SettingsProvider
	logger   *log.Logger
	now      func() time.Time

	mu   sync.Mutex
	sent []time.Time
}

// NewRateLimitedNotifier wraps next with the settings-driven limits.
func NewRateLimitedNotifier(next secondary.Notifier, settings SettingsProvider, logger *log.Logger, now func() time.Time) *RateLimitedNotifier {
	if logger == nil {
		logger = log.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &RateLimitedNotifier{
		next:     next,
		settings: settings,
		logger:   logger,
		now:      now,
	}
}

// Notify forwards note unless a limit applies. Dropped notifications are
// logged, not returned as errors.
func (n *RateLimitedNotifier) Notify(ctx context.Context, note secondary.Notification) error {
	settings, err := n.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !settings.DesktopNotifications {
		n.logger.Printf("notifications disabled; skipping %q", note.Title)
		return nil
	}

	limit := settings.NotificationLimit
	if limit == 0 {
		limit = defaultHourlyLimit
	}

	n.mu.Lock()
	now := n.now()
	cutoff := now.Add(-time.Hour)
	kept := n.sent[:0]
	for _, t := range n.sent {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	n.sent = kept
	if len(n.sent) >= limit {
		n.mu.Unlock()
		n.logger.Printf("notification rate limit reached (%d/hour); skipping %q", limit, note.Title)
		return nil
	}
	n.sent = append(n.sent, now)
	n.mu.Unlock()

	return n.next.Notify(ctx, note)
}

// Ensure RateLimitedNotifier implements the interface
var _ secondary.Notifier = (*RateLimitedNotifier)(nil)
