package primary

import (
	"context"

	"github.com/example/getracker/internal/core/watchlist"
)

// SettingsService defines the primary port for user settings.
type SettingsService interface {
	// Get returns stored settings merged over the defaults.
	Get(ctx context.Context) (*watchlist.Settings, error)

	// Update merges the given keys over the stored settings, validates the
	// result and persists it.
	Update(ctx context.Context, patch map[string]any) (*watchlist.Settings, error)
}
