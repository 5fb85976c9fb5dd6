package persistence

import (
	"context"
	"fmt"

	"github.com/example/getracker/internal/ports/secondary"
)

// LegacyWatchlistKey holds the pre-split watchlist in the synced namespace.
const LegacyWatchlistKey = "watchlist"

// LegacyWatchlistRepository implements secondary.LegacyWatchlistRepository.
type LegacyWatchlistRepository struct {
	store secondary.KeyValueStore
}

// NewLegacyWatchlistRepository creates a LegacyWatchlistRepository.
func NewLegacyWatchlistRepository(store secondary.KeyValueStore) *LegacyWatchlistRepository {
	return &LegacyWatchlistRepository{store: store}
}

// Load returns the legacy collection, or nil when absent.
func (r *LegacyWatchlistRepository) Load(ctx context.Context) (map[string]*secondary.LegacyItemRecord, error) {
	var records map[string]*secondary.LegacyItemRecord
	found, err := readJSON(ctx, r.store, LegacyWatchlistKey, &records)
	if err != nil || !found {
		return nil, err
	}
	return records, nil
}

// Delete removes the legacy key.
func (r *LegacyWatchlistRepository) Delete(ctx context.Context) error {
	if err := r.store.Remove(ctx, LegacyWatchlistKey); err != nil {
		return fmt.Errorf("failed to delete legacy watchlist: %w", err)
	}
	return nil
}

// Ensure LegacyWatchlistRepository implements the interface
var _ secondary.LegacyWatchlistRepository = (*LegacyWatchlistRepository)(nil)
