package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/primary"
	"github.com/example/getracker/internal/ports/secondary"
)

// WatchlistMerger joins the metadata and price collections into the
// watchlist view, migrating the legacy record first when one is present.
type WatchlistMerger struct {
	metadataRepo secondary.MetadataRepository
	priceRepo    secondary.PriceRepository
	legacyRepo   secondary.LegacyWatchlistRepository
	migrator     *LegacyMigrator

	migrateMu sync.Mutex
}

// NewWatchlistMerger creates a new WatchlistMerger with injected dependencies.
func NewWatchlistMerger(
	metadataRepo secondary.MetadataRepository,
	priceRepo secondary.PriceRepository,
	legacyRepo secondary.LegacyWatchlistRepository,
	migrator *LegacyMigrator,
) *WatchlistMerger {
	return &WatchlistMerger{
		metadataRepo: metadataRepo,
		priceRepo:    priceRepo,
		legacyRepo:   legacyRepo,
		migrator:     migrator,
	}
}

// EnsureMigrated runs the legacy migration when a non-empty legacy record
// exists. Concurrent callers wait for one migration.
func (m *WatchlistMerger) EnsureMigrated(ctx context.Context) error {
	m.migrateMu.Lock()
	defer m.migrateMu.Unlock()

	legacy, err := m.legacyRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to check legacy watchlist: %w", err)
	}
	if len(legacy) == 0 {
		return nil
	}
	return m.migrator.Migrate(ctx, legacy)
}

// ItemSnapshot pairs the merged view with the stored image URL so the
// refresh cycle can detect stale values.
type ItemSnapshot struct {
	Item           *primary.WatchlistItem
	StoredImageURL string
}

// GetWatchlist returns one item per metadata id. Price-only ids are not
// surfaced. Any failure returns an empty map with the error.
func (m *WatchlistMerger) GetWatchlist(ctx context.Context) (map[string]*primary.WatchlistItem, error) {
	snapshot, err := m.Snapshot(ctx)
	items := make(map[string]*primary.WatchlistItem, len(snapshot))
	if err != nil {
		return items, err
	}
	for id, snap := range snapshot {
		items[id] = snap.Item
	}
	return items, nil
}

// Snapshot is GetWatchlist plus the stored image URL of each item.
func (m *WatchlistMerger) Snapshot(ctx context.Context) (map[string]ItemSnapshot, error) {
	empty := map[string]ItemSnapshot{}

	if err := m.EnsureMigrated(ctx); err != nil {
		return empty, err
	}
	metadata, err := m.metadataRepo.GetAll(ctx)
	if err != nil {
		return empty, fmt.Errorf("failed to load item metadata: %w", err)
	}
	prices, err := m.priceRepo.GetAll(ctx)
	if err != nil {
		return empty, fmt.Errorf("failed to load price data: %w", err)
	}

	snapshot := make(map[string]ItemSnapshot, len(metadata))
	for id, md := range metadata {
		if md == nil {
			continue
		}
		snapshot[id] = ItemSnapshot{Item: mergeItem(id, md, prices[id]), StoredImageURL: md.ImageURL}
	}
	return snapshot, nil
}

// mergeItem builds the merged view. A missing price record leaves the price
// unknown and lastChecked at addedAt. URLs are always canonical.
func mergeItem(id string, md *secondary.ItemMetadataRecord, pr *secondary.PriceRecord) *primary.WatchlistItem {
	item := &primary.WatchlistItem{
		ID:                  id,
		Name:                watchlist.DeriveName(id, md.Name, md.OriginalURL),
		URL:                 watchlist.FetchURL(id),
		OriginalURL:         md.OriginalURL,
		ImageURL:            watchlist.ImageURL(id),
		LowThreshold:        md.LowThreshold,
		HighThreshold:       md.HighThreshold,
		AddedAt:             md.AddedAt,
		LastThresholdUpdate: md.LastThresholdUpdate,
		LastChecked:         md.AddedAt,
	}
	if pr == nil {
		return item
	}
	item.CurrentPrice = pr.CurrentPrice
	item.PreviousPrice = pr.PreviousPrice
	if pr.LastChecked != 0 {
		item.LastChecked = pr.LastChecked
	}
	item.PriceAnalysis = pr.PriceAnalysis
	item.LastHistoryUpdate = pr.LastHistoryUpdate
	item.LastLowAlert = pr.LastLowAlert
	item.LastHighAlert = pr.LastHighAlert
	return item
}
