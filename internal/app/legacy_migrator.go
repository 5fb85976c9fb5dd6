package app

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/example/getracker/internal/core/analysis"
	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/secondary"
)

// LegacyMigrator splits the pre-split watchlist record into the metadata and
// price collections.
type LegacyMigrator struct {
	metadataRepo secondary.MetadataRepository
	priceRepo    secondary.PriceRepository
	legacyRepo   secondary.LegacyWatchlistRepository
	logger       *log.Logger
	now          Clock
}

// NewLegacyMigrator creates a new LegacyMigrator with injected dependencies.
func NewLegacyMigrator(
	metadataRepo secondary.MetadataRepository,
	priceRepo secondary.PriceRepository,
	legacyRepo secondary.LegacyWatchlistRepository,
	logger *log.Logger,
	now Clock,
) *LegacyMigrator {
	if logger == nil {
		logger = log.Default()
	}
	return &LegacyMigrator{
		metadataRepo: metadataRepo,
		priceRepo:    priceRepo,
		legacyRepo:   legacyRepo,
		logger:       logger,
		now:          now,
	}
}

// Migrate writes every legacy item into both collections, overwriting by
// id, then deletes the legacy key. Empty input is a no-op, so running it
// again after a successful migration changes nothing.
func (m *LegacyMigrator) Migrate(ctx context.Context, legacy map[string]*secondary.LegacyItemRecord) error {
	if len(legacy) == 0 {
		return nil
	}

	metadata, err := m.metadataRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load metadata for migration: %w", err)
	}
	prices, err := m.priceRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load prices for migration: %w", err)
	}

	ids := make([]string, 0, len(legacy))
	for id, item := range legacy {
		if item != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	now := m.now().UnixMilli()
	histories := make(map[string][]analysis.PricePoint)
	for _, id := range ids {
		item := legacy[id]
		addedAt := now
		if existing, ok := metadata[id]; ok && existing != nil && existing.AddedAt != 0 {
			addedAt = existing.AddedAt
		}
		md, pr := splitLegacyItem(id, item, addedAt)
		metadata[id] = md
		if pr != nil {
			prices[id] = pr
		}
		if len(item.PriceHistory) > 0 {
			histories[id] = item.PriceHistory
		}
	}

	if err := m.metadataRepo.SaveAll(ctx, metadata); err != nil {
		return fmt.Errorf("failed to write migrated metadata: %w", err)
	}
	if err := m.priceRepo.SaveAll(ctx, prices); err != nil {
		return fmt.Errorf("failed to write migrated prices: %w", err)
	}
	for id, series := range histories {
		if err := m.priceRepo.StoreHistory(ctx, id, series); err != nil {
			return fmt.Errorf("failed to write migrated history for %s: %w", id, err)
		}
	}
	if err := m.legacyRepo.Delete(ctx); err != nil {
		return err
	}

	m.logger.Printf("migrated %d legacy watchlist items", len(ids))
	return nil
}

// splitLegacyItem returns the metadata subset and, when the item carries
// any price data, the price subset. Items without an addedAt get
// defaultAddedAt.
func splitLegacyItem(id string, item *secondary.LegacyItemRecord, defaultAddedAt int64) (*secondary.ItemMetadataRecord, *secondary.PriceRecord) {
	md := item.ItemMetadataRecord
	md.ID = id
	md.Name = watchlist.DeriveName(id, md.Name, md.OriginalURL)
	md.URL = watchlist.FetchURL(id)
	md.ImageURL = watchlist.ImageURL(id)
	if md.AddedAt == 0 {
		md.AddedAt = defaultAddedAt
	}

	pr := item.PriceRecord
	if pr.CurrentPrice == nil && pr.LastChecked == 0 && pr.PriceAnalysis == nil {
		return &md, nil
	}
	if pr.LastChecked == 0 {
		pr.LastChecked = md.AddedAt
	}
	return &md, &pr
}
