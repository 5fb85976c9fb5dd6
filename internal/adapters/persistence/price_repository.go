package persistence

import (
	"context"
	"fmt"

	"github.com/example/getracker/internal/core/analysis"
	"github.com/example/getracker/internal/ports/secondary"
)

const (
	// PriceDataKey holds the price record collection in the local namespace.
	PriceDataKey = "priceData"

	historyKeyPrefix = "priceHistory_"
)

// HistoryKey returns the local key holding an item's history series.
func HistoryKey(itemID string) string {
	return historyKeyPrefix + itemID
}

// PriceRepository implements secondary.PriceRepository. Price records share
// one collection; each history series has its own key.
type PriceRepository struct {
	store secondary.KeyValueStore
}

// NewPriceRepository creates a PriceRepository over the local store.
func NewPriceRepository(store secondary.KeyValueStore) *PriceRepository {
	return &PriceRepository{store: store}
}

// GetAll returns the price collection.
func (r *PriceRepository) GetAll(ctx context.Context) (map[string]*secondary.PriceRecord, error) {
	records := map[string]*secondary.PriceRecord{}
	if _, err := readJSON(ctx, r.store, PriceDataKey, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = map[string]*secondary.PriceRecord{}
	}
	return records, nil
}

// Save inserts or replaces one item's price record.
func (r *PriceRepository) Save(ctx context.Context, id string, record *secondary.PriceRecord) error {
	records, err := r.GetAll(ctx)
	if err != nil {
		return err
	}
	records[id] = record
	return r.SaveAll(ctx, records)
}

// SaveAll replaces the whole collection.
func (r *PriceRepository) SaveAll(ctx context.Context, records map[string]*secondary.PriceRecord) error {
	return writeJSON(ctx, r.store, PriceDataKey, records)
}

// Remove deletes ids from the collection.
func (r *PriceRepository) Remove(ctx context.Context, ids ...string) error {
	records, err := r.GetAll(ctx)
	if err != nil {
		return err
	}
	changed := false
	for _, id := range ids {
		if _, ok := records[id]; ok {
			delete(records, id)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return r.SaveAll(ctx, records)
}

// StoreHistory replaces an item's history series.
func (r *PriceRepository) StoreHistory(ctx context.Context, id string, series []analysis.PricePoint) error {
	return writeJSON(ctx, r.store, HistoryKey(id), series)
}

// GetHistory returns an item's history series.
func (r *PriceRepository) GetHistory(ctx context.Context, id string) ([]analysis.PricePoint, error) {
	var series []analysis.PricePoint
	if _, err := readJSON(ctx, r.store, HistoryKey(id), &series); err != nil {
		return nil, err
	}
	return series, nil
}

// RemoveHistory deletes the history series of the given ids.
func (r *PriceRepository) RemoveHistory(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = HistoryKey(id)
	}
	if err := r.store.Remove(ctx, keys...); err != nil {
		return fmt.Errorf("failed to remove price history: %w", err)
	}
	return nil
}

// Ensure PriceRepository implements the interface
var _ secondary.PriceRepository = (*PriceRepository)(nil)
