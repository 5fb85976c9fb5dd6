package persistence

import (
	"context"

	"github.com/example/getracker/internal/ports/secondary"
)

// MetadataKey holds the item metadata collection in the synced namespace.
const MetadataKey = "itemMetadata"

// MetadataRepository implements secondary.MetadataRepository as one JSON
// collection record.
type MetadataRepository struct {
	store secondary.KeyValueStore
}

// NewMetadataRepository creates a MetadataRepository over the given store,
// normally the QuotaGuard.
func NewMetadataRepository(store secondary.KeyValueStore) *MetadataRepository {
	return &MetadataRepository{store: store}
}

// GetAll returns the metadata collection.
func (r *MetadataRepository) GetAll(ctx context.Context) (map[string]*secondary.ItemMetadataRecord, error) {
	records := map[string]*secondary.ItemMetadataRecord{}
	if _, err := readJSON(ctx, r.store, MetadataKey, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = map[string]*secondary.ItemMetadataRecord{}
	}
	return records, nil
}

// Save inserts or replaces one item's metadata.
func (r *MetadataRepository) Save(ctx context.Context, record *secondary.ItemMetadataRecord) error {
	records, err := r.GetAll(ctx)
	if err != nil {
		return err
	}
	records[record.ID] = record
	return r.SaveAll(ctx, records)
}

// SaveAll replaces the whole collection.
func (r *MetadataRepository) SaveAll(ctx context.Context, records map[string]*secondary.ItemMetadataRecord) error {
	return writeJSON(ctx, r.store, MetadataKey, records)
}

// Remove deletes ids from the collection.
func (r *MetadataRepository) Remove(ctx context.Context, ids ...string) error {
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

// Ensure MetadataRepository implements the interface
var _ secondary.MetadataRepository = (*MetadataRepository)(nil)
