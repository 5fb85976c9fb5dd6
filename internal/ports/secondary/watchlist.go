package secondary

import (
	"context"
	"encoding/json"

	"github.com/example/getracker/internal/core/analysis"
)

// ItemMetadataRecord represents an item's identity and alert configuration
// as stored in the synced namespace.
type ItemMetadataRecord struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	URL                 string `json:"url"`
	OriginalURL         string `json:"originalUrl,omitempty"`
	ImageURL            string `json:"imageUrl"`
	LowThreshold        *int64 `json:"lowThreshold"`
	HighThreshold       *int64 `json:"highThreshold"`
	AddedAt             int64  `json:"addedAt"`
	LastThresholdUpdate int64  `json:"lastThresholdUpdate,omitempty"`
}

// PriceRecord represents an item's volatile price state as stored in the
// local namespace.
type PriceRecord struct {
	CurrentPrice      *int64             `json:"currentPrice"`
	PreviousPrice     *int64             `json:"previousPrice"`
	LastChecked       int64              `json:"lastChecked"`
	PriceAnalysis     *analysis.Analysis `json:"priceAnalysis"`
	LastHistoryUpdate int64              `json:"lastHistoryUpdate,omitempty"`
	LastLowAlert      *int64             `json:"lastLowAlert"`
	LastHighAlert     *int64             `json:"lastHighAlert"`
}

// LegacyItemRecord is one entry of the pre-split single-collection watchlist.
type LegacyItemRecord struct {
	ItemMetadataRecord
	PriceRecord
	PriceHistory []analysis.PricePoint `json:"priceHistory,omitempty"`
}

// MetadataRepository defines the secondary port for item metadata persistence.
// Every mutation is a read-modify-write of the whole collection.
type MetadataRepository interface {
	// GetAll returns the metadata collection (empty when absent).
	GetAll(ctx context.Context) (map[string]*ItemMetadataRecord, error)

	// Save inserts or replaces one item's metadata.
	Save(ctx context.Context, record *ItemMetadataRecord) error

	// SaveAll replaces the whole collection.
	SaveAll(ctx context.Context, records map[string]*ItemMetadataRecord) error

	// Remove deletes ids from the collection. Absent ids are ignored.
	Remove(ctx context.Context, ids ...string) error
}

// PriceRepository defines the secondary port for price records and
// per-item history series.
type PriceRepository interface {
	// GetAll returns the price collection (empty when absent).
	GetAll(ctx context.Context) (map[string]*PriceRecord, error)

	// Save inserts or replaces one item's price record.
	Save(ctx context.Context, id string, record *PriceRecord) error

	// SaveAll replaces the whole collection.
	SaveAll(ctx context.Context, records map[string]*PriceRecord) error

	// Remove deletes ids from the collection. Absent ids are ignored.
	Remove(ctx context.Context, ids ...string) error

	// StoreHistory replaces an item's history series.
	StoreHistory(ctx context.Context, id string, series []analysis.PricePoint) error

	// GetHistory returns an item's history series (nil when absent).
	GetHistory(ctx context.Context, id string) ([]analysis.PricePoint, error)

	// RemoveHistory deletes the history series of the given ids.
	RemoveHistory(ctx context.Context, ids ...string) error
}

// LegacyWatchlistRepository defines the secondary port for the pre-split
// watchlist record.
type LegacyWatchlistRepository interface {
	// Load returns the legacy collection, or nil when the key is absent.
	Load(ctx context.Context) (map[string]*LegacyItemRecord, error)

	// Delete removes the legacy key.
	Delete(ctx context.Context) error
}

// SettingsRepository defines the secondary port for the flat settings record.
type SettingsRepository interface {
	// Load returns the stored settings object, or nil when absent.
	Load(ctx context.Context) (map[string]json.RawMessage, error)

	// Save replaces the stored settings object.
	Save(ctx context.Context, settings map[string]json.RawMessage) error
}
