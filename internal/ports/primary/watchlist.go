package primary

import (
	"context"

	"github.com/example/getracker/internal/core/analysis"
	"github.com/example/getracker/internal/core/watchlist"
)

// WatchlistService defines the primary port for watchlist reads and mutations.
// All mutations are serialized behind one lock.
type WatchlistService interface {
	// AddItem adds an item, deriving its name and default thresholds.
	// Without a supplied price, one fetch runs and its result is committed.
	AddItem(ctx context.Context, req AddItemRequest) (*WatchlistItem, error)

	// RemoveItem deletes an item and its price data. Unknown ids are a no-op.
	RemoveItem(ctx context.Context, itemID string) error

	// UpdateThresholds sets both thresholds, verifying the write against
	// concurrent writers.
	UpdateThresholds(ctx context.Context, itemID string, low, high *int64) (*WatchlistItem, error)

	// ApplyBulkUpdate commits many shallow patches and removals at once.
	ApplyBulkUpdate(ctx context.Context, updates map[string]watchlist.ItemPatch, removeIDs []string) error

	// GetWatchlist returns the merged view keyed by item id.
	GetWatchlist(ctx context.Context) (map[string]*WatchlistItem, error)

	// ListItems returns the merged view ordered by the sortOrder setting.
	ListItems(ctx context.Context) ([]*WatchlistItem, error)

	// GetItem returns one merged item.
	GetItem(ctx context.Context, itemID string) (*WatchlistItem, error)

	// GetHistory returns an item's stored price history.
	GetHistory(ctx context.Context, itemID string) ([]analysis.PricePoint, error)

	// ActiveAlertCount returns how many items sit at or beyond a threshold.
	ActiveAlertCount(ctx context.Context) (int, error)
}

// AddItemRequest contains parameters for adding an item.
type AddItemRequest struct {
	ID           string
	Name         string
	SourceURL    string // page the user visited; used for name derivation
	CurrentPrice *int64
	History      []analysis.PricePoint
}

// WatchlistItem is the merged metadata + price view at the port boundary.
type WatchlistItem struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	URL                 string             `json:"url"`
	OriginalURL         string             `json:"originalUrl,omitempty"`
	ImageURL            string             `json:"imageUrl"`
	LowThreshold        *int64             `json:"lowThreshold"`
	HighThreshold       *int64             `json:"highThreshold"`
	AddedAt             int64              `json:"addedAt"`
	LastThresholdUpdate int64              `json:"lastThresholdUpdate,omitempty"`
	CurrentPrice        *int64             `json:"currentPrice"`
	PreviousPrice       *int64             `json:"previousPrice"`
	LastChecked         int64              `json:"lastChecked"`
	PriceAnalysis       *analysis.Analysis `json:"priceAnalysis"`
	LastHistoryUpdate   int64              `json:"lastHistoryUpdate,omitempty"`
	LastLowAlert        *int64             `json:"lastLowAlert"`
	LastHighAlert       *int64             `json:"lastHighAlert"`
}
