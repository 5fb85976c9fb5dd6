package watchlist

import "github.com/example/getracker/internal/core/analysis"

// ThresholdPatch carries a threshold edit together with the
// lastThresholdUpdate value observed when the edit was computed.
type ThresholdPatch struct {
	Low      *int64
	High     *int64
	Baseline int64
}

// ItemPatch is a shallow per-item update. Nil fields are left untouched.
type ItemPatch struct {
	// Metadata fields.
	Name       *string
	ImageURL   *string
	Thresholds *ThresholdPatch

	// Price record fields.
	CurrentPrice      *int64
	PreviousPrice     *int64
	LastChecked       *int64
	Analysis          *analysis.Analysis
	LastHistoryUpdate *int64
	LastLowAlert      *int64
	LastHighAlert     *int64

	// History replaces the stored series wholesale when non-empty.
	History []analysis.PricePoint
}

// TouchesMetadata reports whether the patch writes any synced field.
func (p ItemPatch) TouchesMetadata() bool {
	return p.Name != nil || p.ImageURL != nil || p.Thresholds != nil
}

// TouchesPrice reports whether the patch writes any local price field.
func (p ItemPatch) TouchesPrice() bool {
	return p.CurrentPrice != nil || p.PreviousPrice != nil || p.LastChecked != nil ||
		p.Analysis != nil || p.LastHistoryUpdate != nil || p.LastLowAlert != nil || p.LastHighAlert != nil
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return !p.TouchesMetadata() && !p.TouchesPrice() && len(p.History) == 0
}
