package watchlist

import (
	"math"
	"strings"
)

// Sort orders accepted by the sortOrder setting.
const (
	SortDateAdded   = "date-added"
	SortNameAsc     = "name-asc"
	SortNameDesc    = "name-desc"
	SortPriceHigh   = "price-high"
	SortPriceLow    = "price-low"
	SortAlertsFirst = "alerts-first"
)

// SortFields are the item attributes ordering depends on.
type SortFields struct {
	ID            string
	Name          string
	AddedAt       int64
	CurrentPrice  *int64
	LowThreshold  *int64
	HighThreshold *int64
}

// Less orders two items for the given sortOrder. Unknown orders sort by
// name. Ties break on id so the result is deterministic.
func Less(order string, a, b SortFields) bool {
	switch order {
	case SortDateAdded:
		if a.AddedAt != b.AddedAt {
			return a.AddedAt > b.AddedAt // newest first
		}
	case SortNameDesc:
		if c := compareNames(a.Name, b.Name); c != 0 {
			return c > 0
		}
	case SortPriceHigh:
		if pa, pb := priceOr(a.CurrentPrice, 0), priceOr(b.CurrentPrice, 0); pa != pb {
			return pa > pb
		}
	case SortPriceLow:
		if pa, pb := priceOr(a.CurrentPrice, math.MaxInt64), priceOr(b.CurrentPrice, math.MaxInt64); pa != pb {
			return pa < pb
		}
	case SortAlertsFirst:
		aa := IsAlerting(a.CurrentPrice, a.LowThreshold, a.HighThreshold)
		ba := IsAlerting(b.CurrentPrice, b.LowThreshold, b.HighThreshold)
		if aa != ba {
			return aa
		}
		if c := compareNames(a.Name, b.Name); c != 0 {
			return c < 0
		}
	default:
		if c := compareNames(a.Name, b.Name); c != 0 {
			return c < 0
		}
	}
	return a.ID < b.ID
}

func compareNames(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func priceOr(p *int64, fallback int64) int64 {
	if p == nil || *p == 0 {
		return fallback
	}
	return *p
}

func validSortOrder(order string) bool {
	switch order {
	case SortDateAdded, SortNameAsc, SortNameDesc, SortPriceHigh, SortPriceLow, SortAlertsFirst:
		return true
	}
	return false
}
