package watchlist

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
	Field   string
}

// Error returns the guard result as a *ValidationError if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &ValidationError{Field: r.Field, Reason: r.Reason}
}

// CanAddItem evaluates whether an item id is acceptable for the watchlist.
// Rule: the id is required.
func CanAddItem(itemID string) GuardResult {
	if itemID == "" {
		return GuardResult{Allowed: false, Field: "id", Reason: "no item ID provided"}
	}
	return GuardResult{Allowed: true}
}

// CanSetThresholds evaluates a threshold edit.
// Rules: thresholds are non-negative, and low must be strictly below high
// when both are set.
func CanSetThresholds(low, high *int64) GuardResult {
	if low != nil && *low < 0 {
		return GuardResult{Allowed: false, Field: "lowThreshold", Reason: fmt.Sprintf("must not be negative (got %d)", *low)}
	}
	if high != nil && *high < 0 {
		return GuardResult{Allowed: false, Field: "highThreshold", Reason: fmt.Sprintf("must not be negative (got %d)", *high)}
	}
	if low != nil && high != nil && *low >= *high {
		return GuardResult{
			Allowed: false,
			Field:   "lowThreshold",
			Reason:  fmt.Sprintf("low threshold %d must be below high threshold %d", *low, *high),
		}
	}
	return GuardResult{Allowed: true}
}
