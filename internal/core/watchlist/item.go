package watchlist

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
)

const itemDBBaseURL = "https://secure.runescape.com/m=itemdb_rs"

var (
	namePathPattern = regexp.MustCompile(`/m=itemdb_rs/([^/]+)/`)
	objParamPattern = regexp.MustCompile(`obj=(\d+)`)
	digitsPattern   = regexp.MustCompile(`^\d+$`)
)

// FetchURL returns the item page used for price lookups.
func FetchURL(itemID string) string {
	return itemDBBaseURL + "/viewitem?obj=" + itemID
}

// ImageURL returns the canonical image URL for an item.
// Any stored image URL that differs is stale.
func ImageURL(itemID string) string {
	return itemDBBaseURL + "/obj_big.gif?id=" + itemID
}

// ExtractItemID accepts a bare numeric id or a Grand Exchange URL carrying
// obj=<id>. Returns "" when neither form matches.
func ExtractItemID(raw string) string {
	raw = strings.TrimSpace(raw)
	if digitsPattern.MatchString(raw) {
		return raw
	}
	if m := objParamPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// DeriveName picks a display name: the provided name, then the name segment
// of the source URL, then "Item <id>".
func DeriveName(itemID, name, sourceURL string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if sourceURL != "" {
		if u, err := url.Parse(sourceURL); err == nil {
			if m := namePathPattern.FindStringSubmatch(u.EscapedPath()); m != nil {
				if decoded, err := url.QueryUnescape(m[1]); err == nil && strings.TrimSpace(decoded) != "" {
					return strings.TrimSpace(decoded)
				}
			}
		}
	}
	return fmt.Sprintf("Item %s", itemID)
}

// DefaultThresholds derives initial alert thresholds from the current price.
// Returns nils when the alert type is none or the price is unknown.
func DefaultThresholds(price *int64, alertType AlertType, percent float64) (low, high *int64) {
	if price == nil || alertType == AlertTypeNone {
		return nil, nil
	}
	p := float64(*price)
	if alertType == AlertTypeBelow || alertType == AlertTypeBoth {
		v := int64(math.Floor(p - p*percent/100))
		low = &v
	}
	if alertType == AlertTypeAbove || alertType == AlertTypeBoth {
		v := int64(math.Ceil(p + p*percent/100))
		high = &v
	}
	return low, high
}

// IsAlerting reports whether a price sits at or beyond either threshold.
func IsAlerting(price, low, high *int64) bool {
	if price == nil {
		return false
	}
	if low != nil && *low > 0 && *price <= *low {
		return true
	}
	return high != nil && *high > 0 && *price >= *high
}
