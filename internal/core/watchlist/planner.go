package watchlist

import (
	"fmt"
	"math"

	"github.com/example/getracker/internal/core/analysis"
	"github.com/example/getracker/internal/core/effects"
)

// Notification kinds.
const (
	KindLow    = "low"
	KindHigh   = "high"
	KindChange = "change"
)

// Quote is one successful price fetch.
type Quote struct {
	CurrentPrice int64
	History      []analysis.PricePoint
}

// RefreshItemInput is the snapshot of one item taken at the start of a cycle.
type RefreshItemInput struct {
	ItemID        string
	Name          string
	ImageURL      string
	CurrentPrice  *int64
	LowThreshold  *int64
	HighThreshold *int64
	LastLowAlert  *int64
	LastHighAlert *int64
}

// RefreshItemPlan describes what a cycle should commit for one item.
// ThresholdCrossed is set for any crossing, ThresholdFired only for one
// that was not snoozed.
type RefreshItemPlan struct {
	ItemID           string
	Patch            ItemPatch
	Effects          []effects.Effect
	Fetched          bool
	PriceChanged     bool
	ThresholdCrossed bool
	ThresholdFired   bool
	Remove           bool
}

// PlanItemRefresh computes the patch, notifications and removal decision
// for one item given its fetched quote. A nil quote means the fetch failed:
// only the image self-heal is planned.
func PlanItemRefresh(in RefreshItemInput, quote *Quote, s Settings, now int64) RefreshItemPlan {
	plan := RefreshItemPlan{ItemID: in.ItemID}

	if canonical := ImageURL(in.ItemID); in.ImageURL != canonical {
		plan.Patch.ImageURL = &canonical
	}
	if quote == nil {
		return plan
	}
	plan.Fetched = true

	price := quote.CurrentPrice
	checked := now
	plan.Patch.LastChecked = &checked

	if len(quote.History) > 0 {
		plan.Patch.History = quote.History
		stamp := now
		plan.Patch.LastHistoryUpdate = &stamp
		plan.Patch.Analysis = analysis.Analyze(quote.History)
	}

	plan.PriceChanged = in.CurrentPrice == nil || *in.CurrentPrice != price
	if plan.PriceChanged {
		current := price
		plan.Patch.CurrentPrice = &current
		if in.CurrentPrice != nil {
			prev := *in.CurrentPrice
			plan.Patch.PreviousPrice = &prev
		}
	}

	if in.LowThreshold != nil && *in.LowThreshold > 0 && price <= *in.LowThreshold {
		plan.ThresholdCrossed = true
		if snoozed(in.LastLowAlert, now, s.SnoozeDuration) {
			plan.Effects = append(plan.Effects, snoozeLog(in.ItemID, KindLow))
		} else {
			stamp := now
			plan.Patch.LastLowAlert = &stamp
			plan.ThresholdFired = true
			plan.Effects = append(plan.Effects, effects.NotifyEffect{
				ItemID:  in.ItemID,
				Kind:    KindLow,
				Title:   fmt.Sprintf("%s - LOW PRICE ALERT!", in.Name),
				Message: fmt.Sprintf("Price dropped to %s (threshold: %s)", FormatPrice(price, s.PriceFormat), FormatPrice(*in.LowThreshold, s.PriceFormat)),
			})
		}
	}

	if in.HighThreshold != nil && *in.HighThreshold > 0 && price >= *in.HighThreshold {
		plan.ThresholdCrossed = true
		if snoozed(in.LastHighAlert, now, s.SnoozeDuration) {
			plan.Effects = append(plan.Effects, snoozeLog(in.ItemID, KindHigh))
		} else {
			stamp := now
			plan.Patch.LastHighAlert = &stamp
			plan.ThresholdFired = true
			plan.Effects = append(plan.Effects, effects.NotifyEffect{
				ItemID:  in.ItemID,
				Kind:    KindHigh,
				Title:   fmt.Sprintf("%s - HIGH PRICE ALERT!", in.Name),
				Message: fmt.Sprintf("Price rose to %s (threshold: %s)", FormatPrice(price, s.PriceFormat), FormatPrice(*in.HighThreshold, s.PriceFormat)),
			})
		}
	}

	if !plan.ThresholdCrossed && plan.PriceChanged && in.CurrentPrice != nil && *in.CurrentPrice > 0 && s.AlertThreshold > 0 {
		prev := *in.CurrentPrice
		pct := float64(price-prev) / float64(prev) * 100
		if math.Abs(pct) >= s.AlertThreshold {
			direction := "increased"
			if pct < 0 {
				direction = "decreased"
			}
			plan.Effects = append(plan.Effects, effects.NotifyEffect{
				ItemID: in.ItemID,
				Kind:   KindChange,
				Title:  fmt.Sprintf("%s - Price Change Alert", in.Name),
				Message: fmt.Sprintf("Price %s by %.1f%% (%s → %s)", direction, math.Abs(pct),
					FormatPrice(prev, s.PriceFormat), FormatPrice(price, s.PriceFormat)),
			})
		}
	}

	plan.Remove = plan.ThresholdFired && s.RemoveOnAlert()
	return plan
}

func snoozed(lastAlert *int64, now, snoozeDuration int64) bool {
	return lastAlert != nil && now-*lastAlert < snoozeDuration
}

func snoozeLog(itemID, kind string) effects.LogEffect {
	return effects.LogEffect{
		Level:   "info",
		Message: fmt.Sprintf("%s alert for item %s suppressed by snooze", kind, itemID),
		Fields:  map[string]any{"item": itemID, "kind": kind},
	}
}
