// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/primary"
)

// WatchlistAdapter is a thin adapter that translates CLI operations to
// watchlist, refresh and settings service calls.
type WatchlistAdapter struct {
	watchlist primary.WatchlistService
	refresh   primary.RefreshService
	settings  primary.SettingsService
	out       io.Writer
}

// NewWatchlistAdapter creates a new WatchlistAdapter with the given services.
func NewWatchlistAdapter(
	watchlistService primary.WatchlistService,
	refreshService primary.RefreshService,
	settingsService primary.SettingsService,
	out io.Writer,
) *WatchlistAdapter {
	return &WatchlistAdapter{
		watchlist: watchlistService,
		refresh:   refreshService,
		settings:  settingsService,
		out:       out,
	}
}

// Add adds an item given an id or a Grand Exchange URL.
func (a *WatchlistAdapter) Add(ctx context.Context, idOrURL, name string, price *int64) error {
	id := watchlist.ExtractItemID(idOrURL)
	if id == "" {
		return fmt.Errorf("no item id in %q", idOrURL)
	}
	sourceURL := ""
	if strings.Contains(idOrURL, "://") {
		sourceURL = idOrURL
	}

	item, err := a.watchlist.AddItem(ctx, primary.AddItemRequest{
		ID:           id,
		Name:         name,
		SourceURL:    sourceURL,
		CurrentPrice: price,
	})
	if err != nil {
		return err
	}

	format := a.priceFormat(ctx)
	fmt.Fprintf(a.out, "✓ Tracking %s (%s) at %s\n", item.Name, item.ID, formatOptionalPrice(item.CurrentPrice, format))
	if item.LowThreshold != nil || item.HighThreshold != nil {
		fmt.Fprintf(a.out, "  Alerts: low %s, high %s\n",
			formatOptionalPrice(item.LowThreshold, format), formatOptionalPrice(item.HighThreshold, format))
	}
	return nil
}

// List prints the watchlist in the configured sort order.
func (a *WatchlistAdapter) List(ctx context.Context) error {
	items, err := a.watchlist.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "No items tracked")
		return nil
	}

	format := a.priceFormat(ctx)
	fmt.Fprintf(a.out, "\n%-8s %-28s %16s %16s %16s %s\n", "ID", "NAME", "PRICE", "LOW", "HIGH", "STATUS")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────────────────────────")
	for _, item := range items {
		fmt.Fprintf(a.out, "%-8s %-28s %16s %16s %16s %s\n",
			item.ID,
			truncate(item.Name, 28),
			formatOptionalPrice(item.CurrentPrice, format),
			formatOptionalPrice(item.LowThreshold, format),
			formatOptionalPrice(item.HighThreshold, format),
			alertStatus(item),
		)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show prints one item with its analysis.
func (a *WatchlistAdapter) Show(ctx context.Context, itemID string) error {
	item, err := a.watchlist.GetItem(ctx, itemID)
	if err != nil {
		return err
	}

	format := a.priceFormat(ctx)
	fmt.Fprintf(a.out, "\nItem:     %s (%s)\n", item.Name, item.ID)
	fmt.Fprintf(a.out, "URL:      %s\n", item.URL)
	fmt.Fprintf(a.out, "Price:    %s", formatOptionalPrice(item.CurrentPrice, format))
	if item.PreviousPrice != nil {
		fmt.Fprintf(a.out, " (was %s)", watchlist.FormatPrice(*item.PreviousPrice, format))
	}
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Low:      %s\n", formatOptionalPrice(item.LowThreshold, format))
	fmt.Fprintf(a.out, "High:     %s\n", formatOptionalPrice(item.HighThreshold, format))
	fmt.Fprintf(a.out, "Added:    %s\n", formatMillis(item.AddedAt))
	fmt.Fprintf(a.out, "Checked:  %s\n", formatMillis(item.LastChecked))

	if an := item.PriceAnalysis; an != nil {
		fmt.Fprintf(a.out, "\nTrend:      %s (weekly %+.1f%%, daily %+.1f%%)\n", an.TrendDirection, an.WeeklyChangePercent, an.DailyChangePercent)
		fmt.Fprintf(a.out, "Range:      %s - %s (avg %s)\n",
			watchlist.FormatPrice(an.MinPrice, format), watchlist.FormatPrice(an.MaxPrice, format), watchlist.FormatPrice(an.AvgPrice, format))
		fmt.Fprintf(a.out, "Volatility: %s\n", an.VolatilityCategory)
		fmt.Fprintf(a.out, "Signal:     %s\n", an.TradingSignal)
		fmt.Fprintf(a.out, "Position:   %s\n", an.PositionStatus)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Remove deletes an item.
func (a *WatchlistAdapter) Remove(ctx context.Context, itemID string) error {
	if err := a.watchlist.RemoveItem(ctx, itemID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Removed %s\n", itemID)
	return nil
}

// SetThresholds updates both thresholds; nil clears one.
func (a *WatchlistAdapter) SetThresholds(ctx context.Context, itemID string, low, high *int64) error {
	item, err := a.watchlist.UpdateThresholds(ctx, itemID, low, high)
	if err != nil {
		return err
	}
	format := a.priceFormat(ctx)
	fmt.Fprintf(a.out, "✓ %s alerts: low %s, high %s\n", item.Name,
		formatOptionalPrice(item.LowThreshold, format), formatOptionalPrice(item.HighThreshold, format))
	return nil
}

// Refresh runs one refresh cycle and prints its report.
func (a *WatchlistAdapter) Refresh(ctx context.Context) error {
	report, err := a.refresh.RefreshAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Checked %d items: %d updated, %d failed, %d alerts\n",
		report.Checked, report.Updated, report.Failed, report.Alerts)
	if len(report.Removed) > 0 {
		fmt.Fprintf(a.out, "  Removed: %s\n", strings.Join(report.Removed, ", "))
	}
	if report.ActiveAlerts > 0 {
		fmt.Fprintf(a.out, "  %s\n", color.New(color.FgYellow).Sprintf("%d active alerts", report.ActiveAlerts))
	}
	return nil
}

// ShowSettings prints the effective settings as sorted key = value lines.
func (a *WatchlistAdapter) ShowSettings(ctx context.Context) error {
	settings, err := a.settings.Get(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.out, "%-22s %s\n", k, fields[k])
	}
	return nil
}

// SetSettings applies key=value assignments. Values are read as JSON when
// they parse, otherwise as strings.
func (a *WatchlistAdapter) SetSettings(ctx context.Context, assignments []string) error {
	patch := make(map[string]any, len(assignments))
	for _, assignment := range assignments {
		key, value, ok := strings.Cut(assignment, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("expected key=value, got %q", assignment)
		}
		patch[strings.TrimSpace(key)] = parseSettingValue(strings.TrimSpace(value))
	}

	if _, err := a.settings.Update(ctx, patch); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Updated %d setting(s)\n", len(patch))
	return nil
}

// Helper methods

func (a *WatchlistAdapter) priceFormat(ctx context.Context) string {
	return priceFormatFrom(ctx, a.settings)
}

// priceFormatFrom reads the priceFormat setting, defaulting to exact gp.
func priceFormatFrom(ctx context.Context, settings primary.SettingsService) string {
	s, err := settings.Get(ctx)
	if err != nil || s.PriceFormat == "" {
		return "gp"
	}
	return s.PriceFormat
}

func parseSettingValue(value string) any {
	var decoded any
	if err := json.Unmarshal([]byte(value), &decoded); err == nil {
		return decoded
	}
	return value
}

func formatOptionalPrice(p *int64, format string) string {
	if p == nil {
		return "-"
	}
	return watchlist.FormatPrice(*p, format)
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func alertStatus(item *primary.WatchlistItem) string {
	if item.CurrentPrice == nil {
		return ""
	}
	price := *item.CurrentPrice
	switch {
	case item.LowThreshold != nil && *item.LowThreshold > 0 && price <= *item.LowThreshold:
		return color.New(color.FgRed).Sprint("LOW")
	case item.HighThreshold != nil && *item.HighThreshold > 0 && price >= *item.HighThreshold:
		return color.New(color.FgGreen).Sprint("HIGH")
	}
	return ""
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// ParsePrice reads an optional price argument like "1500000", "1.5m" or
// "none". Returns nil for none.
func ParsePrice(raw string) (*int64, error) {
	raw = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, ",", "")))
	if raw == "" || raw == "none" || raw == "-" {
		return nil, nil
	}
	multiplier := 1.0
	switch {
	case strings.HasSuffix(raw, "k"):
		multiplier, raw = 1_000, strings.TrimSuffix(raw, "k")
	case strings.HasSuffix(raw, "m"):
		multiplier, raw = 1_000_000, strings.TrimSuffix(raw, "m")
	case strings.HasSuffix(raw, "b"):
		multiplier, raw = 1_000_000_000, strings.TrimSuffix(raw, "b")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return nil, fmt.Errorf("invalid price %q", raw)
	}
	price := int64(value*multiplier + 0.5)
	return &price, nil
}
