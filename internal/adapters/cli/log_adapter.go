package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ctxutil"
	"github.com/example/getracker/internal/ports/primary"
)

// LogAdapter renders the activity log in watchlist terms: item names instead
// of bare ids, threshold changes as prices.
type LogAdapter struct {
	logs      primary.LogService
	watchlist primary.WatchlistService
	settings  primary.SettingsService
	out       io.Writer
}

// NewLogAdapter creates a new LogAdapter with the given services.
func NewLogAdapter(
	logService primary.LogService,
	watchlistService primary.WatchlistService,
	settingsService primary.SettingsService,
	out io.Writer,
) *LogAdapter {
	return &LogAdapter{
		logs:      logService,
		watchlist: watchlistService,
		settings:  settingsService,
		out:       out,
	}
}

// Tail prints the newest entries matching filters, oldest first, and returns
// the highest entry id printed (0 when nothing matched).
func (a *LogAdapter) Tail(ctx context.Context, filters primary.LogFilters) (int64, error) {
	if err := validateActor(filters.ActorID); err != nil {
		return 0, err
	}
	entries, err := a.logs.ListLogs(ctx, filters)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch logs: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No log entries found.")
		return 0, nil
	}

	r := a.newRenderer(ctx)
	fmt.Fprintf(a.out, "\n%-19s  %-7s  %-16s  %-32s  %s\n", "TIME", "ACTOR", "EVENT", "SUBJECT", "DETAIL")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────────────────────────")
	var last int64
	for i := len(entries) - 1; i >= 0; i-- {
		r.print(a.out, entries[i])
		if entries[i].ID > last {
			last = entries[i].ID
		}
	}
	return last, nil
}

// Follow polls every interval and prints entries with an id above afterID
// until ctx is cancelled.
func (a *LogAdapter) Follow(ctx context.Context, filters primary.LogFilters, afterID int64, interval time.Duration) error {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		entries, err := a.logs.ListLogs(ctx, filters)
		if err != nil {
			fmt.Fprintf(a.out, "Error fetching logs: %v\n", err)
			timer.Reset(interval)
			continue
		}
		r := a.newRenderer(ctx)
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].ID <= afterID {
				continue
			}
			r.print(a.out, entries[i])
			afterID = entries[i].ID
		}
		timer.Reset(interval)
	}
}

// ItemHistory prints every logged change to one item, given its id or a
// Grand Exchange URL. Removed items are still shown by id.
func (a *LogAdapter) ItemHistory(ctx context.Context, idOrURL string, limit int) error {
	id := watchlist.ExtractItemID(idOrURL)
	if id == "" {
		return fmt.Errorf("no item id in %q", idOrURL)
	}

	r := a.newRenderer(ctx)
	fmt.Fprintf(a.out, "Activity for %s\n", r.itemLabel(id))

	entries, err := a.logs.ListLogs(ctx, primary.LogFilters{EntityType: "item", EntityID: id, Limit: limit})
	if err != nil {
		return fmt.Errorf("failed to fetch logs: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "  no recorded changes")
		return nil
	}
	for i := len(entries) - 1; i >= 0; i-- {
		event, _, detail := r.describe(entries[i])
		line := fmt.Sprintf("  %s  %-7s  %s", formatLogTime(entries[i].Timestamp), actorOrDash(entries[i].ActorID), event)
		if detail != "" {
			line += "  " + detail
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

// Prune deletes entries older than days.
func (a *LogAdapter) Prune(ctx context.Context, days int) error {
	count, err := a.logs.PruneLogs(ctx, days)
	if err != nil {
		return fmt.Errorf("failed to prune logs: %w", err)
	}
	if count == 0 {
		fmt.Fprintf(a.out, "No log entries older than %d days found.\n", days)
		return nil
	}
	fmt.Fprintf(a.out, "✓ Pruned %d log entries older than %d days\n", count, days)
	return nil
}

// logRenderer holds the per-call lookups used to describe entries.
type logRenderer struct {
	names  map[string]string
	format string
}

func (a *LogAdapter) newRenderer(ctx context.Context) *logRenderer {
	r := &logRenderer{names: map[string]string{}, format: priceFormatFrom(ctx, a.settings)}
	items, err := a.watchlist.ListItems(ctx)
	if err != nil {
		return r
	}
	for _, item := range items {
		r.names[item.ID] = item.Name
	}
	return r
}

func (r *logRenderer) print(out io.Writer, entry *primary.LogEntry) {
	event, subject, detail := r.describe(entry)
	fmt.Fprintf(out, "%-19s  %-7s  %-16s  %-32s  %s\n",
		formatLogTime(entry.Timestamp),
		actorOrDash(entry.ActorID),
		event,
		truncate(subject, 32),
		detail,
	)
}

// describe returns the event label, the subject and an optional detail.
func (r *logRenderer) describe(entry *primary.LogEntry) (event, subject, detail string) {
	switch entry.EntityType {
	case "item":
		subject = r.itemLabel(entry.EntityID)
		switch entry.Action {
		case "create":
			return color.GreenString("+ added"), subject, ""
		case "delete":
			return color.RedString("- removed"), subject, ""
		}
		switch entry.FieldName {
		case "lowThreshold":
			event = "~ low alert"
		case "highThreshold":
			event = "~ high alert"
		default:
			event = "~ " + entry.FieldName
		}
		return color.YellowString(event), subject, r.priceChange(entry.OldValue, entry.NewValue)
	case "settings":
		return color.YellowString("~ setting"), entry.FieldName, valueOrDash(entry.OldValue) + " → " + valueOrDash(entry.NewValue)
	case "watchlist":
		if entry.EntityID == "backup" {
			return color.CyanString("↺ imported"), "backup", entry.NewValue + " items"
		}
	}

	subject = entry.EntityType + "/" + entry.EntityID
	if entry.FieldName != "" {
		detail = entry.FieldName + ": " + valueOrDash(entry.OldValue) + " → " + valueOrDash(entry.NewValue)
	}
	return entry.Action, subject, detail
}

func (r *logRenderer) itemLabel(id string) string {
	if name, ok := r.names[id]; ok && name != "" {
		return fmt.Sprintf("%s (%s)", name, id)
	}
	return id
}

// priceChange formats threshold values recorded as plain integers or "none".
func (r *logRenderer) priceChange(oldValue, newValue string) string {
	return r.thresholdValue(oldValue) + " → " + r.thresholdValue(newValue)
}

func (r *logRenderer) thresholdValue(raw string) string {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return valueOrDash(raw)
	}
	return watchlist.FormatPrice(n, r.format)
}

func validateActor(actorID string) error {
	if actorID == "" || ctxutil.IsKnownActor(actorID) {
		return nil
	}
	return fmt.Errorf("unknown actor %q (want one of %s)", actorID, strings.Join(ctxutil.Actors, ", "))
}

func actorOrDash(actorID string) string {
	if actorID == "" {
		return "-"
	}
	return actorID
}

func valueOrDash(v string) string {
	if v == "" || v == "none" {
		return "-"
	}
	return v
}

func formatLogTime(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
