package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/example/getracker/internal/core/analysis"
	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/primary"
)

// ============================================================================
// Mocks
// ============================================================================

// mockWatchlistService implements primary.WatchlistService for testing
type mockWatchlistService struct {
	addItemFn          func(ctx context.Context, req primary.AddItemRequest) (*primary.WatchlistItem, error)
	removeItemFn       func(ctx context.Context, itemID string) error
	updateThresholdsFn func(ctx context.Context, itemID string, low, high *int64) (*primary.WatchlistItem, error)
	listItemsFn        func(ctx context.Context) ([]*primary.WatchlistItem, error)
	getItemFn          func(ctx context.Context, itemID string) (*primary.WatchlistItem, error)

	// Track calls for verification
	lastAddReq   primary.AddItemRequest
	lastRemoveID string
	lastLow      *int64
	lastHigh     *int64
}

func (m *mockWatchlistService) AddItem(ctx context.Context, req primary.AddItemRequest) (*primary.WatchlistItem, error) {
	m.lastAddReq = req
	if m.addItemFn != nil {
		return m.addItemFn(ctx, req)
	}
	return &primary.WatchlistItem{ID: req.ID, Name: "Abyssal whip", CurrentPrice: req.CurrentPrice}, nil
}

func (m *mockWatchlistService) RemoveItem(ctx context.Context, itemID string) error {
	m.lastRemoveID = itemID
	if m.removeItemFn != nil {
		return m.removeItemFn(ctx, itemID)
	}
	return nil
}

func (m *mockWatchlistService) UpdateThresholds(ctx context.Context, itemID string, low, high *int64) (*primary.WatchlistItem, error) {
	m.lastLow, m.lastHigh = low, high
	if m.updateThresholdsFn != nil {
		return m.updateThresholdsFn(ctx, itemID, low, high)
	}
	return &primary.WatchlistItem{ID: itemID, Name: "Abyssal whip", LowThreshold: low, HighThreshold: high}, nil
}

func (m *mockWatchlistService) ApplyBulkUpdate(ctx context.Context, updates map[string]watchlist.ItemPatch, removeIDs []string) error {
	return errors.New("not implemented in adapter")
}

func (m *mockWatchlistService) GetWatchlist(ctx context.Context) (map[string]*primary.WatchlistItem, error) {
	return nil, errors.New("not implemented in adapter")
}

func (m *mockWatchlistService) ListItems(ctx context.Context) ([]*primary.WatchlistItem, error) {
	if m.listItemsFn != nil {
		return m.listItemsFn(ctx)
	}
	return []*primary.WatchlistItem{}, nil
}

func (m *mockWatchlistService) GetItem(ctx context.Context, itemID string) (*primary.WatchlistItem, error) {
	if m.getItemFn != nil {
		return m.getItemFn(ctx, itemID)
	}
	return &primary.WatchlistItem{ID: itemID, Name: "Abyssal whip"}, nil
}

func (m *mockWatchlistService) GetHistory(ctx context.Context, itemID string) ([]analysis.PricePoint, error) {
	return nil, errors.New("not implemented in adapter")
}

func (m *mockWatchlistService) ActiveAlertCount(ctx context.Context) (int, error) {
	return 0, nil
}

// mockRefreshService implements primary.RefreshService for testing
type mockRefreshService struct {
	report *primary.RefreshReport
	err    error
}

func (m *mockRefreshService) RefreshAll(ctx context.Context) (*primary.RefreshReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

// mockSettingsService implements primary.SettingsService for testing
type mockSettingsService struct {
	settings  watchlist.Settings
	lastPatch map[string]any
	updateErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: watchlist.DefaultSettings()}
}

func (m *mockSettingsService) Get(ctx context.Context) (*watchlist.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Update(ctx context.Context, patch map[string]any) (*watchlist.Settings, error) {
	m.lastPatch = patch
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	s := m.settings
	return &s, nil
}

func newTestAdapter() (*WatchlistAdapter, *mockWatchlistService, *mockRefreshService, *mockSettingsService, *bytes.Buffer) {
	color.NoColor = true
	wl := &mockWatchlistService{}
	rf := &mockRefreshService{report: &primary.RefreshReport{}}
	st := newMockSettingsService()
	var buf bytes.Buffer
	return NewWatchlistAdapter(wl, rf, st, &buf), wl, rf, st, &buf
}

func ptr(v int64) *int64 { return &v }

// ============================================================================
// Tests
// ============================================================================

func TestWatchlistAdapter_Add(t *testing.T) {
	t.Run("accepts a bare id", func(t *testing.T) {
		adapter, wl, _, _, out := newTestAdapter()

		err := adapter.Add(context.Background(), "4151", "", ptr(1500000))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if wl.lastAddReq.ID != "4151" {
			t.Errorf("expected id 4151, got %q", wl.lastAddReq.ID)
		}
		if wl.lastAddReq.SourceURL != "" {
			t.Errorf("expected no source URL, got %q", wl.lastAddReq.SourceURL)
		}
		if !strings.Contains(out.String(), "✓ Tracking Abyssal whip (4151) at 1,500,000 gp") {
			t.Errorf("unexpected output: %q", out.String())
		}
	})

	t.Run("extracts the id from a URL", func(t *testing.T) {
		adapter, wl, _, _, _ := newTestAdapter()
		url := "https://secure.runescape.com/m=itemdb_rs/Abyssal+whip/viewitem?obj=4151"

		if err := adapter.Add(context.Background(), url, "", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if wl.lastAddReq.ID != "4151" {
			t.Errorf("expected id 4151, got %q", wl.lastAddReq.ID)
		}
		if wl.lastAddReq.SourceURL != url {
			t.Errorf("expected source URL to be passed through, got %q", wl.lastAddReq.SourceURL)
		}
	})

	t.Run("rejects input without an id", func(t *testing.T) {
		adapter, _, _, _, _ := newTestAdapter()

		err := adapter.Add(context.Background(), "whip", "", nil)
		if err == nil {
			t.Fatal("expected error for input without id")
		}
	})

	t.Run("prints thresholds when set", func(t *testing.T) {
		adapter, wl, _, _, out := newTestAdapter()
		wl.addItemFn = func(ctx context.Context, req primary.AddItemRequest) (*primary.WatchlistItem, error) {
			return &primary.WatchlistItem{ID: req.ID, Name: "Whip", CurrentPrice: ptr(1000), LowThreshold: ptr(900), HighThreshold: ptr(1100)}, nil
		}

		if err := adapter.Add(context.Background(), "4151", "", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "Alerts: low 900 gp, high 1,100 gp") {
			t.Errorf("unexpected output: %q", out.String())
		}
	})
}

func TestWatchlistAdapter_List(t *testing.T) {
	t.Run("empty watchlist", func(t *testing.T) {
		adapter, _, _, _, out := newTestAdapter()

		if err := adapter.List(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "No items tracked") {
			t.Errorf("expected empty message, got %q", out.String())
		}
	})

	t.Run("renders rows with alert status", func(t *testing.T) {
		adapter, wl, _, st, out := newTestAdapter()
		st.settings.PriceFormat = "compact"
		wl.listItemsFn = func(ctx context.Context) ([]*primary.WatchlistItem, error) {
			return []*primary.WatchlistItem{
				{ID: "4151", Name: "Abyssal whip", CurrentPrice: ptr(850), LowThreshold: ptr(900), HighThreshold: ptr(1100)},
				{ID: "11802", Name: "Armadyl godsword", CurrentPrice: ptr(2500000)},
			}, nil
		}

		if err := adapter.List(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(out.String(), "\n")
		var whip, ags string
		for _, line := range lines {
			switch {
			case strings.HasPrefix(line, "4151"):
				whip = line
			case strings.HasPrefix(line, "11802"):
				ags = line
			}
		}
		if !strings.HasSuffix(strings.TrimSpace(whip), "LOW") {
			t.Errorf("expected whip row flagged LOW, got %q", whip)
		}
		if !strings.Contains(ags, "2.5M gp") {
			t.Errorf("expected compact price in row, got %q", ags)
		}
		if strings.Contains(ags, "LOW") || strings.Contains(ags, "HIGH") {
			t.Errorf("expected no alert on row without thresholds, got %q", ags)
		}
	})

	t.Run("propagates service errors", func(t *testing.T) {
		adapter, wl, _, _, _ := newTestAdapter()
		wl.listItemsFn = func(ctx context.Context) ([]*primary.WatchlistItem, error) {
			return nil, errors.New("storage unavailable")
		}

		if err := adapter.List(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestWatchlistAdapter_Show(t *testing.T) {
	adapter, wl, _, _, out := newTestAdapter()
	wl.getItemFn = func(ctx context.Context, itemID string) (*primary.WatchlistItem, error) {
		return &primary.WatchlistItem{
			ID:            itemID,
			Name:          "Abyssal whip",
			CurrentPrice:  ptr(1200),
			PreviousPrice: ptr(1000),
			PriceAnalysis: &analysis.Analysis{
				TrendDirection: analysis.TrendRising,
				TradingSignal:  analysis.SignalNormal,
			},
		}, nil
	}

	if err := adapter.Show(context.Background(), "4151"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Abyssal whip (4151)", "1,200 gp (was 1,000 gp)", "Signal:     normal"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got %q", want, got)
		}
	}
}

func TestWatchlistAdapter_Remove(t *testing.T) {
	adapter, wl, _, _, out := newTestAdapter()

	if err := adapter.Remove(context.Background(), "4151"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wl.lastRemoveID != "4151" {
		t.Errorf("expected remove of 4151, got %q", wl.lastRemoveID)
	}
	if !strings.Contains(out.String(), "✓ Removed 4151") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestWatchlistAdapter_SetThresholds(t *testing.T) {
	t.Run("passes both values", func(t *testing.T) {
		adapter, wl, _, _, out := newTestAdapter()

		if err := adapter.SetThresholds(context.Background(), "4151", ptr(900), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if wl.lastLow == nil || *wl.lastLow != 900 {
			t.Errorf("expected low 900, got %v", wl.lastLow)
		}
		if wl.lastHigh != nil {
			t.Errorf("expected high cleared, got %v", *wl.lastHigh)
		}
		if !strings.Contains(out.String(), "low 900 gp, high -") {
			t.Errorf("unexpected output: %q", out.String())
		}
	})

	t.Run("propagates conflicts", func(t *testing.T) {
		adapter, wl, _, _, _ := newTestAdapter()
		wl.updateThresholdsFn = func(ctx context.Context, itemID string, low, high *int64) (*primary.WatchlistItem, error) {
			return nil, &watchlist.ConflictError{ItemID: itemID}
		}

		err := adapter.SetThresholds(context.Background(), "4151", ptr(1), ptr(2))
		var conflict *watchlist.ConflictError
		if !errors.As(err, &conflict) {
			t.Errorf("expected ConflictError, got %v", err)
		}
	})
}

func TestWatchlistAdapter_Refresh(t *testing.T) {
	t.Run("prints report", func(t *testing.T) {
		adapter, _, rf, _, out := newTestAdapter()
		rf.report = &primary.RefreshReport{Checked: 3, Updated: 2, Failed: 1, Alerts: 1, Removed: []string{"4151"}, ActiveAlerts: 2}

		if err := adapter.Refresh(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := out.String()
		for _, want := range []string{"Checked 3 items: 2 updated, 1 failed, 1 alerts", "Removed: 4151", "2 active alerts"} {
			if !strings.Contains(got, want) {
				t.Errorf("expected output to contain %q, got %q", want, got)
			}
		}
	})

	t.Run("in-progress error surfaces", func(t *testing.T) {
		adapter, _, rf, _, _ := newTestAdapter()
		rf.err = primary.ErrRefreshInProgress

		if err := adapter.Refresh(context.Background()); !errors.Is(err, primary.ErrRefreshInProgress) {
			t.Errorf("expected ErrRefreshInProgress, got %v", err)
		}
	})
}

func TestWatchlistAdapter_Settings(t *testing.T) {
	t.Run("show lists keys sorted", func(t *testing.T) {
		adapter, _, _, _, out := newTestAdapter()

		if err := adapter.ShowSettings(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := out.String()
		if !strings.Contains(got, "updateInterval") || !strings.Contains(got, "priceFormat") {
			t.Errorf("expected settings keys in output, got %q", got)
		}
		if strings.Index(got, "alertDuration") > strings.Index(got, "updateInterval") {
			t.Error("expected keys in sorted order")
		}
	})

	t.Run("set parses typed values", func(t *testing.T) {
		adapter, _, _, st, _ := newTestAdapter()

		err := adapter.SetSettings(context.Background(), []string{"updateInterval=10", "darkMode=true", "priceFormat=compact"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if st.lastPatch["updateInterval"] != float64(10) {
			t.Errorf("expected numeric updateInterval, got %#v", st.lastPatch["updateInterval"])
		}
		if st.lastPatch["darkMode"] != true {
			t.Errorf("expected boolean darkMode, got %#v", st.lastPatch["darkMode"])
		}
		if st.lastPatch["priceFormat"] != "compact" {
			t.Errorf("expected string priceFormat, got %#v", st.lastPatch["priceFormat"])
		}
	})

	t.Run("set rejects malformed assignment", func(t *testing.T) {
		adapter, _, _, st, _ := newTestAdapter()

		if err := adapter.SetSettings(context.Background(), []string{"darkMode"}); err == nil {
			t.Fatal("expected error for missing '='")
		}
		if st.lastPatch != nil {
			t.Error("expected no update call")
		}
	})
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    *int64
		wantErr bool
	}{
		{in: "1500000", want: ptr(1500000)},
		{in: "1,500,000", want: ptr(1500000)},
		{in: "1.5m", want: ptr(1500000)},
		{in: "250K", want: ptr(250000)},
		{in: "2b", want: ptr(2000000000)},
		{in: "none"},
		{in: ""},
		{in: "abc", wantErr: true},
		{in: "-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
