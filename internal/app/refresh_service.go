package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"github.com/example/getracker/internal/core/effects"
	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/primary"
	"github.com/example/getracker/internal/ports/secondary"
)

// DefaultFetchDelay spaces out consecutive price fetches.
const DefaultFetchDelay = time.Second

// RefreshServiceImpl implements the RefreshService interface.
type RefreshServiceImpl struct {
	watchlistService primary.WatchlistService
	merger           *WatchlistMerger
	settingsService  primary.SettingsService
	priceSource      secondary.PriceSource
	executor         EffectExecutor
	logger           *log.Logger

	fetchDelay time.Duration
	now        Clock
	sleep      Sleeper
	running    atomic.Bool
}

// NewRefreshService creates a new RefreshService with injected dependencies.
func NewRefreshService(
	watchlistService primary.WatchlistService,
	merger *WatchlistMerger,
	settingsService primary.SettingsService,
	priceSource secondary.PriceSource,
	executor EffectExecutor,
	logger *log.Logger,
	fetchDelay time.Duration,
	now Clock,
	sleep Sleeper,
) *RefreshServiceImpl {
	if logger == nil {
		logger = log.Default()
	}
	if now == nil {
		now = time.Now
	}
	if sleep == nil {
		sleep = sleepContext
	}
	return &RefreshServiceImpl{
		watchlistService: watchlistService,
		merger:           merger,
		settingsService:  settingsService,
		priceSource:      priceSource,
		executor:         executor,
		logger:           logger,
		fetchDelay:       fetchDelay,
		now:              now,
		sleep:            sleep,
	}
}

// RefreshAll runs one refresh cycle. All patches and removals are committed
// by a single ApplyBulkUpdate; notifications go out after the commit.
func (s *RefreshServiceImpl) RefreshAll(ctx context.Context) (*primary.RefreshReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, primary.ErrRefreshInProgress
	}
	defer s.running.Store(false)

	settings, err := s.settingsService.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	snapshot, err := s.merger.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	report := &primary.RefreshReport{Removed: []string{}}
	updates := make(map[string]watchlist.ItemPatch)
	var removals []string
	var effs []effects.Effect

	cycleStart := s.now().UnixMilli()
	remaining := ids[:0:0]
	for _, id := range ids {
		if settings.ExpiredByAge(snapshot[id].Item.AddedAt, cycleStart) {
			s.logger.Printf("removing item %s: older than %d days", id, settings.AutoRemoveDays)
			removals = append(removals, id)
			continue
		}
		remaining = append(remaining, id)
	}

	for i, id := range remaining {
		if i > 0 {
			if err := s.sleep(ctx, s.fetchDelay); err != nil {
				return nil, err
			}
		}

		snap := snapshot[id]
		quote := s.priceSource.Fetch(ctx, id)
		report.Checked++
		if quote == nil {
			report.Failed++
			s.logger.Printf("no price for item %s this cycle", id)
		}

		plan := watchlist.PlanItemRefresh(refreshInput(snap), quote, *settings, s.now().UnixMilli())
		if !plan.Patch.IsEmpty() {
			updates[id] = plan.Patch
		}
		if plan.PriceChanged {
			report.Updated++
		}
		for _, eff := range plan.Effects {
			if _, ok := eff.(effects.NotifyEffect); ok {
				report.Alerts++
			}
		}
		effs = append(effs, plan.Effects...)
		if plan.Remove {
			removals = append(removals, id)
		}
	}

	if err := s.watchlistService.ApplyBulkUpdate(ctx, updates, removals); err != nil {
		return nil, fmt.Errorf("failed to commit refresh: %w", err)
	}
	if err := s.executor.Execute(ctx, effs); err != nil {
		s.logger.Printf("refresh effects failed: %v", err)
	}

	report.Removed = append(report.Removed, removals...)
	active, err := s.watchlistService.ActiveAlertCount(ctx)
	if err != nil {
		s.logger.Printf("failed to count active alerts: %v", err)
	}
	report.ActiveAlerts = active

	s.logger.Printf("refresh complete: %d checked, %d updated, %d failed, %d alerts, %d removed",
		report.Checked, report.Updated, report.Failed, report.Alerts, len(report.Removed))
	return report, nil
}

func refreshInput(snap ItemSnapshot) watchlist.RefreshItemInput {
	item := snap.Item
	return watchlist.RefreshItemInput{
		ItemID:        item.ID,
		Name:          item.Name,
		ImageURL:      snap.StoredImageURL,
		CurrentPrice:  item.CurrentPrice,
		LowThreshold:  item.LowThreshold,
		HighThreshold: item.HighThreshold,
		LastLowAlert:  item.LastLowAlert,
		LastHighAlert: item.LastHighAlert,
	}
}

// Ensure RefreshServiceImpl implements the interface
var _ primary.RefreshService = (*RefreshServiceImpl)(nil)
