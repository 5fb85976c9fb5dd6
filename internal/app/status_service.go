package app

import (
	"context"
	"fmt"

	"github.com/example/getracker/internal/ports/primary"
	"github.com/example/getracker/internal/ports/secondary"
)

// FallbackReporter reports whether synced writes have been redirected.
type FallbackReporter interface {
	InFallback(ctx context.Context) (bool, error)
}

// StatusServiceImpl implements the StatusService interface.
type StatusServiceImpl struct {
	synced           secondary.KeyValueStore
	local            secondary.KeyValueStore
	fallback         FallbackReporter
	quota            int
	watchlistService primary.WatchlistService
}

// NewStatusService creates a new StatusService with injected dependencies.
func NewStatusService(
	synced, local secondary.KeyValueStore,
	fallback FallbackReporter,
	quota int,
	watchlistService primary.WatchlistService,
) *StatusServiceImpl {
	return &StatusServiceImpl{
		synced:           synced,
		local:            local,
		fallback:         fallback,
		quota:            quota,
		watchlistService: watchlistService,
	}
}

// Status reports namespace usage, fallback mode and alert counts.
func (s *StatusServiceImpl) Status(ctx context.Context) (*primary.Status, error) {
	syncedBytes, err := s.synced.BytesInUse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to measure synced storage: %w", err)
	}
	localBytes, err := s.local.BytesInUse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to measure local storage: %w", err)
	}
	fallback, err := s.fallback.InFallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback mode: %w", err)
	}

	items, err := s.watchlistService.GetWatchlist(ctx)
	if err != nil {
		return nil, err
	}
	alerts, err := s.watchlistService.ActiveAlertCount(ctx)
	if err != nil {
		return nil, err
	}

	return &primary.Status{
		SyncedBytes:  syncedBytes,
		SyncedQuota:  s.quota,
		LocalBytes:   localBytes,
		FallbackMode: fallback,
		Items:        len(items),
		ActiveAlerts: alerts,
	}, nil
}

// Ensure StatusServiceImpl implements the interface
var _ primary.StatusService = (*StatusServiceImpl)(nil)
