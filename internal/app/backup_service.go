package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/primary"
	"github.com/example/getracker/internal/ports/secondary"
)

const backupSource = "getracker"

// BackupServiceImpl implements the BackupService interface.
type BackupServiceImpl struct {
	watchlist       *WatchlistServiceImpl
	settingsService primary.SettingsService
	logWriter       secondary.LogWriter
	now             Clock
}

// NewBackupService creates a new BackupService with injected dependencies.
func NewBackupService(
	watchlistService *WatchlistServiceImpl,
	settingsService primary.SettingsService,
	logWriter secondary.LogWriter,
	now Clock,
) *BackupServiceImpl {
	if logWriter == nil {
		logWriter = noopLogWriter{}
	}
	if now == nil {
		now = time.Now
	}
	return &BackupServiceImpl{
		watchlist:       watchlistService,
		settingsService: settingsService,
		logWriter:       logWriter,
		now:             now,
	}
}

// Export returns the merged watchlist and the effective settings.
func (s *BackupServiceImpl) Export(ctx context.Context) (*primary.Backup, error) {
	items, err := s.watchlist.GetWatchlist(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsService.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	settingsMap, err := settingsToMap(settings)
	if err != nil {
		return nil, err
	}

	return &primary.Backup{
		Watchlist:    items,
		Settings:     settingsMap,
		ExportDate:   s.now().UTC().Format(time.RFC3339),
		Version:      primary.BackupVersion,
		ExportSource: backupSource,
	}, nil
}

// Import validates the backup, merges its settings, then replaces the
// watchlist. Invalid settings abort before any item is written.
func (s *BackupServiceImpl) Import(ctx context.Context, backup *primary.Backup) (*primary.ImportResult, error) {
	if backup == nil || backup.Version == "" || backup.Watchlist == nil {
		return nil, &watchlist.ValidationError{Field: "backup", Reason: "unsupported backup format"}
	}
	for id := range backup.Watchlist {
		if watchlist.ExtractItemID(id) != id {
			return nil, &watchlist.ValidationError{Field: "backup", Reason: fmt.Sprintf("item key %q is not a numeric id", id)}
		}
	}

	result := &primary.ImportResult{}
	if len(backup.Settings) > 0 {
		if _, err := s.settingsService.Update(ctx, backup.Settings); err != nil {
			return nil, err
		}
		result.SettingsImported = true
	}

	dropped, err := s.watchlist.replaceAll(ctx, backup.Watchlist)
	if err != nil {
		return nil, err
	}
	result.Dropped = dropped
	for _, item := range backup.Watchlist {
		if item != nil {
			result.Items++
		}
	}

	if err := s.logWriter.LogUpdate(ctx, "watchlist", "backup", "items", "", strconv.Itoa(result.Items)); err != nil {
		s.watchlist.logger.Printf("failed to write activity log: %v", err)
	}
	return result, nil
}

func settingsToMap(settings *watchlist.Settings) (map[string]any, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return out, nil
}

// Ensure BackupServiceImpl implements the interface
var _ primary.BackupService = (*BackupServiceImpl)(nil)
