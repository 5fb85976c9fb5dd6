package app

import (
	"context"
	"fmt"

	"github.com/example/getracker/internal/ports/primary"
	"github.com/example/getracker/internal/ports/secondary"
)

// LogServiceImpl implements the LogService interface.
type LogServiceImpl struct {
	logRepo secondary.ActivityLogRepository
}

// NewLogService creates a new LogService with injected dependencies.
func NewLogService(logRepo secondary.ActivityLogRepository) *LogServiceImpl {
	return &LogServiceImpl{
		logRepo: logRepo,
	}
}

// ListLogs retrieves log entries matching the given filters.
func (s *LogServiceImpl) ListLogs(ctx context.Context, filters primary.LogFilters) ([]*primary.LogEntry, error) {
	records, err := s.logRepo.List(ctx, secondary.ActivityLogFilters{
		EntityType: filters.EntityType,
		EntityID:   filters.EntityID,
		ActorID:    filters.ActorID,
		Action:     filters.Action,
		Limit:      filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}

	entries := make([]*primary.LogEntry, len(records))
	for i, r := range records {
		entries[i] = s.recordToLogEntry(r)
	}
	return entries, nil
}

// PruneLogs deletes log entries older than the specified number of days.
func (s *LogServiceImpl) PruneLogs(ctx context.Context, olderThanDays int) (int, error) {
	return s.logRepo.PruneOlderThan(ctx, olderThanDays)
}

// Helper methods

func (s *LogServiceImpl) recordToLogEntry(r *secondary.ActivityLogRecord) *primary.LogEntry {
	return &primary.LogEntry{
		ID:         r.ID,
		Timestamp:  r.Timestamp,
		ActorID:    r.ActorID,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Action:     r.Action,
		FieldName:  r.FieldName,
		OldValue:   r.OldValue,
		NewValue:   r.NewValue,
	}
}

// noopLogWriter discards activity log entries.
type noopLogWriter struct{}

func (noopLogWriter) LogCreate(ctx context.Context, entityType, entityID string) error { return nil }
func (noopLogWriter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	return nil
}
func (noopLogWriter) LogDelete(ctx context.Context, entityType, entityID string) error { return nil }

// Ensure LogServiceImpl implements the interface
var _ primary.LogService = (*LogServiceImpl)(nil)
