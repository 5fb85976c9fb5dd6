package sqlite

import (
	"context"

	"github.com/example/getracker/internal/ctxutil"
	"github.com/example/getracker/internal/ports/secondary"
)

// LogWriterAdapter implements secondary.LogWriter using ActivityLogRepository.
type LogWriterAdapter struct {
	logRepo secondary.ActivityLogRepository
}

// NewLogWriterAdapter creates a new LogWriterAdapter.
func NewLogWriterAdapter(logRepo secondary.ActivityLogRepository) *LogWriterAdapter {
	return &LogWriterAdapter{logRepo: logRepo}
}

// LogCreate logs a create operation for an entity.
func (w *LogWriterAdapter) LogCreate(ctx context.Context, entityType, entityID string) error {
	return w.writeLog(ctx, entityType, entityID, "create", "", "", "")
}

// LogUpdate logs an update operation for an entity field.
func (w *LogWriterAdapter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	return w.writeLog(ctx, entityType, entityID, "update", fieldName, oldValue, newValue)
}

// LogDelete logs a delete operation for an entity.
func (w *LogWriterAdapter) LogDelete(ctx context.Context, entityType, entityID string) error {
	return w.writeLog(ctx, entityType, entityID, "delete", "", "", "")
}

// writeLog writes a log entry attributed to the actor in context.
func (w *LogWriterAdapter) writeLog(ctx context.Context, entityType, entityID, action, fieldName, oldValue, newValue string) error {
	return w.logRepo.Create(ctx, &secondary.ActivityLogRecord{
		ActorID:    ctxutil.ActorFromContext(ctx),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		FieldName:  fieldName,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
}

// Ensure LogWriterAdapter implements the interface
var _ secondary.LogWriter = (*LogWriterAdapter)(nil)
