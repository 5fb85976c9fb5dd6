package primary

import "context"

// LogService defines the primary port for activity log operations.
type LogService interface {
	// ListLogs retrieves log entries matching the given filters.
	ListLogs(ctx context.Context, filters LogFilters) ([]*LogEntry, error)

	// PruneLogs deletes log entries older than the specified number of days.
	PruneLogs(ctx context.Context, olderThanDays int) (int, error)
}

// LogEntry represents an activity log entry at the port boundary.
type LogEntry struct {
	ID         int64  `json:"id"`
	Timestamp  string `json:"timestamp"`
	ActorID    string `json:"actorId,omitempty"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Action     string `json:"action"`            // 'create', 'update', 'delete'
	FieldName  string `json:"fieldName,omitempty"` // For updates only
	OldValue   string `json:"oldValue,omitempty"`
	NewValue   string `json:"newValue,omitempty"`
}

// LogFilters contains filter options for querying logs.
type LogFilters struct {
	EntityType string
	EntityID   string
	ActorID    string
	Action     string
	Limit      int
}
