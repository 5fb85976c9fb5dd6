package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/getracker/internal/ports/secondary"
)

// ActivityLogRepository implements secondary.ActivityLogRepository with SQLite.
type ActivityLogRepository struct {
	db *sql.DB
}

// NewActivityLogRepository creates a new SQLite activity log repository.
func NewActivityLogRepository(db *sql.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create persists a new log entry.
func (r *ActivityLogRepository) Create(ctx context.Context, entry *secondary.ActivityLogRecord) error {
	var actorID, fieldName, oldValue, newValue sql.NullString
	if entry.ActorID != "" {
		actorID = sql.NullString{String: entry.ActorID, Valid: true}
	}
	if entry.FieldName != "" {
		fieldName = sql.NullString{String: entry.FieldName, Valid: true}
	}
	if entry.OldValue != "" {
		oldValue = sql.NullString{String: entry.OldValue, Valid: true}
	}
	if entry.NewValue != "" {
		newValue = sql.NullString{String: entry.NewValue, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_log (actor_id, entity_type, entity_id, action, field_name, old_value, new_value) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		actorID,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		fieldName,
		oldValue,
		newValue,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity log entry: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// List retrieves log entries matching the given filters, newest first.
func (r *ActivityLogRepository) List(ctx context.Context, filters secondary.ActivityLogFilters) ([]*secondary.ActivityLogRecord, error) {
	query := `SELECT id, timestamp, actor_id, entity_type, entity_id, action, field_name, old_value, new_value FROM activity_log WHERE 1=1`
	args := []any{}

	if filters.EntityType != "" {
		query += " AND entity_type = ?"
		args = append(args, filters.EntityType)
	}

	if filters.EntityID != "" {
		query += " AND entity_id = ?"
		args = append(args, filters.EntityID)
	}

	if filters.ActorID != "" {
		query += " AND actor_id = ?"
		args = append(args, filters.ActorID)
	}

	if filters.Action != "" {
		query += " AND action = ?"
		args = append(args, filters.Action)
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity log: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.ActivityLogRecord
	for rows.Next() {
		var (
			actorID   sql.NullString
			fieldName sql.NullString
			oldValue  sql.NullString
			newValue  sql.NullString
			timestamp time.Time
		)

		record := &secondary.ActivityLogRecord{}
		err := rows.Scan(&record.ID,
			&timestamp,
			&actorID,
			&record.EntityType,
			&record.EntityID,
			&record.Action,
			&fieldName,
			&oldValue,
			&newValue)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity log entry: %w", err)
		}
		record.Timestamp = timestamp.Format(time.RFC3339)
		record.ActorID = actorID.String
		record.FieldName = fieldName.String
		record.OldValue = oldValue.String
		record.NewValue = newValue.String

		entries = append(entries, record)
	}

	return entries, nil
}

// PruneOlderThan deletes log entries older than the given number of days.
func (r *ActivityLogRepository) PruneOlderThan(ctx context.Context, days int) (int, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM activity_log WHERE timestamp < datetime('now', ?)",
		fmt.Sprintf("-%d days", days),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune activity log: %w", err)
	}

	count, _ := result.RowsAffected()
	return int(count), nil
}

// Ensure ActivityLogRepository implements the interface
var _ secondary.ActivityLogRepository = (*ActivityLogRepository)(nil)
