package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/getracker/internal/adapters/sqlite"
	"github.com/example/getracker/internal/ctxutil"
	"github.com/example/getracker/internal/ports/secondary"
)

func TestActivityLogRepository_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewActivityLogRepository(db)
	ctx := context.Background()

	t.Run("creates log with all fields", func(t *testing.T) {
		record := &secondary.ActivityLogRecord{
			ActorID:    "cli",
			EntityType: "item",
			EntityID:   "4151",
			Action:     "update",
			FieldName:  "lowThreshold",
			OldValue:   "1000",
			NewValue:   "900",
		}

		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if record.ID == 0 {
			t.Error("expected ID to be assigned")
		}
	})

	t.Run("creates log with nullable fields null", func(t *testing.T) {
		record := &secondary.ActivityLogRecord{
			EntityType: "item",
			EntityID:   "1215",
			Action:     "create",
		}
		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	})

	t.Run("filters by entity", func(t *testing.T) {
		entries, err := repo.List(ctx, secondary.ActivityLogFilters{EntityID: "4151"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("List returned %d entries, want 1", len(entries))
		}
		got := entries[0]
		if got.ActorID != "cli" || got.FieldName != "lowThreshold" || got.OldValue != "1000" || got.NewValue != "900" {
			t.Errorf("unexpected entry %+v", got)
		}
		if got.Timestamp == "" {
			t.Error("expected timestamp to be set")
		}
	})

	t.Run("lists newest first with limit", func(t *testing.T) {
		entries, err := repo.List(ctx, secondary.ActivityLogFilters{Limit: 1})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(entries) != 1 || entries[0].EntityID != "1215" {
			t.Errorf("List(limit 1) = %+v, want newest entry 1215", entries)
		}
	})
}

func TestActivityLogRepository_PruneOlderThan(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewActivityLogRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO activity_log (timestamp, entity_type, entity_id, action) VALUES (datetime('now', '-40 days'), 'item', 'old', 'create')`)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := repo.Create(ctx, &secondary.ActivityLogRecord{EntityType: "item", EntityID: "new", Action: "create"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	count, err := repo.PruneOlderThan(ctx, 30)
	if err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	if count != 1 {
		t.Errorf("pruned %d entries, want 1", count)
	}

	entries, _ := repo.List(ctx, secondary.ActivityLogFilters{})
	if len(entries) != 1 || entries[0].EntityID != "new" {
		t.Errorf("remaining entries = %+v, want only 'new'", entries)
	}
}

func TestLogWriterAdapter_UsesActorFromContext(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewActivityLogRepository(db)
	writer := sqlite.NewLogWriterAdapter(repo)
	ctx := ctxutil.WithActorID(context.Background(), "daemon")

	if err := writer.LogDelete(ctx, "item", "4151"); err != nil {
		t.Fatalf("LogDelete failed: %v", err)
	}

	entries, err := repo.List(context.Background(), secondary.ActivityLogFilters{Action: "delete"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ActorID != "daemon" {
		t.Errorf("entries = %+v, want one delete by daemon", entries)
	}
}
