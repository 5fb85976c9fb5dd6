package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })
	return database
}

func tableNames(t *testing.T, database *sql.DB) map[string]bool {
	t.Helper()
	rows, err := database.Query("SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		t.Fatalf("failed to list tables: %v", err)
	}
	defer rows.Close()

	names := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		names[name] = true
	}
	return names
}

func TestRunMigrations_FreshDatabase(t *testing.T) {
	database := openMemory(t)

	if err := runMigrations(database); err != nil {
		t.Fatalf("runMigrations() error = %v", err)
	}

	names := tableNames(t, database)
	for _, want := range []string{"kv_entries", "activity_log", "schema_version"} {
		if !names[want] {
			t.Errorf("table %s missing after migrations", want)
		}
	}

	var version int
	if err := database.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("failed to read version: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}

	// Second run is a no-op.
	if err := runMigrations(database); err != nil {
		t.Fatalf("second runMigrations() error = %v", err)
	}
}

func TestSchemaSQLMatchesMigrations(t *testing.T) {
	fromSchema := openMemory(t)
	if _, err := fromSchema.Exec(GetSchemaSQL()); err != nil {
		t.Fatalf("SchemaSQL failed: %v", err)
	}
	fromMigrations := openMemory(t)
	if err := runMigrations(fromMigrations); err != nil {
		t.Fatalf("runMigrations() error = %v", err)
	}

	schemaTables := tableNames(t, fromSchema)
	for name := range tableNames(t, fromMigrations) {
		if name == "schema_version" || name == "sqlite_sequence" {
			continue
		}
		if !schemaTables[name] {
			t.Errorf("table %s created by migrations but missing from SchemaSQL", name)
		}
	}
}

func TestSeedFixtures(t *testing.T) {
	database := openMemory(t)
	if _, err := database.Exec(GetSchemaSQL()); err != nil {
		t.Fatalf("SchemaSQL failed: %v", err)
	}

	if err := SeedFixtures(database); err != nil {
		t.Fatalf("SeedFixtures() error = %v", err)
	}

	var count int
	if err := database.QueryRow("SELECT COUNT(*) FROM kv_entries WHERE namespace = 'sync' AND key IN ('watchlist', 'settings')").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("seeded entries = %d, want 2", count)
	}
}
