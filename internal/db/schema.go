package db

// SchemaSQL is the complete schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// Tests use this schema via GetSchemaSQL() instead of hardcoding their own,
// so a repository that references a missing column fails immediately with
// "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//  3. Run the db tests to verify alignment
const SchemaSQL = `
-- Key-value entries for both storage tiers
CREATE TABLE IF NOT EXISTS kv_entries (
	namespace TEXT NOT NULL CHECK(namespace IN ('sync', 'local')),
	key TEXT NOT NULL,
	value BLOB NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (namespace, key)
);

-- Activity log (audit trail of watchlist mutations)
CREATE TABLE IF NOT EXISTS activity_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	actor_id TEXT,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL CHECK(action IN ('create', 'update', 'delete')),
	field_name TEXT,
	old_value TEXT,
	new_value TEXT
);

CREATE INDEX IF NOT EXISTS idx_activity_log_entity ON activity_log(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_activity_log_timestamp ON activity_log(timestamp);
`

// InitSchema creates the database schema
func InitSchema() error {
	db, err := GetDB()
	if err != nil {
		return err
	}

	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		// schema_version table exists - run any pending migrations
		return RunMigrations()
	}

	// Fresh install - create modern schema directly and mark all
	// migrations as applied
	if _, err := db.Exec(SchemaSQL); err != nil {
		return err
	}
	if _, err := db.Exec(schemaVersionSQL); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
