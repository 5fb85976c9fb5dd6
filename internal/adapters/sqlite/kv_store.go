// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/example/getracker/internal/ports/secondary"
)

// DefaultSyncQuotaBytes is the synced namespace budget.
const DefaultSyncQuotaBytes = 102400

// KVStore implements secondary.KeyValueStore over one namespace of the
// kv_entries table. A positive quota makes writes fail with
// *secondary.QuotaExceededError once the namespace would outgrow it.
type KVStore struct {
	db        *sql.DB
	namespace secondary.Namespace
	quota     int
}

// NewSyncedStore creates the quota-enforcing synced namespace store.
func NewSyncedStore(db *sql.DB, quota int) *KVStore {
	if quota <= 0 {
		quota = DefaultSyncQuotaBytes
	}
	return &KVStore{db: db, namespace: secondary.NamespaceSync, quota: quota}
}

// NewLocalStore creates the unbounded local namespace store.
func NewLocalStore(db *sql.DB) *KVStore {
	return &KVStore{db: db, namespace: secondary.NamespaceLocal}
}

// Namespace returns the namespace this store operates on.
func (s *KVStore) Namespace() secondary.Namespace {
	return s.namespace
}

// Quota returns the byte budget, or 0 when unbounded.
func (s *KVStore) Quota() int {
	return s.quota
}

// Get returns the values for the given keys, or the whole namespace.
func (s *KVStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	query := "SELECT key, value FROM kv_entries WHERE namespace = ?"
	args := []any{string(s.namespace)}
	if len(keys) > 0 {
		query += " AND key IN (" + placeholders(len(keys)) + ")"
		for _, k := range keys {
			args = append(args, k)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s storage: %w", s.namespace, err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s entry: %w", s.namespace, err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s storage: %w", s.namespace, err)
	}
	return result, nil
}

// Set writes all entries in one transaction.
func (s *KVStore) Set(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin %s write: %w", s.namespace, err)
	}
	defer tx.Rollback()

	keys := sortedKeys(entries)

	if s.quota > 0 {
		retained, err := s.bytesExcluding(ctx, tx, keys)
		if err != nil {
			return err
		}
		required := retained
		for _, k := range keys {
			required += len(k) + len(entries[k])
		}
		if required > s.quota {
			return &secondary.QuotaExceededError{Namespace: s.namespace, Quota: s.quota, Required: required}
		}
	}

	for _, k := range keys {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv_entries (namespace, key, value) VALUES (?, ?, ?)
			 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
			string(s.namespace), k, entries[k],
		)
		if err != nil {
			return fmt.Errorf("failed to write %s key %s: %w", s.namespace, k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s write: %w", s.namespace, err)
	}
	return nil
}

// Remove deletes the given keys.
func (s *KVStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := []any{string(s.namespace)}
	for _, k := range keys {
		args = append(args, k)
	}
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM kv_entries WHERE namespace = ? AND key IN ("+placeholders(len(keys))+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to remove %s keys: %w", s.namespace, err)
	}
	return nil
}

// BytesInUse returns the key+value byte size of the given keys, or of the
// whole namespace.
func (s *KVStore) BytesInUse(ctx context.Context, keys ...string) (int, error) {
	query := "SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(value)), 0) FROM kv_entries WHERE namespace = ?"
	args := []any{string(s.namespace)}
	if len(keys) > 0 {
		query += " AND key IN (" + placeholders(len(keys)) + ")"
		for _, k := range keys {
			args = append(args, k)
		}
	}

	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to measure %s storage: %w", s.namespace, err)
	}
	return total, nil
}

// bytesExcluding sums every entry in the namespace except the given keys.
func (s *KVStore) bytesExcluding(ctx context.Context, tx *sql.Tx, keys []string) (int, error) {
	args := []any{string(s.namespace)}
	for _, k := range keys {
		args = append(args, k)
	}
	var total int
	err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(value)), 0) FROM kv_entries WHERE namespace = ? AND key NOT IN ("+placeholders(len(keys))+")",
		args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to measure %s storage: %w", s.namespace, err)
	}
	return total, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func sortedKeys(entries map[string][]byte) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ensure KVStore implements the interface
var _ secondary.KeyValueStore = (*KVStore)(nil)
