package persistence

import (
	"context"
	"encoding/json"

	"github.com/example/getracker/internal/ports/secondary"
)

// SettingsKey holds the flat settings object in the synced namespace.
const SettingsKey = "settings"

// SettingsRepository implements secondary.SettingsRepository.
type SettingsRepository struct {
	store secondary.KeyValueStore
}

// NewSettingsRepository creates a SettingsRepository.
func NewSettingsRepository(store secondary.KeyValueStore) *SettingsRepository {
	return &SettingsRepository{store: store}
}

// Load returns the stored settings object, or nil when absent.
func (r *SettingsRepository) Load(ctx context.Context) (map[string]json.RawMessage, error) {
	var settings map[string]json.RawMessage
	if _, err := readJSON(ctx, r.store, SettingsKey, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save replaces the stored settings object.
func (r *SettingsRepository) Save(ctx context.Context, settings map[string]json.RawMessage) error {
	return writeJSON(ctx, r.store, SettingsKey, settings)
}

// Ensure SettingsRepository implements the interface
var _ secondary.SettingsRepository = (*SettingsRepository)(nil)
