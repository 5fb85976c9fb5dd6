package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/primary"
	"github.com/example/getracker/internal/ports/secondary"
)

// SettingsServiceImpl implements the SettingsService interface.
// Settings are read fresh on every call; nothing is cached.
type SettingsServiceImpl struct {
	settingsRepo secondary.SettingsRepository
	logWriter    secondary.LogWriter
}

// NewSettingsService creates a new SettingsService with injected dependencies.
func NewSettingsService(settingsRepo secondary.SettingsRepository, logWriter secondary.LogWriter) *SettingsServiceImpl {
	if logWriter == nil {
		logWriter = noopLogWriter{}
	}
	return &SettingsServiceImpl{
		settingsRepo: settingsRepo,
		logWriter:    logWriter,
	}
}

// Get returns stored settings merged over the defaults.
func (s *SettingsServiceImpl) Get(ctx context.Context) (*watchlist.Settings, error) {
	stored, err := s.settingsRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	settings, err := decodeSettings(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}

// Update merges patch over the stored settings. Keys the service does not
// know are kept as-is.
func (s *SettingsServiceImpl) Update(ctx context.Context, patch map[string]any) (*watchlist.Settings, error) {
	stored, err := s.settingsRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	merged := make(map[string]json.RawMessage, len(stored)+len(patch))
	for k, v := range stored {
		merged[k] = v
	}

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var changed []string
	for _, k := range keys {
		raw, err := json.Marshal(patch[k])
		if err != nil {
			return nil, &watchlist.ValidationError{Field: k, Reason: err.Error()}
		}
		if !bytes.Equal(merged[k], raw) {
			changed = append(changed, k)
		}
		merged[k] = raw
	}

	settings, err := decodeSettings(merged)
	if err != nil {
		return nil, &watchlist.ValidationError{Field: "settings", Reason: err.Error()}
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return settings, nil
	}

	if err := s.settingsRepo.Save(ctx, merged); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	for _, k := range changed {
		_ = s.logWriter.LogUpdate(ctx, "settings", "settings", k, string(stored[k]), string(merged[k]))
	}
	return settings, nil
}

func decodeSettings(stored map[string]json.RawMessage) (*watchlist.Settings, error) {
	settings := watchlist.DefaultSettings()
	if len(stored) == 0 {
		return &settings, nil
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Ensure SettingsServiceImpl implements the interface
var _ primary.SettingsService = (*SettingsServiceImpl)(nil)
