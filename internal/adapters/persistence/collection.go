package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/getracker/internal/ports/secondary"
)

// readJSON decodes one key into dst. Returns false when the key is absent.
func readJSON(ctx context.Context, store secondary.KeyValueStore, key string, dst any) (bool, error) {
	values, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	raw, ok := values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// writeJSON encodes value and stores it under key.
func writeJSON(ctx context.Context, store secondary.KeyValueStore, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, map[string][]byte{key: raw}); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
