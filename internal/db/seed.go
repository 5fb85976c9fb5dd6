package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SeedFixtures writes a pre-split watchlist record and default settings into
// the synced namespace. The next watchlist read migrates it.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UnixMilli()
	day := int64(24 * time.Hour / time.Millisecond)

	items := []struct {
		id, name     string
		price        int64
		low, high    int64
		addedDaysAgo int64
	}{
		{"4151", "Abyssal whip", 1500000, 1350000, 1650000, 3},
		{"1215", "Dragon dagger", 17000, 15300, 18700, 1},
		{"11832", "Bandos chestplate", 21000000, 18900000, 23100000, 10},
	}

	legacy := make(map[string]map[string]any, len(items))
	for _, it := range items {
		legacy[it.id] = map[string]any{
			"id":            it.id,
			"name":          it.name,
			"url":           "https://secure.runescape.com/m=itemdb_rs/viewitem?obj=" + it.id,
			"imageUrl":      "https://secure.runescape.com/m=itemdb_rs/obj_big.gif?id=" + it.id,
			"lowThreshold":  it.low,
			"highThreshold": it.high,
			"addedAt":       now - it.addedDaysAgo*day,
			"currentPrice":  it.price,
			"lastChecked":   now,
		}
	}

	value, err := json.Marshal(legacy)
	if err != nil {
		return fmt.Errorf("seed watchlist: %w", err)
	}
	if _, err := database.Exec(
		"INSERT OR REPLACE INTO kv_entries (namespace, key, value) VALUES ('sync', 'watchlist', ?)",
		value,
	); err != nil {
		return fmt.Errorf("seed watchlist: %w", err)
	}

	settings, err := json.Marshal(map[string]any{"alertRemoval": "keep", "updateInterval": 5})
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	if _, err := database.Exec(
		"INSERT OR IGNORE INTO kv_entries (namespace, key, value) VALUES ('sync', 'settings', ?)",
		settings,
	); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	return nil
}
