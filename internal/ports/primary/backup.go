package primary

import "context"

// BackupVersion is written into every export.
const BackupVersion = "1.0.2"

// BackupService defines the primary port for whole-watchlist export and import.
type BackupService interface {
	// Export returns the merged watchlist and the effective settings.
	Export(ctx context.Context) (*Backup, error)

	// Import replaces the watchlist with the backup's items and merges its
	// settings over the stored ones.
	Import(ctx context.Context, backup *Backup) (*ImportResult, error)
}

// Backup is the portable export document.
type Backup struct {
	Watchlist    map[string]*WatchlistItem `json:"watchlist"`
	Settings     map[string]any            `json:"settings"`
	ExportDate   string                    `json:"exportDate"`
	Version      string                    `json:"version"`
	ExportSource string                    `json:"exportSource"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	Items            int      `json:"items"`
	Dropped          []string `json:"dropped"`
	SettingsImported bool     `json:"settingsImported"`
}
