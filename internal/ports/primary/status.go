package primary

import "context"

// StatusService defines the primary port for storage and watchlist health.
type StatusService interface {
	// Status reports namespace usage, fallback mode and alert counts.
	Status(ctx context.Context) (*Status, error)
}

// Status is a point-in-time health snapshot.
type Status struct {
	SyncedBytes  int  `json:"syncedBytes"`
	SyncedQuota  int  `json:"syncedQuota"`
	LocalBytes   int  `json:"localBytes"`
	FallbackMode bool `json:"fallbackMode"`
	Items        int  `json:"items"`
	ActiveAlerts int  `json:"activeAlerts"`
}
