package primary

import (
	"context"
	"errors"
)

// ErrRefreshInProgress is returned when a cycle is already running.
var ErrRefreshInProgress = errors.New("price refresh already in progress")

// RefreshService defines the primary port for the price refresh cycle.
type RefreshService interface {
	// RefreshAll fetches every item, evaluates alerts and commits the
	// results in one bulk update.
	RefreshAll(ctx context.Context) (*RefreshReport, error)
}

// RefreshReport summarizes one refresh cycle.
type RefreshReport struct {
	Checked      int      `json:"checked"`
	Updated      int      `json:"updated"`
	Failed       int      `json:"failed"`
	Alerts       int      `json:"alerts"`
	Removed      []string `json:"removed"`
	ActiveAlerts int      `json:"activeAlerts"`
}
