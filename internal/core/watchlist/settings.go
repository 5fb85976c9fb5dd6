package watchlist

import (
	"fmt"
	"time"
)

// AlertType selects which default thresholds are derived on add.
type AlertType string

const (
	AlertTypeNone  AlertType = "none"
	AlertTypeAbove AlertType = "above"
	AlertTypeBelow AlertType = "below"
	AlertTypeBoth  AlertType = "both"
)

// AlertRemovalPolicy controls whether an item leaves the watchlist after a
// threshold alert fires.
type AlertRemovalPolicy string

const (
	// AlertRemovalLegacy derives the policy from AutoRemoveDays: 0 means immediate.
	AlertRemovalLegacy    AlertRemovalPolicy = ""
	AlertRemovalImmediate AlertRemovalPolicy = "immediate"
	AlertRemovalKeep      AlertRemovalPolicy = "keep"
)

// Settings is the flat options record stored in the synced namespace.
// Unknown keys are ignored; missing keys take the defaults.
type Settings struct {
	UpdateInterval       int                `json:"updateInterval"` // minutes
	AutoRefresh          bool               `json:"autoRefresh"`
	BackgroundUpdates    bool               `json:"backgroundUpdates"`
	DesktopNotifications bool               `json:"desktopNotifications"`
	SoundAlerts          bool               `json:"soundAlerts"`
	AlertDuration        int                `json:"alertDuration"`
	NotificationLimit    int                `json:"notificationLimit"` // per hour
	PriceFormat          string             `json:"priceFormat"`
	SortOrder            string             `json:"sortOrder"`
	ShowHistory          bool               `json:"showHistory"`
	CompactView          bool               `json:"compactView"`
	DefaultAlertType     AlertType          `json:"defaultAlertType"`
	AlertThreshold       float64            `json:"alertThreshold"` // percent
	SnoozeDuration       int64              `json:"snoozeDuration"` // milliseconds
	AlertColorHigh       string             `json:"alertColorHigh"`
	AlertColorLow        string             `json:"alertColorLow"`
	DarkMode             bool               `json:"darkMode"`
	AutoRemoveDays       int                `json:"autoRemoveDays"`
	AlertRemoval         AlertRemovalPolicy `json:"alertRemoval"`
	ChartHistoryDays     int                `json:"chartHistoryDays"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		UpdateInterval:       5,
		AutoRefresh:          true,
		BackgroundUpdates:    true,
		DesktopNotifications: true,
		SoundAlerts:          true,
		AlertDuration:        0,
		NotificationLimit:    10,
		PriceFormat:          "gp",
		SortOrder:            SortDateAdded,
		DefaultAlertType:     AlertTypeBoth,
		AlertThreshold:       10,
		SnoozeDuration:       900000,
		AlertColorHigh:       "#27ae60",
		AlertColorLow:        "#e74c3c",
		DarkMode:             true,
		AutoRemoveDays:       0,
		AlertRemoval:         AlertRemovalLegacy,
		ChartHistoryDays:     14,
	}
}

// Validate checks enumerations and numeric ranges.
func (s Settings) Validate() error {
	switch s.DefaultAlertType {
	case AlertTypeNone, AlertTypeAbove, AlertTypeBelow, AlertTypeBoth:
	default:
		return &ValidationError{Field: "defaultAlertType", Reason: fmt.Sprintf("unknown alert type %q", s.DefaultAlertType)}
	}
	switch s.AlertRemoval {
	case AlertRemovalLegacy, AlertRemovalImmediate, AlertRemovalKeep:
	default:
		return &ValidationError{Field: "alertRemoval", Reason: fmt.Sprintf("unknown policy %q", s.AlertRemoval)}
	}
	if !validSortOrder(s.SortOrder) {
		return &ValidationError{Field: "sortOrder", Reason: fmt.Sprintf("unknown sort order %q", s.SortOrder)}
	}
	if s.PriceFormat != "gp" && s.PriceFormat != "compact" {
		return &ValidationError{Field: "priceFormat", Reason: fmt.Sprintf("unknown price format %q", s.PriceFormat)}
	}
	if s.UpdateInterval < 1 {
		return &ValidationError{Field: "updateInterval", Reason: "must be at least 1 minute"}
	}
	if s.AlertThreshold < 0 {
		return &ValidationError{Field: "alertThreshold", Reason: "must not be negative"}
	}
	if s.SnoozeDuration < 0 {
		return &ValidationError{Field: "snoozeDuration", Reason: "must not be negative"}
	}
	if s.AutoRemoveDays < 0 {
		return &ValidationError{Field: "autoRemoveDays", Reason: "must not be negative"}
	}
	if s.NotificationLimit < 0 {
		return &ValidationError{Field: "notificationLimit", Reason: "must not be negative"}
	}
	return nil
}

// RemoveOnAlert reports whether a fired threshold alert removes the item.
func (s Settings) RemoveOnAlert() bool {
	switch s.AlertRemoval {
	case AlertRemovalImmediate:
		return true
	case AlertRemovalKeep:
		return false
	default:
		return s.AutoRemoveDays == 0
	}
}

// RefreshInterval returns UpdateInterval as a duration.
func (s Settings) RefreshInterval() time.Duration {
	return time.Duration(s.UpdateInterval) * time.Minute
}

// ExpiredByAge reports whether age-based removal applies to an item added
// at addedAt (epoch ms). Disabled when AutoRemoveDays is 0.
func (s Settings) ExpiredByAge(addedAt, now int64) bool {
	if s.AutoRemoveDays <= 0 {
		return false
	}
	maxAge := int64(s.AutoRemoveDays) * int64(24*time.Hour/time.Millisecond)
	return now-addedAt > maxAge
}
