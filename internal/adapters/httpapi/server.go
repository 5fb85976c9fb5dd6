// Package httpapi exposes the watchlist operations over a local JSON API.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/getracker/internal/core/analysis"
	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ctxutil"
	"github.com/example/getracker/internal/ports/primary"
)

// ActorID identifies API callers in the activity log.
const ActorID = ctxutil.ActorAPI

// Handler serves the API routes.
type Handler struct {
	watchlist primary.WatchlistService
	refresh   primary.RefreshService
	settings  primary.SettingsService
	logs      primary.LogService
	status    primary.StatusService
	backup    primary.BackupService
}

// NewHandler creates a Handler over the primary services.
func NewHandler(
	watchlistService primary.WatchlistService,
	refreshService primary.RefreshService,
	settingsService primary.SettingsService,
	logService primary.LogService,
	statusService primary.StatusService,
	backupService primary.BackupService,
) *Handler {
	return &Handler{
		watchlist: watchlistService,
		refresh:   refreshService,
		settings:  settingsService,
		logs:      logService,
		status:    statusService,
		backup:    backupService,
	}
}

// NewRouter builds the engine with recovery, actor tagging and all routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxutil.WithActorID(c.Request.Context(), ActorID))
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.Register(r.Group("/api"))
	return r
}

// Register mounts the API routes on r.
func (h *Handler) Register(r *gin.RouterGroup) {
	items := r.Group("/watchlist")
	{
		items.GET("", h.GetWatchlist)
		items.POST("", h.AddItem)
		items.GET("/:id", h.GetItem)
		items.DELETE("/:id", h.RemoveItem)
		items.PUT("/:id/thresholds", h.UpdateThresholds)
		items.GET("/:id/history", h.GetHistory)
	}

	r.POST("/refresh", h.RefreshPrices)
	r.GET("/settings", h.GetSettings)
	r.PATCH("/settings", h.UpdateSettings)
	r.GET("/logs", h.ListLogs)
	r.GET("/status", h.GetStatus)
	r.GET("/backup", h.ExportBackup)
	r.POST("/backup", h.ImportBackup)
}

type addItemBody struct {
	ID           string                `json:"id"`
	URL          string                `json:"url"`
	Name         string                `json:"name"`
	CurrentPrice *int64                `json:"currentPrice"`
	PriceHistory []analysis.PricePoint `json:"priceHistory"`
}

type thresholdsBody struct {
	LowThreshold  *int64 `json:"lowThreshold"`
	HighThreshold *int64 `json:"highThreshold"`
}

// GetWatchlist returns the merged watchlist in display order.
func (h *Handler) GetWatchlist(c *gin.Context) {
	items, err := h.watchlist.ListItems(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	active, err := h.watchlist.ActiveAlertCount(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "activeAlerts": active})
}

// AddItem adds an item by id or by Grand Exchange URL.
func (h *Handler) AddItem(c *gin.Context) {
	var body addItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	id := watchlist.ExtractItemID(body.ID)
	if id == "" {
		id = watchlist.ExtractItemID(body.URL)
	}
	item, err := h.watchlist.AddItem(c.Request.Context(), primary.AddItemRequest{
		ID:           id,
		Name:         body.Name,
		SourceURL:    body.URL,
		CurrentPrice: body.CurrentPrice,
		History:      body.PriceHistory,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItem returns one item.
func (h *Handler) GetItem(c *gin.Context) {
	item, err := h.watchlist.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// RemoveItem deletes an item.
func (h *Handler) RemoveItem(c *gin.Context) {
	if err := h.watchlist.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateThresholds sets both thresholds; null clears one.
func (h *Handler) UpdateThresholds(c *gin.Context) {
	var body thresholdsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	item, err := h.watchlist.UpdateThresholds(c.Request.Context(), c.Param("id"), body.LowThreshold, body.HighThreshold)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetHistory returns an item's stored price history.
func (h *Handler) GetHistory(c *gin.Context) {
	history, err := h.watchlist.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if history == nil {
		history = []analysis.PricePoint{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// RefreshPrices runs one refresh cycle synchronously.
func (h *Handler) RefreshPrices(c *gin.Context) {
	report, err := h.refresh.RefreshAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetStatus reports storage usage and fallback mode.
func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.status.Status(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ExportBackup returns the watchlist and settings as a backup document.
func (h *Handler) ExportBackup(c *gin.Context) {
	backup, err := h.backup.Export(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, backup)
}

// ImportBackup replaces the watchlist from a backup document.
func (h *Handler) ImportBackup(c *gin.Context) {
	var backup primary.Backup
	if err := c.ShouldBindJSON(&backup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	result, err := h.backup.Import(c.Request.Context(), &backup)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSettings returns the effective settings.
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings merges the posted keys over the stored settings.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ListLogs returns recent activity log entries.
func (h *Handler) ListLogs(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	actor := c.Query("actor")
	if actor != "" && !ctxutil.IsKnownActor(actor) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown actor %q", actor)})
		return
	}
	entries, err := h.logs.ListLogs(c.Request.Context(), primary.LogFilters{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		ActorID:    actor,
		Action:     c.Query("action"),
		Limit:      limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// writeError maps domain errors to status codes.
func writeError(c *gin.Context, err error) {
	var (
		validation *watchlist.ValidationError
		notFound   *watchlist.NotFoundError
		conflict   *watchlist.ConflictError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &conflict), errors.Is(err, primary.ErrRefreshInProgress):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
