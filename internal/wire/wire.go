// Package wire provides dependency injection for the getracker application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	cliadapter "github.com/example/getracker/internal/adapters/cli"
	"github.com/example/getracker/internal/adapters/httpapi"
	"github.com/example/getracker/internal/adapters/notify"
	"github.com/example/getracker/internal/adapters/persistence"
	"github.com/example/getracker/internal/adapters/pricesource"
	"github.com/example/getracker/internal/adapters/sqlite"
	"github.com/example/getracker/internal/app"
	"github.com/example/getracker/internal/config"
	"github.com/example/getracker/internal/db"
	"github.com/example/getracker/internal/ports/primary"
)

var (
	cfg                 = config.Default()
	logOutput io.Writer = os.Stderr
)

var (
	watchlistService primary.WatchlistService
	refreshService   primary.RefreshService
	settingsService  primary.SettingsService
	logService       primary.LogService
	statusService    primary.StatusService
	backupService    primary.BackupService
	once             sync.Once
)

// Configure sets the configuration used to build services.
// Must be called before any service accessor.
func Configure(c config.Config) {
	cfg = c
}

// Config returns the active configuration.
func Config() config.Config {
	return cfg
}

// SetLogOutput redirects service loggers. Must be called before any service accessor.
func SetLogOutput(w io.Writer) {
	logOutput = w
}

// WatchlistService returns the singleton WatchlistService instance.
func WatchlistService() primary.WatchlistService {
	once.Do(initServices)
	return watchlistService
}

// RefreshService returns the singleton RefreshService instance.
func RefreshService() primary.RefreshService {
	once.Do(initServices)
	return refreshService
}

// SettingsService returns the singleton SettingsService instance.
func SettingsService() primary.SettingsService {
	once.Do(initServices)
	return settingsService
}

// LogService returns the singleton LogService instance.
func LogService() primary.LogService {
	once.Do(initServices)
	return logService
}

// StatusService returns the singleton StatusService instance.
func StatusService() primary.StatusService {
	once.Do(initServices)
	return statusService
}

// BackupService returns the singleton BackupService instance.
func BackupService() primary.BackupService {
	once.Do(initServices)
	return backupService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	db.SetPath(cfg.DBPath)
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	newLogger := func(prefix string) *log.Logger {
		return log.New(logOutput, prefix, log.LstdFlags)
	}

	// Storage tiers; metadata and settings live behind the quota guard
	synced := sqlite.NewSyncedStore(database, cfg.SyncQuotaBytes)
	local := sqlite.NewLocalStore(database)
	guard := persistence.NewQuotaGuard(synced, local, cfg.SyncQuotaBytes, cfg.QuotaSafetyMargin, newLogger("[quota] "))

	metadataRepo := persistence.NewMetadataRepository(guard)
	legacyRepo := persistence.NewLegacyWatchlistRepository(guard)
	settingsRepo := persistence.NewSettingsRepository(guard)
	priceRepo := persistence.NewPriceRepository(local)

	activityRepo := sqlite.NewActivityLogRepository(database)
	logWriter := sqlite.NewLogWriterAdapter(activityRepo)

	priceSource := pricesource.NewClient(pricesource.Options{
		BaseURL:   cfg.PriceSourceURL,
		Timeout:   cfg.FetchTimeout,
		RetryBase: cfg.FetchRetryBase,
		Logger:    newLogger("[pricesource] "),
	})

	settingsSvc := app.NewSettingsService(settingsRepo, logWriter)
	migrator := app.NewLegacyMigrator(metadataRepo, priceRepo, legacyRepo, newLogger("[migrate] "), time.Now)
	merger := app.NewWatchlistMerger(metadataRepo, priceRepo, legacyRepo, migrator)

	watchlistSvc := app.NewWatchlistService(
		metadataRepo, priceRepo, merger, settingsSvc, priceSource, logWriter,
		newLogger("[watchlist] "),
		app.WatchlistOptions{
			VerifyDelay: cfg.ThresholdVerifyDelay,
			RetryBase:   cfg.ThresholdRetryBase,
		},
	)

	notifier := notify.NewRateLimitedNotifier(notify.NewConsoleNotifier(os.Stdout), settingsSvc, newLogger("[notify] "), time.Now)
	executor := app.NewEffectExecutor(notifier, newLogger("[effects] "))

	watchlistService = watchlistSvc
	settingsService = settingsSvc
	logService = app.NewLogService(activityRepo)
	statusService = app.NewStatusService(synced, local, guard, cfg.SyncQuotaBytes, watchlistSvc)
	backupService = app.NewBackupService(watchlistSvc, settingsSvc, logWriter, time.Now)
	refreshService = app.NewRefreshService(
		watchlistSvc, merger, settingsSvc, priceSource, executor,
		newLogger("[refresh] "), cfg.FetchDelay, time.Now, nil,
	)
}

// WatchlistAdapter returns a new WatchlistAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func WatchlistAdapter() *cliadapter.WatchlistAdapter {
	return WatchlistAdapterWithOutput(os.Stdout)
}

// WatchlistAdapterWithOutput returns a new WatchlistAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func WatchlistAdapterWithOutput(out io.Writer) *cliadapter.WatchlistAdapter {
	once.Do(initServices)
	return cliadapter.NewWatchlistAdapter(watchlistService, refreshService, settingsService, out)
}

// LogAdapter returns a new LogAdapter writing to stdout.
func LogAdapter() *cliadapter.LogAdapter {
	return LogAdapterWithOutput(os.Stdout)
}

// LogAdapterWithOutput returns a new LogAdapter writing to the given output.
func LogAdapterWithOutput(out io.Writer) *cliadapter.LogAdapter {
	once.Do(initServices)
	return cliadapter.NewLogAdapter(logService, watchlistService, settingsService, out)
}

// HTTPHandler returns the API router over the singleton services.
func HTTPHandler() http.Handler {
	once.Do(initServices)
	return httpapi.NewRouter(httpapi.NewHandler(watchlistService, refreshService, settingsService, logService, statusService, backupService))
}
