package cli

import (
	gocontext "context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/getracker/internal/ports/primary"
	"github.com/example/getracker/internal/wire"
)

// DaemonCmd returns the daemon command.
func DaemonCmd() *cobra.Command {
	var logPath string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Refresh prices on a schedule",
		Long: `Run refresh cycles every updateInterval minutes while
backgroundUpdates is enabled. Settings are re-read before each cycle, so
changes apply without a restart. Stops on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, closeLog, err := openLogOutput(logPath)
			if err != nil {
				return err
			}
			defer closeLog()

			SetActor(ActorDaemon)
			wire.SetLogOutput(out)
			logger := log.New(out, "[daemon] ", log.LstdFlags)

			ctx, stop := signal.NotifyContext(NewContext(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Println("started")
			RunScheduler(ctx, wire.RefreshService(), wire.SettingsService(), logger)
			logger.Println("stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "Append logs to this file instead of stderr")
	return cmd
}

// RunScheduler runs refresh cycles until ctx is cancelled. A cycle never
// starts while another is still running.
func RunScheduler(ctx gocontext.Context, refresh primary.RefreshService, settings primary.SettingsService, logger *log.Logger) {
	for {
		interval := 5 * time.Minute
		s, err := settings.Get(ctx)
		switch {
		case err != nil:
			logger.Printf("failed to read settings: %v", err)
		case !s.BackgroundUpdates:
			interval = s.RefreshInterval()
		default:
			interval = s.RefreshInterval()
			if _, err := refresh.RefreshAll(ctx); err != nil {
				if errors.Is(err, primary.ErrRefreshInProgress) {
					logger.Println("previous refresh still running; skipping")
				} else if ctx.Err() == nil {
					logger.Printf("refresh failed: %v", err)
				}
			}
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func openLogOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
