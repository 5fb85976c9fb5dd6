package cli

import (
	gocontext "context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/example/getracker/internal/ctxutil"
	"github.com/example/getracker/internal/wire"
)

// ServeCmd returns the serve command.
func ServeCmd() *cobra.Command {
	var bind, logPath string
	var schedule bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serve the watchlist, refresh, settings and log API over HTTP.

With --schedule, the refresh scheduler runs in the same process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, closeLog, err := openLogOutput(logPath)
			if err != nil {
				return err
			}
			defer closeLog()

			wire.SetLogOutput(out)
			logger := log.New(out, "[serve] ", log.LstdFlags)
			if bind == "" {
				bind = wire.Config().APIBind
			}

			gin.SetMode(gin.ReleaseMode)
			server := &http.Server{
				Addr:              bind,
				Handler:           wire.HTTPHandler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(gocontext.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if schedule {
				go RunScheduler(ctxutil.WithActorID(ctx, ActorDaemon), wire.RefreshService(), wire.SettingsService(),
					log.New(out, "[daemon] ", log.LstdFlags))
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Printf("listening on %s", bind)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := gocontext.WithTimeout(gocontext.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("failed to shut down: %w", err)
				}
				logger.Println("stopped")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to api_bind from config)")
	cmd.Flags().StringVar(&logPath, "log", "", "Append logs to this file instead of stderr")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "Also run the refresh scheduler")
	return cmd
}
