// Package cli provides CLI commands for the getracker application.
package cli

import (
	gocontext "context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/example/getracker/internal/config"
	"github.com/example/getracker/internal/ctxutil"
	"github.com/example/getracker/internal/wire"
)

// Actor ids recorded in the activity log.
const (
	ActorCLI    = ctxutil.ActorCLI
	ActorDaemon = ctxutil.ActorDaemon
)

// globalActorID stores the actor for the current CLI invocation.
var globalActorID = ActorCLI

// SetActor overrides the actor for long-running commands.
func SetActor(actorID string) {
	globalActorID = actorID
}

// NewContext creates a context.Background() with the current actor ID embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	return ctxutil.WithActorID(gocontext.Background(), globalActorID)
}

// LoadEnvironment reads a .env file when present. A missing file is not an error.
func LoadEnvironment() {
	_ = godotenv.Load()
}

// ConfigurePersistentFlags adds the global --config flag and loads the
// configuration before any subcommand runs.
func ConfigurePersistentFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", config.DefaultConfigPath, "Path to config file")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		wire.Configure(cfg)
		return nil
	}
}
