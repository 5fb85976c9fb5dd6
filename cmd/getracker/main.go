package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/getracker/internal/cli"
	"github.com/example/getracker/internal/version"
)

func main() {
	cli.LoadEnvironment()

	rootCmd := &cobra.Command{
		Use:     "getracker",
		Short:   "Grand Exchange price tracker",
		Version: version.String(),
		Long: `getracker keeps a watchlist of Grand Exchange items, refreshes their
prices on a schedule and alerts when a price crosses a threshold.`,
		SilenceUsage: true,
	}
	cli.ConfigurePersistentFlags(rootCmd)

	// Watchlist commands
	rootCmd.AddCommand(cli.AddCmd())
	rootCmd.AddCommand(cli.ListCmd())
	rootCmd.AddCommand(cli.ShowCmd())
	rootCmd.AddCommand(cli.RemoveCmd())
	rootCmd.AddCommand(cli.ThresholdsCmd())
	rootCmd.AddCommand(cli.RefreshCmd())
	rootCmd.AddCommand(cli.SettingsCmd())
	rootCmd.AddCommand(cli.LogCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.ExportCmd())
	rootCmd.AddCommand(cli.ImportCmd())

	// Long-running
	rootCmd.AddCommand(cli.DaemonCmd())
	rootCmd.AddCommand(cli.ServeCmd())

	// Developer tools
	rootCmd.AddCommand(cli.DevCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
