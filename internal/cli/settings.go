package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/getracker/internal/wire"
)

// SettingsCmd returns the settings command with its subcommands attached.
func SettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View and change settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.WatchlistAdapter().ShowSettings(NewContext())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.WatchlistAdapter().ShowSettings(NewContext())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [key=value]...",
		Short: "Change one or more settings",
		Long: `Change settings by key. Values are read as JSON when possible, so
numbers and booleans keep their type:

  getracker settings set updateInterval=10 darkMode=true priceFormat=compact`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.WatchlistAdapter().SetSettings(NewContext(), args)
		},
	})

	return cmd
}
