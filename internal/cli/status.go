package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/getracker/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show storage usage and alert summary",
		Long: `Display storage health:
- Synced namespace usage against its quota
- Whether synced writes have fallen back to local storage
- Tracked item and active alert counts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := wire.StatusService().Status(NewContext())
			if err != nil {
				return fmt.Errorf("failed to read status: %w", err)
			}

			fmt.Println("getracker Status")
			fmt.Println()
			fmt.Printf("Database: %s\n", wire.Config().DBPath)
			fmt.Println()

			percent := 0.0
			if status.SyncedQuota > 0 {
				percent = float64(status.SyncedBytes) / float64(status.SyncedQuota) * 100
			}
			fmt.Printf("Synced:   %d / %d bytes (%.1f%%)\n", status.SyncedBytes, status.SyncedQuota, percent)
			fmt.Printf("Local:    %d bytes\n", status.LocalBytes)
			if status.FallbackMode {
				fmt.Println(color.New(color.FgYellow).Sprint("Fallback: active (metadata and settings are stored locally)"))
			} else {
				fmt.Println("Fallback: inactive")
			}
			fmt.Println()

			fmt.Printf("Items:    %d tracked\n", status.Items)
			if status.ActiveAlerts > 0 {
				fmt.Println(color.New(color.FgRed).Sprintf("Alerts:   %d active", status.ActiveAlerts))
			} else {
				fmt.Println("Alerts:   none")
			}
			return nil
		},
	}
}
