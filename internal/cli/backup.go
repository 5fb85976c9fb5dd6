package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/getracker/internal/adapters/spreadsheet"
	"github.com/example/getracker/internal/ports/primary"
	"github.com/example/getracker/internal/wire"
)

// ExportCmd returns the export command.
func ExportCmd() *cobra.Command {
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the watchlist and settings",
		Long: `Export the watchlist and settings.

json writes a backup that import can restore. xlsx writes a spreadsheet
of the watchlist in display order (settings are not included).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			var out io.Writer = os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outPath, err)
				}
				defer f.Close()
				out = f
			}

			switch strings.ToLower(format) {
			case "json":
				backup, err := wire.BackupService().Export(ctx)
				if err != nil {
					return fmt.Errorf("failed to export: %w", err)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(backup); err != nil {
					return fmt.Errorf("failed to write backup: %w", err)
				}
			case "xlsx":
				if outPath == "" {
					return fmt.Errorf("xlsx export requires --out")
				}
				items, err := wire.WatchlistService().ListItems(ctx)
				if err != nil {
					return fmt.Errorf("failed to list items: %w", err)
				}
				if err := spreadsheet.WriteWatchlist(out, items); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (want json or xlsx)", format)
			}

			if outPath != "" {
				fmt.Fprintf(os.Stderr, "✓ Exported to %s\n", outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or xlsx")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

// ImportCmd returns the import command.
func ImportCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import [backup.json]",
		Short: "Replace the watchlist from a backup",
		Long: `Replace the watchlist with the items in a JSON backup and merge its
settings over the current ones. Items not in the backup are removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}
			var backup primary.Backup
			if err := json.Unmarshal(data, &backup); err != nil {
				return fmt.Errorf("invalid backup file: %w", err)
			}

			// Confirmation unless --force
			if !force {
				fmt.Printf("This will replace your watchlist with %d items from %s.\n", len(backup.Watchlist), args[0])
				fmt.Print("Continue? [y/N] ")
				var response string
				fmt.Scanln(&response)
				if response != "y" && response != "Y" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			result, err := wire.BackupService().Import(NewContext(), &backup)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Imported %d items\n", result.Items)
			if len(result.Dropped) > 0 {
				fmt.Printf("  Removed: %s\n", strings.Join(result.Dropped, ", "))
			}
			if result.SettingsImported {
				fmt.Println("  Settings restored")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}
