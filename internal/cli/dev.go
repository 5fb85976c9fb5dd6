package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/getracker/internal/db"
)

// DevCmd returns the dev command group for development utilities.
func DevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Development utilities",
		Long: `Development utilities for working with a scratch database.

These commands require GETRACKER_DB_PATH to be set, so the default
database is never touched by accident.`,
	}

	cmd.AddCommand(devResetCmd())
	return cmd
}

func devResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset dev database with fixture data",
		Long: `Delete the dev database and recreate it with fixture data.

This command:
1. Deletes the existing dev database file
2. Creates a fresh database with the current schema
3. Seeds a pre-split watchlist record and default settings

The next watchlist read migrates the seeded record into the split layout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Safety check: require GETRACKER_DB_PATH to be set
			dbPath := os.Getenv("GETRACKER_DB_PATH")
			if dbPath == "" {
				return fmt.Errorf("GETRACKER_DB_PATH not set\n\nThis safety check prevents accidental reset of your real watchlist")
			}

			// Confirmation unless --force
			if !force {
				fmt.Printf("This will delete and recreate: %s\n", dbPath)
				fmt.Print("Continue? [y/N] ")
				var response string
				fmt.Scanln(&response)
				if response != "y" && response != "Y" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			// Close any existing DB connection
			db.Close()

			if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to delete database: %w", err)
			}
			fmt.Printf("✓ Deleted %s\n", dbPath)

			db.SetPath(dbPath)
			database, err := db.GetDB()
			if err != nil {
				return fmt.Errorf("failed to create database: %w", err)
			}
			fmt.Println("✓ Created fresh database with schema")

			if err := db.SeedFixtures(database); err != nil {
				return fmt.Errorf("failed to seed fixtures: %w", err)
			}
			fmt.Println("✓ Seeded fixture data")

			fmt.Println("\nDev database reset complete!")
			fmt.Println("\nSeeded entities:")
			fmt.Println("  - 3 watchlist items (legacy layout)")
			fmt.Println("  - default settings")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}
