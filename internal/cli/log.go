package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/primary"
	"github.com/example/getracker/internal/wire"
)

const followInterval = 2 * time.Second

// LogCmd returns the activity log command: tail, item and prune.
func LogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show who changed the watchlist and when",
		Long: `Show the activity log: items added and removed, alert thresholds
changed, settings updated and backups imported, with the actor (cli,
daemon or api) that made each change.`,
	}
	cmd.AddCommand(logTailCmd())
	cmd.AddCommand(logItemCmd())
	cmd.AddCommand(logPruneCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			item, _ := cmd.Flags().GetString("item")
			actor, _ := cmd.Flags().GetString("actor")
			action, _ := cmd.Flags().GetString("action")
			follow, _ := cmd.Flags().GetBool("follow")

			filters, err := tailFilters(limit, item, actor, action)
			if err != nil {
				return err
			}

			adapter := wire.LogAdapter()
			last, err := adapter.Tail(NewContext(), filters)
			if err != nil || !follow {
				return err
			}

			ctx, stop := signal.NotifyContext(NewContext(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return adapter.Follow(ctx, filters, last, followInterval)
		},
	}
	cmd.Flags().IntP("limit", "n", 50, "Number of entries to show")
	cmd.Flags().String("item", "", "Only changes to this item (id or Grand Exchange URL)")
	cmd.Flags().String("actor", "", "Only changes made by cli, daemon or api")
	cmd.Flags().String("action", "", "Only create, update or delete entries")
	cmd.Flags().BoolP("follow", "f", false, "Keep printing new entries until interrupted")
	return cmd
}

func logItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item [item-id-or-url]",
		Aliases: []string{"show"},
		Short:   "Show the change history of one item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return wire.LogAdapter().ItemHistory(NewContext(), args[0], limit)
		},
	}
	cmd.Flags().IntP("limit", "n", 100, "Maximum entries to show")
	return cmd
}

func logPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			return wire.LogAdapter().Prune(NewContext(), days)
		},
	}
	cmd.Flags().Int("days", 30, "Delete entries older than N days")
	return cmd
}

// tailFilters builds the same filter set GET /api/logs accepts. An --item
// value may be an id or an item page URL.
func tailFilters(limit int, item, actor, action string) (primary.LogFilters, error) {
	if limit <= 0 {
		limit = 50
	}
	filters := primary.LogFilters{ActorID: actor, Action: action, Limit: limit}
	switch action {
	case "", "create", "update", "delete":
	default:
		return filters, fmt.Errorf("unknown action %q (want create, update or delete)", action)
	}
	if item != "" {
		id := watchlist.ExtractItemID(item)
		if id == "" {
			return filters, fmt.Errorf("no item id in %q", item)
		}
		filters.EntityType = "item"
		filters.EntityID = id
	}
	return filters, nil
}
