package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/getracker/internal/adapters/cli"
	"github.com/example/getracker/internal/wire"
)

// AddCmd returns the add command.
func AddCmd() *cobra.Command {
	var name, price string

	cmd := &cobra.Command{
		Use:   "add [item-id-or-url]",
		Short: "Track an item",
		Long: `Track a Grand Exchange item by numeric id or item page URL.

Without --price, the current price is fetched once and default alert
thresholds are derived from it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cliadapter.ParsePrice(price)
			if err != nil {
				return err
			}
			return wire.WatchlistAdapter().Add(NewContext(), args[0], name, p)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (derived from the URL when omitted)")
	cmd.Flags().StringVar(&price, "price", "", "Known current price, e.g. 1500000 or 1.5m")
	return cmd
}

// ListCmd returns the list command.
func ListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracked items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.WatchlistAdapter().List(NewContext())
		},
	}
}

// ShowCmd returns the show command.
func ShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [item-id]",
		Short: "Show item details and price analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.WatchlistAdapter().Show(NewContext(), args[0])
		},
	}
}

// RemoveCmd returns the remove command.
func RemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove [item-id]",
		Aliases: []string{"rm"},
		Short:   "Stop tracking an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.WatchlistAdapter().Remove(NewContext(), args[0])
		},
	}
}

// ThresholdsCmd returns the thresholds command.
func ThresholdsCmd() *cobra.Command {
	var low, high string

	cmd := &cobra.Command{
		Use:   "thresholds [item-id]",
		Short: "Set alert thresholds",
		Long: `Set both alert thresholds for an item. An omitted flag or "none"
clears that threshold.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lowPrice, err := cliadapter.ParsePrice(low)
			if err != nil {
				return fmt.Errorf("--low: %w", err)
			}
			highPrice, err := cliadapter.ParsePrice(high)
			if err != nil {
				return fmt.Errorf("--high: %w", err)
			}
			return wire.WatchlistAdapter().SetThresholds(NewContext(), args[0], lowPrice, highPrice)
		},
	}

	cmd.Flags().StringVar(&low, "low", "", "Alert when the price drops to this value")
	cmd.Flags().StringVar(&high, "high", "", "Alert when the price rises to this value")
	return cmd
}

// RefreshCmd returns the refresh command.
func RefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch current prices for every tracked item",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.WatchlistAdapter().Refresh(NewContext())
		},
	}
}
