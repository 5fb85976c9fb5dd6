package watchlist

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatExact renders a price with thousands separators, e.g. 1,500,000.
func FormatExact(price int64) string {
	return printer.Sprintf("%d", price)
}

// FormatCompact renders a price with a K/M/B suffix, e.g. 1.5M.
func FormatCompact(price int64) string {
	abs := price
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(price)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(price)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(price)/1_000)
	default:
		return fmt.Sprintf("%d", price)
	}
}

// FormatPrice renders a price in the configured priceFormat ("gp" or "compact").
func FormatPrice(price int64, format string) string {
	if format == "compact" {
		return FormatCompact(price) + " gp"
	}
	return FormatExact(price) + " gp"
}
