package pricesource

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/example/getracker/internal/core/analysis"
)

var (
	average30Pattern  = regexp.MustCompile(`average30\.push\(\[new Date\(([^,]+)\),\s*(\d+),\s*\d+\]\)`)
	trade180Pattern   = regexp.MustCompile(`trade180\.push\(\[new Date\(([^,]+)\),\s*(\d+)\]\)`)
	titlePattern      = regexp.MustCompile(`(?i)<title>([^<]+)</title>`)
	titleNamePattern  = regexp.MustCompile(`^([^-]+)\s*-\s*Grand Exchange`)
	guidePricePattern = regexp.MustCompile(`(?i)Current\s+Guide\s+Price[^0-9]*([0-9,]+(?:\.[0-9]+)?)\s*([KMB])?`)
)

var dateLayouts = []string{"2006/01/02", "2006-01-02", "2006/1/2"}

// Page is what an item page yields.
type Page struct {
	Name    string
	Price   *int64
	History []analysis.PricePoint
}

// ParsePage extracts the item name, current price and daily history from
// an item page. The price is the last average30 entry, falling back to the
// "Current Guide Price" text.
func ParsePage(html string) Page {
	var page Page

	if m := titlePattern.FindStringSubmatch(html); m != nil {
		if n := titleNamePattern.FindStringSubmatch(strings.TrimSpace(m[1])); n != nil {
			page.Name = strings.TrimSpace(n[1])
		}
	}

	volumes := make(map[string]int64)
	for _, m := range trade180Pattern.FindAllStringSubmatch(html, -1) {
		day, _, ok := parseDate(m[1])
		if !ok {
			continue
		}
		if v, err := strconv.ParseInt(m[2], 10, 64); err == nil {
			volumes[day] = v
		}
	}

	for _, m := range average30Pattern.FindAllStringSubmatch(html, -1) {
		price, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			continue
		}
		day, ts, ok := parseDate(m[1])
		if !ok {
			continue
		}
		page.History = append(page.History, analysis.PricePoint{
			Date:      day,
			Price:     price,
			Volume:    volumes[day],
			Timestamp: ts,
		})
	}

	if n := len(page.History); n > 0 {
		current := page.History[n-1].Price
		page.Price = &current
		return page
	}

	if m := guidePricePattern.FindStringSubmatch(html); m != nil {
		if price, ok := parseGuidePrice(m[1], m[2]); ok {
			page.Price = &price
		}
	}
	return page
}

// parseDate accepts the quoted argument of a JavaScript Date constructor.
func parseDate(arg string) (string, int64, bool) {
	arg = strings.Trim(strings.TrimSpace(arg), `'"`)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, arg, time.UTC); err == nil {
			return t.Format("2006-01-02"), t.UnixMilli(), true
		}
	}
	return "", 0, false
}

func parseGuidePrice(number, unit string) (int64, bool) {
	value, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", ""), 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	switch strings.ToUpper(unit) {
	case "K":
		value *= 1_000
	case "M":
		value *= 1_000_000
	case "B":
		value *= 1_000_000_000
	}
	return int64(value), true
}
