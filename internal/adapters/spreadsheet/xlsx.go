// Package spreadsheet renders the watchlist as an Excel workbook.
package spreadsheet

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/getracker/internal/ports/primary"
)

// SheetName is the name of the single worksheet.
const SheetName = "Watchlist"

var headers = []any{
	"ID", "Name", "Current Price", "Previous Price", "Low Threshold", "High Threshold",
	"Trend", "Weekly Change %", "Signal", "Added", "Last Checked",
}

// WriteWatchlist writes items, one row each in the given order, as an xlsx
// workbook to w. Prices are numeric cells; absent values are left blank.
func WriteWatchlist(w io.Writer, items []*primary.WatchlistItem) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := itemRow(item)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row for item %s: %w", item.ID, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "B", 28); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "C", "K", 16); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func itemRow(item *primary.WatchlistItem) []any {
	row := []any{
		item.ID,
		item.Name,
		optional(item.CurrentPrice),
		optional(item.PreviousPrice),
		optional(item.LowThreshold),
		optional(item.HighThreshold),
		nil, nil, nil,
		timestamp(item.AddedAt),
		timestamp(item.LastChecked),
	}
	if an := item.PriceAnalysis; an != nil {
		row[6] = string(an.TrendDirection)
		row[7] = an.WeeklyChangePercent
		row[8] = string(an.TradingSignal)
	}
	return row
}

func optional(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func timestamp(ms int64) any {
	if ms == 0 {
		return nil
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}
