// Package export renders sync history as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"vouchersync/internal/domain/history"
)

const sheetName = "Sync History"

var headers = []string{"ID", "Region", "Destination", "User", "Items", "OK", "Failed", "Created At"}

// HistoryXLSX writes the entries as an xlsx workbook to w.
func HistoryXLSX(entries []history.Entry, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, e := range entries {
		row := []any{
			e.ID, e.Region, e.Destination, e.UserID,
			e.ItemCount, e.OKCount, e.FailCount,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, val := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
