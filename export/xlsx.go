package export

import (
	"fmt"
	"io"

	"github.com/warp/attendance-engine/generic"
	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes the sheet as a single-sheet workbook named after the
// date. Minute and money columns are numeric cells.
func WriteXLSX(w io.Writer, sheet generic.DaySheet) error {
	f := excelize.NewFile()
	defer f.Close()

	name := sheet.Date.String()
	idx, err := f.NewSheet(name)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.ColumnNumberToName(len(Header))
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(name, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(name, "A", "A", 12); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(name, "B", "C", 16); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	for i, r := range BuildRows(sheet) {
		cells := []interface{}{r.Date.String(), r.Name, r.Status, r.InTime, r.OutTime}
		for _, m := range r.Minutes() {
			cells = append(cells, m)
		}
		for _, m := range r.Money() {
			cells = append(cells, m)
		}
		cells = append(cells, r.Note)

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(name, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// XLSXFilename is the download name for a date's XLSX export.
func XLSXFilename(date generic.DateKey) string {
	return "attendance-payroll-" + date.String() + ".xlsx"
}
