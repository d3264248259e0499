package transfer

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lgu-records/recordkeeper/internal/dates"
	"github.com/lgu-records/recordkeeper/types"
)

const (
	templateSheet     = "Template"
	instructionsSheet = "Instructions"
	defaultSheet      = "Sheet1"

	// Largest serial excelize accepts (9999-12-31).
	maxExcelSerial = 2958465
)

var templateRows = [][]string{
	{"date", "sender", "subject", "destination"},
	{"2024-01-01 10:00:00", "John Smith", "Sample Invoice", "Accounting Department"},
	{"2024-01-02 14:30:00", "Jane Doe", "Project Report", "Management Team"},
}

var templateInstructions = []string{
	"Instructions",
	"1. Fill in the template with your data",
	"2. Required columns: sender, subject, destination",
	"3. Optional columns: date (YYYY-MM-DD HH:MM:SS format), status",
	"4. IDs are generated automatically, do not include an ID column",
	"5. Delete these sample rows before importing",
	"6. Save the file before importing",
	`7. Use either "destination" or "to" as column header`,
}

// WriteExcel writes records to a single-sheet workbook.
func WriteExcel(w io.Writer, records []types.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, ExcelSheet); err != nil {
		return err
	}
	if err := writeHeader(f, ExcelSheet, ExportColumns); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(f, ExcelSheet, i+2, recordRow(r)); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(ExcelSheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(ExcelSheet, "B", "F", 20); err != nil {
		return err
	}
	return f.Write(w)
}

// WriteTemplate writes the import template: sample rows plus an
// instructions sheet.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, templateSheet); err != nil {
		return err
	}
	if err := writeHeader(f, templateSheet, templateRows[0]); err != nil {
		return err
	}
	for i, row := range templateRows[1:] {
		if err := setRow(f, templateSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(instructionsSheet); err != nil {
		return err
	}
	if err := writeHeader(f, instructionsSheet, templateInstructions[:1]); err != nil {
		return err
	}
	for i, line := range templateInstructions[1:] {
		if err := setRow(f, instructionsSheet, i+2, []string{line}); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(instructionsSheet, "A", "A", 70); err != nil {
		return err
	}
	return f.Write(w)
}

// ReadExcel returns the rows of the first worksheet, header included.
// Number-typed cells under a "date" header are treated as Excel date
// serials; text cells are kept as typed.
func ReadExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	dateCol := -1
	for i, name := range rows[0] {
		if normalizeHeader(name) == "date" {
			dateCol = i
			break
		}
	}
	if dateCol < 0 {
		return rows, nil
	}
	for i, row := range rows[1:] {
		if dateCol >= len(row) {
			continue
		}
		numeric, err := numericCell(f, sheets[0], dateCol+1, i+2)
		if err != nil {
			return nil, err
		}
		if numeric {
			row[dateCol] = serialToDate(row[dateCol])
		}
	}
	return rows, nil
}

// numericCell reports whether the cell at col, row holds a number. Cells
// without a type attribute are numbers in the file format.
func numericCell(f *excelize.File, sheet string, col, row int) (bool, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false, err
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return false, err
	}
	return typ == excelize.CellTypeNumber || typ == excelize.CellTypeUnset, nil
}

func serialToDate(raw string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 || v > maxExcelSerial {
		return raw
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return raw
	}
	if v == math.Trunc(v) {
		return t.Format(dates.DateLayout)
	}
	return t.Round(time.Second).Format(dates.DateTimeLayout)
}

func writeHeader(f *excelize.File, sheet string, header []string) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", end, style)
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return f.SetSheetRow(sheet, cell, &out)
}
