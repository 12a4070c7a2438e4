package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/catalogio/internal/csvline"
)

const (
	// XLSXContentType is the MIME type of spreadsheet templates.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	templateSheet = "Products"
	notesSheet    = "Instructions"
)

// CSVTemplate returns a header-only file for def.
func CSVTemplate(def FormatDefinition) string {
	return csvline.Join(def.Columns)
}

// WriteXLSXTemplate writes a spreadsheet with a styled header row, one sample
// row and an instructions sheet.
func WriteXLSXTemplate(w io.Writer, def FormatDefinition) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"B5476B"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, col := range def.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(templateSheet, cell, col); err != nil {
			return fmt.Errorf("write header %s: %w", col, err)
		}
		if err := f.SetCellStyle(templateSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("style header %s: %w", col, err)
		}
		if i < len(def.Sample) {
			sample, _ := excelize.CoordinatesToCellName(i+1, 2)
			if err := f.SetCellStr(templateSheet, sample, def.Sample[i]); err != nil {
				return fmt.Errorf("write sample %s: %w", col, err)
			}
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(templateSheet, colName, colName, 22)
	}

	if _, err := f.NewSheet(notesSheet); err != nil {
		return fmt.Errorf("instructions sheet: %w", err)
	}
	notes := []string{
		def.Label + " product import",
		def.Description,
		"Save the Products sheet as CSV (UTF-8) before importing, or upload this workbook directly.",
		"Rows whose slug already exists in the catalog are skipped, never overwritten.",
		"Unreadable prices import as 0.",
	}
	for i, note := range notes {
		_ = f.SetCellValue(notesSheet, fmt.Sprintf("A%d", i+1), note)
	}
	_ = f.SetColWidth(notesSheet, "A", "A", 90)

	idx, _ := f.GetSheetIndex(templateSheet)
	f.SetActiveSheet(idx)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// XLSXToCSV converts the first sheet of a workbook into CSV text that Parse
// understands. Every cell is quoted so commas inside values survive.
func XLSXToCSV(r io.Reader) (string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return "", ErrEmptyFile
	}

	lines := make([]string, 0, len(rows))
	for _, cells := range rows {
		quoted := make([]string, len(cells))
		for i, c := range cells {
			// Quoted fields cannot span lines.
			quoted[i] = csvline.Quote(strings.ReplaceAll(c, "\n", " "))
		}
		lines = append(lines, csvline.Join(quoted))
	}
	return strings.Join(lines, "\n"), nil
}
