package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// exportColumn is one amount column of the estimate table.
type exportColumn struct {
	header string
	width  float64
	value  func(ExportRow) decimal.Decimal
}

// amountColumns returns the amount columns enabled by the project settings.
// Contingency and Total are always present.
func amountColumns(data ExportData) []exportColumn {
	var cols []exportColumn
	if data.ShowLabor {
		cols = append(cols, exportColumn{"Labor", 16, func(r ExportRow) decimal.Decimal { return r.Labor }})
	}
	if data.ShowMaterial {
		cols = append(cols, exportColumn{"Material", 16, func(r ExportRow) decimal.Decimal { return r.Material }})
	}
	cols = append(cols,
		exportColumn{"Contingency", 16, func(r ExportRow) decimal.Decimal { return r.Contingency }},
		exportColumn{"Total", 18, func(r ExportRow) decimal.Decimal { return r.Total }},
	)
	return cols
}

// GenerateExcel creates an Excel file from the given ExportData and returns
// the file contents as a byte slice.
func GenerateExcel(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Sheet names are limited to 31 characters.
	sheetName := data.Title
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	if sheetName == "" {
		sheetName = "Estimate"
	}

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	amounts := amountColumns(data)
	headers := []string{"Code", "Description", "Method"}
	widths := []float64{12, 40, 14}
	for _, c := range amounts {
		headers = append(headers, c.header)
		widths = append(widths, c.width)
	}

	columns := make([]string, len(headers))
	for i := range headers {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("column name %d: %w", i+1, err)
		}
		columns[i] = name
		if err := f.SetColWidth(sheetName, name, name, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", name, err)
		}
	}
	lastCol := columns[len(columns)-1]

	// ── Styles ──────────────────────────────────────────────────────────

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#333333"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	// Division rows: bold on a light fill.
	divisionStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 10},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E8E8E8"},
			Pattern: 1,
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create division style: %w", err)
	}

	costCodeStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create cost code style: %w", err)
	}

	summaryLabelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary label style: %w", err)
	}

	summaryValueStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary value style: %w", err)
	}

	// ── Header Rows (1-3) ───────────────────────────────────────────────

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)

	if data.ReferenceNumber != "" {
		if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
			return nil, fmt.Errorf("merge ref: %w", err)
		}
		f.SetCellValue(sheetName, "A2", "Ref: "+sanitizeExcelCell(data.ReferenceNumber))
		f.SetCellStyle(sheetName, "A2", lastCol+"2", subtitleStyle)
	}

	if err := f.MergeCell(sheetName, "A3", lastCol+"3"); err != nil {
		return nil, fmt.Errorf("merge date: %w", err)
	}
	f.SetCellValue(sheetName, "A3", "Date: "+data.CreatedDate)
	f.SetCellStyle(sheetName, "A3", lastCol+"3", subtitleStyle)

	// ── Sections ────────────────────────────────────────────────────────

	row := 5
	writeSection := func(section ExportSection) {
		for i, h := range headers {
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", columns[i], row), h)
		}
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), headerStyle)
		row++

		for _, r := range section.Rows {
			rowStr := fmt.Sprintf("%d", row)
			f.SetCellValue(sheetName, "A"+rowStr, sanitizeExcelCell(r.Index))
			f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(indent(r.Level)+r.Description))
			f.SetCellValue(sheetName, "C"+rowStr, r.Method)
			for i, c := range amounts {
				f.SetCellValue(sheetName, columns[3+i]+rowStr, FormatCurrency(c.value(r)))
			}

			style := costCodeStyle
			if r.Level == 0 {
				style = divisionStyle
			}
			f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, style)
			row++
		}

		// Subtotal row under the section.
		subtotal := ExportRow{
			Labor:       section.Totals.Labor,
			Material:    section.Totals.Material,
			Contingency: section.Totals.Contingency,
			Total:       section.Totals.Total,
		}
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "C"+rowStr, section.Title+" total:")
		f.SetCellStyle(sheetName, "C"+rowStr, "C"+rowStr, summaryLabelStyle)
		for i, c := range amounts {
			cell := columns[3+i] + rowStr
			f.SetCellValue(sheetName, cell, FormatCurrency(c.value(subtotal)))
			f.SetCellStyle(sheetName, cell, cell, summaryValueStyle)
		}
		row += 2
	}

	writeSection(data.Main)
	if data.OtherCosts != nil {
		writeSection(*data.OtherCosts)
	}

	// ── Grand Total ─────────────────────────────────────────────────────

	totalRow := fmt.Sprintf("%d", row)
	f.SetCellValue(sheetName, "C"+totalRow, "Grand Total:")
	f.SetCellStyle(sheetName, "C"+totalRow, "C"+totalRow, summaryLabelStyle)
	f.SetCellValue(sheetName, lastCol+totalRow, FormatCurrency(data.Overall.Total))
	f.SetCellStyle(sheetName, lastCol+totalRow, lastCol+totalRow, summaryValueStyle)

	// ── Write to buffer ─────────────────────────────────────────────────

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

// indent returns two spaces per hierarchy level below the division.
func indent(level int) string {
	if level <= 1 {
		return ""
	}
	return strings.Repeat("  ", level-1)
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
