package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// maxCostCodeDepth covers cost code, sub cost code and sub-sub cost code.
const maxCostCodeDepth = 3

// CatalogColumn describes one column of the catalog import file.
type CatalogColumn struct {
	Key         string
	Label       string
	Required    bool
	Description string
	Example     string
}

// CatalogColumns returns the columns of the catalog import file in template
// order.
func CatalogColumns() []CatalogColumn {
	return []CatalogColumn{
		{"division_number", "Division Number", true, "Division the cost code belongs to", "06"},
		{"division_name", "Division Name", true, "Name of the division", "Wood, Plastics, and Composites"},
		{"exclude_from_main_totals", "Exclude From Main Totals", false, "TRUE to report the division under Other Costs", "FALSE"},
		{"cost_code_number", "Cost Code Number", true, "Unique cost code number", "06-110"},
		{"cost_code_name", "Cost Code Name", true, "Name of the cost code", "Wall Framing"},
		{"parent_number", "Parent Number", false, "Cost code number of the parent; empty for a top-level cost code", "06-100"},
		{"sort_order", "Sort Order", false, "Order among siblings", "10"},
	}
}

// ImportError is a single field-level error on one row.
type ImportError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CatalogRow is one parsed row of a catalog import.
type CatalogRow struct {
	Row            int    `json:"row"`
	DivisionNumber string `json:"divisionNumber"`
	DivisionName   string `json:"divisionName"`
	Excluded       bool   `json:"excluded"`
	Number         string `json:"number"`
	Name           string `json:"name"`
	ParentNumber   string `json:"parentNumber"`
	SortOrder      int    `json:"sortOrder"`
}

// CatalogParseResult is returned after parsing and validating an uploaded
// catalog file.
type CatalogParseResult struct {
	TotalRows int           `json:"totalRows"`
	ValidRows int           `json:"validRows"`
	ErrorRows int           `json:"errorRows"`
	Errors    []ImportError `json:"errors"`
	Rows      []CatalogRow  `json:"-"`
	FileName  string        `json:"fileName"`
}

// CatalogImportSummary counts what ImportCatalog wrote.
type CatalogImportSummary struct {
	DivisionsCreated int `json:"divisionsCreated"`
	DivisionsUpdated int `json:"divisionsUpdated"`
	CostCodesCreated int `json:"costCodesCreated"`
	CostCodesUpdated int `json:"costCodesUpdated"`
}

// readCSV reads a CSV file and returns headers + data rows.
func readCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return splitHeader(rows)
}

// readExcel reads the first sheet of an xlsx file.
func readExcel(r io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return splitHeader(rows)
}

func splitHeader(rows [][]string) ([]string, [][]string, error) {
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}

// mapHeaders maps column headers to column keys. Labels match case
// insensitively and the " *" suffix of required template columns is ignored.
// Unknown columns map to "".
func mapHeaders(headers []string, columns []CatalogColumn) []string {
	byLabel := make(map[string]string, 2*len(columns))
	for _, c := range columns {
		byLabel[strings.ToLower(c.Label)] = c.Key
		byLabel[c.Key] = c.Key
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		norm := strings.TrimSpace(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), " *"))
		keys[i] = byLabel[norm]
	}
	return keys
}

// parseFlag accepts the spellings spreadsheets commonly use for a tick.
func parseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "x", "y", "yes":
		return true
	}
	return cast.ToBool(strings.TrimSpace(v))
}

// ParseCatalogFile parses a .csv or .xlsx catalog and validates every row.
// Rows with errors are still returned; callers import only when Errors is
// empty.
func ParseCatalogFile(r io.Reader, fileName string) (*CatalogParseResult, error) {
	var headers []string
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		headers, dataRows, err = readCSV(r)
	case strings.HasSuffix(lowerName, ".xlsx"):
		headers, dataRows, err = readExcel(r)
	default:
		return nil, fmt.Errorf("unsupported file format: must be .csv or .xlsx")
	}
	if err != nil {
		return nil, err
	}

	columns := CatalogColumns()
	keys := mapHeaders(headers, columns)
	labels := make(map[string]string, len(columns))
	for _, c := range columns {
		labels[c.Key] = c.Label
	}

	result := &CatalogParseResult{TotalRows: len(dataRows), FileName: fileName}
	addError := func(row int, key, msg string) {
		result.Errors = append(result.Errors, ImportError{Row: row, Field: labels[key], Message: msg})
	}

	for i, raw := range dataRows {
		rowNum := i + 2 // 1-indexed, after the header row
		values := make(map[string]string, len(keys))
		for col, key := range keys {
			if key != "" && col < len(raw) {
				values[key] = strings.TrimSpace(raw[col])
			}
		}

		for _, c := range columns {
			if c.Required && values[c.Key] == "" {
				addError(rowNum, c.Key, c.Label+" is required")
			}
		}

		row := CatalogRow{
			Row:            rowNum,
			DivisionNumber: values["division_number"],
			DivisionName:   values["division_name"],
			Excluded:       parseFlag(values["exclude_from_main_totals"]),
			Number:         values["cost_code_number"],
			Name:           values["cost_code_name"],
			ParentNumber:   values["parent_number"],
		}
		if v := values["sort_order"]; v != "" {
			n, err := cast.ToIntE(v)
			if err != nil {
				addError(rowNum, "sort_order", fmt.Sprintf("Sort Order %q is not a whole number", v))
			}
			row.SortOrder = n
		}
		result.Rows = append(result.Rows, row)
	}

	validateCatalogTree(result.Rows, addError)

	errorRows := make(map[int]bool)
	for _, e := range result.Errors {
		errorRows[e.Row] = true
	}
	result.ErrorRows = len(errorRows)
	result.ValidRows = result.TotalRows - result.ErrorRows
	return result, nil
}

// validateCatalogTree checks the rows as a whole: unique cost code numbers,
// parents that exist in the same division, and at most three levels.
func validateCatalogTree(rows []CatalogRow, addError func(row int, key, msg string)) {
	byNumber := make(map[string]CatalogRow, len(rows))
	divisionNames := make(map[string]string)
	for _, r := range rows {
		if r.Number == "" {
			continue
		}
		if first, dup := byNumber[r.Number]; dup {
			addError(r.Row, "cost_code_number", fmt.Sprintf("Cost code %s is already defined on row %d", r.Number, first.Row))
			continue
		}
		byNumber[r.Number] = r

		if r.DivisionNumber != "" && r.DivisionName != "" {
			if name, ok := divisionNames[r.DivisionNumber]; ok && name != r.DivisionName {
				addError(r.Row, "division_name", fmt.Sprintf("Division %s is named %q elsewhere in the file", r.DivisionNumber, name))
			} else if !ok {
				divisionNames[r.DivisionNumber] = r.DivisionName
			}
		}
	}

	for _, r := range rows {
		if r.ParentNumber == "" || r.Number == "" {
			continue
		}
		if r.ParentNumber == r.Number {
			addError(r.Row, "parent_number", "A cost code cannot be its own parent")
			continue
		}
		parent, ok := byNumber[r.ParentNumber]
		if !ok {
			addError(r.Row, "parent_number", fmt.Sprintf("Parent cost code %s is not in the file", r.ParentNumber))
			continue
		}
		if parent.DivisionNumber != r.DivisionNumber {
			addError(r.Row, "parent_number", fmt.Sprintf("Parent cost code %s is in division %s", r.ParentNumber, parent.DivisionNumber))
			continue
		}
		if depth := catalogDepth(r, byNumber); depth > maxCostCodeDepth {
			addError(r.Row, "parent_number", fmt.Sprintf("Cost code %s is nested more than %d levels deep", r.Number, maxCostCodeDepth))
		}
	}
}

// catalogDepth returns 1 for a top-level cost code. A parent cycle yields a
// depth past the limit.
func catalogDepth(r CatalogRow, byNumber map[string]CatalogRow) int {
	depth := 1
	for r.ParentNumber != "" {
		parent, ok := byNumber[r.ParentNumber]
		if !ok {
			break
		}
		depth++
		if depth > maxCostCodeDepth {
			return depth
		}
		r = parent
	}
	return depth
}

// ImportCatalog upserts divisions by number and cost codes by number in one
// transaction. Parents are written before their children.
func ImportCatalog(app core.App, rows []CatalogRow) (CatalogImportSummary, error) {
	var summary CatalogImportSummary

	byNumber := make(map[string]CatalogRow, len(rows))
	for _, r := range rows {
		byNumber[r.Number] = r
	}
	ordered := make([]CatalogRow, 0, len(rows))
	for depth := 1; depth <= maxCostCodeDepth; depth++ {
		for _, r := range rows {
			if catalogDepth(r, byNumber) == depth {
				ordered = append(ordered, r)
			}
		}
	}

	err := app.RunInTransaction(func(txApp core.App) error {
		summary = CatalogImportSummary{}

		divisionsCol, err := txApp.FindCollectionByNameOrId("divisions")
		if err != nil {
			return fmt.Errorf("could not find divisions collection: %w", err)
		}
		costCodesCol, err := txApp.FindCollectionByNameOrId("cost_codes")
		if err != nil {
			return fmt.Errorf("could not find cost_codes collection: %w", err)
		}

		divisionIDs := make(map[string]string)
		costCodeIDs := make(map[string]string)

		for _, r := range ordered {
			divID, ok := divisionIDs[r.DivisionNumber]
			if !ok {
				div, err := txApp.FindFirstRecordByFilter(divisionsCol, "number = {:number}", map[string]any{"number": r.DivisionNumber})
				if err != nil {
					div = core.NewRecord(divisionsCol)
					div.Set("number", r.DivisionNumber)
					summary.DivisionsCreated++
				} else {
					summary.DivisionsUpdated++
				}
				div.Set("name", r.DivisionName)
				div.Set("exclude_from_main_totals", r.Excluded)
				if err := txApp.Save(div); err != nil {
					return fmt.Errorf("row %d: could not save division %s: %w", r.Row, r.DivisionNumber, err)
				}
				divID = div.Id
				divisionIDs[r.DivisionNumber] = divID
			}

			code, err := txApp.FindFirstRecordByFilter(costCodesCol, "number = {:number}", map[string]any{"number": r.Number})
			if err != nil {
				code = core.NewRecord(costCodesCol)
				code.Set("number", r.Number)
				summary.CostCodesCreated++
			} else {
				summary.CostCodesUpdated++
			}
			code.Set("division", divID)
			code.Set("parent_id", costCodeIDs[r.ParentNumber])
			code.Set("name", r.Name)
			code.Set("sort_order", r.SortOrder)
			if err := txApp.Save(code); err != nil {
				return fmt.Errorf("row %d: could not save cost code %s: %w", r.Row, r.Number, err)
			}
			costCodeIDs[r.Number] = code.Id
		}
		return nil
	})
	if err != nil {
		return CatalogImportSummary{}, err
	}
	return summary, nil
}

// GenerateCatalogTemplate creates a downloadable .xlsx template for catalog
// imports with a hidden Instructions sheet.
func GenerateCatalogTemplate() ([]byte, error) {
	columns := CatalogColumns()

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Catalog"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	requiredHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create required header style: %w", err)
	}
	optionalHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6B7280"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create optional header style: %w", err)
	}

	for i, c := range columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("column name %d: %w", i+1, err)
		}
		cell := name + "1"

		header, style := c.Label, optionalHeaderStyle
		if c.Required {
			header, style = c.Label+" *", requiredHeaderStyle
		}
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, style)
		f.SetColWidth(sheetName, name, name, max(15, float64(len(c.Label))*1.3))

		if c.Key == "exclude_from_main_totals" {
			dv := excelize.NewDataValidation(true)
			dv.Sqref = fmt.Sprintf("%s2:%s1048576", name, name)
			if err := dv.SetDropList([]string{"TRUE", "FALSE"}); err != nil {
				return nil, fmt.Errorf("drop list: %w", err)
			}
			if err := f.AddDataValidation(sheetName, dv); err != nil {
				return nil, fmt.Errorf("add data validation: %w", err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	if err := addCatalogInstructions(f, columns); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel template: %w", err)
	}
	return buf.Bytes(), nil
}

func addCatalogInstructions(f *excelize.File, columns []CatalogColumn) error {
	sheet := "Instructions"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create instructions sheet: %w", err)
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})

	f.SetCellValue(sheet, "A1", "Cost Code Catalog Import - Instructions")
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	for i, h := range []string{"Column", "Required?", "Description", "Example"} {
		cell := fmt.Sprintf("%c3", 'A'+i)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	for i, c := range columns {
		row := i + 4
		required := "Optional"
		if c.Required {
			required = "Required"
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), c.Label)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), required)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), c.Description)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), c.Example)
	}
	for col, w := range map[string]float64{"A": 26, "B": 12, "C": 55, "D": 30} {
		f.SetColWidth(sheet, col, col, w)
	}

	return f.SetSheetVisible(sheet, false)
}

// GenerateErrorReport creates a downloadable .xlsx file from import errors.
func GenerateErrorReport(errors []ImportError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Field")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 26)
	f.SetColWidth(sheet, "C", "C", 60)

	for i, e := range errors {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, e.Field)
		f.SetCellValue(sheet, "C"+row, sanitizeExcelCell(e.Message))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
