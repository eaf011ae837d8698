package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"costestimate/estimate"
)

// ExportRow is a single row of the estimate export: a division heading or a
// cost code at any depth.
type ExportRow struct {
	Level       int    // 0 = division, 1 = cost code, 2 = sub, 3 = sub-sub
	Index       string // division or cost code number
	Description string
	Method      string // empty for divisions and aggregators
	Labor       decimal.Decimal
	Material    decimal.Decimal
	Contingency decimal.Decimal
	Total       decimal.Decimal
}

// ExportSection is a run of rows with its own subtotal.
type ExportSection struct {
	Title  string
	Rows   []ExportRow
	Totals estimate.Totals
}

// ExportData holds all data needed for export.
type ExportData struct {
	Title           string
	ReferenceNumber string
	CreatedDate     string

	ShowLabor    bool
	ShowMaterial bool
	OnlyTotal    bool

	Main       ExportSection
	OtherCosts *ExportSection
	Overall    estimate.Totals
}

var methodLabels = map[estimate.EstimationType]string{
	estimate.EstimationManual:  "Manual",
	estimate.EstimationPerRoom: "Per room",
	estimate.EstimationPerArea: "Per area",
}

// BuildEstimateExport flattens the visible estimate into export rows. Main
// divisions come first; divisions excluded from the main totals follow as a
// single Other Costs division in their own section. With OnlyTotal set only
// division rows are emitted.
func BuildEstimateExport(title, ref, date string, h *estimate.Hierarchy, deleted estimate.IDSet, settings estimate.ProjectSettings) ExportData {
	totals := estimate.RecomputeTotals(h, deleted, settings)
	def := settings.DefaultContingencyPercent

	data := ExportData{
		Title:           title,
		ReferenceNumber: ref,
		CreatedDate:     date,
		ShowLabor:       settings.EnableLabor && !settings.OnlyTotal,
		ShowMaterial:    settings.EnableMaterial && !settings.OnlyTotal,
		OnlyTotal:       settings.OnlyTotal,
		Main: ExportSection{
			Title:  "Estimate",
			Totals: totals.Main,
		},
		Overall: totals.Overall,
	}

	// RecomputeTotals lists main divisions in the same order as VisibleDivisions.
	for i, div := range estimate.VisibleDivisions(h, deleted) {
		data.Main.Rows = appendDivisionRows(data.Main.Rows, div, totals.Divisions[i].Totals, def, settings.OnlyTotal)
	}

	if other := estimate.OtherCosts(h, deleted); other != nil {
		data.OtherCosts = &ExportSection{
			Title:  estimate.OtherCostsName,
			Rows:   appendDivisionRows(nil, other, totals.OtherCosts, def, settings.OnlyTotal),
			Totals: totals.OtherCosts,
		}
	}

	return data
}

// ExportEstimate builds the export of a loaded estimate. The title carries
// the project name when one is set.
func ExportEstimate(ctx *EstimateContext) ExportData {
	createdDate := "-"
	if dt := ctx.Estimate.GetDateTime("created"); !dt.IsZero() {
		createdDate = dt.Time().Format("Jan 2, 2006")
	}

	title := ctx.Estimate.GetString("title")
	if name := ctx.Project.GetString("name"); name != "" {
		title = name + " - " + title
	}

	s := ctx.Session
	return BuildEstimateExport(title, ctx.Estimate.GetString("reference_number"), createdDate, s.Hierarchy, s.Deleted, s.Settings)
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	return strings.NewReplacer(
		" ", "-",
		"/", "-",
		"\\", "-",
		":", "-",
		`"`, "",
	).Replace(s)
}

// ExportFilename prefers the estimate number and falls back to the title.
func ExportFilename(ctx *EstimateContext, ext string) string {
	name := ctx.Estimate.GetString("reference_number")
	if name == "" {
		name = ctx.Estimate.GetString("title")
	}
	return fmt.Sprintf("Estimate_%s.%s", sanitizeFilename(name), ext)
}

func appendDivisionRows(rows []ExportRow, div *estimate.Division, t estimate.Totals, def decimal.Decimal, onlyTotal bool) []ExportRow {
	rows = append(rows, ExportRow{
		Level:       0,
		Index:       div.Number,
		Description: div.Name,
		Labor:       t.Labor,
		Material:    t.Material,
		Contingency: t.Contingency,
		Total:       t.Total,
	})
	if onlyTotal {
		return rows
	}

	for _, n := range div.CostCodes {
		rows = appendNodeRows(rows, n, 1, def)
	}
	return rows
}

func appendNodeRows(rows []ExportRow, n *estimate.Node, level int, def decimal.Decimal) []ExportRow {
	t := estimate.NodeTotals(n, def)
	row := ExportRow{
		Level:       level,
		Index:       n.Number,
		Description: n.Name,
		Labor:       t.Labor,
		Material:    t.Material,
		Contingency: t.Contingency,
		Total:       t.Total,
	}
	if n.IsLeaf() {
		row.Method = methodLabels[n.EstimationType]
		if len(n.MaterialItems) > 0 {
			row.Method += " + items"
		}
	}
	rows = append(rows, row)

	for _, child := range n.Children {
		rows = appendNodeRows(rows, child, level+1, def)
	}
	return rows
}
