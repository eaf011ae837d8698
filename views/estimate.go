// Package views holds the HTML fragments swapped in by HTMX requests.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"costestimate/estimate"
	"costestimate/services"
)

// EstimateTotalsData is everything the totals fragment shows.
type EstimateTotalsData struct {
	EstimateID string
	Title      string
	Settings   estimate.ProjectSettings
	Totals     estimate.EstimateTotals

	// HasOtherCosts is set when a division excluded from the main totals
	// still has visible cost codes.
	HasOtherCosts bool
}

type totalsColumn struct {
	header string
	value  func(estimate.Totals) decimal.Decimal
}

func totalsColumns(s estimate.ProjectSettings) []totalsColumn {
	var cols []totalsColumn
	if s.EnableLabor && !s.OnlyTotal {
		cols = append(cols, totalsColumn{"Labor", func(t estimate.Totals) decimal.Decimal { return t.Labor }})
	}
	if s.EnableMaterial && !s.OnlyTotal {
		cols = append(cols, totalsColumn{"Material", func(t estimate.Totals) decimal.Decimal { return t.Material }})
	}
	return append(cols,
		totalsColumn{"Contingency", func(t estimate.Totals) decimal.Decimal { return t.Contingency }},
		totalsColumn{"Total", func(t estimate.Totals) decimal.Decimal { return t.Total }},
	)
}

// EstimateTotals renders the per-division totals table followed by the
// main, other costs and overall rows.
func EstimateTotals(data EstimateTotalsData) templ.Component {
	cols := totalsColumns(data.Settings)

	header := []templ.Component{element("th", "text-left", text("Division"))}
	for _, c := range cols {
		header = append(header, element("th", "text-right", text(c.header)))
	}

	var rows []templ.Component
	for _, d := range data.Totals.Divisions {
		rows = append(rows, totalsRow("", d.DivisionName, d.Totals, cols))
	}
	rows = append(rows, totalsRow("font-semibold", "Main total", data.Totals.Main, cols))
	if data.HasOtherCosts {
		rows = append(rows, totalsRow("", estimate.OtherCostsName, data.Totals.OtherCosts, cols))
	}
	rows = append(rows, totalsRow("font-bold border-t", "Grand total", data.Totals.Overall, cols))

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section id="estimate-totals" data-estimate-id="%s">`, templ.EscapeString(data.EstimateID)); err != nil {
			return err
		}
		table := element("table", "min-w-full text-sm",
			element("thead", "", element("tr", "", header...)),
			element("tbody", "", rows...),
		)
		if err := element("h2", "text-lg font-semibold", text(data.Title)).Render(ctx, w); err != nil {
			return err
		}
		if err := table.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

func totalsRow(class, label string, t estimate.Totals, cols []totalsColumn) templ.Component {
	cells := []templ.Component{element("td", "", text(label))}
	for _, c := range cols {
		cells = append(cells, element("td", "text-right", text(services.FormatCurrency(c.value(t)))))
	}
	return element("tr", class, cells...)
}

// element renders tag with an optional class around its children.
func element(tag, class string, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		open := "<" + tag + ">"
		if class != "" {
			open = fmt.Sprintf(`<%s class="%s">`, tag, templ.EscapeString(class))
		}
		if _, err := io.WriteString(w, open); err != nil {
			return err
		}
		for _, child := range children {
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}

// text renders escaped plain text.
func text(value string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(value))
		return err
	})
}
