package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// pdfLayout holds the grid widths (out of 12) of the estimate table.
type pdfLayout struct {
	code, description, method, amount int
	amounts                           []exportColumn
}

func newPDFLayout(data ExportData) pdfLayout {
	amounts := amountColumns(data)
	l := pdfLayout{code: 1, method: 2, amount: 2, amounts: amounts}
	if len(amounts) == 4 {
		l.method = 1
	}
	l.description = 12 - l.code - l.method - l.amount*len(amounts)
	return l
}

// GeneratePDF creates a PDF document from estimate export data using
// maroto/v2. It returns the raw PDF bytes or an error.
func GeneratePDF(data ExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)
	layout := newPDFLayout(data)

	addHeader(m, data)

	addSection(m, layout, data.Main)
	if data.OtherCosts != nil {
		addSection(m, layout, *data.OtherCosts)
	}

	addGrandTotal(m, data)
	addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addHeader adds the title, reference number, and date to the PDF.
func addHeader(m core.Maroto, data ExportData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	grey := &props.Color{Red: 80, Green: 80, Blue: 80}
	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Reference: %s", data.ReferenceNumber), props.Text{
					Size:  9,
					Align: align.Left,
					Color: grey,
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Date: %s", data.CreatedDate), props.Text{
					Size:  9,
					Align: align.Right,
					Color: grey,
				}),
			),
		),
	)

	m.AddRows(row.New(4))
}

// addSection writes a section title, its table and its subtotal.
func addSection(m core.Maroto, l pdfLayout, section ExportSection) {
	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New(section.Title, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Left}),
			),
		),
	)

	addTableHeader(m, l)
	for _, r := range section.Rows {
		addTableRow(m, l, r)
	}
	addSubtotal(m, l, section)
	m.AddRows(row.New(6))
}

// addTableHeader adds the column header row for the estimate table.
func addTableHeader(m core.Maroto, l pdfLayout) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left
	headerCell := props.Cell{BackgroundColor: headerBg}

	cols := []core.Col{
		col.New(l.code).Add(text.New("Code", headerText)).WithStyle(&headerCell),
		col.New(l.description).Add(text.New("Description", headerTextLeft)).WithStyle(&headerCell),
		col.New(l.method).Add(text.New("Method", headerText)).WithStyle(&headerCell),
	}
	for _, c := range l.amounts {
		cols = append(cols, col.New(l.amount).Add(text.New(c.header, headerText)).WithStyle(&headerCell))
	}
	m.AddRows(row.New(8).Add(cols...))
}

// addTableRow adds a single row, styled by hierarchy level.
func addTableRow(m core.Maroto, l pdfLayout, r ExportRow) {
	var cellStyle *props.Cell
	var textSize float64 = 7
	textStyle := fontstyle.Normal

	switch r.Level {
	case 0:
		textStyle = fontstyle.Bold
		textSize = 8
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 232, Green: 232, Blue: 232}}
	case 2:
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 248, Green: 248, Blue: 248}}
	case 3:
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 242, Green: 242, Blue: 242}}
	}

	baseText := props.Text{Size: textSize, Style: textStyle, Align: align.Center}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	cols := []core.Col{
		col.New(l.code).Add(text.New(r.Index, leftText)),
		col.New(l.description).Add(text.New(indent(r.Level)+r.Description, leftText)),
		col.New(l.method).Add(text.New(r.Method, baseText)),
	}
	for _, c := range l.amounts {
		cols = append(cols, col.New(l.amount).Add(text.New(FormatCurrency(c.value(r)), rightText)))
	}
	if cellStyle != nil {
		for i := range cols {
			cols[i] = cols[i].WithStyle(cellStyle)
		}
	}

	m.AddRows(row.New(7).Add(cols...))
}

// addSubtotal adds the section total row aligned under the amount columns.
func addSubtotal(m core.Maroto, l pdfLayout, section ExportSection) {
	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	bold := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}

	subtotal := ExportRow{
		Labor:       section.Totals.Labor,
		Material:    section.Totals.Material,
		Contingency: section.Totals.Contingency,
		Total:       section.Totals.Total,
	}
	cols := []core.Col{
		col.New(l.code + l.description + l.method).Add(text.New(section.Title+" total", bold)).WithStyle(summaryCell),
	}
	for _, c := range l.amounts {
		cols = append(cols, col.New(l.amount).Add(text.New(FormatCurrency(c.value(subtotal)), bold)).WithStyle(summaryCell))
	}
	m.AddRows(row.New(8).Add(cols...))
}

// addGrandTotal adds the overall total of the main and other costs sections.
func addGrandTotal(m core.Maroto, data ExportData) {
	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 220, Green: 220, Blue: 220}}
	bold := props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}

	rows := []struct {
		label string
		value string
	}{
		{"Contingency", FormatCurrency(data.Overall.Contingency)},
		{"Grand Total", FormatCurrency(data.Overall.Total)},
	}
	for _, r := range rows {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(r.label, bold)).WithStyle(summaryCell),
				col.New(4).Add(text.New(r.value, bold)).WithStyle(summaryCell),
			),
		)
	}
}

// addFooter adds the generated-date line at the bottom.
func addFooter(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Generated on %s", data.CreatedDate),
					props.Text{
						Size:  7,
						Align: align.Left,
						Color: &props.Color{Red: 140, Green: 140, Blue: 140},
					},
				),
			),
		),
	)
}
