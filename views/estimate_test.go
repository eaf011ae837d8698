package views

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"costestimate/estimate"
)

func renderTotals(t *testing.T, data EstimateTotalsData) string {
	t.Helper()
	var b strings.Builder
	if err := EstimateTotals(data).Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return b.String()
}

func sampleTotals() estimate.EstimateTotals {
	d := decimal.RequireFromString
	return estimate.EstimateTotals{
		Divisions: []estimate.DivisionTotals{
			{DivisionID: "d1", DivisionName: "Framing", Totals: estimate.Totals{Labor: d("1000"), Total: d("1000")}},
		},
		Main:       estimate.Totals{Labor: d("1000"), Total: d("1000")},
		OtherCosts: estimate.Totals{Material: d("150"), Total: d("150")},
		Overall:    estimate.Totals{Labor: d("1000"), Material: d("150"), Total: d("1150")},
	}
}

func TestEstimateTotals_Columns(t *testing.T) {
	tests := []struct {
		name     string
		settings estimate.ProjectSettings
		want     []string
		notWant  []string
	}{
		{
			name:     "labor and material",
			settings: estimate.ProjectSettings{EnableLabor: true, EnableMaterial: true},
			want:     []string{">Labor<", ">Material<", ">Contingency<", ">Total<"},
		},
		{
			name:     "labor only",
			settings: estimate.ProjectSettings{EnableLabor: true},
			want:     []string{">Labor<", ">Total<"},
			notWant:  []string{">Material<"},
		},
		{
			name:     "only total",
			settings: estimate.ProjectSettings{EnableLabor: true, EnableMaterial: true, OnlyTotal: true},
			want:     []string{">Contingency<", ">Total<"},
			notWant:  []string{">Labor<", ">Material<"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := renderTotals(t, EstimateTotalsData{Title: "Estimate", Settings: tt.settings, Totals: sampleTotals()})
			for _, s := range tt.want {
				if !strings.Contains(html, s) {
					t.Errorf("expected %q in output", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(html, s) {
					t.Errorf("did not expect %q in output", s)
				}
			}
		})
	}
}

func TestEstimateTotals_Rows(t *testing.T) {
	html := renderTotals(t, EstimateTotalsData{
		EstimateID:    "est1",
		Title:         "Estimate",
		Settings:      estimate.DefaultSettings(),
		Totals:        sampleTotals(),
		HasOtherCosts: true,
	})

	for _, s := range []string{"Framing", "Main total", "Other Costs", "Grand total", "$1,150.00", `data-estimate-id="est1"`} {
		if !strings.Contains(html, s) {
			t.Errorf("expected %q in output", s)
		}
	}
}

func TestEstimateTotals_HidesEmptyOtherCosts(t *testing.T) {
	html := renderTotals(t, EstimateTotalsData{Title: "Estimate", Settings: estimate.DefaultSettings(), Totals: sampleTotals()})
	if strings.Contains(html, "Other Costs") {
		t.Error("Other Costs row rendered without excluded divisions")
	}
}

func TestEstimateTotals_EscapesText(t *testing.T) {
	totals := sampleTotals()
	totals.Divisions[0].DivisionName = `<script>alert("x")</script>`
	html := renderTotals(t, EstimateTotalsData{Title: "A & B", Settings: estimate.DefaultSettings(), Totals: totals})

	if strings.Contains(html, "<script>") {
		t.Error("division name not escaped")
	}
	if !strings.Contains(html, "A &amp; B") {
		t.Error("title not escaped")
	}
}

func TestElement_NestsChildren(t *testing.T) {
	var b strings.Builder
	row := element("tr", "font-bold", element("td", "", text("a<b")), element("td", "text-right", text("$1.00")))
	if err := row.Render(context.Background(), &b); err != nil {
		t.Fatal(err)
	}
	want := `<tr class="font-bold"><td>a&lt;b</td><td class="text-right">$1.00</td></tr>`
	if b.String() != want {
		t.Errorf("got %s, want %s", b.String(), want)
	}
}
