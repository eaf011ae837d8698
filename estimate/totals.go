package estimate

import (
	"github.com/shopspring/decimal"
)

// Totals are the aggregated amounts of a set of cost codes. Contingency is
// always additive: it is never folded into Labor or Material.
type Totals struct {
	Labor               decimal.Decimal `json:"labor"`
	Material            decimal.Decimal `json:"material"`
	LaborContingency    decimal.Decimal `json:"laborContingency"`
	MaterialContingency decimal.Decimal `json:"materialContingency"`
	Contingency         decimal.Decimal `json:"contingency"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	Total               decimal.Decimal `json:"total"`
}

// DivisionTotals are the totals of one visible division.
type DivisionTotals struct {
	DivisionID   string `json:"divisionId"`
	DivisionName string `json:"divisionName"`
	Totals
}

// EstimateTotals is the result of RecomputeTotals. Main and OtherCosts are
// disjoint and Overall is their sum.
type EstimateTotals struct {
	Divisions  []DivisionTotals `json:"divisions"`
	OtherCosts Totals           `json:"otherCosts"`
	Main       Totals           `json:"main"`
	Overall    Totals           `json:"overall"`
}

// sums accumulates at full precision; rounding happens once in totals().
type sums struct {
	labor, material, laborContingency, materialContingency decimal.Decimal
}

func (s *sums) addNode(n *Node, projectDefault decimal.Decimal) {
	if !n.IsLeaf() {
		for _, child := range n.Children {
			s.addNode(child, projectDefault)
		}
		return
	}
	s.labor = s.labor.Add(n.LaborAmount)
	s.material = s.material.Add(n.MaterialAmount)
	s.laborContingency = s.laborContingency.Add(LaborContingency(n, projectDefault))
	s.materialContingency = s.materialContingency.Add(MaterialContingency(n, projectDefault))
}

func (s *sums) add(o sums) {
	s.labor = s.labor.Add(o.labor)
	s.material = s.material.Add(o.material)
	s.laborContingency = s.laborContingency.Add(o.laborContingency)
	s.materialContingency = s.materialContingency.Add(o.materialContingency)
}

func (s sums) totals() Totals {
	contingency := s.laborContingency.Add(s.materialContingency)
	subtotal := s.labor.Add(s.material)
	return Totals{
		Labor:               s.labor.Round(2),
		Material:            s.material.Round(2),
		LaborContingency:    s.laborContingency.Round(2),
		MaterialContingency: s.materialContingency.Round(2),
		Contingency:         contingency.Round(2),
		Subtotal:            subtotal.Round(2),
		Total:               subtotal.Add(contingency).Round(2),
	}
}

// RecomputeTotals aggregates the visible tree. Only leaves contribute, so an
// aggregator's own amounts never reach a total.
func RecomputeTotals(h *Hierarchy, deleted IDSet, settings ProjectSettings) EstimateTotals {
	main, other := partition(h, deleted)
	def := settings.DefaultContingencyPercent

	result := EstimateTotals{Divisions: make([]DivisionTotals, 0, len(main))}

	var mainSums, otherSums sums
	for _, div := range main {
		var ds sums
		for _, n := range div.CostCodes {
			ds.addNode(n, def)
		}
		mainSums.add(ds)
		result.Divisions = append(result.Divisions, DivisionTotals{
			DivisionID:   div.ID,
			DivisionName: div.Name,
			Totals:       ds.totals(),
		})
	}
	for _, div := range other {
		for _, n := range div.CostCodes {
			otherSums.addNode(n, def)
		}
	}

	overall := mainSums
	overall.add(otherSums)

	result.Main = mainSums.totals()
	result.OtherCosts = otherSums.totals()
	result.Overall = overall.totals()
	return result
}

// DivisionContingency returns the labour and material contingency of one
// division's cost codes.
func DivisionContingency(div *Division, projectDefault decimal.Decimal) (labor, material decimal.Decimal) {
	labor, material = decimal.Zero, decimal.Zero
	for _, n := range div.CostCodes {
		labor = labor.Add(LaborContingency(n, projectDefault))
		material = material.Add(MaterialContingency(n, projectDefault))
	}
	return labor, material
}

// NodeTotals are the totals of n's subtree, as shown on an aggregator row.
// Pass nodes from VisibleDivisions or OtherCosts so deleted descendants are
// already excluded.
func NodeTotals(n *Node, projectDefault decimal.Decimal) Totals {
	var s sums
	s.addNode(n, projectDefault)
	return s.totals()
}
