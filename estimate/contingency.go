package estimate

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// EffectiveContingencyPercent is 0 when contingency is disabled, the node's
// own percentage when set (including an explicit 0), and projectDefault
// otherwise.
func EffectiveContingencyPercent(n *Node, projectDefault decimal.Decimal) decimal.Decimal {
	if !n.ContingencyEnabled {
		return decimal.Zero
	}
	if n.ContingencyPercentage == nil {
		return projectDefault
	}
	return *n.ContingencyPercentage
}

// LaborContingency is the labour contingency of n. Contingency attaches only
// at leaves; an aggregator returns the sum over its children and its own
// contingency settings are ignored.
func LaborContingency(n *Node, projectDefault decimal.Decimal) decimal.Decimal {
	return contingency(n, projectDefault, func(n *Node) decimal.Decimal { return n.LaborAmount })
}

// MaterialContingency is the material counterpart of LaborContingency.
func MaterialContingency(n *Node, projectDefault decimal.Decimal) decimal.Decimal {
	return contingency(n, projectDefault, func(n *Node) decimal.Decimal { return n.MaterialAmount })
}

func contingency(n *Node, projectDefault decimal.Decimal, amount func(*Node) decimal.Decimal) decimal.Decimal {
	if !n.IsLeaf() {
		total := decimal.Zero
		for _, child := range n.Children {
			total = total.Add(contingency(child, projectDefault, amount))
		}
		return total
	}
	return amount(n).Mul(EffectiveContingencyPercent(n, projectDefault)).Div(hundred)
}

// SetContingency updates a node's contingency flag and override. A nil
// percentage defers to the project default.
func SetContingency(n *Node, enabled bool, percentage *decimal.Decimal) error {
	if percentage != nil && percentage.IsNegative() {
		return newValidationError("contingencyPercentage", "must not be negative")
	}
	n.ContingencyEnabled = enabled
	n.ContingencyPercentage = clonePercent(percentage)
	return nil
}

func clonePercent(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
