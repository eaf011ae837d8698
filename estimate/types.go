// Package estimate implements the cost-code estimate aggregator: the
// division -> cost code -> sub cost code -> sub-sub cost code tree, the labour
// estimation methods, leaf-only contingency apportionment, the deleted-id view
// filter and the flat line-item representation used for persistence.
//
// Everything in this package is synchronous, in-memory computation. Callers own
// the hierarchy for the duration of an editing session and recompute totals
// explicitly after each mutation.
package estimate

import (
	"github.com/shopspring/decimal"
)

// EstimationType is the method used to derive a node's labour amount.
type EstimationType string

const (
	EstimationManual  EstimationType = "manual"
	EstimationPerRoom EstimationType = "per-room"
	EstimationPerArea EstimationType = "per-area"
)

// IsValid reports whether t is one of the known estimation types.
func (t EstimationType) IsValid() bool {
	switch t {
	case EstimationManual, EstimationPerRoom, EstimationPerArea:
		return true
	}
	return false
}

// Division groups top-level cost codes.
type Division struct {
	ID                    string  `json:"id"`
	Number                string  `json:"number"`
	Name                  string  `json:"name"`
	ExcludeFromMainTotals bool    `json:"excludeFromMainTotals"`
	CostCodes             []*Node `json:"costCodes"`
}

// MaterialItem is one row of an item-wise material estimate.
type MaterialItem struct {
	ItemType     string          `json:"itemType"`
	SequenceCode string          `json:"sequenceCode"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	ModelNumber  string          `json:"modelNumber"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	UnitID       string          `json:"unitId"`
	Quantity     decimal.Decimal `json:"quantity"`
	LineTotal    decimal.Decimal `json:"lineTotal"`
	IsPreferred  bool            `json:"isPreferred"`
}

// Node is a cost code at any depth. A node with children is a pure
// aggregator: its own amounts and contingency settings never reach a total.
type Node struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Name   string `json:"name"`

	LaborAmount    decimal.Decimal `json:"laborAmount"`
	MaterialAmount decimal.Decimal `json:"materialAmount"`
	EstimationType EstimationType  `json:"estimationType"`

	LaborAmountPerRoom decimal.Decimal `json:"laborAmountPerRoom"`
	RoomsCount         decimal.Decimal `json:"roomsCount"`
	LaborAmountPerArea decimal.Decimal `json:"laborAmountPerArea"`
	AreaCount          decimal.Decimal `json:"areaCount"`

	MaterialItems []MaterialItem `json:"materialItems"`

	ContingencyEnabled bool `json:"contingencyEnabled"`
	// ContingencyPercentage is nil when the project default applies.
	ContingencyPercentage *decimal.Decimal `json:"contingencyPercentage"`

	Children []*Node `json:"children"`
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// CostCodeConfig is a static catalog entry. ParentID is empty for top-level
// cost codes.
type CostCodeConfig struct {
	ID             string         `json:"id"`
	DivisionID     string         `json:"divisionId"`
	ParentID       string         `json:"parentId"`
	Number         string         `json:"number"`
	Name           string         `json:"name"`
	PreferredItems []MaterialItem `json:"preferredItems"`
}

// LineItem is the flat persisted form of one leaf node.
type LineItem struct {
	CostCodeID    string `json:"costCodeId"`
	ParentID      string `json:"parentId"`
	Number        string `json:"number"`
	Name          string `json:"name"`
	DivisionID    string `json:"divisionId"`
	DivisionName  string `json:"divisionName"`
	IsSubCostCode bool   `json:"isSubCostCode"`

	LaborAmount    decimal.Decimal `json:"laborAmount"`
	MaterialAmount decimal.Decimal `json:"materialAmount"`
	EstimationType EstimationType  `json:"estimationType"`

	LaborAmountPerRoom decimal.Decimal `json:"laborAmountPerRoom"`
	RoomsCount         decimal.Decimal `json:"roomsCount"`
	LaborAmountPerArea decimal.Decimal `json:"laborAmountPerArea"`
	AreaCount          decimal.Decimal `json:"areaCount"`

	MaterialItems []MaterialItem `json:"materialItems"`

	ContingencyEnabled    bool             `json:"contingencyEnabled"`
	ContingencyPercentage *decimal.Decimal `json:"contingencyPercentage"`
}
