package estimate

// ToLineItems flattens the visible tree into one line item per leaf, main
// divisions first and then the divisions excluded from the main totals.
// Aggregators are never emitted. Amounts are rounded to cents here; rates,
// counts and item rows are copied verbatim.
func ToLineItems(h *Hierarchy, deleted IDSet) []LineItem {
	main, other := partition(h, deleted)

	var items []LineItem
	for _, divs := range [][]*Division{main, other} {
		for _, div := range divs {
			for _, n := range div.CostCodes {
				items = appendLeaves(items, div, "", n, false)
			}
		}
	}
	return items
}

func appendLeaves(items []LineItem, div *Division, parentID string, n *Node, sub bool) []LineItem {
	if !n.IsLeaf() {
		for _, child := range n.Children {
			items = appendLeaves(items, div, n.ID, child, true)
		}
		return items
	}
	return append(items, LineItem{
		CostCodeID:            n.ID,
		ParentID:              parentID,
		Number:                n.Number,
		Name:                  n.Name,
		DivisionID:            div.ID,
		DivisionName:          div.Name,
		IsSubCostCode:         sub,
		LaborAmount:           n.LaborAmount.Round(2),
		MaterialAmount:        n.MaterialAmount.Round(2),
		EstimationType:        n.EstimationType,
		LaborAmountPerRoom:    n.LaborAmountPerRoom,
		RoomsCount:            n.RoomsCount,
		LaborAmountPerArea:    n.LaborAmountPerArea,
		AreaCount:             n.AreaCount,
		MaterialItems:         append([]MaterialItem(nil), n.MaterialItems...),
		ContingencyEnabled:    n.ContingencyEnabled,
		ContingencyPercentage: clonePercent(n.ContingencyPercentage),
	})
}
