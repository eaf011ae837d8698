package estimate

// Identity of the pseudo-division that collects divisions excluded from the
// main totals.
const (
	OtherCostsID   = "other-costs"
	OtherCostsName = "Other Costs"
)

// VisibleDivisions returns the main-total divisions with every deleted node
// removed at any depth. Divisions left without cost codes are dropped, as are
// divisions flagged ExcludeFromMainTotals (see OtherCosts). Stored nodes are
// never modified; leaves in the result are the stored nodes themselves.
func VisibleDivisions(h *Hierarchy, deleted IDSet) []*Division {
	main, _ := partition(h, deleted)
	return main
}

// OtherCosts returns the "Other Costs" pseudo-division holding the visible cost
// codes of every ExcludeFromMainTotals division, or nil when there are none.
func OtherCosts(h *Hierarchy, deleted IDSet) *Division {
	_, other := partition(h, deleted)
	if len(other) == 0 {
		return nil
	}
	pseudo := &Division{
		ID:                    OtherCostsID,
		Name:                  OtherCostsName,
		ExcludeFromMainTotals: true,
	}
	for _, div := range other {
		pseudo.CostCodes = append(pseudo.CostCodes, div.CostCodes...)
	}
	return pseudo
}

// partition filters the hierarchy and splits the surviving divisions into the
// main set and the excluded set.
func partition(h *Hierarchy, deleted IDSet) (main, other []*Division) {
	if h == nil {
		return nil, nil
	}
	for _, div := range h.Divisions {
		visible := filterDivision(div, deleted)
		if visible == nil {
			continue
		}
		if visible.ExcludeFromMainTotals {
			other = append(other, visible)
		} else {
			main = append(main, visible)
		}
	}
	return main, other
}

func filterDivision(div *Division, deleted IDSet) *Division {
	costCodes := filterNodes(div.CostCodes, deleted)
	if len(costCodes) == 0 {
		return nil
	}
	out := *div
	out.CostCodes = costCodes
	return &out
}

// filterNodes drops deleted nodes and aggregators whose children were all
// deleted. A stored node is reused only when its whole subtree survived
// unchanged; otherwise a shallow view with the filtered children is returned.
func filterNodes(nodes []*Node, deleted IDSet) []*Node {
	out, _ := filterChanged(nodes, deleted)
	return out
}

func filterChanged(nodes []*Node, deleted IDSet) ([]*Node, bool) {
	var out []*Node
	changed := false
	for _, n := range nodes {
		if deleted.Has(n.ID) {
			changed = true
			continue
		}
		if n.IsLeaf() {
			out = append(out, n)
			continue
		}
		children, childChanged := filterChanged(n.Children, deleted)
		if len(children) == 0 {
			changed = true
			continue
		}
		if !childChanged {
			out = append(out, n)
			continue
		}
		changed = true
		view := *n
		view.Children = children
		out = append(out, &view)
	}
	return out, changed
}
