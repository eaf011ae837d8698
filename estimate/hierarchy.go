package estimate

import (
	"sort"
	"strconv"
	"strings"
)

// Hierarchy is the estimate tree for one editing session.
type Hierarchy struct {
	Divisions []*Division `json:"divisions"`
}

// Build assembles the tree from the division list and the cost-code catalog,
// then overlays the persisted line items onto it. Divisions are ordered by
// number; children keep catalog order. It returns the ids of line items that
// matched no node.
//
// Catalog entries whose division or parent is unknown are left out of the tree.
// The CostCodes field of the supplied divisions is ignored.
func Build(divisions []Division, configs []CostCodeConfig, items []LineItem) (*Hierarchy, []string) {
	h := &Hierarchy{Divisions: make([]*Division, 0, len(divisions))}

	byID := make(map[string]*Division, len(divisions))
	for _, d := range divisions {
		if _, dup := byID[d.ID]; dup {
			continue
		}
		div := &Division{
			ID:                    d.ID,
			Number:                d.Number,
			Name:                  d.Name,
			ExcludeFromMainTotals: d.ExcludeFromMainTotals,
		}
		byID[d.ID] = div
		h.Divisions = append(h.Divisions, div)
	}
	sort.SliceStable(h.Divisions, func(i, j int) bool {
		return lessNumber(h.Divisions[i].Number, h.Divisions[j].Number)
	})

	nodes := make(map[string]*Node, len(configs))
	owned := make([]CostCodeConfig, 0, len(configs))
	for _, c := range configs {
		if c.ID == "" {
			continue
		}
		if _, dup := nodes[c.ID]; dup {
			continue
		}
		nodes[c.ID] = newNode(c)
		owned = append(owned, c)
	}

	for _, c := range owned {
		n := nodes[c.ID]
		if c.ParentID == "" {
			if div, ok := byID[c.DivisionID]; ok {
				div.CostCodes = append(div.CostCodes, n)
			}
			continue
		}
		if parent, ok := nodes[c.ParentID]; ok && parent != n {
			parent.Children = append(parent.Children, n)
		}
	}

	dropped := Populate(h, items)
	return h, dropped
}

// FromLineItems is Build under the name used for the inverse of ToLineItems.
func FromLineItems(divisions []Division, configs []CostCodeConfig, items []LineItem) (*Hierarchy, []string) {
	return Build(divisions, configs, items)
}

// Populate copies each line item's amounts and estimation fields onto the
// node with the same id. Items for unknown ids are skipped and returned.
func Populate(h *Hierarchy, items []LineItem) []string {
	index := h.index()

	var dropped []string
	for _, item := range items {
		n, ok := index[item.CostCodeID]
		if !ok {
			dropped = append(dropped, item.CostCodeID)
			continue
		}
		overlay(n, item)
	}
	return dropped
}

func overlay(n *Node, item LineItem) {
	n.LaborAmount = item.LaborAmount
	n.MaterialAmount = item.MaterialAmount
	n.EstimationType = item.EstimationType
	if !n.EstimationType.IsValid() {
		n.EstimationType = EstimationManual
	}
	n.LaborAmountPerRoom = item.LaborAmountPerRoom
	n.RoomsCount = item.RoomsCount
	n.LaborAmountPerArea = item.LaborAmountPerArea
	n.AreaCount = item.AreaCount
	n.MaterialItems = append([]MaterialItem(nil), item.MaterialItems...)
	n.ContingencyEnabled = item.ContingencyEnabled
	n.ContingencyPercentage = clonePercent(item.ContingencyPercentage)
	Recompute(n)
}

func newNode(c CostCodeConfig) *Node {
	return &Node{
		ID:             c.ID,
		Number:         c.Number,
		Name:           c.Name,
		EstimationType: EstimationManual,
	}
}

// Find returns the node with the given id, or nil.
func (h *Hierarchy) Find(id string) *Node {
	var found *Node
	h.Walk(func(_ *Division, _ *Node, n *Node) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Walk visits every node depth-first in display order. parent is nil for
// top-level cost codes. Returning false stops the walk.
func (h *Hierarchy) Walk(fn func(div *Division, parent, n *Node) bool) {
	for _, div := range h.Divisions {
		for _, n := range div.CostCodes {
			if !walkNode(div, nil, n, fn) {
				return
			}
		}
	}
}

func walkNode(div *Division, parent, n *Node, fn func(div *Division, parent, n *Node) bool) bool {
	if !fn(div, parent, n) {
		return false
	}
	for _, child := range n.Children {
		if !walkNode(div, n, child, fn) {
			return false
		}
	}
	return true
}

// LeafIDs returns the ids of every leaf in the tree, ignoring deletions.
func (h *Hierarchy) LeafIDs() IDSet {
	leaves := NewIDSet()
	h.Walk(func(_ *Division, _ *Node, n *Node) bool {
		if n.IsLeaf() {
			leaves.Add(n.ID)
		}
		return true
	})
	return leaves
}

func (h *Hierarchy) index() map[string]*Node {
	index := make(map[string]*Node)
	h.Walk(func(_ *Division, _ *Node, n *Node) bool {
		index[n.ID] = n
		return true
	})
	return index
}

// lessNumber orders display numbers numerically when both parse, falling
// back to plain string order.
func lessNumber(a, b string) bool {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil && fa != fb {
		return fa < fb
	}
	return a < b
}
