package estimate

import (
	"github.com/shopspring/decimal"
)

// Session bundles everything one estimate editor works on. It is the only
// state the aggregator uses; nothing is held at package level.
type Session struct {
	Hierarchy *Hierarchy
	Settings  ProjectSettings
	Deleted   IDSet
	Applied   IDSet
	Catalog   map[string]CostCodeConfig
}

// NewSession builds the hierarchy from the catalog and saved line items and
// seeds the applied set from the loaded amounts. Deleted ids that no longer
// name a catalog node are dropped. It returns the ids of line items that
// matched no node.
func NewSession(settings ProjectSettings, divisions []Division, configs []CostCodeConfig, items []LineItem, deletedIDs []string) (*Session, []string) {
	h, dropped := Build(divisions, configs, items)

	s := &Session{
		Hierarchy: h,
		Settings:  settings,
		Deleted:   NewIDSet(),
		Applied:   NewIDSet(),
		Catalog:   make(map[string]CostCodeConfig, len(configs)),
	}
	for _, c := range configs {
		s.Catalog[c.ID] = c
	}
	for _, id := range deletedIDs {
		if h.Find(id) != nil {
			s.Deleted.Add(id)
		}
	}
	h.Walk(func(_ *Division, _ *Node, n *Node) bool {
		if n.IsLeaf() {
			MarkApplied(s.Applied, n, false)
		}
		return true
	})
	return s, dropped
}

// Node returns the stored node with the given id.
func (s *Session) Node(id string) (*Node, error) {
	n := s.Hierarchy.Find(id)
	if n == nil {
		return nil, &NotFoundError{ID: id}
	}
	return n, nil
}

func (s *Session) ApplyManual(id string, labor, material decimal.Decimal) error {
	n, err := s.Node(id)
	if err != nil {
		return err
	}
	if err := ApplyManual(n, labor, material); err != nil {
		return err
	}
	MarkApplied(s.Applied, n, true)
	return nil
}

// ApplyPerRoom uses the project's rooms count.
func (s *Session) ApplyPerRoom(id string, amountPerRoom decimal.Decimal) error {
	n, err := s.Node(id)
	if err != nil {
		return err
	}
	if err := ApplyPerRoom(n, amountPerRoom, s.Settings.RoomsCount); err != nil {
		return err
	}
	MarkApplied(s.Applied, n, true)
	return nil
}

// ApplyPerArea uses the project's area.
func (s *Session) ApplyPerArea(id string, amountPerArea decimal.Decimal) error {
	n, err := s.Node(id)
	if err != nil {
		return err
	}
	if err := ApplyPerArea(n, amountPerArea, s.Settings.AreaCount); err != nil {
		return err
	}
	MarkApplied(s.Applied, n, true)
	return nil
}

// ApplyItemWise sets the material rows. A nil items slice selects the
// catalog's preferred items for the node.
func (s *Session) ApplyItemWise(id string, items []MaterialItem) error {
	n, err := s.Node(id)
	if err != nil {
		return err
	}
	if items == nil {
		items = PreferredMaterialItems(s.Catalog[id])
	}
	if err := ApplyItemWise(n, items); err != nil {
		return err
	}
	MarkApplied(s.Applied, n, true)
	return nil
}

func (s *Session) SetContingency(id string, enabled bool, percentage *decimal.Decimal) error {
	n, err := s.Node(id)
	if err != nil {
		return err
	}
	return SetContingency(n, enabled, percentage)
}

// DeleteNode hides the node without touching its data.
func (s *Session) DeleteNode(id string) error {
	if _, err := s.Node(id); err != nil {
		return err
	}
	s.Deleted.Add(id)
	return nil
}

// RestoreNode makes a deleted node visible again with the values it had.
func (s *Session) RestoreNode(id string) error {
	if _, err := s.Node(id); err != nil {
		return err
	}
	s.Deleted.Remove(id)
	return nil
}

func (s *Session) Visible() []*Division {
	return VisibleDivisions(s.Hierarchy, s.Deleted)
}

func (s *Session) OtherCosts() *Division {
	return OtherCosts(s.Hierarchy, s.Deleted)
}

func (s *Session) Totals() EstimateTotals {
	return RecomputeTotals(s.Hierarchy, s.Deleted, s.Settings)
}

func (s *Session) LineItems() []LineItem {
	return ToLineItems(s.Hierarchy, s.Deleted)
}
