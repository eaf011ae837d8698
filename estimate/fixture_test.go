package estimate

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pct(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got.String(), want)
	}
}

// testDivisions returns two main divisions (listed out of order) and one
// division excluded from the main totals.
func testDivisions() []Division {
	return []Division{
		{ID: "div-elec", Number: "16", Name: "Electrical"},
		{ID: "div-gen", Number: "1", Name: "General Requirements"},
		{ID: "div-permits", Number: "90", Name: "Permits", ExcludeFromMainTotals: true},
	}
}

// testConfigs builds:
//
//	General:    cc-demo (leaf), cc-frame -> sub-walls, sub-roof -> ss-trusses, ss-sheathing
//	Electrical: cc-wiring (leaf)
//	Permits:    cc-permit (leaf)
func testConfigs() []CostCodeConfig {
	return []CostCodeConfig{
		{ID: "cc-demo", DivisionID: "div-gen", Number: "01-100", Name: "Demolition"},
		{ID: "cc-frame", DivisionID: "div-gen", Number: "01-200", Name: "Framing"},
		{ID: "sub-walls", DivisionID: "div-gen", ParentID: "cc-frame", Number: "01-210", Name: "Walls"},
		{ID: "sub-roof", DivisionID: "div-gen", ParentID: "cc-frame", Number: "01-220", Name: "Roof"},
		{ID: "ss-trusses", DivisionID: "div-gen", ParentID: "sub-roof", Number: "01-221", Name: "Trusses"},
		{ID: "ss-sheathing", DivisionID: "div-gen", ParentID: "sub-roof", Number: "01-222", Name: "Sheathing"},
		{ID: "cc-wiring", DivisionID: "div-elec", Number: "16-100", Name: "Wiring",
			PreferredItems: []MaterialItem{
				{Name: "Romex 12/2", UnitPrice: dec("85.50"), Quantity: dec("4")},
				{Name: "Junction box", UnitPrice: dec("2.25"), Quantity: dec("10")},
			}},
		{ID: "cc-permit", DivisionID: "div-permits", Number: "90-100", Name: "Building Permit"},
	}
}

func testHierarchy(t *testing.T, items ...LineItem) *Hierarchy {
	t.Helper()
	h, dropped := Build(testDivisions(), testConfigs(), items)
	if len(dropped) != 0 {
		t.Fatalf("unexpected dropped line items: %v", dropped)
	}
	return h
}

func mustFind(t *testing.T, h *Hierarchy, id string) *Node {
	t.Helper()
	n := h.Find(id)
	if n == nil {
		t.Fatalf("node %q not found", id)
	}
	return n
}
