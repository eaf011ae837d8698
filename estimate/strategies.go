package estimate

import (
	"github.com/shopspring/decimal"
)

// ApplyManual sets both amounts directly and switches labour to manual
// estimation. Item-wise material rows are kept only while they still add up
// to the new material amount.
func ApplyManual(n *Node, labor, material decimal.Decimal) error {
	if labor.IsNegative() {
		return newValidationError("laborAmount", "must not be negative")
	}
	if material.IsNegative() {
		return newValidationError("materialAmount", "must not be negative")
	}

	n.LaborAmount = labor
	n.MaterialAmount = material
	n.EstimationType = EstimationManual
	clearPerRoom(n)
	clearPerArea(n)
	if len(n.MaterialItems) > 0 && !sumLineTotals(n.MaterialItems).Equal(material) {
		n.MaterialItems = nil
	}
	return nil
}

// ApplyPerRoom derives labour as amountPerRoom x roomsCount.
func ApplyPerRoom(n *Node, amountPerRoom, roomsCount decimal.Decimal) error {
	if !roomsCount.IsPositive() {
		return newValidationError("roomsCount", "project rooms count must be greater than zero")
	}
	if amountPerRoom.IsNegative() {
		return newValidationError("laborAmountPerRoom", "must not be negative")
	}

	clearPerArea(n)
	n.EstimationType = EstimationPerRoom
	n.LaborAmountPerRoom = amountPerRoom
	n.RoomsCount = roomsCount
	n.LaborAmount = amountPerRoom.Mul(roomsCount)
	return nil
}

// ApplyPerArea derives labour as amountPerArea x areaCount.
func ApplyPerArea(n *Node, amountPerArea, areaCount decimal.Decimal) error {
	if !areaCount.IsPositive() {
		return newValidationError("areaCount", "project area must be greater than zero")
	}
	if amountPerArea.IsNegative() {
		return newValidationError("laborAmountPerArea", "must not be negative")
	}

	clearPerRoom(n)
	n.EstimationType = EstimationPerArea
	n.LaborAmountPerArea = amountPerArea
	n.AreaCount = areaCount
	n.LaborAmount = amountPerArea.Mul(areaCount)
	return nil
}

// ApplyItemWise replaces the material rows and sets the material amount to
// their line-total sum. The labour estimation type is left alone.
func ApplyItemWise(n *Node, items []MaterialItem) error {
	total := sumLineTotals(items)
	if total.IsNegative() {
		return newValidationError("materialItems", "line totals must not add up to a negative amount")
	}

	n.MaterialItems = append([]MaterialItem(nil), items...)
	n.MaterialAmount = total
	return nil
}

// Recompute re-derives the labour amount from the per-room or per-area inputs
// and the material amount from item-wise rows, so stored values cannot drift
// from their inputs.
func Recompute(n *Node) {
	switch n.EstimationType {
	case EstimationPerRoom:
		n.LaborAmount = n.LaborAmountPerRoom.Mul(n.RoomsCount)
	case EstimationPerArea:
		n.LaborAmount = n.LaborAmountPerArea.Mul(n.AreaCount)
	}
	if len(n.MaterialItems) > 0 {
		n.MaterialAmount = sumLineTotals(n.MaterialItems)
	}
}

// MarkApplied records in applied whether n carries an estimate: any positive
// amount, or an explicit apply from the estimate dialog.
func MarkApplied(applied IDSet, n *Node, explicit bool) {
	if explicit || n.LaborAmount.IsPositive() || n.MaterialAmount.IsPositive() {
		applied.Add(n.ID)
		return
	}
	applied.Remove(n.ID)
}

// PreferredMaterialItems returns the catalog's preferred items for c with
// line totals filled in, as the default item-wise selection.
func PreferredMaterialItems(c CostCodeConfig) []MaterialItem {
	items := make([]MaterialItem, 0, len(c.PreferredItems))
	for _, item := range c.PreferredItems {
		item.IsPreferred = true
		item.LineTotal = item.UnitPrice.Mul(item.Quantity)
		items = append(items, item)
	}
	return items
}

func sumLineTotals(items []MaterialItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return total
}

func clearPerRoom(n *Node) {
	n.LaborAmountPerRoom = decimal.Zero
	n.RoomsCount = decimal.Zero
}

func clearPerArea(n *Node) {
	n.LaborAmountPerArea = decimal.Zero
	n.AreaCount = decimal.Zero
}
