// Package ledger implements the inventory reconciliation engine: pure
// functions that take an item snapshot and a document's lines and
// return a new snapshot. Callers own persistence; nothing in this
// package touches storage.
package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopbooks/internal/model"
)

// Direction of a stock mutation.
const (
	DirectionAdd      = "ADD"
	DirectionSubtract = "SUBTRACT"
)

// Line is the engine's view of a document line item. Resolution tries
// ItemID first, then ItemCode; a line that resolves to no item is
// skipped silently (accepted data drift, not an error).
type Line struct {
	ItemID    uuid.UUID
	ItemCode  string
	Quantity  decimal.Decimal
	MinorUnit bool // quantity (and price) recorded in the item's minor unit
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal // supplier discount percent, purchases only
}

// ApplyStockDelta applies a document's quantity effect to the item
// snapshot and returns a new snapshot with only touched items replaced.
// Quantities are normalized to the item's major unit before applying,
// and the result is clamped at zero: overselling silently floors stock
// at 0 instead of failing the document.
func ApplyStockDelta(items []model.Item, lines []Line, direction string) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)

	for _, line := range lines {
		idx := resolve(out, line)
		if idx < 0 {
			continue
		}
		item := out[idx]

		qty := normalizeQty(line, item)
		if direction == DirectionSubtract {
			qty = qty.Neg()
		}

		newQty := clampZero(item.ActualStock.Add(qty))
		item.ActualStock = newQty
		item.SystemStock = newQty
		out[idx] = item
	}

	return out
}

// ApplyPurchaseCosting applies a purchase document's quantity effect
// together with the moving weighted-average cost and supplier discount
// recalculation. Reversing (DirectionSubtract) is the algebraic inverse
// of applying, which is only exact if no other purchase touched the
// item in between; that approximation is a known limitation.
func ApplyPurchaseCosting(items []model.Item, lines []Line, direction string) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)

	for _, line := range lines {
		idx := resolve(out, line)
		if idx < 0 {
			continue
		}
		item := out[idx]

		qty := normalizeQty(line, item)
		price := line.UnitPrice
		if line.MinorUnit && item.ConversionFactor > 0 {
			price = price.Mul(decimal.NewFromInt(item.ConversionFactor))
		}

		signedQty := qty
		if direction == DirectionSubtract {
			signedQty = signedQty.Neg()
		}

		oldStock := item.ActualStock
		newStock := clampZero(oldStock.Add(signedQty))

		switch {
		case newStock.IsPositive():
			// newCost = (oldStock*oldCost + signedQty*price) / newStock
			item.CostMajor = oldStock.Mul(item.CostMajor).
				Add(signedQty.Mul(price)).
				Div(newStock).
				Round(2)
			item.AvgDiscount = oldStock.Mul(item.AvgDiscount).
				Add(signedQty.Mul(line.Discount)).
				Div(newStock).
				Round(2)
		case direction == DirectionAdd:
			// Receiving into empty stock that nets to zero: fresh baseline.
			item.CostMajor = price.Round(2)
			item.AvgDiscount = line.Discount.Round(2)
		}
		// Subtracting down to zero leaves the last known cost in place.

		item.ActualStock = newStock
		item.SystemStock = newStock
		out[idx] = item
	}

	return out
}

// NormalizedQuantity returns a line's quantity expressed in the item's
// major unit, for callers that record movement trails.
func NormalizedQuantity(line Line, item model.Item) decimal.Decimal {
	return normalizeQty(line, item)
}

func normalizeQty(line Line, item model.Item) decimal.Decimal {
	if line.MinorUnit && item.ConversionFactor > 0 {
		return line.Quantity.Div(decimal.NewFromInt(item.ConversionFactor))
	}
	return line.Quantity
}

func resolve(items []model.Item, line Line) int {
	if line.ItemID != uuid.Nil {
		for i := range items {
			if items[i].ID == line.ItemID {
				return i
			}
		}
	}
	if line.ItemCode != "" {
		for i := range items {
			if items[i].Code == line.ItemCode {
				return i
			}
		}
	}
	return -1
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
