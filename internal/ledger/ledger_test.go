package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopbooks/internal/model"
)

func newItem(code string, stock, cost float64, factor int64) model.Item {
	return model.Item{
		ID:               uuid.New(),
		Code:             code,
		Name:             "Item " + code,
		MajorUnit:        "carton",
		MinorUnit:        "piece",
		ConversionFactor: factor,
		ActualStock:      decimal.NewFromFloat(stock),
		SystemStock:      decimal.NewFromFloat(stock),
		CostMajor:        decimal.NewFromFloat(cost),
	}
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestApplyStockDelta_SubtractClampsAtZero(t *testing.T) {
	items := []model.Item{newItem("A1", 3, 10, 12)}
	lines := []Line{{ItemID: items[0].ID, Quantity: dec(5)}}

	got := ApplyStockDelta(items, lines, DirectionSubtract)

	if !got[0].ActualStock.IsZero() {
		t.Errorf("expected stock clamped to 0, got %s", got[0].ActualStock)
	}
	if !got[0].SystemStock.IsZero() {
		t.Errorf("expected system stock clamped to 0, got %s", got[0].SystemStock)
	}
	// Input snapshot must be untouched.
	if !items[0].ActualStock.Equal(dec(3)) {
		t.Errorf("input snapshot mutated: %s", items[0].ActualStock)
	}
}

func TestApplyStockDelta_AddThenSubtractRestoresOriginal(t *testing.T) {
	items := []model.Item{newItem("A1", 7.5, 10, 12)}
	lines := []Line{{ItemID: items[0].ID, Quantity: dec(4.25)}}

	after := ApplyStockDelta(items, lines, DirectionAdd)
	after = ApplyStockDelta(after, lines, DirectionSubtract)

	if !after[0].ActualStock.Equal(dec(7.5)) {
		t.Errorf("expected stock restored to 7.5, got %s", after[0].ActualStock)
	}
}

func TestApplyStockDelta_MinorUnitNormalization(t *testing.T) {
	// 24 pieces at 12 pieces per carton = 2 cartons.
	items := []model.Item{newItem("A1", 10, 10, 12)}
	lines := []Line{{ItemID: items[0].ID, Quantity: dec(24), MinorUnit: true}}

	got := ApplyStockDelta(items, lines, DirectionSubtract)

	if !got[0].ActualStock.Equal(dec(8)) {
		t.Errorf("expected 8 cartons, got %s", got[0].ActualStock)
	}
}

func TestApplyStockDelta_ResolvesByCodeWhenIDMissing(t *testing.T) {
	items := []model.Item{newItem("A1", 5, 10, 1)}
	lines := []Line{{ItemCode: "A1", Quantity: dec(2)}}

	got := ApplyStockDelta(items, lines, DirectionAdd)

	if !got[0].ActualStock.Equal(dec(7)) {
		t.Errorf("expected 7, got %s", got[0].ActualStock)
	}
}

func TestApplyStockDelta_UnknownItemSkippedSilently(t *testing.T) {
	items := []model.Item{newItem("A1", 5, 10, 1)}
	lines := []Line{
		{ItemID: uuid.New(), ItemCode: "missing", Quantity: dec(3)},
		{ItemCode: "A1", Quantity: dec(1)},
	}

	got := ApplyStockDelta(items, lines, DirectionAdd)

	// The unknown line is dropped, the known one still applies.
	if !got[0].ActualStock.Equal(dec(6)) {
		t.Errorf("expected 6, got %s", got[0].ActualStock)
	}
}

func TestApplyStockDelta_UntouchedItemsPassThrough(t *testing.T) {
	items := []model.Item{newItem("A1", 5, 10, 1), newItem("B2", 9, 4, 1)}
	lines := []Line{{ItemCode: "A1", Quantity: dec(5)}}

	got := ApplyStockDelta(items, lines, DirectionSubtract)

	if !got[1].ActualStock.Equal(dec(9)) {
		t.Errorf("untouched item changed: %s", got[1].ActualStock)
	}
}

func TestApplyPurchaseCosting_FreshBaselineOnZeroStock(t *testing.T) {
	items := []model.Item{newItem("A1", 0, 0, 1)}
	lines := []Line{{
		ItemID:    items[0].ID,
		Quantity:  dec(10),
		UnitPrice: dec(3.25),
		Discount:  dec(5),
	}}

	got := ApplyPurchaseCosting(items, lines, DirectionAdd)

	if !got[0].CostMajor.Equal(dec(3.25)) {
		t.Errorf("expected cost 3.25, got %s", got[0].CostMajor)
	}
	if !got[0].AvgDiscount.Equal(dec(5)) {
		t.Errorf("expected discount 5, got %s", got[0].AvgDiscount)
	}
	if !got[0].ActualStock.Equal(dec(10)) {
		t.Errorf("expected stock 10, got %s", got[0].ActualStock)
	}
}

func TestApplyPurchaseCosting_WeightedAverageRoundsToTwoPlaces(t *testing.T) {
	// (10*5.00 + 5*4.00) / 15 = 4.6667 -> 4.67
	items := []model.Item{newItem("A1", 10, 5.00, 1)}
	lines := []Line{{ItemID: items[0].ID, Quantity: dec(5), UnitPrice: dec(4.00)}}

	got := ApplyPurchaseCosting(items, lines, DirectionAdd)

	if !got[0].ActualStock.Equal(dec(15)) {
		t.Errorf("expected stock 15, got %s", got[0].ActualStock)
	}
	if !got[0].CostMajor.Equal(dec(4.67)) {
		t.Errorf("expected cost 4.67, got %s", got[0].CostMajor)
	}
}

func TestApplyPurchaseCosting_ReversalIsAlgebraicInverse(t *testing.T) {
	items := []model.Item{newItem("A1", 10, 5.00, 1)}
	lines := []Line{{ItemID: items[0].ID, Quantity: dec(5), UnitPrice: dec(8.00)}}

	after := ApplyPurchaseCosting(items, lines, DirectionAdd)
	after = ApplyPurchaseCosting(after, lines, DirectionSubtract)

	if !after[0].ActualStock.Equal(dec(10)) {
		t.Errorf("expected stock restored to 10, got %s", after[0].ActualStock)
	}
	if !after[0].CostMajor.Equal(dec(5.00)) {
		t.Errorf("expected cost restored to 5.00, got %s", after[0].CostMajor)
	}
}

func TestApplyPurchaseCosting_MinorUnitNormalizesQtyAndPrice(t *testing.T) {
	// 24 pieces at 0.50 each, 12 per carton: 2 cartons at 6.00 per carton.
	items := []model.Item{newItem("A1", 0, 0, 12)}
	lines := []Line{{
		ItemID:    items[0].ID,
		Quantity:  dec(24),
		MinorUnit: true,
		UnitPrice: dec(0.50),
	}}

	got := ApplyPurchaseCosting(items, lines, DirectionAdd)

	if !got[0].ActualStock.Equal(dec(2)) {
		t.Errorf("expected 2 cartons, got %s", got[0].ActualStock)
	}
	if !got[0].CostMajor.Equal(dec(6.00)) {
		t.Errorf("expected cost 6.00 per carton, got %s", got[0].CostMajor)
	}
}

func TestApplyPurchaseCosting_SubtractToZeroKeepsLastCost(t *testing.T) {
	items := []model.Item{newItem("A1", 5, 7.50, 1)}
	lines := []Line{{ItemID: items[0].ID, Quantity: dec(5), UnitPrice: dec(7.50)}}

	got := ApplyPurchaseCosting(items, lines, DirectionSubtract)

	if !got[0].ActualStock.IsZero() {
		t.Errorf("expected stock 0, got %s", got[0].ActualStock)
	}
	if !got[0].CostMajor.Equal(dec(7.50)) {
		t.Errorf("expected cost kept at 7.50, got %s", got[0].CostMajor)
	}
}
