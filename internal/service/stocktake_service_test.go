package service

import (
	"context"
	"testing"

	"shopbooks/internal/model"
)

func TestStocktakeCapturesSystemQtyAtCreation(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("FLOUR", 18, 2, 1)

	resp, err := env.stocktakeSvc.CreateSession(context.Background(), "", CreateStocktakeRequest{
		Note: "monthly count",
		Entries: []StocktakeEntryRequest{
			{ItemID: item.ID.String(), CountedQty: "15"},
		},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if resp.Status != model.StocktakeOpen {
		t.Errorf("status = %s, want OPEN", resp.Status)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(resp.Entries))
	}
	if resp.Entries[0].SystemQty != "18" {
		t.Errorf("system qty = %s, want 18", resp.Entries[0].SystemQty)
	}
	if resp.Entries[0].Variance != "-3" {
		t.Errorf("variance = %s, want -3", resp.Entries[0].Variance)
	}

	// Creating a session must not move stock.
	got, _ := env.items.FindByID(context.Background(), item.ID)
	if got.ActualStock.String() != "18" {
		t.Errorf("stock after create = %s, want 18", got.ActualStock)
	}
}

func TestApplyStocktakeOverridesStockAbsolutely(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("BEANS", 18, 2, 1)

	created, err := env.stocktakeSvc.CreateSession(context.Background(), "", CreateStocktakeRequest{
		Entries: []StocktakeEntryRequest{
			{ItemID: item.ID.String(), CountedQty: "15"},
		},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	// A sale between count and apply changes stock, the count still wins.
	_, err = env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCash,
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "4", UnitPrice: "3"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}

	applied, err := env.stocktakeSvc.ApplySession(context.Background(), "", created.ID)
	if err != nil {
		t.Fatalf("ApplySession: %v", err)
	}
	if applied.Status != model.StocktakeApplied {
		t.Errorf("status = %s, want APPLIED", applied.Status)
	}
	if applied.AppliedAt == nil {
		t.Error("applied_at not set")
	}

	got, _ := env.items.FindByID(context.Background(), item.ID)
	if got.ActualStock.String() != "15" {
		t.Errorf("stock = %s, want the counted 15", got.ActualStock)
	}
	if got.SystemStock.String() != "15" {
		t.Errorf("system stock = %s, want the counted 15", got.SystemStock)
	}

	var adjustments int
	for _, m := range env.movements.movements {
		if m.Direction == model.MovementAdjust && m.DocumentNo == applied.SessionNo {
			adjustments++
			if m.StockAfter.String() != "15" {
				t.Errorf("adjustment stock_after = %s, want 15", m.StockAfter)
			}
		}
	}
	if adjustments != 1 {
		t.Errorf("adjust movements = %d, want 1", adjustments)
	}
}

func TestApplyStocktakeTwiceRejected(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("PEAS", 10, 2, 1)

	created, err := env.stocktakeSvc.CreateSession(context.Background(), "", CreateStocktakeRequest{
		Entries: []StocktakeEntryRequest{
			{ItemID: item.ID.String(), CountedQty: "10"},
		},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := env.stocktakeSvc.ApplySession(context.Background(), "", created.ID); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := env.stocktakeSvc.ApplySession(context.Background(), "", created.ID); err == nil {
		t.Fatal("expected second apply to be rejected")
	}
}

func TestStocktakeRejectsDuplicateItems(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("CORN", 10, 2, 1)

	_, err := env.stocktakeSvc.CreateSession(context.Background(), "", CreateStocktakeRequest{
		Entries: []StocktakeEntryRequest{
			{ItemID: item.ID.String(), CountedQty: "5"},
			{ItemID: item.ID.String(), CountedQty: "6"},
		},
	})
	if err == nil {
		t.Fatal("expected duplicate item entries to be rejected")
	}
}
