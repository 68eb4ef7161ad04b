package service

import (
	"context"
	"testing"

	"shopbooks/internal/model"
)

func TestSavePurchaseConvertedRecalculatesWeightedAverageCost(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("RICE", 10, 5, 1)

	_, err := env.purchaseSvc.SavePurchase(context.Background(), "", SavePurchaseRequest{
		Status:      model.PurchaseStatusConverted,
		PaymentMode: model.PaymentModeCash,
		Lines: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: "5", UnitPrice: "4"},
		},
	})
	if err != nil {
		t.Fatalf("SavePurchase: %v", err)
	}

	got, _ := env.items.FindByID(context.Background(), item.ID)
	if got.ActualStock.String() != "15" {
		t.Errorf("stock = %s, want 15", got.ActualStock)
	}
	// (10*5 + 5*4) / 15 = 4.6667 rounded to 4.67
	if got.CostMajor.StringFixed(2) != "4.67" {
		t.Errorf("cost = %s, want 4.67", got.CostMajor)
	}
}

func TestSavePurchaseOnZeroStockSetsFreshBaseline(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("OIL", 0, 9, 1) // stale cost from before stock ran out

	_, err := env.purchaseSvc.SavePurchase(context.Background(), "", SavePurchaseRequest{
		Status:      model.PurchaseStatusConverted,
		PaymentMode: model.PaymentModeCash,
		Lines: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: "20", UnitPrice: "6"},
		},
	})
	if err != nil {
		t.Fatalf("SavePurchase: %v", err)
	}

	got, _ := env.items.FindByID(context.Background(), item.ID)
	if got.CostMajor.StringFixed(2) != "6.00" {
		t.Errorf("cost = %s, want fresh baseline 6.00", got.CostMajor)
	}
}

func TestSavePurchaseCreditRaisesSupplierBalance(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("FLOUR", 0, 0, 1)
	supplier := env.addParty("Grain Wholesale", model.PartyTypeSupplier)

	_, err := env.purchaseSvc.SavePurchase(context.Background(), "", SavePurchaseRequest{
		Status:      model.PurchaseStatusConverted,
		PaymentMode: model.PaymentModeCredit,
		SupplierID:  supplier.ID.String(),
		Lines: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: "100", UnitPrice: "2"},
		},
	})
	if err != nil {
		t.Fatalf("SavePurchase: %v", err)
	}

	got, _ := env.parties.FindByID(context.Background(), supplier.ID)
	if got.Balance.StringFixed(2) != "200.00" {
		t.Errorf("supplier balance = %s, want 200.00", got.Balance)
	}
}

func TestSavePurchaseCashDoesNotAutoPostPayment(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("SUGAR", 0, 0, 1)
	supplier := env.addParty("Sweet Supplies", model.PartyTypeSupplier)

	_, err := env.purchaseSvc.SavePurchase(context.Background(), "", SavePurchaseRequest{
		Status:      model.PurchaseStatusConverted,
		PaymentMode: model.PaymentModeCash,
		SupplierID:  supplier.ID.String(),
		Lines: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: "10", UnitPrice: "3"},
		},
	})
	if err != nil {
		t.Fatalf("SavePurchase: %v", err)
	}

	if len(env.payments.payments) != 0 {
		t.Errorf("cash purchase must not create a payment document")
	}
	got, _ := env.parties.FindByID(context.Background(), supplier.ID)
	if !got.Balance.IsZero() {
		t.Errorf("cash purchase must not move the supplier balance, got %s", got.Balance)
	}
}

func TestSavePurchasePendingHasNoEffect(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("SALT", 5, 1, 1)

	_, err := env.purchaseSvc.SavePurchase(context.Background(), "", SavePurchaseRequest{
		Status:      model.PurchaseStatusPending,
		PaymentMode: model.PaymentModeCash,
		Lines: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: "50", UnitPrice: "1"},
		},
	})
	if err != nil {
		t.Fatalf("SavePurchase: %v", err)
	}

	got, _ := env.items.FindByID(context.Background(), item.ID)
	if got.ActualStock.String() != "5" {
		t.Errorf("stock = %s, want 5", got.ActualStock)
	}
	if got.CostMajor.StringFixed(2) != "1.00" {
		t.Errorf("cost = %s, want 1.00", got.CostMajor)
	}
}

func TestEditConvertedPurchaseNetsOnlyTheDelta(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("BEANS", 0, 0, 1)
	supplier := env.addParty("Field Produce", model.PartyTypeSupplier)

	resp, err := env.purchaseSvc.SavePurchase(context.Background(), "", SavePurchaseRequest{
		Status:      model.PurchaseStatusConverted,
		PaymentMode: model.PaymentModeCredit,
		SupplierID:  supplier.ID.String(),
		Lines: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: "10", UnitPrice: "5"},
		},
	})
	if err != nil {
		t.Fatalf("SavePurchase: %v", err)
	}

	edited, err := env.purchaseSvc.SavePurchase(context.Background(), "", SavePurchaseRequest{
		ID:          resp.ID,
		Status:      model.PurchaseStatusConverted,
		PaymentMode: model.PaymentModeCredit,
		SupplierID:  supplier.ID.String(),
		Lines: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: "8", UnitPrice: "5"},
		},
	})
	if err != nil {
		t.Fatalf("edit SavePurchase: %v", err)
	}
	if edited.InvoiceNo != resp.InvoiceNo {
		t.Errorf("invoice number changed on edit: %s -> %s", resp.InvoiceNo, edited.InvoiceNo)
	}

	gotItem, _ := env.items.FindByID(context.Background(), item.ID)
	if gotItem.ActualStock.String() != "8" {
		t.Errorf("stock = %s, want 8", gotItem.ActualStock)
	}
	gotParty, _ := env.parties.FindByID(context.Background(), supplier.ID)
	if gotParty.Balance.StringFixed(2) != "40.00" {
		t.Errorf("supplier balance = %s, want 40.00", gotParty.Balance)
	}
}

func TestDeleteConvertedPurchaseReversesStockAndKeepsLastCost(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("MAIZE", 0, 0, 1)

	resp, err := env.purchaseSvc.SavePurchase(context.Background(), "", SavePurchaseRequest{
		Status:      model.PurchaseStatusConverted,
		PaymentMode: model.PaymentModeCash,
		Lines: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: "10", UnitPrice: "5"},
		},
	})
	if err != nil {
		t.Fatalf("SavePurchase: %v", err)
	}

	if err := env.purchaseSvc.DeletePurchase(context.Background(), "", resp.ID); err != nil {
		t.Fatalf("DeletePurchase: %v", err)
	}

	gotItem, _ := env.items.FindByID(context.Background(), item.ID)
	if !gotItem.ActualStock.IsZero() {
		t.Errorf("stock = %s, want 0", gotItem.ActualStock)
	}
	// Subtracting to zero keeps the last known cost for valuation.
	if gotItem.CostMajor.StringFixed(2) != "5.00" {
		t.Errorf("cost = %s, want 5.00", gotItem.CostMajor)
	}

	stored, _ := env.purchases.FindByIDWithLines(context.Background(), mustParseID(t, resp.ID))
	if stored.Status != model.PurchaseStatusDeleted {
		t.Errorf("status = %s, want DELETED", stored.Status)
	}
	if !stored.TotalAmount.IsZero() {
		t.Errorf("total = %s, want 0", stored.TotalAmount)
	}
	if len(stored.Lines) != 0 {
		t.Errorf("lines = %d, want 0", len(stored.Lines))
	}
}

func TestReturnCreditPurchaseSubtractsStockAndLowersSupplierBalance(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("WHEAT", 0, 0, 1)
	supplier := env.addParty("Prairie Mills", model.PartyTypeSupplier)

	resp, err := env.purchaseSvc.SavePurchase(context.Background(), "", SavePurchaseRequest{
		Status:      model.PurchaseStatusConverted,
		PaymentMode: model.PaymentModeCredit,
		SupplierID:  supplier.ID.String(),
		Lines: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: "30", UnitPrice: "2"},
		},
	})
	if err != nil {
		t.Fatalf("SavePurchase: %v", err)
	}

	ret, err := env.purchaseSvc.ReturnPurchase(context.Background(), "", PurchaseReturnRequest{
		InvoiceID: resp.ID,
		Lines: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: "10", UnitPrice: "2"},
		},
	})
	if err != nil {
		t.Fatalf("ReturnPurchase: %v", err)
	}
	if ret.Status != model.PurchaseStatusReturned {
		t.Errorf("return status = %s", ret.Status)
	}
	if ret.ReturnOfID == nil || *ret.ReturnOfID != resp.ID {
		t.Errorf("return does not reference the original invoice")
	}

	gotItem, _ := env.items.FindByID(context.Background(), item.ID)
	if gotItem.ActualStock.String() != "20" {
		t.Errorf("stock = %s, want 20", gotItem.ActualStock)
	}
	gotParty, _ := env.parties.FindByID(context.Background(), supplier.ID)
	if gotParty.Balance.StringFixed(2) != "40.00" {
		t.Errorf("supplier balance = %s, want 40.00", gotParty.Balance)
	}
}

func TestMinorUnitPurchaseNormalizesQuantityAndPrice(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("WATER", 0, 0, 12) // 12 bottles per carton

	_, err := env.purchaseSvc.SavePurchase(context.Background(), "", SavePurchaseRequest{
		Status:      model.PurchaseStatusConverted,
		PaymentMode: model.PaymentModeCash,
		Lines: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: "24", MinorUnit: true, UnitPrice: "0.50"},
		},
	})
	if err != nil {
		t.Fatalf("SavePurchase: %v", err)
	}

	got, _ := env.items.FindByID(context.Background(), item.ID)
	if got.ActualStock.String() != "2" {
		t.Errorf("stock = %s, want 2 cartons", got.ActualStock)
	}
	if got.CostMajor.StringFixed(2) != "6.00" {
		t.Errorf("cost per carton = %s, want 6.00", got.CostMajor)
	}
}

func TestPurchaseMovementsRecorded(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("COCOA", 3, 10, 1)

	resp, err := env.purchaseSvc.SavePurchase(context.Background(), "", SavePurchaseRequest{
		Status:      model.PurchaseStatusConverted,
		PaymentMode: model.PaymentModeCash,
		Lines: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: "7", UnitPrice: "10"},
		},
	})
	if err != nil {
		t.Fatalf("SavePurchase: %v", err)
	}

	if len(env.movements.movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(env.movements.movements))
	}
	m := env.movements.movements[0]
	if m.Direction != model.MovementIn {
		t.Errorf("direction = %s, want IN", m.Direction)
	}
	if m.DocumentNo != resp.InvoiceNo {
		t.Errorf("document_no = %s, want %s", m.DocumentNo, resp.InvoiceNo)
	}
	if m.StockAfter.String() != "10" {
		t.Errorf("stock_after = %s, want 10", m.StockAfter)
	}
}
