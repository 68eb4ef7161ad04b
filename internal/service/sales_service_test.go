package service

import (
	"context"
	"testing"

	"shopbooks/internal/model"
)

func TestSaveSaleCompletedCashCutsStockAndCreatesAutoReceipt(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("RICE", 10, 5, 1)

	resp, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCash,
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "3", UnitPrice: "7.50"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}

	got, _ := env.items.FindByID(context.Background(), item.ID)
	if got.ActualStock.String() != "7" {
		t.Errorf("stock = %s, want 7", got.ActualStock)
	}
	if got.SystemStock.String() != "7" {
		t.Errorf("system stock = %s, want 7", got.SystemStock)
	}

	if len(env.receipts.receipts) != 1 {
		t.Fatalf("receipts = %d, want 1", len(env.receipts.receipts))
	}
	for _, r := range env.receipts.receipts {
		if !r.Auto {
			t.Errorf("receipt not flagged auto")
		}
		if r.Description != model.AutoReceiptDescription(resp.InvoiceNo) {
			t.Errorf("receipt description = %q", r.Description)
		}
		if r.Amount.StringFixed(2) != "22.50" {
			t.Errorf("receipt amount = %s, want 22.50", r.Amount)
		}
	}
}

func TestSaveSaleCreditRaisesCustomerBalance(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("OIL", 20, 3, 1)
	customer := env.addParty("Acme Traders", model.PartyTypeCustomer)

	_, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCredit,
		CustomerID:  customer.ID.String(),
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "4", UnitPrice: "10"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}

	got, _ := env.parties.FindByID(context.Background(), customer.ID)
	if got.Balance.StringFixed(2) != "40.00" {
		t.Errorf("customer balance = %s, want 40.00", got.Balance)
	}
	if len(env.receipts.receipts) != 0 {
		t.Errorf("credit sale must not create a receipt")
	}
}

func TestSaveSaleCreditWithoutCustomerRejected(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("TEA", 5, 2, 1)

	_, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCredit,
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "1", UnitPrice: "2"},
		},
	})
	if err == nil {
		t.Fatal("expected error for credit sale without customer")
	}
}

func TestSaveSalePendingHasNoEffect(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("SALT", 10, 1, 1)
	customer := env.addParty("Corner Shop", model.PartyTypeCustomer)

	_, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusPending,
		PaymentMode: model.PaymentModeCredit,
		CustomerID:  customer.ID.String(),
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "5", UnitPrice: "1"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}

	gotItem, _ := env.items.FindByID(context.Background(), item.ID)
	if gotItem.ActualStock.String() != "10" {
		t.Errorf("stock = %s, want 10", gotItem.ActualStock)
	}
	gotParty, _ := env.parties.FindByID(context.Background(), customer.ID)
	if !gotParty.Balance.IsZero() {
		t.Errorf("balance = %s, want 0", gotParty.Balance)
	}
}

func TestEditCompletedSaleNetsOnlyTheDelta(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("FLOUR", 100, 4, 1)
	customer := env.addParty("Mill Road Store", model.PartyTypeCustomer)

	resp, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCredit,
		CustomerID:  customer.ID.String(),
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "10", UnitPrice: "5"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}

	// Edit the same invoice from 10 to 15 units. The net stock effect
	// must be -15 from the original 100, not -25.
	edited, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		ID:          resp.ID,
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCredit,
		CustomerID:  customer.ID.String(),
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "15", UnitPrice: "5"},
		},
	})
	if err != nil {
		t.Fatalf("edit SaveSale: %v", err)
	}
	if edited.InvoiceNo != resp.InvoiceNo {
		t.Errorf("invoice number changed on edit: %s -> %s", resp.InvoiceNo, edited.InvoiceNo)
	}

	gotItem, _ := env.items.FindByID(context.Background(), item.ID)
	if gotItem.ActualStock.String() != "85" {
		t.Errorf("stock = %s, want 85", gotItem.ActualStock)
	}
	gotParty, _ := env.parties.FindByID(context.Background(), customer.ID)
	if gotParty.Balance.StringFixed(2) != "75.00" {
		t.Errorf("balance = %s, want 75.00", gotParty.Balance)
	}
}

func TestEditPendingToCompletedAppliesEffect(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("SUGAR", 50, 2, 1)

	resp, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusPending,
		PaymentMode: model.PaymentModeCash,
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "8", UnitPrice: "3"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}

	_, err = env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		ID:          resp.ID,
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCash,
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "8", UnitPrice: "3"},
		},
	})
	if err != nil {
		t.Fatalf("edit SaveSale: %v", err)
	}

	got, _ := env.items.FindByID(context.Background(), item.ID)
	if got.ActualStock.String() != "42" {
		t.Errorf("stock = %s, want 42", got.ActualStock)
	}
	if len(env.receipts.receipts) != 1 {
		t.Errorf("receipts = %d, want 1", len(env.receipts.receipts))
	}
}

func TestDeleteCashSaleRestoresStockAndRemovesAutoReceipt(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("MILK", 30, 2, 1)

	resp, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCash,
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "6", UnitPrice: "2.50"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}
	if len(env.receipts.receipts) != 1 {
		t.Fatalf("receipts after sale = %d, want 1", len(env.receipts.receipts))
	}

	if err := env.salesSvc.DeleteSale(context.Background(), "", resp.ID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}

	gotItem, _ := env.items.FindByID(context.Background(), item.ID)
	if gotItem.ActualStock.String() != "30" {
		t.Errorf("stock = %s, want 30", gotItem.ActualStock)
	}
	if len(env.receipts.receipts) != 0 {
		t.Errorf("receipts after delete = %d, want 0", len(env.receipts.receipts))
	}

	stored, _ := env.sales.FindByIDWithLines(context.Background(), mustParseID(t, resp.ID))
	if stored.Status != model.SaleStatusDeleted {
		t.Errorf("status = %s, want DELETED", stored.Status)
	}
	if !stored.TotalAmount.IsZero() {
		t.Errorf("total = %s, want 0", stored.TotalAmount)
	}
	if len(stored.Lines) != 0 {
		t.Errorf("lines = %d, want 0", len(stored.Lines))
	}
}

func TestDeleteSaleTwiceRejected(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("EGGS", 12, 1, 1)

	resp, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCash,
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "2", UnitPrice: "1"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}
	if err := env.salesSvc.DeleteSale(context.Background(), "", resp.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := env.salesSvc.DeleteSale(context.Background(), "", resp.ID); err == nil {
		t.Fatal("expected error on second delete")
	}
}

func TestReturnCreditSaleAddsStockAndLowersBalance(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("BEANS", 40, 3, 1)
	customer := env.addParty("Hillside Market", model.PartyTypeCustomer)

	resp, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCredit,
		CustomerID:  customer.ID.String(),
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "10", UnitPrice: "4"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}

	ret, err := env.salesSvc.ReturnSale(context.Background(), "", SaleReturnRequest{
		InvoiceID: resp.ID,
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "4", UnitPrice: "4"},
		},
	})
	if err != nil {
		t.Fatalf("ReturnSale: %v", err)
	}
	if ret.Status != model.SaleStatusReturned {
		t.Errorf("return status = %s", ret.Status)
	}
	if ret.ReturnOfID == nil || *ret.ReturnOfID != resp.ID {
		t.Errorf("return does not reference the original invoice")
	}

	gotItem, _ := env.items.FindByID(context.Background(), item.ID)
	if gotItem.ActualStock.String() != "34" {
		t.Errorf("stock = %s, want 34", gotItem.ActualStock)
	}
	gotParty, _ := env.parties.FindByID(context.Background(), customer.ID)
	if gotParty.Balance.StringFixed(2) != "24.00" {
		t.Errorf("balance = %s, want 24.00", gotParty.Balance)
	}
}

func TestReturnCashSaleLeavesBalanceUntouched(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("SOAP", 25, 1, 1)
	customer := env.addParty("Walk-in", model.PartyTypeCustomer)

	resp, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCash,
		CustomerID:  customer.ID.String(),
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "5", UnitPrice: "2"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}

	_, err = env.salesSvc.ReturnSale(context.Background(), "", SaleReturnRequest{
		InvoiceID: resp.ID,
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "5", UnitPrice: "2"},
		},
	})
	if err != nil {
		t.Fatalf("ReturnSale: %v", err)
	}

	gotItem, _ := env.items.FindByID(context.Background(), item.ID)
	if gotItem.ActualStock.String() != "25" {
		t.Errorf("stock = %s, want 25", gotItem.ActualStock)
	}
	gotParty, _ := env.parties.FindByID(context.Background(), customer.ID)
	if !gotParty.Balance.IsZero() {
		t.Errorf("cash return must not move the balance, got %s", gotParty.Balance)
	}
}

func TestMinorUnitSaleNormalizesStockDeduction(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("WATER", 10, 6, 12) // 12 bottles per carton

	_, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCash,
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "24", MinorUnit: true, UnitPrice: "0.50"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}

	got, _ := env.items.FindByID(context.Background(), item.ID)
	if got.ActualStock.String() != "8" {
		t.Errorf("stock = %s, want 8", got.ActualStock)
	}
}

func TestSaleMovementsRecorded(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("JUICE", 15, 2, 1)

	resp, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCash,
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "3", UnitPrice: "2"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}

	if len(env.movements.movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(env.movements.movements))
	}
	m := env.movements.movements[0]
	if m.Direction != model.MovementOut {
		t.Errorf("direction = %s, want OUT", m.Direction)
	}
	if m.DocumentNo != resp.InvoiceNo {
		t.Errorf("document_no = %s, want %s", m.DocumentNo, resp.InvoiceNo)
	}
	if m.StockAfter.String() != "12" {
		t.Errorf("stock_after = %s, want 12", m.StockAfter)
	}
}
