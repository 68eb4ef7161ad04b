package service

import (
	"context"
	"testing"
	"time"

	"shopbooks/internal/model"

	"github.com/shopspring/decimal"
)

func TestStatementReplaysCreditSaleAndManualReceipt(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("SUGAR", 50, 2, 1)
	customer := env.addParty("Delta Mart", model.PartyTypeCustomer)

	_, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCredit,
		CustomerID:  customer.ID.String(),
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "10", UnitPrice: "10"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}

	_, err = env.settlementSvc.CreateReceipt(context.Background(), "", CreateReceiptRequest{
		CustomerID: customer.ID.String(),
		Amount:     "40",
	})
	if err != nil {
		t.Fatalf("CreateReceipt: %v", err)
	}

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	stmt, err := env.partySvc.GetStatement(context.Background(), customer.ID.String(), from, to)
	if err != nil {
		t.Fatalf("GetStatement: %v", err)
	}

	if stmt.OpeningBalance != "0.00" {
		t.Errorf("opening balance = %s, want 0.00", stmt.OpeningBalance)
	}
	if len(stmt.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(stmt.Entries))
	}
	if stmt.Entries[0].Kind != "DEBIT" || stmt.Entries[0].Balance != "100.00" {
		t.Errorf("first entry = %s %s, want DEBIT 100.00", stmt.Entries[0].Kind, stmt.Entries[0].Balance)
	}
	if stmt.Entries[1].Kind != "CREDIT" || stmt.Entries[1].Balance != "60.00" {
		t.Errorf("second entry = %s %s, want CREDIT 60.00", stmt.Entries[1].Kind, stmt.Entries[1].Balance)
	}
	if stmt.ClosingBalance != "60.00" {
		t.Errorf("closing balance = %s, want 60.00", stmt.ClosingBalance)
	}

	// The replayed closing balance must agree with the stored accumulator.
	got, _ := env.parties.FindByID(context.Background(), customer.ID)
	if got.Balance.StringFixed(2) != stmt.ClosingBalance {
		t.Errorf("stored balance %s != statement closing %s", got.Balance.StringFixed(2), stmt.ClosingBalance)
	}
}

func TestStatementSkipsAutoReceipts(t *testing.T) {
	env := newTestEnv()
	item := env.addItem("SALT", 30, 1, 1)
	customer := env.addParty("Cash Buyer", model.PartyTypeCustomer)

	_, err := env.salesSvc.SaveSale(context.Background(), "", SaveSaleRequest{
		Status:      model.SaleStatusCompleted,
		PaymentMode: model.PaymentModeCash,
		CustomerID:  customer.ID.String(),
		Lines: []SaleLineRequest{
			{ItemID: item.ID.String(), Quantity: "5", UnitPrice: "4"},
		},
	})
	if err != nil {
		t.Fatalf("SaveSale: %v", err)
	}
	if len(env.receipts.receipts) != 1 {
		t.Fatalf("expected the auto receipt to exist")
	}

	stmt, err := env.partySvc.GetStatement(context.Background(), customer.ID.String(), time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("GetStatement: %v", err)
	}
	if len(stmt.Entries) != 0 {
		t.Errorf("entries = %d, want 0: cash sales settle instantly and must not appear", len(stmt.Entries))
	}
	if stmt.ClosingBalance != "0.00" {
		t.Errorf("closing balance = %s, want 0.00", stmt.ClosingBalance)
	}
}

func TestStatementOpeningBalanceOutsideRange(t *testing.T) {
	env := newTestEnv()
	party := env.addParty("Old Account", model.PartyTypeCustomer)
	stored := env.parties.parties[party.ID]
	stored.OpeningAmount = decimal.NewFromInt(250)
	stored.Balance = decimal.NewFromInt(250)
	stored.CreatedAt = time.Now().Add(-48 * time.Hour)

	from := time.Now().Add(-time.Hour)
	stmt, err := env.partySvc.GetStatement(context.Background(), party.ID.String(), from, time.Now())
	if err != nil {
		t.Fatalf("GetStatement: %v", err)
	}
	if stmt.OpeningBalance != "250.00" {
		t.Errorf("opening balance = %s, want 250.00", stmt.OpeningBalance)
	}
	if len(stmt.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(stmt.Entries))
	}
	if stmt.ClosingBalance != "250.00" {
		t.Errorf("closing balance = %s, want 250.00", stmt.ClosingBalance)
	}
}

func TestDeletePartyWithOutstandingBalanceRejected(t *testing.T) {
	env := newTestEnv()
	party := env.addParty("Debtor", model.PartyTypeCustomer)
	env.parties.parties[party.ID].Balance = decimal.NewFromInt(10)

	if err := env.partySvc.DeleteParty(context.Background(), "", party.ID.String()); err == nil {
		t.Fatal("expected delete to be rejected for nonzero balance")
	}

	env.parties.parties[party.ID].Balance = decimal.Zero
	if err := env.partySvc.DeleteParty(context.Background(), "", party.ID.String()); err != nil {
		t.Fatalf("DeleteParty after settling: %v", err)
	}
}

func TestReceiptLowersBalanceAndDeleteRestoresIt(t *testing.T) {
	env := newTestEnv()
	customer := env.addParty("Slow Payer", model.PartyTypeCustomer)
	env.parties.parties[customer.ID].Balance = decimal.NewFromInt(100)

	resp, err := env.settlementSvc.CreateReceipt(context.Background(), "", CreateReceiptRequest{
		CustomerID: customer.ID.String(),
		Amount:     "30",
	})
	if err != nil {
		t.Fatalf("CreateReceipt: %v", err)
	}
	if got := env.parties.parties[customer.ID].Balance.StringFixed(2); got != "70.00" {
		t.Errorf("balance after receipt = %s, want 70.00", got)
	}

	if err := env.settlementSvc.DeleteReceipt(context.Background(), "", resp.ID); err != nil {
		t.Fatalf("DeleteReceipt: %v", err)
	}
	if got := env.parties.parties[customer.ID].Balance.StringFixed(2); got != "100.00" {
		t.Errorf("balance after delete = %s, want 100.00", got)
	}
}
