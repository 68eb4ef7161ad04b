package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"shopbooks/internal/model"
	"shopbooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// In-memory fakes for the repository interfaces. They mimic only the
// behavior the services rely on: ID assignment on create, not-found as
// gorm.ErrRecordNotFound, and prefix counting for document numbers.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- items ---

type fakeItemRepo struct {
	items map[uuid.UUID]*model.Item
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[uuid.UUID]*model.Item)}
}

func (r *fakeItemRepo) Create(_ context.Context, item *model.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeItemRepo) Update(_ context.Context, item *model.Item) error {
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *fakeItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *fakeItemRepo) FindByCode(_ context.Context, code string) (*model.Item, error) {
	for _, item := range r.items {
		if item.Code == code {
			cp := *item
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeItemRepo) FindByName(_ context.Context, name string) (*model.Item, error) {
	for _, item := range r.items {
		if item.Name == name {
			cp := *item
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeItemRepo) List(_ context.Context, _, _ int, _ string) ([]model.Item, int64, error) {
	var out []model.Item
	for _, item := range r.items {
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (r *fakeItemRepo) ListAll(ctx context.Context) ([]model.Item, error) {
	out, _, err := r.List(ctx, 1, 0, "")
	return out, err
}

func (r *fakeItemRepo) FindForLines(_ context.Context, ids []uuid.UUID, codes []string) ([]model.Item, error) {
	var out []model.Item
	for _, item := range r.items {
		matched := false
		for _, id := range ids {
			if item.ID == id {
				matched = true
			}
		}
		for _, code := range codes {
			if item.Code == code {
				matched = true
			}
		}
		if matched {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) SaveSnapshot(_ context.Context, items []model.Item) error {
	for _, item := range items {
		cp := item
		r.items[item.ID] = &cp
	}
	return nil
}

// --- parties ---

type fakePartyRepo struct {
	parties map[uuid.UUID]*model.Party
}

func newFakePartyRepo() *fakePartyRepo {
	return &fakePartyRepo{parties: make(map[uuid.UUID]*model.Party)}
}

func (r *fakePartyRepo) Create(_ context.Context, party *model.Party) error {
	if party.ID == uuid.Nil {
		party.ID = uuid.New()
	}
	cp := *party
	r.parties[party.ID] = &cp
	return nil
}

func (r *fakePartyRepo) Update(_ context.Context, party *model.Party) error {
	cp := *party
	r.parties[party.ID] = &cp
	return nil
}

func (r *fakePartyRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.parties, id)
	return nil
}

func (r *fakePartyRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Party, error) {
	party, ok := r.parties[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *party
	return &cp, nil
}

func (r *fakePartyRepo) FindByName(_ context.Context, name string) (*model.Party, error) {
	for _, party := range r.parties {
		if party.Name == name {
			cp := *party
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePartyRepo) List(_ context.Context, _, _ string, _, _ int) ([]model.Party, int64, error) {
	var out []model.Party
	for _, party := range r.parties {
		out = append(out, *party)
	}
	return out, int64(len(out)), nil
}

func (r *fakePartyRepo) ListAll(_ context.Context) ([]model.Party, error) {
	var out []model.Party
	for _, party := range r.parties {
		out = append(out, *party)
	}
	return out, nil
}

func (r *fakePartyRepo) AddToBalance(_ context.Context, id uuid.UUID, delta decimal.Decimal) error {
	party, ok := r.parties[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	party.Balance = party.Balance.Add(delta)
	return nil
}

// --- sales ---

type fakeSaleRepo struct {
	invoices map[uuid.UUID]*model.SalesInvoice
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{invoices: make(map[uuid.UUID]*model.SalesInvoice)}
}

func copySale(inv *model.SalesInvoice) *model.SalesInvoice {
	cp := *inv
	cp.Lines = append([]model.SalesLine(nil), inv.Lines...)
	return &cp
}

func (r *fakeSaleRepo) Create(_ context.Context, invoice *model.SalesInvoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now()
	}
	r.invoices[invoice.ID] = copySale(invoice)
	return nil
}

func (r *fakeSaleRepo) Update(_ context.Context, invoice *model.SalesInvoice) error {
	stored, ok := r.invoices[invoice.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	lines := stored.Lines
	r.invoices[invoice.ID] = copySale(invoice)
	r.invoices[invoice.ID].Lines = lines
	return nil
}

func (r *fakeSaleRepo) ReplaceLines(_ context.Context, invoiceID uuid.UUID, lines []model.SalesLine) error {
	stored, ok := r.invoices[invoiceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Lines = append([]model.SalesLine(nil), lines...)
	return nil
}

func (r *fakeSaleRepo) FindByIDWithLines(_ context.Context, id uuid.UUID) (*model.SalesInvoice, error) {
	stored, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copySale(stored), nil
}

func (r *fakeSaleRepo) List(_ context.Context, _ repository.SaleListFilter) ([]model.SalesInvoice, int64, error) {
	var out []model.SalesInvoice
	for _, inv := range r.invoices {
		out = append(out, *copySale(inv))
	}
	return out, int64(len(out)), nil
}

func (r *fakeSaleRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]model.SalesInvoice, error) {
	var out []model.SalesInvoice
	for _, inv := range r.invoices {
		if inv.CustomerID != nil && *inv.CustomerID == customerID {
			out = append(out, *copySale(inv))
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) CountByPrefix(_ context.Context, prefix string) (int64, error) {
	var count int64
	for _, inv := range r.invoices {
		if strings.HasPrefix(inv.InvoiceNo, prefix) {
			count++
		}
	}
	return count, nil
}

// --- purchases ---

type fakePurchaseRepo struct {
	invoices map[uuid.UUID]*model.PurchaseInvoice
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{invoices: make(map[uuid.UUID]*model.PurchaseInvoice)}
}

func copyPurchase(inv *model.PurchaseInvoice) *model.PurchaseInvoice {
	cp := *inv
	cp.Lines = append([]model.PurchaseLine(nil), inv.Lines...)
	return &cp
}

func (r *fakePurchaseRepo) Create(_ context.Context, invoice *model.PurchaseInvoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now()
	}
	r.invoices[invoice.ID] = copyPurchase(invoice)
	return nil
}

func (r *fakePurchaseRepo) Update(_ context.Context, invoice *model.PurchaseInvoice) error {
	stored, ok := r.invoices[invoice.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	lines := stored.Lines
	r.invoices[invoice.ID] = copyPurchase(invoice)
	r.invoices[invoice.ID].Lines = lines
	return nil
}

func (r *fakePurchaseRepo) ReplaceLines(_ context.Context, invoiceID uuid.UUID, lines []model.PurchaseLine) error {
	stored, ok := r.invoices[invoiceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Lines = append([]model.PurchaseLine(nil), lines...)
	return nil
}

func (r *fakePurchaseRepo) FindByIDWithLines(_ context.Context, id uuid.UUID) (*model.PurchaseInvoice, error) {
	stored, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyPurchase(stored), nil
}

func (r *fakePurchaseRepo) List(_ context.Context, _ repository.PurchaseListFilter) ([]model.PurchaseInvoice, int64, error) {
	var out []model.PurchaseInvoice
	for _, inv := range r.invoices {
		out = append(out, *copyPurchase(inv))
	}
	return out, int64(len(out)), nil
}

func (r *fakePurchaseRepo) ListBySupplier(_ context.Context, supplierID uuid.UUID) ([]model.PurchaseInvoice, error) {
	var out []model.PurchaseInvoice
	for _, inv := range r.invoices {
		if inv.SupplierID != nil && *inv.SupplierID == supplierID {
			out = append(out, *copyPurchase(inv))
		}
	}
	return out, nil
}

func (r *fakePurchaseRepo) CountByPrefix(_ context.Context, prefix string) (int64, error) {
	var count int64
	for _, inv := range r.invoices {
		if strings.HasPrefix(inv.InvoiceNo, prefix) {
			count++
		}
	}
	return count, nil
}

// --- receipts ---

type fakeReceiptRepo struct {
	receipts map[uuid.UUID]*model.Receipt
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{receipts: make(map[uuid.UUID]*model.Receipt)}
}

func (r *fakeReceiptRepo) Create(_ context.Context, receipt *model.Receipt) error {
	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now()
	}
	cp := *receipt
	r.receipts[receipt.ID] = &cp
	return nil
}

func (r *fakeReceiptRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.receipts, id)
	return nil
}

func (r *fakeReceiptRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Receipt, error) {
	receipt, ok := r.receipts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *receipt
	return &cp, nil
}

func (r *fakeReceiptRepo) DeleteByDescription(_ context.Context, description string) (int64, error) {
	var removed int64
	for id, receipt := range r.receipts {
		if receipt.Auto && receipt.Description == description {
			delete(r.receipts, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeReceiptRepo) List(_ context.Context, _ *uuid.UUID, _, _ int) ([]model.Receipt, int64, error) {
	var out []model.Receipt
	for _, receipt := range r.receipts {
		out = append(out, *receipt)
	}
	return out, int64(len(out)), nil
}

func (r *fakeReceiptRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]model.Receipt, error) {
	var out []model.Receipt
	for _, receipt := range r.receipts {
		if receipt.CustomerID != nil && *receipt.CustomerID == customerID {
			out = append(out, *receipt)
		}
	}
	return out, nil
}

func (r *fakeReceiptRepo) CountByPrefix(_ context.Context, prefix string) (int64, error) {
	var count int64
	for _, receipt := range r.receipts {
		if strings.HasPrefix(receipt.ReceiptNo, prefix) {
			count++
		}
	}
	return count, nil
}

// --- payments ---

type fakePaymentRepo struct {
	payments map[uuid.UUID]*model.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*model.Payment)}
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *model.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	cp := *payment
	r.payments[payment.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	payment, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *payment
	return &cp, nil
}

func (r *fakePaymentRepo) List(_ context.Context, _ *uuid.UUID, _, _ int) ([]model.Payment, int64, error) {
	var out []model.Payment
	for _, payment := range r.payments {
		out = append(out, *payment)
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) ListBySupplier(_ context.Context, supplierID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	for _, payment := range r.payments {
		if payment.SupplierID != nil && *payment.SupplierID == supplierID {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) CountByPrefix(_ context.Context, prefix string) (int64, error) {
	var count int64
	for _, payment := range r.payments {
		if strings.HasPrefix(payment.PaymentNo, prefix) {
			count++
		}
	}
	return count, nil
}

// --- movements and audit ---

type fakeMovementRepo struct {
	movements []model.StockMovement
}

func (r *fakeMovementRepo) Create(_ context.Context, movement *model.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeMovementRepo) ListByItem(_ context.Context, itemID uuid.UUID, _, _ int) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ string, _, _ int) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

// --- stocktakes ---

type fakeStocktakeRepo struct {
	sessions map[uuid.UUID]*model.StocktakeSession
}

func newFakeStocktakeRepo() *fakeStocktakeRepo {
	return &fakeStocktakeRepo{sessions: make(map[uuid.UUID]*model.StocktakeSession)}
}

func copyStocktake(s *model.StocktakeSession) *model.StocktakeSession {
	cp := *s
	cp.Entries = append([]model.StocktakeEntry(nil), s.Entries...)
	return &cp
}

func (r *fakeStocktakeRepo) Create(_ context.Context, session *model.StocktakeSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	r.sessions[session.ID] = copyStocktake(session)
	return nil
}

func (r *fakeStocktakeRepo) Update(_ context.Context, session *model.StocktakeSession) error {
	stored, ok := r.sessions[session.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	entries := stored.Entries
	r.sessions[session.ID] = copyStocktake(session)
	if len(session.Entries) == 0 {
		r.sessions[session.ID].Entries = entries
	}
	return nil
}

func (r *fakeStocktakeRepo) FindByIDWithEntries(_ context.Context, id uuid.UUID) (*model.StocktakeSession, error) {
	stored, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyStocktake(stored), nil
}

func (r *fakeStocktakeRepo) List(_ context.Context, _, _ int) ([]model.StocktakeSession, int64, error) {
	var out []model.StocktakeSession
	for _, s := range r.sessions {
		out = append(out, *copyStocktake(s))
	}
	return out, int64(len(out)), nil
}

func (r *fakeStocktakeRepo) CountByPrefix(_ context.Context, prefix string) (int64, error) {
	var count int64
	for _, s := range r.sessions {
		if strings.HasPrefix(s.SessionNo, prefix) {
			count++
		}
	}
	return count, nil
}

// --- test environment ---

type testEnv struct {
	items      *fakeItemRepo
	parties    *fakePartyRepo
	sales      *fakeSaleRepo
	purchases  *fakePurchaseRepo
	receipts   *fakeReceiptRepo
	payments   *fakePaymentRepo
	movements  *fakeMovementRepo
	audits     *fakeAuditRepo
	stocktakes *fakeStocktakeRepo

	salesSvc      SalesService
	purchaseSvc   PurchaseService
	partySvc      PartyService
	settlementSvc SettlementService
	stocktakeSvc  StocktakeService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		items:      newFakeItemRepo(),
		parties:    newFakePartyRepo(),
		sales:      newFakeSaleRepo(),
		purchases:  newFakePurchaseRepo(),
		receipts:   newFakeReceiptRepo(),
		payments:   newFakePaymentRepo(),
		movements:  &fakeMovementRepo{},
		audits:     &fakeAuditRepo{},
		stocktakes: newFakeStocktakeRepo(),
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	env.salesSvc = NewSalesService(env.sales, env.items, env.parties, env.receipts, env.movements, env.audits, fakeTxManager{}, nil, log)
	env.purchaseSvc = NewPurchaseService(env.purchases, env.items, env.parties, env.movements, env.audits, fakeTxManager{}, nil, log)
	env.partySvc = NewPartyService(env.parties, env.sales, env.purchases, env.receipts, env.payments, env.audits, fakeTxManager{}, log)
	env.settlementSvc = NewSettlementService(env.receipts, env.payments, env.parties, env.audits, fakeTxManager{}, log)
	env.stocktakeSvc = NewStocktakeService(env.stocktakes, env.items, env.movements, env.audits, fakeTxManager{}, log)
	return env
}

func (env *testEnv) addItem(code string, stock, cost float64, factor int64) *model.Item {
	item := &model.Item{
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
	_ = env.items.Create(context.Background(), item)
	return item
}

func mustParseID(t *testing.T, id string) uuid.UUID {
	t.Helper()
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("invalid uuid %q: %v", id, err)
	}
	return parsed
}

func (env *testEnv) addParty(name, partyType string) *model.Party {
	party := &model.Party{
		ID:       uuid.New(),
		Name:     name,
		Type:     partyType,
		IsActive: true,
	}
	_ = env.parties.Create(context.Background(), party)
	return party
}
