package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopbooks/internal/ledger"
	"shopbooks/internal/model"
	"shopbooks/internal/repository"
	ws "shopbooks/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- DTOs ---

type SaleLineRequest struct {
	ItemID    string `json:"item_id"`
	ItemCode  string `json:"item_code"`
	Quantity  string `json:"quantity" binding:"required"`
	MinorUnit bool   `json:"minor_unit"`
	UnitPrice string `json:"unit_price" binding:"required"`
}

type SaveSaleRequest struct {
	ID          string            `json:"id"` // empty for a new invoice, set when editing
	Status      string            `json:"status" binding:"required,oneof=PENDING COMPLETED"`
	PaymentMode string            `json:"payment_mode" binding:"required,oneof=CASH CREDIT"`
	CustomerID  string            `json:"customer_id"`
	Note        string            `json:"note"`
	Lines       []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type SaleReturnRequest struct {
	InvoiceID string            `json:"invoice_id" binding:"required"`
	Lines     []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	Note      string            `json:"note"`
}

type SaleLineResponse struct {
	ItemID    string `json:"item_id"`
	ItemCode  string `json:"item_code"`
	Quantity  string `json:"quantity"`
	MinorUnit bool   `json:"minor_unit"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type SaleResponse struct {
	ID          string             `json:"id"`
	InvoiceNo   string             `json:"invoice_no"`
	Status      string             `json:"status"`
	PaymentMode string             `json:"payment_mode"`
	CustomerID  *string            `json:"customer_id"`
	Customer    string             `json:"customer,omitempty"`
	ReturnOfID  *string            `json:"return_of_id"`
	Lines       []SaleLineResponse `json:"lines"`
	TotalAmount string             `json:"total_amount"`
	Note        string             `json:"note"`
	CreatedAt   string             `json:"created_at"`
}

type SaleFilter struct {
	Status     string
	CustomerID string
	InvoiceNo  string
	Page       int
	Limit      int
}

// --- Interface ---

type SalesService interface {
	SaveSale(ctx context.Context, userID string, req SaveSaleRequest) (SaleResponse, error)
	DeleteSale(ctx context.Context, userID string, id string) error
	ReturnSale(ctx context.Context, userID string, req SaleReturnRequest) (SaleResponse, error)
	GetSale(ctx context.Context, id string) (SaleResponse, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]SaleResponse, int64, error)
}

type salesService struct {
	saleRepo     repository.SaleRepository
	itemRepo     repository.ItemRepository
	partyRepo    repository.PartyRepository
	receiptRepo  repository.ReceiptRepository
	movementRepo repository.MovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
	log          *logrus.Logger
}

func NewSalesService(
	saleRepo repository.SaleRepository,
	itemRepo repository.ItemRepository,
	partyRepo repository.PartyRepository,
	receiptRepo repository.ReceiptRepository,
	movementRepo repository.MovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	log *logrus.Logger,
) SalesService {
	return &salesService{
		saleRepo:     saleRepo,
		itemRepo:     itemRepo,
		partyRepo:    partyRepo,
		receiptRepo:  receiptRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
		log:          log,
	}
}

// --- Implementation ---

// SaveSale creates or edits a sales invoice. An edit fully reverts the
// old version's stock and financial effect before applying the new one;
// there is no diffing of lines.
func (s *salesService) SaveSale(ctx context.Context, userID string, req SaveSaleRequest) (SaleResponse, error) {
	lines, total, err := parseSaleLines(req.Lines)
	if err != nil {
		return SaleResponse{}, err
	}

	var customerID *uuid.UUID
	if req.CustomerID != "" {
		parsed, parseErr := uuid.Parse(req.CustomerID)
		if parseErr != nil {
			return SaleResponse{}, fmt.Errorf("invalid customer_id: %w", parseErr)
		}
		customerID = &parsed
	}
	if req.PaymentMode == model.PaymentModeCredit && customerID == nil {
		return SaleResponse{}, errors.New("credit sale requires a customer")
	}

	var invoiceID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var old *model.SalesInvoice
		if req.ID != "" {
			oldID, parseErr := uuid.Parse(req.ID)
			if parseErr != nil {
				return fmt.Errorf("invalid invoice id: %w", parseErr)
			}
			var findErr error
			old, findErr = s.saleRepo.FindByIDWithLines(txCtx, oldID)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return errors.New("invoice not found")
				}
				return fmt.Errorf("failed to load invoice: %w", findErr)
			}
			if old.Status == model.SaleStatusDeleted || old.Status == model.SaleStatusReturned {
				return fmt.Errorf("cannot edit invoice with status %s", old.Status)
			}
		}

		// Load every item either version can touch, then run the pure
		// engine over that snapshot.
		engineLines := toEngineSaleLines(lines)
		var oldEngineLines []ledger.Line
		if old != nil {
			oldEngineLines = toEngineSaleLines(old.Lines)
		}
		items, loadErr := s.loadItemsFor(txCtx, append(append([]ledger.Line{}, engineLines...), oldEngineLines...))
		if loadErr != nil {
			return fmt.Errorf("failed to load items: %w", loadErr)
		}

		// 1. Revert the old version's effect, if it carried one.
		if old != nil && old.Status == model.SaleStatusCompleted {
			items = ledger.ApplyStockDelta(items, oldEngineLines, ledger.DirectionAdd)
			if revErr := s.reverseSaleFinance(txCtx, old); revErr != nil {
				return revErr
			}
		}

		// 2. Apply the new version's effect.
		invoice := model.SalesInvoice{
			Status:      req.Status,
			PaymentMode: req.PaymentMode,
			CustomerID:  customerID,
			TotalAmount: total,
			Note:        req.Note,
		}
		if old != nil {
			invoice.ID = old.ID
			invoice.InvoiceNo = old.InvoiceNo
			invoice.CreatedAt = old.CreatedAt
		} else {
			no, genErr := generateDocumentNo(txCtx, "SAL", s.saleRepo.CountByPrefix)
			if genErr != nil {
				return fmt.Errorf("failed to generate invoice number: %w", genErr)
			}
			invoice.InvoiceNo = no
		}

		if req.Status == model.SaleStatusCompleted {
			items = ledger.ApplyStockDelta(items, engineLines, ledger.DirectionSubtract)
			if postErr := s.postSaleFinance(txCtx, &invoice); postErr != nil {
				return postErr
			}
		}

		// 3. Persist snapshot and replace the document.
		if saveErr := s.itemRepo.SaveSnapshot(txCtx, items); saveErr != nil {
			return fmt.Errorf("failed to persist stock: %w", saveErr)
		}
		if req.Status == model.SaleStatusCompleted {
			s.recordMovements(txCtx, items, engineLines, model.MovementOut, invoice.InvoiceNo)
		}

		if old != nil {
			if updErr := s.saleRepo.Update(txCtx, &invoice); updErr != nil {
				return fmt.Errorf("failed to update invoice: %w", updErr)
			}
			if lineErr := s.saleRepo.ReplaceLines(txCtx, invoice.ID, lines); lineErr != nil {
				return fmt.Errorf("failed to replace lines: %w", lineErr)
			}
		} else {
			invoice.Lines = lines
			if crtErr := s.saleRepo.Create(txCtx, &invoice); crtErr != nil {
				return fmt.Errorf("failed to create invoice: %w", crtErr)
			}
		}
		invoiceID = invoice.ID

		s.audit(txCtx, userID, model.ActionSaveSale, invoice.ID.String(), invoice.InvoiceNo, req)
		return nil
	})
	if err != nil {
		return SaleResponse{}, err
	}

	s.broadcastStockEvent("sale_saved", invoiceID.String())

	reloaded, err := s.saleRepo.FindByIDWithLines(ctx, invoiceID)
	if err != nil {
		return SaleResponse{}, fmt.Errorf("failed to reload invoice: %w", err)
	}
	return toSaleResponse(*reloaded), nil
}

/// DeleteSale reverses a completed invoice's effect, then soft deletes:
// status DELETED, amount zeroed, lines removed, row retained.
func (s *salesService) DeleteSale(ctx context.Context, userID string, id string) error {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid invoice id: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.saleRepo.FindByIDWithLines(txCtx, invoiceID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("invoice not found")
			}
			return fmt.Errorf("failed to load invoice: %w", findErr)
		}
		if invoice.Status == model.SaleStatusDeleted {
			return errors.New("invoice is already deleted")
		}

		if invoice.Status == model.SaleStatusCompleted {
			engineLines := toEngineSaleLines(invoice.Lines)
			items, loadErr := s.loadItemsFor(txCtx, engineLines)
			if loadErr != nil {
				return fmt.Errorf("failed to load items: %w", loadErr)
			}
			items = ledger.ApplyStockDelta(items, engineLines, ledger.DirectionAdd)
			if saveErr := s.itemRepo.SaveSnapshot(txCtx, items); saveErr != nil {
				return fmt.Errorf("failed to persist stock: %w", saveErr)
			}
			s.recordMovements(txCtx, items, engineLines, model.MovementIn, invoice.InvoiceNo)
			if revErr := s.reverseSaleFinance(txCtx, invoice); revErr != nil {
				return revErr
			}
		}

		invoice.Status = model.SaleStatusDeleted
		invoice.TotalAmount = decimal.Zero
		if updErr := s.saleRepo.Update(txCtx, invoice); updErr != nil {
			return fmt.Errorf("failed to update invoice: %w", updErr)
		}
		if lineErr := s.saleRepo.ReplaceLines(txCtx, invoice.ID, nil); lineErr != nil {
			return fmt.Errorf("failed to clear lines: %w", lineErr)
		}

		s.audit(txCtx, userID, model.ActionDeleteSale, invoice.ID.String(), invoice.InvoiceNo, nil)
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcastStockEvent("sale_deleted", id)
	return nil
}

// ReturnSale creates a new RETURNED document for (part of) an invoice.
// Returns always add stock back. The customer balance is reduced only
// when the original sale was on credit; a cash return is settled in
// cash and leaves the accumulator untouched.
func (s *salesService) ReturnSale(ctx context.Context, userID string, req SaleReturnRequest) (SaleResponse, error) {
	originalID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return SaleResponse{}, fmt.Errorf("invalid invoice_id: %w", err)
	}
	lines, total, err := parseSaleLines(req.Lines)
	if err != nil {
		return SaleResponse{}, err
	}

	var returnID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		original, findErr := s.saleRepo.FindByIDWithLines(txCtx, originalID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("original invoice not found")
			}
			return fmt.Errorf("failed to load original invoice: %w", findErr)
		}
		if original.Status != model.SaleStatusCompleted {
			return fmt.Errorf("cannot return invoice with status %s", original.Status)
		}

		engineLines := toEngineSaleLines(lines)
		items, loadErr := s.loadItemsFor(txCtx, engineLines)
		if loadErr != nil {
			return fmt.Errorf("failed to load items: %w", loadErr)
		}
		items = ledger.ApplyStockDelta(items, engineLines, ledger.DirectionAdd)
		if saveErr := s.itemRepo.SaveSnapshot(txCtx, items); saveErr != nil {
			return fmt.Errorf("failed to persist stock: %w", saveErr)
		}

		no, genErr := generateDocumentNo(txCtx, "SRT", s.saleRepo.CountByPrefix)
		if genErr != nil {
			return fmt.Errorf("failed to generate return number: %w", genErr)
		}

		ret := model.SalesInvoice{
			InvoiceNo:   no,
			Status:      model.SaleStatusReturned,
			PaymentMode: original.PaymentMode,
			CustomerID:  original.CustomerID,
			ReturnOfID:  &original.ID,
			Lines:       lines,
			TotalAmount: total,
			Note:        req.Note,
		}
		if crtErr := s.saleRepo.Create(txCtx, &ret); crtErr != nil {
			return fmt.Errorf("failed to create return: %w", crtErr)
		}
		returnID = ret.ID

		s.recordMovements(txCtx, items, engineLines, model.MovementIn, ret.InvoiceNo)

		if original.PaymentMode == model.PaymentModeCredit && original.CustomerID != nil {
			if balErr := s.partyRepo.AddToBalance(txCtx, *original.CustomerID, total.Neg()); balErr != nil {
				return fmt.Errorf("failed to adjust customer balance: %w", balErr)
			}
		}

		s.audit(txCtx, userID, model.ActionReturnSale, ret.ID.String(), ret.InvoiceNo, req)
		return nil
	})
	if err != nil {
		return SaleResponse{}, err
	}

	s.broadcastStockEvent("sale_returned", returnID.String())

	reloaded, err := s.saleRepo.FindByIDWithLines(ctx, returnID)
	if err != nil {
		return SaleResponse{}, fmt.Errorf("failed to reload return: %w", err)
	}
	return toSaleResponse(*reloaded), nil
}

func (s *salesService) GetSale(ctx context.Context, id string) (SaleResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return SaleResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}
	invoice, err := s.saleRepo.FindByIDWithLines(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SaleResponse{}, errors.New("invoice not found")
		}
		return SaleResponse{}, fmt.Errorf("failed to load invoice: %w", err)
	}
	return toSaleResponse(*invoice), nil
}

func (s *salesService) ListSales(ctx context.Context, filter SaleFilter) ([]SaleResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.SaleListFilter{
		Status:    filter.Status,
		InvoiceNo: filter.InvoiceNo,
		Page:      filter.Page,
		Limit:     filter.Limit,
	}
	if filter.CustomerID != "" {
		parsed, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid customer_id: %w", err)
		}
		repoFilter.CustomerID = &parsed
	}

	invoices, total, err := s.saleRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	result := make([]SaleResponse, 0, len(invoices))
	for _, inv := range invoices {
		result = append(result, toSaleResponse(inv))
	}
	return result, total, nil
}

// --- Posting helpers ---

// postSaleFinance applies the financial side of a COMPLETED sale:
// credit raises the customer's running balance, cash auto-generates a
// settlement receipt keyed by the invoice number.
func (s *salesService) postSaleFinance(ctx context.Context, invoice *model.SalesInvoice) error {
	switch invoice.PaymentMode {
	case model.PaymentModeCredit:
		if invoice.CustomerID == nil {
			return errors.New("credit sale requires a customer")
		}
		if err := s.partyRepo.AddToBalance(ctx, *invoice.CustomerID, invoice.TotalAmount); err != nil {
			return fmt.Errorf("failed to raise customer balance: %w", err)
		}
	case model.PaymentModeCash:
		no, err := generateDocumentNo(ctx, "RCV", s.receiptRepo.CountByPrefix)
		if err != nil {
			return fmt.Errorf("failed to generate receipt number: %w", err)
		}
		receipt := model.Receipt{
			ReceiptNo:   no,
			CustomerID:  invoice.CustomerID,
			Amount:      invoice.TotalAmount,
			Description: model.AutoReceiptDescription(invoice.InvoiceNo),
			Auto:        true,
		}
		if err := s.receiptRepo.Create(ctx, &receipt); err != nil {
			return fmt.Errorf("failed to create auto receipt: %w", err)
		}
	}
	return nil
}

// reverseSaleFinance undoes postSaleFinance for the old version of an
// invoice during edit or delete.
func (s *salesService) reverseSaleFinance(ctx context.Context, invoice *model.SalesInvoice) error {
	switch invoice.PaymentMode {
	case model.PaymentModeCredit:
		if invoice.CustomerID == nil {
			return nil
		}
		if err := s.partyRepo.AddToBalance(ctx, *invoice.CustomerID, invoice.TotalAmount.Neg()); err != nil {
			return fmt.Errorf("failed to lower customer balance: %w", err)
		}
	case model.PaymentModeCash:
		if _, err := s.receiptRepo.DeleteByDescription(ctx, model.AutoReceiptDescription(invoice.InvoiceNo)); err != nil {
			return fmt.Errorf("failed to remove auto receipt: %w", err)
		}
	}
	return nil
}

func (s *salesService) loadItemsFor(ctx context.Context, lines []ledger.Line) ([]model.Item, error) {
	var ids []uuid.UUID
	var codes []string
	for _, line := range lines {
		if line.ItemID != uuid.Nil {
			ids = append(ids, line.ItemID)
		}
		if line.ItemCode != "" {
			codes = append(codes, line.ItemCode)
		}
	}
	return s.itemRepo.FindForLines(ctx, ids, codes)
}

// recordMovements writes the informational movement trail; a failure
// here is logged but does not fail the document.
func (s *salesService) recordMovements(ctx context.Context, items []model.Item, lines []ledger.Line, direction, documentNo string) {
	for _, line := range lines {
		item, ok := findSnapshotItem(items, line)
		if !ok {
			continue
		}
		movement := model.StockMovement{
			ItemID:        item.ID,
			Direction:     direction,
			QuantityMajor: ledger.NormalizedQuantity(line, item),
			StockAfter:    item.ActualStock,
			DocumentNo:    documentNo,
		}
		if err := s.movementRepo.Create(ctx, &movement); err != nil {
			s.log.WithError(err).WithField("document_no", documentNo).Warn("failed to record stock movement")
		}
	}
}

func (s *salesService) audit(ctx context.Context, userID, action, entityID, entityName string, payload interface{}) {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	details := "{}"
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			details = string(raw)
		}
	}
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    details,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		s.log.WithError(err).WithField("action", action).Warn("failed to write audit log")
	}
}

func (s *salesService) broadcastStockEvent(event, entityID string) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{"event": event, "id": entityID})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

// --- Mapping helpers ---

func parseSaleLines(reqs []SaleLineRequest) ([]model.SalesLine, decimal.Decimal, error) {
	lines := make([]model.SalesLine, 0, len(reqs))
	total := decimal.Zero
	for i, lr := range reqs {
		qty, err := decimal.NewFromString(lr.Quantity)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("lines[%d]: invalid quantity: %w", i, err)
		}
		if !qty.IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("lines[%d]: quantity must be positive", i)
		}
		price, err := decimal.NewFromString(lr.UnitPrice)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("lines[%d]: invalid unit_price: %w", i, err)
		}
		if lr.ItemID == "" && lr.ItemCode == "" {
			return nil, decimal.Zero, fmt.Errorf("lines[%d]: item_id or item_code is required", i)
		}

		line := model.SalesLine{
			ItemCode:  lr.ItemCode,
			Quantity:  qty,
			MinorUnit: lr.MinorUnit,
			UnitPrice: price,
			LineTotal: qty.Mul(price).Round(2),
		}
		if lr.ItemID != "" {
			itemID, parseErr := uuid.Parse(lr.ItemID)
			if parseErr != nil {
				return nil, decimal.Zero, fmt.Errorf("lines[%d]: invalid item_id: %w", i, parseErr)
			}
			line.ItemID = itemID
		}
		total = total.Add(line.LineTotal)
		lines = append(lines, line)
	}
	return lines, total, nil
}

func toEngineSaleLines(lines []model.SalesLine) []ledger.Line {
	out := make([]ledger.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, ledger.Line{
			ItemID:    l.ItemID,
			ItemCode:  l.ItemCode,
			Quantity:  l.Quantity,
			MinorUnit: l.MinorUnit,
			UnitPrice: l.UnitPrice,
		})
	}
	return out
}

func findSnapshotItem(items []model.Item, line ledger.Line) (model.Item, bool) {
	for _, item := range items {
		if line.ItemID != uuid.Nil && item.ID == line.ItemID {
			return item, true
		}
		if line.ItemCode != "" && item.Code == line.ItemCode {
			return item, true
		}
	}
	return model.Item{}, false
}

func toSaleResponse(inv model.SalesInvoice) SaleResponse {
	resp := SaleResponse{
		ID:          inv.ID.String(),
		InvoiceNo:   inv.InvoiceNo,
		Status:      inv.Status,
		PaymentMode: inv.PaymentMode,
		TotalAmount: inv.TotalAmount.StringFixed(2),
		Note:        inv.Note,
		CreatedAt:   inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.CustomerID != nil {
		id := inv.CustomerID.String()
		resp.CustomerID = &id
	}
	if inv.Customer != nil {
		resp.Customer = inv.Customer.Name
	}
	if inv.ReturnOfID != nil {
		id := inv.ReturnOfID.String()
		resp.ReturnOfID = &id
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, SaleLineResponse{
			ItemID:    l.ItemID.String(),
			ItemCode:  l.ItemCode,
			Quantity:  l.Quantity.String(),
			MinorUnit: l.MinorUnit,
			UnitPrice: l.UnitPrice.StringFixed(2),
			LineTotal: l.LineTotal.StringFixed(2),
		})
	}
	return resp
}

// generateDocumentNo builds sequential numbers like SAL-20250301-00001
// from a per-prefix daily counter.
func generateDocumentNo(ctx context.Context, kind string, countByPrefix func(context.Context, string) (int64, error)) (string, error) {
	today := time.Now().Format("20060102")
	prefix := kind + "-" + today + "-"

	count, err := countByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}
