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

type PurchaseLineRequest struct {
	ItemID    string `json:"item_id"`
	ItemCode  string `json:"item_code"`
	Quantity  string `json:"quantity" binding:"required"`
	MinorUnit bool   `json:"minor_unit"`
	UnitPrice string `json:"unit_price" binding:"required"`
	Discount  string `json:"discount"` // supplier discount percent
}

type SavePurchaseRequest struct {
	ID          string                `json:"id"`
	Status      string                `json:"status" binding:"required,oneof=PENDING CONVERTED"`
	PaymentMode string                `json:"payment_mode" binding:"required,oneof=CASH CREDIT"`
	SupplierID  string                `json:"supplier_id"`
	Note        string                `json:"note"`
	Lines       []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type PurchaseReturnRequest struct {
	InvoiceID string                `json:"invoice_id" binding:"required"`
	Lines     []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
	Note      string                `json:"note"`
}

type PurchaseLineResponse struct {
	ItemID    string `json:"item_id"`
	ItemCode  string `json:"item_code"`
	Quantity  string `json:"quantity"`
	MinorUnit bool   `json:"minor_unit"`
	UnitPrice string `json:"unit_price"`
	Discount  string `json:"discount"`
	LineTotal string `json:"line_total"`
}

type PurchaseResponse struct {
	ID          string                 `json:"id"`
	InvoiceNo   string                 `json:"invoice_no"`
	Status      string                 `json:"status"`
	PaymentMode string                 `json:"payment_mode"`
	SupplierID  *string                `json:"supplier_id"`
	Supplier    string                 `json:"supplier,omitempty"`
	ReturnOfID  *string                `json:"return_of_id"`
	Lines       []PurchaseLineResponse `json:"lines"`
	TotalAmount string                 `json:"total_amount"`
	Note        string                 `json:"note"`
	CreatedAt   string                 `json:"created_at"`
}

type PurchaseFilter struct {
	Status     string
	SupplierID string
	InvoiceNo  string
	Page       int
	Limit      int
}

// --- Interface ---

type PurchaseService interface {
	SavePurchase(ctx context.Context, userID string, req SavePurchaseRequest) (PurchaseResponse, error)
	DeletePurchase(ctx context.Context, userID string, id string) error
	ReturnPurchase(ctx context.Context, userID string, req PurchaseReturnRequest) (PurchaseResponse, error)
	GetPurchase(ctx context.Context, id string) (PurchaseResponse, error)
	ListPurchases(ctx context.Context, filter PurchaseFilter) ([]PurchaseResponse, int64, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	itemRepo     repository.ItemRepository
	partyRepo    repository.PartyRepository
	movementRepo repository.MovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
	log          *logrus.Logger
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	itemRepo repository.ItemRepository,
	partyRepo repository.PartyRepository,
	movementRepo repository.MovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	log *logrus.Logger,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		itemRepo:     itemRepo,
		partyRepo:    partyRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
		log:          log,
	}
}

// --- Implementation ---

// SavePurchase creates or edits a purchase invoice. CONVERTED is the
// only status with effect: stock goes up and the weighted-average cost
// and supplier discount of each item are recalculated. Edits revert the
// old version in full before the new one is applied.
func (s *purchaseService) SavePurchase(ctx context.Context, userID string, req SavePurchaseRequest) (PurchaseResponse, error) {
	lines, total, err := parsePurchaseLines(req.Lines)
	if err != nil {
		return PurchaseResponse{}, err
	}

	var supplierID *uuid.UUID
	if req.SupplierID != "" {
		parsed, parseErr := uuid.Parse(req.SupplierID)
		if parseErr != nil {
			return PurchaseResponse{}, fmt.Errorf("invalid supplier_id: %w", parseErr)
		}
		supplierID = &parsed
	}
	if req.PaymentMode == model.PaymentModeCredit && supplierID == nil {
		return PurchaseResponse{}, errors.New("credit purchase requires a supplier")
	}

	var invoiceID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var old *model.PurchaseInvoice
		if req.ID != "" {
			oldID, parseErr := uuid.Parse(req.ID)
			if parseErr != nil {
				return fmt.Errorf("invalid invoice id: %w", parseErr)
			}
			var findErr error
			old, findErr = s.purchaseRepo.FindByIDWithLines(txCtx, oldID)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return errors.New("invoice not found")
				}
				return fmt.Errorf("failed to load invoice: %w", findErr)
			}
			if old.Status == model.PurchaseStatusDeleted || old.Status == model.PurchaseStatusReturned {
				return fmt.Errorf("cannot edit invoice with status %s", old.Status)
			}
		}

		engineLines := toEnginePurchaseLines(lines)
		var oldEngineLines []ledger.Line
		if old != nil {
			oldEngineLines = toEnginePurchaseLines(old.Lines)
		}
		items, loadErr := s.loadItemsFor(txCtx, append(append([]ledger.Line{}, engineLines...), oldEngineLines...))
		if loadErr != nil {
			return fmt.Errorf("failed to load items: %w", loadErr)
		}

		// 1. Revert the old version. Reversing the costing is the
		// algebraic inverse of applying it, exact only when no other
		// purchase touched the item in between (known limitation).
		if old != nil && old.Status == model.PurchaseStatusConverted {
			items = ledger.ApplyPurchaseCosting(items, oldEngineLines, ledger.DirectionSubtract)
			if revErr := s.reversePurchaseFinance(txCtx, old); revErr != nil {
				return revErr
			}
		}

		// 2. Apply the new version.
		invoice := model.PurchaseInvoice{
			Status:      req.Status,
			PaymentMode: req.PaymentMode,
			SupplierID:  supplierID,
			TotalAmount: total,
			Note:        req.Note,
		}
		if old != nil {
			invoice.ID = old.ID
			invoice.InvoiceNo = old.InvoiceNo
			invoice.CreatedAt = old.CreatedAt
		} else {
			no, genErr := generateDocumentNo(txCtx, "PUR", s.purchaseRepo.CountByPrefix)
			if genErr != nil {
				return fmt.Errorf("failed to generate invoice number: %w", genErr)
			}
			invoice.InvoiceNo = no
		}

		if req.Status == model.PurchaseStatusConverted {
			items = ledger.ApplyPurchaseCosting(items, engineLines, ledger.DirectionAdd)
			if postErr := s.postPurchaseFinance(txCtx, &invoice); postErr != nil {
				return postErr
			}
		}

		// 3. Persist snapshot and replace the document.
		if saveErr := s.itemRepo.SaveSnapshot(txCtx, items); saveErr != nil {
			return fmt.Errorf("failed to persist stock: %w", saveErr)
		}
		if req.Status == model.PurchaseStatusConverted {
			s.recordMovements(txCtx, items, engineLines, model.MovementIn, invoice.InvoiceNo)
		}

		if old != nil {
			if updErr := s.purchaseRepo.Update(txCtx, &invoice); updErr != nil {
				return fmt.Errorf("failed to update invoice: %w", updErr)
			}
			if lineErr := s.purchaseRepo.ReplaceLines(txCtx, invoice.ID, lines); lineErr != nil {
				return fmt.Errorf("failed to replace lines: %w", lineErr)
			}
		} else {
			invoice.Lines = lines
			if crtErr := s.purchaseRepo.Create(txCtx, &invoice); crtErr != nil {
				return fmt.Errorf("failed to create invoice: %w", crtErr)
			}
		}
		invoiceID = invoice.ID

		s.audit(txCtx, userID, model.ActionSavePurchase, invoice.ID.String(), invoice.InvoiceNo, req)
		return nil
	})
	if err != nil {
		return PurchaseResponse{}, err
	}

	s.broadcastStockEvent("purchase_saved", invoiceID.String())

	reloaded, err := s.purchaseRepo.FindByIDWithLines(ctx, invoiceID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("failed to reload invoice: %w", err)
	}
	return toPurchaseResponse(*reloaded), nil
}

// DeletePurchase reverses a converted invoice's effect, then soft
// deletes it the same way sales are.
func (s *purchaseService) DeletePurchase(ctx context.Context, userID string, id string) error {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid invoice id: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.purchaseRepo.FindByIDWithLines(txCtx, invoiceID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("invoice not found")
			}
			return fmt.Errorf("failed to load invoice: %w", findErr)
		}
		if invoice.Status == model.PurchaseStatusDeleted {
			return errors.New("invoice is already deleted")
		}

		if invoice.Status == model.PurchaseStatusConverted {
			engineLines := toEnginePurchaseLines(invoice.Lines)
			items, loadErr := s.loadItemsFor(txCtx, engineLines)
			if loadErr != nil {
				return fmt.Errorf("failed to load items: %w", loadErr)
			}
			items = ledger.ApplyPurchaseCosting(items, engineLines, ledger.DirectionSubtract)
			if saveErr := s.itemRepo.SaveSnapshot(txCtx, items); saveErr != nil {
				return fmt.Errorf("failed to persist stock: %w", saveErr)
			}
			s.recordMovements(txCtx, items, engineLines, model.MovementOut, invoice.InvoiceNo)
			if revErr := s.reversePurchaseFinance(txCtx, invoice); revErr != nil {
				return revErr
			}
		}

		invoice.Status = model.PurchaseStatusDeleted
		invoice.TotalAmount = decimal.Zero
		if updErr := s.purchaseRepo.Update(txCtx, invoice); updErr != nil {
			return fmt.Errorf("failed to update invoice: %w", updErr)
		}
		if lineErr := s.purchaseRepo.ReplaceLines(txCtx, invoice.ID, nil); lineErr != nil {
			return fmt.Errorf("failed to clear lines: %w", lineErr)
		}

		s.audit(txCtx, userID, model.ActionDeletePurchase, invoice.ID.String(), invoice.InvoiceNo, nil)
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcastStockEvent("purchase_deleted", id)
	return nil
}

// ReturnPurchase creates a new RETURNED document sending stock back to
// the supplier. Stock is subtracted (clamped at zero like any other
// deduction); the payable balance drops only for credit purchases.
func (s *purchaseService) ReturnPurchase(ctx context.Context, userID string, req PurchaseReturnRequest) (PurchaseResponse, error) {
	originalID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid invoice_id: %w", err)
	}
	lines, total, err := parsePurchaseLines(req.Lines)
	if err != nil {
		return PurchaseResponse{}, err
	}

	var returnID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		original, findErr := s.purchaseRepo.FindByIDWithLines(txCtx, originalID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("original invoice not found")
			}
			return fmt.Errorf("failed to load original invoice: %w", findErr)
		}
		if original.Status != model.PurchaseStatusConverted {
			return fmt.Errorf("cannot return invoice with status %s", original.Status)
		}

		engineLines := toEnginePurchaseLines(lines)
		items, loadErr := s.loadItemsFor(txCtx, engineLines)
		if loadErr != nil {
			return fmt.Errorf("failed to load items: %w", loadErr)
		}
		items = ledger.ApplyPurchaseCosting(items, engineLines, ledger.DirectionSubtract)
		if saveErr := s.itemRepo.SaveSnapshot(txCtx, items); saveErr != nil {
			return fmt.Errorf("failed to persist stock: %w", saveErr)
		}

		no, genErr := generateDocumentNo(txCtx, "PRT", s.purchaseRepo.CountByPrefix)
		if genErr != nil {
			return fmt.Errorf("failed to generate return number: %w", genErr)
		}

		ret := model.PurchaseInvoice{
			InvoiceNo:   no,
			Status:      model.PurchaseStatusReturned,
			PaymentMode: original.PaymentMode,
			SupplierID:  original.SupplierID,
			ReturnOfID:  &original.ID,
			Lines:       lines,
			TotalAmount: total,
			Note:        req.Note,
		}
		if crtErr := s.purchaseRepo.Create(txCtx, &ret); crtErr != nil {
			return fmt.Errorf("failed to create return: %w", crtErr)
		}
		returnID = ret.ID

		s.recordMovements(txCtx, items, engineLines, model.MovementOut, ret.InvoiceNo)

		if original.PaymentMode == model.PaymentModeCredit && original.SupplierID != nil {
			if balErr := s.partyRepo.AddToBalance(txCtx, *original.SupplierID, total.Neg()); balErr != nil {
				return fmt.Errorf("failed to adjust supplier balance: %w", balErr)
			}
		}

		s.audit(txCtx, userID, model.ActionReturnPurchase, ret.ID.String(), ret.InvoiceNo, req)
		return nil
	})
	if err != nil {
		return PurchaseResponse{}, err
	}

	s.broadcastStockEvent("purchase_returned", returnID.String())

	reloaded, err := s.purchaseRepo.FindByIDWithLines(ctx, returnID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("failed to reload return: %w", err)
	}
	return toPurchaseResponse(*reloaded), nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, id string) (PurchaseResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}
	invoice, err := s.purchaseRepo.FindByIDWithLines(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseResponse{}, errors.New("invoice not found")
		}
		return PurchaseResponse{}, fmt.Errorf("failed to load invoice: %w", err)
	}
	return toPurchaseResponse(*invoice), nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, filter PurchaseFilter) ([]PurchaseResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.PurchaseListFilter{
		Status:    filter.Status,
		InvoiceNo: filter.InvoiceNo,
		Page:      filter.Page,
		Limit:     filter.Limit,
	}
	if filter.SupplierID != "" {
		parsed, err := uuid.Parse(filter.SupplierID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid supplier_id: %w", err)
		}
		repoFilter.SupplierID = &parsed
	}

	invoices, total, err := s.purchaseRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	result := make([]PurchaseResponse, 0, len(invoices))
	for _, inv := range invoices {
		result = append(result, toPurchaseResponse(inv))
	}
	return result, total, nil
}

// --- Posting helpers ---

// postPurchaseFinance raises the supplier's payable for credit
// purchases. Cash purchases are NOT auto-posted as payments; the
// system this replaces behaved that way and the asymmetry with cash
// sales is kept on purpose.
func (s *purchaseService) postPurchaseFinance(ctx context.Context, invoice *model.PurchaseInvoice) error {
	if invoice.PaymentMode != model.PaymentModeCredit {
		return nil
	}
	if invoice.SupplierID == nil {
		return errors.New("credit purchase requires a supplier")
	}
	if err := s.partyRepo.AddToBalance(ctx, *invoice.SupplierID, invoice.TotalAmount); err != nil {
		return fmt.Errorf("failed to raise supplier balance: %w", err)
	}
	return nil
}

func (s *purchaseService) reversePurchaseFinance(ctx context.Context, invoice *model.PurchaseInvoice) error {
	if invoice.PaymentMode != model.PaymentModeCredit || invoice.SupplierID == nil {
		return nil
	}
	if err := s.partyRepo.AddToBalance(ctx, *invoice.SupplierID, invoice.TotalAmount.Neg()); err != nil {
		return fmt.Errorf("failed to lower supplier balance: %w", err)
	}
	return nil
}

func (s *purchaseService) loadItemsFor(ctx context.Context, lines []ledger.Line) ([]model.Item, error) {
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

func (s *purchaseService) recordMovements(ctx context.Context, items []model.Item, lines []ledger.Line, direction, documentNo string) {
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

func (s *purchaseService) audit(ctx context.Context, userID, action, entityID, entityName string, payload interface{}) {
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

func (s *purchaseService) broadcastStockEvent(event, entityID string) {
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

func parsePurchaseLines(reqs []PurchaseLineRequest) ([]model.PurchaseLine, decimal.Decimal, error) {
	lines := make([]model.PurchaseLine, 0, len(reqs))
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
		discount := decimal.Zero
		if lr.Discount != "" {
			discount, err = decimal.NewFromString(lr.Discount)
			if err != nil {
				return nil, decimal.Zero, fmt.Errorf("lines[%d]: invalid discount: %w", i, err)
			}
		}
		if lr.ItemID == "" && lr.ItemCode == "" {
			return nil, decimal.Zero, fmt.Errorf("lines[%d]: item_id or item_code is required", i)
		}

		line := model.PurchaseLine{
			ItemCode:  lr.ItemCode,
			Quantity:  qty,
			MinorUnit: lr.MinorUnit,
			UnitPrice: price,
			Discount:  discount,
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

func toEnginePurchaseLines(lines []model.PurchaseLine) []ledger.Line {
	out := make([]ledger.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, ledger.Line{
			ItemID:    l.ItemID,
			ItemCode:  l.ItemCode,
			Quantity:  l.Quantity,
			MinorUnit: l.MinorUnit,
			UnitPrice: l.UnitPrice,
			Discount:  l.Discount,
		})
	}
	return out
}

func toPurchaseResponse(inv model.PurchaseInvoice) PurchaseResponse {
	resp := PurchaseResponse{
		ID:          inv.ID.String(),
		InvoiceNo:   inv.InvoiceNo,
		Status:      inv.Status,
		PaymentMode: inv.PaymentMode,
		TotalAmount: inv.TotalAmount.StringFixed(2),
		Note:        inv.Note,
		CreatedAt:   inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.SupplierID != nil {
		id := inv.SupplierID.String()
		resp.SupplierID = &id
	}
	if inv.Supplier != nil {
		resp.Supplier = inv.Supplier.Name
	}
	if inv.ReturnOfID != nil {
		id := inv.ReturnOfID.String()
		resp.ReturnOfID = &id
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, PurchaseLineResponse{
			ItemID:    l.ItemID.String(),
			ItemCode:  l.ItemCode,
			Quantity:  l.Quantity.String(),
			MinorUnit: l.MinorUnit,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Discount:  l.Discount.StringFixed(2),
			LineTotal: l.LineTotal.StringFixed(2),
		})
	}
	return resp
}
