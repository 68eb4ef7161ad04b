package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopbooks/internal/ledger"
	"shopbooks/internal/model"
	"shopbooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- DTOs ---

type SavePartyRequest struct {
	Name          string `json:"name" binding:"required"`
	Type          string `json:"type" binding:"required,oneof=CUSTOMER SUPPLIER BOTH"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	OpeningAmount string `json:"opening_amount"`
	IsActive      *bool  `json:"is_active"`
}

type PartyResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Balance       string `json:"balance"`
	OpeningAmount string `json:"opening_amount"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
}

type StatementEntryResponse struct {
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
	Balance     string `json:"balance"`
}

type StatementResponse struct {
	PartyID        string                   `json:"party_id"`
	PartyName      string                   `json:"party_name"`
	From           string                   `json:"from"`
	To             string                   `json:"to"`
	OpeningBalance string                   `json:"opening_balance"`
	Entries        []StatementEntryResponse `json:"entries"`
	ClosingBalance string                   `json:"closing_balance"`
}

// --- Interface ---

type PartyService interface {
	CreateParty(ctx context.Context, userID string, req SavePartyRequest) (PartyResponse, error)
	UpdateParty(ctx context.Context, userID string, id string, req SavePartyRequest) (PartyResponse, error)
	DeleteParty(ctx context.Context, userID string, id string) error
	GetParty(ctx context.Context, id string) (PartyResponse, error)
	ListParties(ctx context.Context, partyType, search string, page, limit int) ([]PartyResponse, int64, error)
	GetStatement(ctx context.Context, partyID string, from, to time.Time) (StatementResponse, error)
}

type partyService struct {
	partyRepo    repository.PartyRepository
	saleRepo     repository.SaleRepository
	purchaseRepo repository.PurchaseRepository
	receiptRepo  repository.ReceiptRepository
	paymentRepo  repository.PaymentRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	log          *logrus.Logger
}

func NewPartyService(
	partyRepo repository.PartyRepository,
	saleRepo repository.SaleRepository,
	purchaseRepo repository.PurchaseRepository,
	receiptRepo repository.ReceiptRepository,
	paymentRepo repository.PaymentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	log *logrus.Logger,
) PartyService {
	return &partyService{
		partyRepo:    partyRepo,
		saleRepo:     saleRepo,
		purchaseRepo: purchaseRepo,
		receiptRepo:  receiptRepo,
		paymentRepo:  paymentRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		log:          log,
	}
}

// --- Implementation ---

func (s *partyService) CreateParty(ctx context.Context, userID string, req SavePartyRequest) (PartyResponse, error) {
	party := &model.Party{
		Name:     req.Name,
		Type:     req.Type,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
		IsActive: true,
	}
	if req.OpeningAmount != "" {
		opening, err := decimal.NewFromString(req.OpeningAmount)
		if err != nil {
			return PartyResponse{}, fmt.Errorf("invalid opening_amount: %w", err)
		}
		party.OpeningAmount = opening
		party.Balance = opening
	}
	if req.IsActive != nil {
		party.IsActive = *req.IsActive
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if existing, findErr := s.partyRepo.FindByName(txCtx, req.Name); findErr == nil && existing != nil {
			return fmt.Errorf("party %q already exists", req.Name)
		} else if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check party name: %w", findErr)
		}
		if crtErr := s.partyRepo.Create(txCtx, party); crtErr != nil {
			return fmt.Errorf("failed to create party: %w", crtErr)
		}
		s.writeAudit(txCtx, userID, model.ActionCreateParty, party.ID.String(), party.Name)
		return nil
	})
	if err != nil {
		return PartyResponse{}, err
	}
	return toPartyResponse(*party), nil
}

// UpdateParty edits descriptive fields. Balance is never editable here;
// it moves only through invoice and settlement postings.
func (s *partyService) UpdateParty(ctx context.Context, userID string, id string, req SavePartyRequest) (PartyResponse, error) {
	partyID, err := uuid.Parse(id)
	if err != nil {
		return PartyResponse{}, fmt.Errorf("invalid party id: %w", err)
	}

	var updated *model.Party
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		party, findErr := s.partyRepo.FindByID(txCtx, partyID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("party not found")
			}
			return fmt.Errorf("failed to load party: %w", findErr)
		}
		if party.Name != req.Name {
			if existing, nameErr := s.partyRepo.FindByName(txCtx, req.Name); nameErr == nil && existing.ID != partyID {
				return fmt.Errorf("party %q already exists", req.Name)
			} else if nameErr != nil && !errors.Is(nameErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check party name: %w", nameErr)
			}
		}

		party.Name = req.Name
		party.Type = req.Type
		party.Phone = req.Phone
		party.Email = req.Email
		party.Address = req.Address
		if req.IsActive != nil {
			party.IsActive = *req.IsActive
		}
		if updErr := s.partyRepo.Update(txCtx, party); updErr != nil {
			return fmt.Errorf("failed to update party: %w", updErr)
		}
		updated = party
		s.writeAudit(txCtx, userID, model.ActionUpdateParty, party.ID.String(), party.Name)
		return nil
	})
	if err != nil {
		return PartyResponse{}, err
	}
	return toPartyResponse(*updated), nil
}

func (s *partyService) DeleteParty(ctx context.Context, userID string, id string) error {
	partyID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid party id: %w", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		party, findErr := s.partyRepo.FindByID(txCtx, partyID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("party not found")
			}
			return fmt.Errorf("failed to load party: %w", findErr)
		}
		if !party.Balance.IsZero() {
			return fmt.Errorf("cannot delete party with outstanding balance %s", party.Balance.StringFixed(2))
		}
		if delErr := s.partyRepo.Delete(txCtx, partyID); delErr != nil {
			return fmt.Errorf("failed to delete party: %w", delErr)
		}
		s.writeAudit(txCtx, userID, model.ActionDeleteParty, party.ID.String(), party.Name)
		return nil
	})
}

func (s *partyService) GetParty(ctx context.Context, id string) (PartyResponse, error) {
	partyID, err := uuid.Parse(id)
	if err != nil {
		return PartyResponse{}, fmt.Errorf("invalid party id: %w", err)
	}
	party, err := s.partyRepo.FindByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PartyResponse{}, errors.New("party not found")
		}
		return PartyResponse{}, fmt.Errorf("failed to load party: %w", err)
	}
	return toPartyResponse(*party), nil
}

func (s *partyService) ListParties(ctx context.Context, partyType, search string, page, limit int) ([]PartyResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	parties, total, err := s.partyRepo.List(ctx, partyType, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch parties: %w", err)
	}
	result := make([]PartyResponse, 0, len(parties))
	for _, p := range parties {
		result = append(result, toPartyResponse(p))
	}
	return result, total, nil
}

// GetStatement rebuilds the running-balance statement for a party by
// replaying its documents. No stored ledger table backs this; the
// documents themselves are the source of truth, so a statement is
// always consistent with whatever edits and deletions have happened.
func (s *partyService) GetStatement(ctx context.Context, partyID string, from, to time.Time) (StatementResponse, error) {
	id, err := uuid.Parse(partyID)
	if err != nil {
		return StatementResponse{}, fmt.Errorf("invalid party id: %w", err)
	}
	party, err := s.partyRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StatementResponse{}, errors.New("party not found")
		}
		return StatementResponse{}, fmt.Errorf("failed to load party: %w", err)
	}

	var txs []ledger.Transaction
	if !party.OpeningAmount.IsZero() {
		txs = append(txs, ledger.Transaction{
			Date:        party.CreatedAt,
			Kind:        ledger.EntryDebit,
			Amount:      party.OpeningAmount,
			Reference:   "OPENING",
			Description: "Opening balance",
		})
	}

	if party.Type == model.PartyTypeCustomer || party.Type == model.PartyTypeBoth {
		customerTxs, custErr := s.customerTransactions(ctx, id)
		if custErr != nil {
			return StatementResponse{}, custErr
		}
		txs = append(txs, customerTxs...)
	}
	if party.Type == model.PartyTypeSupplier || party.Type == model.PartyTypeBoth {
		supplierTxs, supErr := s.supplierTransactions(ctx, id)
		if supErr != nil {
			return StatementResponse{}, supErr
		}
		txs = append(txs, supplierTxs...)
	}

	stmt := ledger.BuildStatement(txs, from, to)

	resp := StatementResponse{
		PartyID:        party.ID.String(),
		PartyName:      party.Name,
		From:           from.Format("2006-01-02"),
		To:             to.Format("2006-01-02"),
		OpeningBalance: stmt.OpeningBalance.StringFixed(2),
		ClosingBalance: stmt.ClosingBalance.StringFixed(2),
	}
	for _, e := range stmt.Entries {
		resp.Entries = append(resp.Entries, StatementEntryResponse{
			Date:        e.Date.Format("2006-01-02"),
			Kind:        e.Kind,
			Amount:      e.Amount.StringFixed(2),
			Reference:   e.Reference,
			Description: e.Description,
			Balance:     e.Balance.StringFixed(2),
		})
	}
	return resp, nil
}

// customerTransactions maps the customer-side documents onto debit and
// credit events. Cash sales contribute nothing: their auto receipts are
// skipped so the statement reconciles with the stored balance, which
// cash sales never touch.
func (s *partyService) customerTransactions(ctx context.Context, customerID uuid.UUID) ([]ledger.Transaction, error) {
	var txs []ledger.Transaction

	invoices, err := s.saleRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sales invoices: %w", err)
	}
	for _, inv := range invoices {
		if inv.PaymentMode != model.PaymentModeCredit {
			continue
		}
		switch inv.Status {
		case model.SaleStatusCompleted:
			txs = append(txs, ledger.Transaction{
				Date:        inv.CreatedAt,
				Kind:        ledger.EntryDebit,
				Amount:      inv.TotalAmount,
				Reference:   inv.InvoiceNo,
				Description: "Sales invoice",
			})
		case model.SaleStatusReturned:
			txs = append(txs, ledger.Transaction{
				Date:        inv.CreatedAt,
				Kind:        ledger.EntryCredit,
				Amount:      inv.TotalAmount,
				Reference:   inv.InvoiceNo,
				Description: "Sales return",
			})
		}
	}

	receipts, err := s.receiptRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipts: %w", err)
	}
	for _, r := range receipts {
		if r.Auto {
			continue
		}
		txs = append(txs, ledger.Transaction{
			Date:        r.CreatedAt,
			Kind:        ledger.EntryCredit,
			Amount:      r.Amount,
			Reference:   r.ReceiptNo,
			Description: r.Description,
		})
	}
	return txs, nil
}

func (s *partyService) supplierTransactions(ctx context.Context, supplierID uuid.UUID) ([]ledger.Transaction, error) {
	var txs []ledger.Transaction

	invoices, err := s.purchaseRepo.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchase invoices: %w", err)
	}
	for _, inv := range invoices {
		if inv.PaymentMode != model.PaymentModeCredit {
			continue
		}
		switch inv.Status {
		case model.PurchaseStatusConverted:
			txs = append(txs, ledger.Transaction{
				Date:        inv.CreatedAt,
				Kind:        ledger.EntryDebit,
				Amount:      inv.TotalAmount,
				Reference:   inv.InvoiceNo,
				Description: "Purchase invoice",
			})
		case model.PurchaseStatusReturned:
			txs = append(txs, ledger.Transaction{
				Date:        inv.CreatedAt,
				Kind:        ledger.EntryCredit,
				Amount:      inv.TotalAmount,
				Reference:   inv.InvoiceNo,
				Description: "Purchase return",
			})
		}
	}

	payments, err := s.paymentRepo.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}
	for _, p := range payments {
		txs = append(txs, ledger.Transaction{
			Date:        p.CreatedAt,
			Kind:        ledger.EntryCredit,
			Amount:      p.Amount,
			Reference:   p.PaymentNo,
			Description: p.Description,
		})
	}
	return txs, nil
}

func (s *partyService) writeAudit(ctx context.Context, userID, action, entityID, entityName string) {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    "{}",
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		s.log.WithError(err).WithField("action", action).Warn("failed to write audit log")
	}
}

func toPartyResponse(p model.Party) PartyResponse {
	return PartyResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Type:          p.Type,
		Phone:         p.Phone,
		Email:         p.Email,
		Address:       p.Address,
		Balance:       p.Balance.StringFixed(2),
		OpeningAmount: p.OpeningAmount.StringFixed(2),
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}
