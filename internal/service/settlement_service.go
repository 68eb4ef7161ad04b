package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopbooks/internal/model"
	"shopbooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateReceiptRequest struct {
	CustomerID  string `json:"customer_id" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

type CreatePaymentRequest struct {
	SupplierID  string `json:"supplier_id" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

type ReceiptResponse struct {
	ID          string  `json:"id"`
	ReceiptNo   string  `json:"receipt_no"`
	CustomerID  *string `json:"customer_id"`
	Customer    string  `json:"customer,omitempty"`
	Amount      string  `json:"amount"`
	Description string  `json:"description"`
	Auto        bool    `json:"auto"`
	CreatedAt   string  `json:"created_at"`
}

type PaymentResponse struct {
	ID          string  `json:"id"`
	PaymentNo   string  `json:"payment_no"`
	SupplierID  *string `json:"supplier_id"`
	Supplier    string  `json:"supplier,omitempty"`
	Amount      string  `json:"amount"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

// --- Interface ---

// SettlementService handles money moving against party balances:
// receipts from customers and payments to suppliers. Each posting is a
// document plus a balance adjustment in the same transaction.
type SettlementService interface {
	CreateReceipt(ctx context.Context, userID string, req CreateReceiptRequest) (ReceiptResponse, error)
	DeleteReceipt(ctx context.Context, userID string, id string) error
	ListReceipts(ctx context.Context, customerID string, page, limit int) ([]ReceiptResponse, int64, error)
	CreatePayment(ctx context.Context, userID string, req CreatePaymentRequest) (PaymentResponse, error)
	DeletePayment(ctx context.Context, userID string, id string) error
	ListPayments(ctx context.Context, supplierID string, page, limit int) ([]PaymentResponse, int64, error)
}

type settlementService struct {
	receiptRepo repository.ReceiptRepository
	paymentRepo repository.PaymentRepository
	partyRepo   repository.PartyRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	log         *logrus.Logger
}

func NewSettlementService(
	receiptRepo repository.ReceiptRepository,
	paymentRepo repository.PaymentRepository,
	partyRepo repository.PartyRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	log *logrus.Logger,
) SettlementService {
	return &settlementService{
		receiptRepo: receiptRepo,
		paymentRepo: paymentRepo,
		partyRepo:   partyRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		log:         log,
	}
}

// --- Receipts ---

func (s *settlementService) CreateReceipt(ctx context.Context, userID string, req CreateReceiptRequest) (ReceiptResponse, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return ReceiptResponse{}, fmt.Errorf("invalid customer_id: %w", err)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return ReceiptResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return ReceiptResponse{}, errors.New("amount must be positive")
	}

	receipt := model.Receipt{
		CustomerID:  &customerID,
		Amount:      amount,
		Description: req.Description,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.partyRepo.FindByID(txCtx, customerID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("customer not found")
			}
			return fmt.Errorf("failed to load customer: %w", findErr)
		}
		no, genErr := generateDocumentNo(txCtx, "RCV", s.receiptRepo.CountByPrefix)
		if genErr != nil {
			return fmt.Errorf("failed to generate receipt number: %w", genErr)
		}
		receipt.ReceiptNo = no
		if crtErr := s.receiptRepo.Create(txCtx, &receipt); crtErr != nil {
			return fmt.Errorf("failed to create receipt: %w", crtErr)
		}
		if balErr := s.partyRepo.AddToBalance(txCtx, customerID, amount.Neg()); balErr != nil {
			return fmt.Errorf("failed to lower customer balance: %w", balErr)
		}
		s.writeAudit(txCtx, userID, model.ActionCreateReceipt, receipt.ID.String(), receipt.ReceiptNo)
		return nil
	})
	if err != nil {
		return ReceiptResponse{}, err
	}
	return toReceiptResponse(receipt), nil
}

// DeleteReceipt removes a manual receipt and puts the amount back on
// the customer's balance. Auto receipts belong to their cash sale and
// can only disappear with it.
func (s *settlementService) DeleteReceipt(ctx context.Context, userID string, id string) error {
	receiptID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid receipt id: %w", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		receipt, findErr := s.receiptRepo.FindByID(txCtx, receiptID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("receipt not found")
			}
			return fmt.Errorf("failed to load receipt: %w", findErr)
		}
		if receipt.Auto {
			return errors.New("auto-generated receipts cannot be deleted directly; delete the sales invoice instead")
		}
		if delErr := s.receiptRepo.Delete(txCtx, receiptID); delErr != nil {
			return fmt.Errorf("failed to delete receipt: %w", delErr)
		}
		if receipt.CustomerID != nil {
			if balErr := s.partyRepo.AddToBalance(txCtx, *receipt.CustomerID, receipt.Amount); balErr != nil {
				return fmt.Errorf("failed to restore customer balance: %w", balErr)
			}
		}
		s.writeAudit(txCtx, userID, model.ActionDeleteReceipt, receipt.ID.String(), receipt.ReceiptNo)
		return nil
	})
}

func (s *settlementService) ListReceipts(ctx context.Context, customerID string, page, limit int) ([]ReceiptResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	var filter *uuid.UUID
	if customerID != "" {
		parsed, err := uuid.Parse(customerID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid customer_id: %w", err)
		}
		filter = &parsed
	}
	receipts, total, err := s.receiptRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch receipts: %w", err)
	}
	result := make([]ReceiptResponse, 0, len(receipts))
	for _, r := range receipts {
		result = append(result, toReceiptResponse(r))
	}
	return result, total, nil
}

// --- Payments ---

func (s *settlementService) CreatePayment(ctx context.Context, userID string, req CreatePaymentRequest) (PaymentResponse, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("invalid supplier_id: %w", err)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return PaymentResponse{}, errors.New("amount must be positive")
	}

	payment := model.Payment{
		SupplierID:  &supplierID,
		Amount:      amount,
		Description: req.Description,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.partyRepo.FindByID(txCtx, supplierID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("supplier not found")
			}
			return fmt.Errorf("failed to load supplier: %w", findErr)
		}
		no, genErr := generateDocumentNo(txCtx, "PAY", s.paymentRepo.CountByPrefix)
		if genErr != nil {
			return fmt.Errorf("failed to generate payment number: %w", genErr)
		}
		payment.PaymentNo = no
		if crtErr := s.paymentRepo.Create(txCtx, &payment); crtErr != nil {
			return fmt.Errorf("failed to create payment: %w", crtErr)
		}
		if balErr := s.partyRepo.AddToBalance(txCtx, supplierID, amount.Neg()); balErr != nil {
			return fmt.Errorf("failed to lower supplier balance: %w", balErr)
		}
		s.writeAudit(txCtx, userID, model.ActionCreatePayment, payment.ID.String(), payment.PaymentNo)
		return nil
	})
	if err != nil {
		return PaymentResponse{}, err
	}
	return toPaymentResponse(payment), nil
}

func (s *settlementService) DeletePayment(ctx context.Context, userID string, id string) error {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid payment id: %w", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		payment, findErr := s.paymentRepo.FindByID(txCtx, paymentID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("payment not found")
			}
			return fmt.Errorf("failed to load payment: %w", findErr)
		}
		if delErr := s.paymentRepo.Delete(txCtx, paymentID); delErr != nil {
			return fmt.Errorf("failed to delete payment: %w", delErr)
		}
		if payment.SupplierID != nil {
			if balErr := s.partyRepo.AddToBalance(txCtx, *payment.SupplierID, payment.Amount); balErr != nil {
				return fmt.Errorf("failed to restore supplier balance: %w", balErr)
			}
		}
		s.writeAudit(txCtx, userID, model.ActionDeletePayment, payment.ID.String(), payment.PaymentNo)
		return nil
	})
}

func (s *settlementService) ListPayments(ctx context.Context, supplierID string, page, limit int) ([]PaymentResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	var filter *uuid.UUID
	if supplierID != "" {
		parsed, err := uuid.Parse(supplierID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid supplier_id: %w", err)
		}
		filter = &parsed
	}
	payments, total, err := s.paymentRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}
	result := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		result = append(result, toPaymentResponse(p))
	}
	return result, total, nil
}

// --- Helpers ---

func (s *settlementService) writeAudit(ctx context.Context, userID, action, entityID, entityName string) {
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

func toReceiptResponse(r model.Receipt) ReceiptResponse {
	resp := ReceiptResponse{
		ID:          r.ID.String(),
		ReceiptNo:   r.ReceiptNo,
		Amount:      r.Amount.StringFixed(2),
		Description: r.Description,
		Auto:        r.Auto,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.CustomerID != nil {
		id := r.CustomerID.String()
		resp.CustomerID = &id
	}
	if r.Customer != nil {
		resp.Customer = r.Customer.Name
	}
	return resp
}

func toPaymentResponse(p model.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:          p.ID.String(),
		PaymentNo:   p.PaymentNo,
		Amount:      p.Amount.StringFixed(2),
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
	if p.SupplierID != nil {
		id := p.SupplierID.String()
		resp.SupplierID = &id
	}
	if p.Supplier != nil {
		resp.Supplier = p.Supplier.Name
	}
	return resp
}
