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

type CreateExpenseRequest struct {
	SupplierID  string `json:"supplier_id"`
	Category    string `json:"category" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

type ExpenseResponse struct {
	ID          string  `json:"id"`
	SupplierID  *string `json:"supplier_id"`
	Supplier    string  `json:"supplier,omitempty"`
	Category    string  `json:"category"`
	Amount      string  `json:"amount"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

// --- Interface ---

type ExpenseService interface {
	CreateExpense(ctx context.Context, userID string, req CreateExpenseRequest) (ExpenseResponse, error)
	DeleteExpense(ctx context.Context, userID string, id string) error
	ListExpenses(ctx context.Context, category string, page, limit int) ([]ExpenseResponse, int64, error)
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
	partyRepo   repository.PartyRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	log         *logrus.Logger
}

func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	partyRepo repository.PartyRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	log *logrus.Logger,
) ExpenseService {
	return &expenseService{
		expenseRepo: expenseRepo,
		partyRepo:   partyRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		log:         log,
	}
}

// --- Implementation ---

// CreateExpense records a cost entry. Expenses never touch item stock
// or party balances; they feed the profit report only.
func (s *expenseService) CreateExpense(ctx context.Context, userID string, req CreateExpenseRequest) (ExpenseResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return ExpenseResponse{}, errors.New("amount must be positive")
	}

	expense := model.Expense{
		Category:    req.Category,
		Amount:      amount,
		Description: req.Description,
	}
	if req.SupplierID != "" {
		supplierID, parseErr := uuid.Parse(req.SupplierID)
		if parseErr != nil {
			return ExpenseResponse{}, fmt.Errorf("invalid supplier_id: %w", parseErr)
		}
		expense.SupplierID = &supplierID
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if expense.SupplierID != nil {
			if _, findErr := s.partyRepo.FindByID(txCtx, *expense.SupplierID); findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return errors.New("supplier not found")
				}
				return fmt.Errorf("failed to load supplier: %w", findErr)
			}
		}
		if crtErr := s.expenseRepo.Create(txCtx, &expense); crtErr != nil {
			return fmt.Errorf("failed to create expense: %w", crtErr)
		}
		s.writeAudit(txCtx, userID, model.ActionCreateExpense, expense.ID.String(), expense.Category)
		return nil
	})
	if err != nil {
		return ExpenseResponse{}, err
	}
	return toExpenseResponse(expense), nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, userID string, id string) error {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid expense id: %w", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		expense, findErr := s.expenseRepo.FindByID(txCtx, expenseID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("expense not found")
			}
			return fmt.Errorf("failed to load expense: %w", findErr)
		}
		if delErr := s.expenseRepo.Delete(txCtx, expenseID); delErr != nil {
			return fmt.Errorf("failed to delete expense: %w", delErr)
		}
		s.writeAudit(txCtx, userID, model.ActionDeleteExpense, expense.ID.String(), expense.Category)
		return nil
	})
}

func (s *expenseService) ListExpenses(ctx context.Context, category string, page, limit int) ([]ExpenseResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	expenses, total, err := s.expenseRepo.List(ctx, category, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch expenses: %w", err)
	}
	result := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		result = append(result, toExpenseResponse(e))
	}
	return result, total, nil
}

// --- Helpers ---

func (s *expenseService) writeAudit(ctx context.Context, userID, action, entityID, entityName string) {
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

func toExpenseResponse(e model.Expense) ExpenseResponse {
	resp := ExpenseResponse{
		ID:          e.ID.String(),
		Category:    e.Category,
		Amount:      e.Amount.StringFixed(2),
		Description: e.Description,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.SupplierID != nil {
		id := e.SupplierID.String()
		resp.SupplierID = &id
	}
	if e.Supplier != nil {
		resp.Supplier = e.Supplier.Name
	}
	return resp
}
