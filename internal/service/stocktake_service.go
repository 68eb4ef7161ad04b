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

type StocktakeEntryRequest struct {
	ItemID     string `json:"item_id" binding:"required"`
	CountedQty string `json:"counted_qty" binding:"required"`
}

type CreateStocktakeRequest struct {
	Note    string                  `json:"note"`
	Entries []StocktakeEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

type StocktakeEntryResponse struct {
	ItemID     string `json:"item_id"`
	ItemCode   string `json:"item_code"`
	ItemName   string `json:"item_name"`
	SystemQty  string `json:"system_qty"`
	CountedQty string `json:"counted_qty"`
	Variance   string `json:"variance"`
}

type StocktakeResponse struct {
	ID        string                   `json:"id"`
	SessionNo string                   `json:"session_no"`
	Status    string                   `json:"status"`
	Note      string                   `json:"note"`
	Entries   []StocktakeEntryResponse `json:"entries"`
	AppliedAt *string                  `json:"applied_at"`
	CreatedAt string                   `json:"created_at"`
}

// --- Interface ---

type StocktakeService interface {
	CreateSession(ctx context.Context, userID string, req CreateStocktakeRequest) (StocktakeResponse, error)
	ApplySession(ctx context.Context, userID string, id string) (StocktakeResponse, error)
	GetSession(ctx context.Context, id string) (StocktakeResponse, error)
	ListSessions(ctx context.Context, page, limit int) ([]StocktakeResponse, int64, error)
}

type stocktakeService struct {
	stocktakeRepo repository.StocktakeRepository
	itemRepo      repository.ItemRepository
	movementRepo  repository.MovementRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	log           *logrus.Logger
}

func NewStocktakeService(
	stocktakeRepo repository.StocktakeRepository,
	itemRepo repository.ItemRepository,
	movementRepo repository.MovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	log *logrus.Logger,
) StocktakeService {
	return &stocktakeService{
		stocktakeRepo: stocktakeRepo,
		itemRepo:      itemRepo,
		movementRepo:  movementRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		log:           log,
	}
}

// --- Implementation ---

// CreateSession records a count. The system quantity of each entry is
// captured at creation time so the variance shown later reflects what
// the counter actually compared against.
func (s *stocktakeService) CreateSession(ctx context.Context, userID string, req CreateStocktakeRequest) (StocktakeResponse, error) {
	var session model.StocktakeSession
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entries := make([]model.StocktakeEntry, 0, len(req.Entries))
		seen := make(map[uuid.UUID]bool, len(req.Entries))
		for i, er := range req.Entries {
			itemID, parseErr := uuid.Parse(er.ItemID)
			if parseErr != nil {
				return fmt.Errorf("entries[%d]: invalid item_id: %w", i, parseErr)
			}
			if seen[itemID] {
				return fmt.Errorf("entries[%d]: item counted twice", i)
			}
			seen[itemID] = true
			counted, parseErr := decimal.NewFromString(er.CountedQty)
			if parseErr != nil {
				return fmt.Errorf("entries[%d]: invalid counted_qty: %w", i, parseErr)
			}
			if counted.IsNegative() {
				return fmt.Errorf("entries[%d]: counted_qty cannot be negative", i)
			}
			item, findErr := s.itemRepo.FindByID(txCtx, itemID)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return fmt.Errorf("entries[%d]: item not found", i)
				}
				return fmt.Errorf("entries[%d]: failed to load item: %w", i, findErr)
			}
			entries = append(entries, model.StocktakeEntry{
				ItemID:     itemID,
				SystemQty:  item.SystemStock,
				CountedQty: counted,
			})
		}

		no, genErr := generateDocumentNo(txCtx, "STK", s.stocktakeRepo.CountByPrefix)
		if genErr != nil {
			return fmt.Errorf("failed to generate session number: %w", genErr)
		}
		session = model.StocktakeSession{
			SessionNo: no,
			Status:    model.StocktakeOpen,
			Note:      req.Note,
			Entries:   entries,
		}
		if crtErr := s.stocktakeRepo.Create(txCtx, &session); crtErr != nil {
			return fmt.Errorf("failed to create session: %w", crtErr)
		}
		s.writeAudit(txCtx, userID, model.ActionCreateStocktake, session.ID.String(), session.SessionNo)
		return nil
	})
	if err != nil {
		return StocktakeResponse{}, err
	}
	return s.GetSession(ctx, session.ID.String())
}

// ApplySession overrides each counted item's stock with the counted
// quantity. This is an absolute override, not a delta: whatever sales
// or purchases happened since the count wins nothing, the count does.
func (s *stocktakeService) ApplySession(ctx context.Context, userID string, id string) (StocktakeResponse, error) {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return StocktakeResponse{}, fmt.Errorf("invalid session id: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		session, findErr := s.stocktakeRepo.FindByIDWithEntries(txCtx, sessionID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("session not found")
			}
			return fmt.Errorf("failed to load session: %w", findErr)
		}
		if session.Status != model.StocktakeOpen {
			return fmt.Errorf("cannot apply session with status %s", session.Status)
		}

		ids := make([]uuid.UUID, 0, len(session.Entries))
		for _, e := range session.Entries {
			ids = append(ids, e.ItemID)
		}
		items, loadErr := s.itemRepo.FindForLines(txCtx, ids, nil)
		if loadErr != nil {
			return fmt.Errorf("failed to load items: %w", loadErr)
		}

		byID := make(map[uuid.UUID]int, len(items))
		for i, item := range items {
			byID[item.ID] = i
		}
		for _, entry := range session.Entries {
			idx, ok := byID[entry.ItemID]
			if !ok {
				continue // item deleted since the count
			}
			before := items[idx].ActualStock
			items[idx].ActualStock = entry.CountedQty
			items[idx].SystemStock = entry.CountedQty

			movement := model.StockMovement{
				ItemID:        entry.ItemID,
				Direction:     model.MovementAdjust,
				QuantityMajor: entry.CountedQty.Sub(before),
				StockAfter:    entry.CountedQty,
				DocumentNo:    session.SessionNo,
			}
			if mvErr := s.movementRepo.Create(txCtx, &movement); mvErr != nil {
				s.log.WithError(mvErr).WithField("session_no", session.SessionNo).Warn("failed to record adjustment movement")
			}
		}

		if saveErr := s.itemRepo.SaveSnapshot(txCtx, items); saveErr != nil {
			return fmt.Errorf("failed to persist stock: %w", saveErr)
		}

		now := time.Now()
		session.Status = model.StocktakeApplied
		session.AppliedAt = &now
		if updErr := s.stocktakeRepo.Update(txCtx, session); updErr != nil {
			return fmt.Errorf("failed to update session: %w", updErr)
		}
		s.writeAudit(txCtx, userID, model.ActionApplyStocktake, session.ID.String(), session.SessionNo)
		return nil
	})
	if err != nil {
		return StocktakeResponse{}, err
	}
	return s.GetSession(ctx, id)
}

func (s *stocktakeService) GetSession(ctx context.Context, id string) (StocktakeResponse, error) {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return StocktakeResponse{}, fmt.Errorf("invalid session id: %w", err)
	}
	session, err := s.stocktakeRepo.FindByIDWithEntries(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StocktakeResponse{}, errors.New("session not found")
		}
		return StocktakeResponse{}, fmt.Errorf("failed to load session: %w", err)
	}
	return toStocktakeResponse(*session), nil
}

func (s *stocktakeService) ListSessions(ctx context.Context, page, limit int) ([]StocktakeResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	sessions, total, err := s.stocktakeRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	result := make([]StocktakeResponse, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, toStocktakeResponse(sess))
	}
	return result, total, nil
}

// --- Helpers ---

func (s *stocktakeService) writeAudit(ctx context.Context, userID, action, entityID, entityName string) {
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

func toStocktakeResponse(session model.StocktakeSession) StocktakeResponse {
	resp := StocktakeResponse{
		ID:        session.ID.String(),
		SessionNo: session.SessionNo,
		Status:    session.Status,
		Note:      session.Note,
		CreatedAt: session.CreatedAt.Format(time.RFC3339),
	}
	if session.AppliedAt != nil {
		applied := session.AppliedAt.Format(time.RFC3339)
		resp.AppliedAt = &applied
	}
	for _, e := range session.Entries {
		resp.Entries = append(resp.Entries, StocktakeEntryResponse{
			ItemID:     e.ItemID.String(),
			ItemCode:   e.Item.Code,
			ItemName:   e.Item.Name,
			SystemQty:  e.SystemQty.String(),
			CountedQty: e.CountedQty.String(),
			Variance:   e.CountedQty.Sub(e.SystemQty).String(),
		})
	}
	return resp
}
