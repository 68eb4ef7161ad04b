package service

import (
	"context"
	"errors"
	"fmt"

	"shopbooks/internal/model"
	"shopbooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- DTOs ---

type SaveItemRequest struct {
	Code             string `json:"code" binding:"required"`
	Name             string `json:"name" binding:"required"`
	MajorUnit        string `json:"major_unit" binding:"required"`
	MinorUnit        string `json:"minor_unit"`
	ConversionFactor int64  `json:"conversion_factor"`
	OpeningStock     string `json:"opening_stock"`
	CostMajor        string `json:"cost_major"`
	PriceMajor       string `json:"price_major"`
	PriceMinor       string `json:"price_minor"`
}

type ItemResponse struct {
	ID               string `json:"id"`
	Code             string `json:"code"`
	Name             string `json:"name"`
	MajorUnit        string `json:"major_unit"`
	MinorUnit        string `json:"minor_unit"`
	ConversionFactor int64  `json:"conversion_factor"`
	ActualStock      string `json:"actual_stock"`
	SystemStock      string `json:"system_stock"`
	CostMajor        string `json:"cost_major"`
	AvgDiscount      string `json:"avg_discount"`
	PriceMajor       string `json:"price_major"`
	PriceMinor       string `json:"price_minor"`
	StockValue       string `json:"stock_value"`
}

type MovementResponse struct {
	ID            string `json:"id"`
	Direction     string `json:"direction"`
	QuantityMajor string `json:"quantity_major"`
	StockAfter    string `json:"stock_after"`
	DocumentNo    string `json:"document_no"`
	CreatedAt     string `json:"created_at"`
}

// --- Interface ---

type ItemService interface {
	CreateItem(ctx context.Context, userID string, req SaveItemRequest) (ItemResponse, error)
	UpdateItem(ctx context.Context, userID string, id string, req SaveItemRequest) (ItemResponse, error)
	DeleteItem(ctx context.Context, userID string, id string) error
	GetItem(ctx context.Context, id string) (ItemResponse, error)
	ListItems(ctx context.Context, page, limit int, search string) ([]ItemResponse, int64, error)
	ListMovements(ctx context.Context, itemID string, page, limit int) ([]MovementResponse, int64, error)
}

type itemService struct {
	itemRepo  repository.ItemRepository
	moveRepo  repository.MovementRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	log       *logrus.Logger
}

func NewItemService(
	itemRepo repository.ItemRepository,
	moveRepo repository.MovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	log *logrus.Logger,
) ItemService {
	return &itemService{
		itemRepo:  itemRepo,
		moveRepo:  moveRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		log:       log,
	}
}

// --- Implementation ---

func (s *itemService) CreateItem(ctx context.Context, userID string, req SaveItemRequest) (ItemResponse, error) {
	item, err := s.buildItem(req)
	if err != nil {
		return ItemResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if dupErr := s.checkDuplicates(txCtx, req.Code, req.Name, uuid.Nil); dupErr != nil {
			return dupErr
		}
		if crtErr := s.itemRepo.Create(txCtx, item); crtErr != nil {
			return fmt.Errorf("failed to create item: %w", crtErr)
		}
		if item.ActualStock.IsPositive() {
			movement := model.StockMovement{
				ItemID:        item.ID,
				Direction:     model.MovementIn,
				QuantityMajor: item.ActualStock,
				StockAfter:    item.ActualStock,
				DocumentNo:    "OPENING",
			}
			if mvErr := s.moveRepo.Create(txCtx, &movement); mvErr != nil {
				s.log.WithError(mvErr).Warn("failed to record opening stock movement")
			}
		}
		s.writeAudit(txCtx, userID, model.ActionCreateItem, item.ID.String(), item.Name)
		return nil
	})
	if err != nil {
		return ItemResponse{}, err
	}
	return toItemResponse(*item), nil
}

// UpdateItem edits descriptive and pricing fields. Stock and cost are
// owned by the invoice and stocktake flows and are not editable here.
func (s *itemService) UpdateItem(ctx context.Context, userID string, id string, req SaveItemRequest) (ItemResponse, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return ItemResponse{}, fmt.Errorf("invalid item id: %w", err)
	}

	var updated *model.Item
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, findErr := s.itemRepo.FindByID(txCtx, itemID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("item not found")
			}
			return fmt.Errorf("failed to load item: %w", findErr)
		}
		if dupErr := s.checkDuplicates(txCtx, req.Code, req.Name, itemID); dupErr != nil {
			return dupErr
		}

		item.Code = req.Code
		item.Name = req.Name
		item.MajorUnit = req.MajorUnit
		item.MinorUnit = req.MinorUnit
		if req.ConversionFactor > 0 {
			item.ConversionFactor = req.ConversionFactor
		}
		if req.PriceMajor != "" {
			price, parseErr := decimal.NewFromString(req.PriceMajor)
			if parseErr != nil {
				return fmt.Errorf("invalid price_major: %w", parseErr)
			}
			item.PriceMajor = price
		}
		if req.PriceMinor != "" {
			price, parseErr := decimal.NewFromString(req.PriceMinor)
			if parseErr != nil {
				return fmt.Errorf("invalid price_minor: %w", parseErr)
			}
			item.PriceMinor = price
		}

		if updErr := s.itemRepo.Update(txCtx, item); updErr != nil {
			return fmt.Errorf("failed to update item: %w", updErr)
		}
		updated = item
		s.writeAudit(txCtx, userID, model.ActionUpdateItem, item.ID.String(), item.Name)
		return nil
	})
	if err != nil {
		return ItemResponse{}, err
	}
	return toItemResponse(*updated), nil
}

func (s *itemService) DeleteItem(ctx context.Context, userID string, id string) error {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid item id: %w", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, findErr := s.itemRepo.FindByID(txCtx, itemID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("item not found")
			}
			return fmt.Errorf("failed to load item: %w", findErr)
		}
		if delErr := s.itemRepo.Delete(txCtx, itemID); delErr != nil {
			return fmt.Errorf("failed to delete item: %w", delErr)
		}
		s.writeAudit(txCtx, userID, model.ActionDeleteItem, item.ID.String(), item.Name)
		return nil
	})
}

func (s *itemService) GetItem(ctx context.Context, id string) (ItemResponse, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return ItemResponse{}, fmt.Errorf("invalid item id: %w", err)
	}
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemResponse{}, errors.New("item not found")
		}
		return ItemResponse{}, fmt.Errorf("failed to load item: %w", err)
	}
	return toItemResponse(*item), nil
}

func (s *itemService) ListItems(ctx context.Context, page, limit int, search string) ([]ItemResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	items, total, err := s.itemRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch items: %w", err)
	}
	result := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		result = append(result, toItemResponse(item))
	}
	return result, total, nil
}

func (s *itemService) ListMovements(ctx context.Context, itemID string, page, limit int) ([]MovementResponse, int64, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid item id: %w", err)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	movements, total, err := s.moveRepo.ListByItem(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch movements: %w", err)
	}
	result := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		result = append(result, MovementResponse{
			ID:            m.ID.String(),
			Direction:     m.Direction,
			QuantityMajor: m.QuantityMajor.String(),
			StockAfter:    m.StockAfter.String(),
			DocumentNo:    m.DocumentNo,
			CreatedAt:     m.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return result, total, nil
}

// --- Helpers ---

func (s *itemService) buildItem(req SaveItemRequest) (*model.Item, error) {
	item := &model.Item{
		Code:             req.Code,
		Name:             req.Name,
		MajorUnit:        req.MajorUnit,
		MinorUnit:        req.MinorUnit,
		ConversionFactor: 1,
	}
	if req.ConversionFactor > 0 {
		item.ConversionFactor = req.ConversionFactor
	}
	if req.OpeningStock != "" {
		stock, err := decimal.NewFromString(req.OpeningStock)
		if err != nil {
			return nil, fmt.Errorf("invalid opening_stock: %w", err)
		}
		if stock.IsNegative() {
			return nil, errors.New("opening_stock cannot be negative")
		}
		item.ActualStock = stock
		item.SystemStock = stock
	}
	if req.CostMajor != "" {
		cost, err := decimal.NewFromString(req.CostMajor)
		if err != nil {
			return nil, fmt.Errorf("invalid cost_major: %w", err)
		}
		item.CostMajor = cost
	}
	if req.PriceMajor != "" {
		price, err := decimal.NewFromString(req.PriceMajor)
		if err != nil {
			return nil, fmt.Errorf("invalid price_major: %w", err)
		}
		item.PriceMajor = price
	}
	if req.PriceMinor != "" {
		price, err := decimal.NewFromString(req.PriceMinor)
		if err != nil {
			return nil, fmt.Errorf("invalid price_minor: %w", err)
		}
		item.PriceMinor = price
	}
	return item, nil
}

// checkDuplicates enforces the unique code and name constraints with a
// readable message instead of a raw database error. exclude skips the
// item being edited.
func (s *itemService) checkDuplicates(ctx context.Context, code, name string, exclude uuid.UUID) error {
	if existing, err := s.itemRepo.FindByCode(ctx, code); err == nil && existing.ID != exclude {
		return fmt.Errorf("item code %q is already in use", code)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check item code: %w", err)
	}
	if existing, err := s.itemRepo.FindByName(ctx, name); err == nil && existing.ID != exclude {
		return fmt.Errorf("item name %q is already in use", name)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check item name: %w", err)
	}
	return nil
}

func (s *itemService) writeAudit(ctx context.Context, userID, action, entityID, entityName string) {
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

func toItemResponse(item model.Item) ItemResponse {
	return ItemResponse{
		ID:               item.ID.String(),
		Code:             item.Code,
		Name:             item.Name,
		MajorUnit:        item.MajorUnit,
		MinorUnit:        item.MinorUnit,
		ConversionFactor: item.ConversionFactor,
		ActualStock:      item.ActualStock.String(),
		SystemStock:      item.SystemStock.String(),
		CostMajor:        item.CostMajor.StringFixed(2),
		AvgDiscount:      item.AvgDiscount.StringFixed(2),
		PriceMajor:       item.PriceMajor.StringFixed(2),
		PriceMinor:       item.PriceMinor.StringFixed(2),
		StockValue:       item.ActualStock.Mul(item.CostMajor).Round(2).StringFixed(2),
	}
}
