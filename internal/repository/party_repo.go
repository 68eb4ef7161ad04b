package repository

import (
	"context"

	"shopbooks/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PartyRepository interface {
	Create(ctx context.Context, party *model.Party) error
	Update(ctx context.Context, party *model.Party) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Party, error)
	FindByName(ctx context.Context, name string) (*model.Party, error)
	List(ctx context.Context, partyType, search string, page, limit int) ([]model.Party, int64, error)
	ListAll(ctx context.Context) ([]model.Party, error)
	AddToBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
}

type partyRepository struct {
	db *gorm.DB
}

func NewPartyRepository(db *gorm.DB) PartyRepository {
	return &partyRepository{db: db}
}

func (r *partyRepository) Create(ctx context.Context, party *model.Party) error {
	return GetDB(ctx, r.db).Create(party).Error
}

func (r *partyRepository) Update(ctx context.Context, party *model.Party) error {
	return GetDB(ctx, r.db).Save(party).Error
}

func (r *partyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Party{}).Error
}

func (r *partyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Party, error) {
	var party model.Party
	if err := GetDB(ctx, r.db).First(&party, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *partyRepository) FindByName(ctx context.Context, name string) (*model.Party, error) {
	var party model.Party
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&party).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *partyRepository) List(ctx context.Context, partyType, search string, page, limit int) ([]model.Party, int64, error) {
	var parties []model.Party
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Party{})
	if partyType != "" {
		db = db.Where("type = ? OR type = ?", partyType, model.PartyTypeBoth)
	}
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name asc").Offset(offset).Limit(limit).Find(&parties).Error; err != nil {
		return nil, 0, err
	}

	return parties, total, nil
}

func (r *partyRepository) ListAll(ctx context.Context) ([]model.Party, error) {
	var parties []model.Party
	if err := GetDB(ctx, r.db).Order("name asc").Find(&parties).Error; err != nil {
		return nil, err
	}
	return parties, nil
}

// AddToBalance atomically shifts the running balance accumulator.
func (r *partyRepository) AddToBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Party{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", delta)).Error
}
