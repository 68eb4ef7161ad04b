package repository

import (
	"context"

	"shopbooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StocktakeRepository interface {
	Create(ctx context.Context, session *model.StocktakeSession) error
	Update(ctx context.Context, session *model.StocktakeSession) error
	FindByIDWithEntries(ctx context.Context, id uuid.UUID) (*model.StocktakeSession, error)
	List(ctx context.Context, page, limit int) ([]model.StocktakeSession, int64, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type stocktakeRepository struct {
	db *gorm.DB
}

func NewStocktakeRepository(db *gorm.DB) StocktakeRepository {
	return &stocktakeRepository{db: db}
}

func (r *stocktakeRepository) Create(ctx context.Context, session *model.StocktakeSession) error {
	return GetDB(ctx, r.db).Create(session).Error
}

func (r *stocktakeRepository) Update(ctx context.Context, session *model.StocktakeSession) error {
	return GetDB(ctx, r.db).Omit("Entries").Save(session).Error
}

func (r *stocktakeRepository) FindByIDWithEntries(ctx context.Context, id uuid.UUID) (*model.StocktakeSession, error) {
	var session model.StocktakeSession
	if err := GetDB(ctx, r.db).Preload("Entries").Preload("Entries.Item").First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *stocktakeRepository) List(ctx context.Context, page, limit int) ([]model.StocktakeSession, int64, error) {
	var sessions []model.StocktakeSession
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StocktakeSession{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Entries").Order("created_at desc").Offset(offset).Limit(limit).Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *stocktakeRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.StocktakeSession{}).
		Where("session_no LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}
