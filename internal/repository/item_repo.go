package repository

import (
	"context"

	"shopbooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	FindByCode(ctx context.Context, code string) (*model.Item, error)
	FindByName(ctx context.Context, name string) (*model.Item, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Item, int64, error)
	ListAll(ctx context.Context) ([]model.Item, error)
	FindForLines(ctx context.Context, ids []uuid.UUID, codes []string) ([]model.Item, error)
	SaveSnapshot(ctx context.Context, items []model.Item) error
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *itemRepository) Update(ctx context.Context, item *model.Item) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Item{}).Error
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByCode(ctx context.Context, code string) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByName(ctx context.Context, name string) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) List(ctx context.Context, page, limit int, search string) ([]model.Item, int64, error) {
	var items []model.Item
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Item{})
	if search != "" {
		db = db.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *itemRepository) ListAll(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := GetDB(ctx, r.db).Order("code asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindForLines loads, with row locks, every item a document's lines can
// resolve to, by ID or code. Missing references are simply absent from
// the result; the ledger engine skips lines it cannot resolve.
func (r *itemRepository) FindForLines(ctx context.Context, ids []uuid.UUID, codes []string) ([]model.Item, error) {
	var items []model.Item
	db := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	switch {
	case len(ids) > 0 && len(codes) > 0:
		db = db.Where("id IN ? OR code IN ?", ids, codes)
	case len(ids) > 0:
		db = db.Where("id IN ?", ids)
	case len(codes) > 0:
		db = db.Where("code IN ?", codes)
	default:
		return nil, nil
	}
	if err := db.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SaveSnapshot persists an item snapshot produced by the ledger engine.
func (r *itemRepository) SaveSnapshot(ctx context.Context, items []model.Item) error {
	db := GetDB(ctx, r.db)
	for i := range items {
		if err := db.Save(&items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
