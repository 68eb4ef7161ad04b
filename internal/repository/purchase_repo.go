package repository

import (
	"context"

	"shopbooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PurchaseListFilter narrows List results.
type PurchaseListFilter struct {
	Status     string
	SupplierID *uuid.UUID
	InvoiceNo  string
	Page       int
	Limit      int
}

type PurchaseRepository interface {
	Create(ctx context.Context, invoice *model.PurchaseInvoice) error
	Update(ctx context.Context, invoice *model.PurchaseInvoice) error
	ReplaceLines(ctx context.Context, invoiceID uuid.UUID, lines []model.PurchaseLine) error
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.PurchaseInvoice, error)
	List(ctx context.Context, filter PurchaseListFilter) ([]model.PurchaseInvoice, int64, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]model.PurchaseInvoice, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, invoice *model.PurchaseInvoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *purchaseRepository) Update(ctx context.Context, invoice *model.PurchaseInvoice) error {
	return GetDB(ctx, r.db).Omit("Lines").Save(invoice).Error
}

func (r *purchaseRepository) ReplaceLines(ctx context.Context, invoiceID uuid.UUID, lines []model.PurchaseLine) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("invoice_id = ?", invoiceID).Delete(&model.PurchaseLine{}).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].InvoiceID = invoiceID
		if err := db.Create(&lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *purchaseRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.PurchaseInvoice, error) {
	var invoice model.PurchaseInvoice
	if err := GetDB(ctx, r.db).Preload("Lines").Preload("Supplier").First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *purchaseRepository) List(ctx context.Context, filter PurchaseListFilter) ([]model.PurchaseInvoice, int64, error) {
	var invoices []model.PurchaseInvoice
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PurchaseInvoice{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != nil {
		db = db.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.InvoiceNo != "" {
		db = db.Where("invoice_no ILIKE ?", "%"+filter.InvoiceNo+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Preload("Lines").Preload("Supplier").
		Order("created_at desc").Offset(offset).Limit(filter.Limit).
		Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

func (r *purchaseRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]model.PurchaseInvoice, error) {
	var invoices []model.PurchaseInvoice
	if err := GetDB(ctx, r.db).
		Where("supplier_id = ?", supplierID).
		Order("created_at asc").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *purchaseRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.PurchaseInvoice{}).
		Where("invoice_no LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}
