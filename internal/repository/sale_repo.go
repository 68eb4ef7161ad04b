package repository

import (
	"context"

	"shopbooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleListFilter narrows List results.
type SaleListFilter struct {
	Status     string
	CustomerID *uuid.UUID
	InvoiceNo  string
	Page       int
	Limit      int
}

type SaleRepository interface {
	Create(ctx context.Context, invoice *model.SalesInvoice) error
	Update(ctx context.Context, invoice *model.SalesInvoice) error
	ReplaceLines(ctx context.Context, invoiceID uuid.UUID, lines []model.SalesLine) error
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error)
	List(ctx context.Context, filter SaleListFilter) ([]model.SalesInvoice, int64, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.SalesInvoice, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, invoice *model.SalesInvoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *saleRepository) Update(ctx context.Context, invoice *model.SalesInvoice) error {
	return GetDB(ctx, r.db).Omit("Lines").Save(invoice).Error
}

// ReplaceLines swaps an invoice's stored lines for the given set.
func (r *saleRepository) ReplaceLines(ctx context.Context, invoiceID uuid.UUID, lines []model.SalesLine) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("invoice_id = ?", invoiceID).Delete(&model.SalesLine{}).Error; err != nil {
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

func (r *saleRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error) {
	var invoice model.SalesInvoice
	if err := GetDB(ctx, r.db).Preload("Lines").Preload("Customer").First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *saleRepository) List(ctx context.Context, filter SaleListFilter) ([]model.SalesInvoice, int64, error) {
	var invoices []model.SalesInvoice
	var total int64

	db := GetDB(ctx, r.db).Model(&model.SalesInvoice{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.InvoiceNo != "" {
		db = db.Where("invoice_no ILIKE ?", "%"+filter.InvoiceNo+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Preload("Lines").Preload("Customer").
		Order("created_at desc").Offset(offset).Limit(filter.Limit).
		Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// ListByCustomer returns every document of a customer regardless of
// status, oldest first; statement reconstruction filters from there.
func (r *saleRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.SalesInvoice, error) {
	var invoices []model.SalesInvoice
	if err := GetDB(ctx, r.db).
		Where("customer_id = ?", customerID).
		Order("created_at asc").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *saleRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.SalesInvoice{}).
		Where("invoice_no LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}
