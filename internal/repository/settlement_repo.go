package repository

import (
	"context"

	"shopbooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *model.Receipt) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Receipt, error)
	DeleteByDescription(ctx context.Context, description string) (int64, error)
	List(ctx context.Context, customerID *uuid.UUID, page, limit int) ([]model.Receipt, int64, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Receipt, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type receiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *model.Receipt) error {
	return GetDB(ctx, r.db).Create(receipt).Error
}

func (r *receiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Receipt{}).Error
}

func (r *receiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Receipt, error) {
	var receipt model.Receipt
	if err := GetDB(ctx, r.db).First(&receipt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

// DeleteByDescription removes auto-generated receipts matching the
// deterministic settlement key and reports how many rows went away.
func (r *receiptRepository) DeleteByDescription(ctx context.Context, description string) (int64, error) {
	res := GetDB(ctx, r.db).Where("description = ? AND auto = true", description).Delete(&model.Receipt{})
	return res.RowsAffected, res.Error
}

func (r *receiptRepository) List(ctx context.Context, customerID *uuid.UUID, page, limit int) ([]model.Receipt, int64, error) {
	var receipts []model.Receipt
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Receipt{})
	if customerID != nil {
		db = db.Where("customer_id = ?", customerID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Customer").Order("created_at desc").Offset(offset).Limit(limit).Find(&receipts).Error; err != nil {
		return nil, 0, err
	}

	return receipts, total, nil
}

func (r *receiptRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Receipt, error) {
	var receipts []model.Receipt
	if err := GetDB(ctx, r.db).Where("customer_id = ?", customerID).Order("created_at asc").Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *receiptRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Receipt{}).
		Where("receipt_no LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	List(ctx context.Context, supplierID *uuid.UUID, page, limit int) ([]model.Payment, int64, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]model.Payment, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Payment{}).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := GetDB(ctx, r.db).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) List(ctx context.Context, supplierID *uuid.UUID, page, limit int) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Payment{})
	if supplierID != nil {
		db = db.Where("supplier_id = ?", supplierID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Supplier").Order("created_at desc").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *paymentRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := GetDB(ctx, r.db).Where("supplier_id = ?", supplierID).Order("created_at asc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Payment{}).
		Where("payment_no LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}
