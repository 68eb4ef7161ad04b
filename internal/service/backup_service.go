package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shopbooks/internal/model"
	"shopbooks/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BackupPayload is the full dataset as one JSON document. Users and
// refresh tokens are excluded on purpose: credentials do not travel
// with business data.
type BackupPayload struct {
	ExportedAt       time.Time                `json:"exported_at"`
	Company          *model.CompanyProfile    `json:"company"`
	Items            []model.Item             `json:"items"`
	Parties          []model.Party            `json:"parties"`
	SalesInvoices    []model.SalesInvoice     `json:"sales_invoices"`
	PurchaseInvoices []model.PurchaseInvoice  `json:"purchase_invoices"`
	Receipts         []model.Receipt          `json:"receipts"`
	Payments         []model.Payment          `json:"payments"`
	Expenses         []model.Expense          `json:"expenses"`
	Stocktakes       []model.StocktakeSession `json:"stocktakes"`
	Movements        []model.StockMovement    `json:"movements"`
}

type BackupService interface {
	Export(ctx context.Context) (BackupPayload, error)
	Import(ctx context.Context, userID string, raw []byte) error
}

// backupService reads and writes whole tables, so it talks to gorm
// directly instead of going through the per-entity repositories.
type backupService struct {
	db        *gorm.DB
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	log       *logrus.Logger
}

func NewBackupService(db *gorm.DB, auditRepo repository.AuditRepository, txManager repository.TransactionManager, log *logrus.Logger) BackupService {
	return &backupService{db: db, auditRepo: auditRepo, txManager: txManager, log: log}
}

func (s *backupService) Export(ctx context.Context) (BackupPayload, error) {
	payload := BackupPayload{ExportedAt: time.Now()}
	db := s.db.WithContext(ctx)

	var company model.CompanyProfile
	if err := db.First(&company).Error; err == nil {
		payload.Company = &company
	}

	steps := []struct {
		name string
		load func() error
	}{
		{"items", func() error { return db.Unscoped().Find(&payload.Items).Error }},
		{"parties", func() error { return db.Unscoped().Find(&payload.Parties).Error }},
		{"sales", func() error { return db.Preload("Lines").Find(&payload.SalesInvoices).Error }},
		{"purchases", func() error { return db.Preload("Lines").Find(&payload.PurchaseInvoices).Error }},
		{"receipts", func() error { return db.Find(&payload.Receipts).Error }},
		{"payments", func() error { return db.Find(&payload.Payments).Error }},
		{"expenses", func() error { return db.Find(&payload.Expenses).Error }},
		{"stocktakes", func() error { return db.Preload("Entries").Find(&payload.Stocktakes).Error }},
		{"movements", func() error { return db.Find(&payload.Movements).Error }},
	}
	for _, step := range steps {
		if err := step.load(); err != nil {
			return payload, fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}
	return payload, nil
}

// Import replaces the entire business dataset with the backup's
// contents in one transaction. Either everything lands or nothing
// does; a half-imported dataset would break every running balance.
func (s *backupService) Import(ctx context.Context, userID string, raw []byte) error {
	var payload BackupPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid backup payload: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		// Children before parents to satisfy foreign keys.
		truncations := []interface{}{
			&model.StockMovement{},
			&model.StocktakeEntry{},
			&model.StocktakeSession{},
			&model.Expense{},
			&model.Payment{},
			&model.Receipt{},
			&model.PurchaseLine{},
			&model.PurchaseInvoice{},
			&model.SalesLine{},
			&model.SalesInvoice{},
			&model.Party{},
			&model.Item{},
		}
		for _, target := range truncations {
			if err := db.Unscoped().Where("1 = 1").Delete(target).Error; err != nil {
				return fmt.Errorf("failed to clear existing data: %w", err)
			}
		}

		if payload.Company != nil {
			if err := db.Save(payload.Company).Error; err != nil {
				return fmt.Errorf("failed to import company profile: %w", err)
			}
		}
		inserts := []struct {
			name string
			rows interface{}
			skip bool
		}{
			{"items", &payload.Items, len(payload.Items) == 0},
			{"parties", &payload.Parties, len(payload.Parties) == 0},
			{"sales", &payload.SalesInvoices, len(payload.SalesInvoices) == 0},
			{"purchases", &payload.PurchaseInvoices, len(payload.PurchaseInvoices) == 0},
			{"receipts", &payload.Receipts, len(payload.Receipts) == 0},
			{"payments", &payload.Payments, len(payload.Payments) == 0},
			{"expenses", &payload.Expenses, len(payload.Expenses) == 0},
			{"stocktakes", &payload.Stocktakes, len(payload.Stocktakes) == 0},
			{"movements", &payload.Movements, len(payload.Movements) == 0},
		}
		for _, ins := range inserts {
			if ins.skip {
				continue
			}
			if err := db.Create(ins.rows).Error; err != nil {
				return fmt.Errorf("failed to import %s: %w", ins.name, err)
			}
		}

		var uid *uuid.UUID
		if parsed, err := uuid.Parse(userID); err == nil {
			uid = &parsed
		}
		entry := &model.AuditLog{
			UserID:  uid,
			Action:  model.ActionImportBackup,
			Details: fmt.Sprintf(`{"exported_at":%q}`, payload.ExportedAt.Format(time.RFC3339)),
		}
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			s.log.WithError(err).Warn("failed to write audit log")
		}
		return nil
	})
}
