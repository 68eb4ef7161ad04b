package database

import (
	"log"

	"shopbooks/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Item{},
		&model.StockMovement{},
		&model.Party{},
		&model.SalesInvoice{},
		&model.SalesLine{},
		&model.PurchaseInvoice{},
		&model.PurchaseLine{},
		&model.Receipt{},
		&model.Payment{},
		&model.Expense{},
		&model.StocktakeSession{},
		&model.StocktakeEntry{},
		&model.AuditLog{},
		&model.CompanyProfile{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
