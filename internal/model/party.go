package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PartyType enum constants
const (
	PartyTypeCustomer = "CUSTOMER"
	PartyTypeSupplier = "SUPPLIER"
	PartyTypeBoth     = "BOTH"
)

// Party represents a customer, supplier, or both. Balance is a signed
// running accumulator: for customers the amount they owe us, for
// suppliers the amount we owe them. It is mutated exclusively by
// completed credit documents, returns and settlement postings.
// Statements are reconstructed afterwards by replaying documents.
type Party struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Type          string          `gorm:"type:varchar(20);not null;index" json:"type"` // CUSTOMER, SUPPLIER, BOTH
	Phone         string          `gorm:"type:varchar(50)" json:"phone"`
	Email         string          `gorm:"type:varchar(255)" json:"email"`
	Address       string          `gorm:"type:text" json:"address"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance"`
	OpeningAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"opening_amount"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}
