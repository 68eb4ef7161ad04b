package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense represents an outgoing cost entry (rent, utilities, wages)
// outside the purchase flow; it feeds the profit report only.
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierID  *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id"`
	Supplier    *Party          `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Category    string          `gorm:"type:varchar(100);index" json:"category"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
