package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt records money received from a customer. Cash sales
// auto-generate one whose description matches AutoReceiptDescription;
// deleting the sale removes that receipt again.
type Receipt struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReceiptNo   string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"receipt_no"`
	CustomerID  *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id"`
	Customer    *Party          `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Description string          `gorm:"type:text;index" json:"description"`
	Auto        bool            `gorm:"default:false" json:"auto"` // generated by a cash sale, not entered by a user
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Payment records money paid to a supplier. Cash purchases do NOT
// auto-generate one (observed behavior of the system being replaced).
type Payment struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PaymentNo   string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"payment_no"`
	SupplierID  *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id"`
	Supplier    *Party          `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AutoReceiptDescription builds the deterministic description key that
// links a cash sale to its auto-generated receipt.
func AutoReceiptDescription(invoiceNo string) string {
	return "Auto-settlement - sales invoice " + invoiceNo
}
