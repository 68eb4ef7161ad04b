package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus constants. Only COMPLETED carries stock and financial effect.
const (
	SaleStatusPending   = "PENDING"
	SaleStatusCompleted = "COMPLETED"
	SaleStatusReturned  = "RETURNED"
	SaleStatusDeleted   = "DELETED"
)

// PaymentMode constants
const (
	PaymentModeCash   = "CASH"
	PaymentModeCredit = "CREDIT"
)

// SalesInvoice represents a sales document. Edits fully revert the old
// version's effect and reapply the new one; deletes are soft (status
// DELETED, amount zeroed, row retained for number continuity).
type SalesInvoice struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo   string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	Status      string          `gorm:"type:varchar(20);not null;index" json:"status"`       // PENDING, COMPLETED, RETURNED, DELETED
	PaymentMode string          `gorm:"type:varchar(10);not null" json:"payment_mode"`       // CASH, CREDIT
	CustomerID  *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id"`
	Customer    *Party          `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ReturnOfID  *uuid.UUID      `gorm:"type:uuid;index" json:"return_of_id"` // set on RETURNED documents, points at the original invoice
	Lines       []SalesLine     `gorm:"foreignKey:InvoiceID" json:"lines"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	Note        string          `gorm:"type:text" json:"note"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SalesLine is an ordered line item of a sales invoice.
type SalesLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ItemID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Item      Item            `gorm:"foreignKey:ItemID" json:"-"`
	ItemCode  string          `gorm:"type:varchar(100)" json:"item_code"` // hard copy for lookup fallback
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	MinorUnit bool            `gorm:"default:false" json:"minor_unit"` // quantity recorded in the item's minor unit
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"line_total"`
}
