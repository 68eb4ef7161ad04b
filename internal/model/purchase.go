package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseStatus constants. Only CONVERTED carries stock and financial
// effect (a pending purchase is a draft order not yet received).
const (
	PurchaseStatusPending   = "PENDING"
	PurchaseStatusConverted = "CONVERTED"
	PurchaseStatusReturned  = "RETURNED"
	PurchaseStatusDeleted   = "DELETED"
)

// PurchaseInvoice represents a purchase document from a supplier.
// Same revert-then-reapply edit model as SalesInvoice.
type PurchaseInvoice struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo   string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	Status      string          `gorm:"type:varchar(20);not null;index" json:"status"` // PENDING, CONVERTED, RETURNED, DELETED
	PaymentMode string          `gorm:"type:varchar(10);not null" json:"payment_mode"` // CASH, CREDIT
	SupplierID  *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id"`
	Supplier    *Party          `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	ReturnOfID  *uuid.UUID      `gorm:"type:uuid;index" json:"return_of_id"`
	Lines       []PurchaseLine  `gorm:"foreignKey:InvoiceID" json:"lines"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	Note        string          `gorm:"type:text" json:"note"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PurchaseLine is a line item of a purchase invoice. Discount is the
// supplier discount percentage blended into the item's weighted average.
type PurchaseLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ItemID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Item      Item            `gorm:"foreignKey:ItemID" json:"-"`
	ItemCode  string          `gorm:"type:varchar(100)" json:"item_code"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	MinorUnit bool            `gorm:"default:false" json:"minor_unit"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	Discount  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount"` // percent
	LineTotal decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"line_total"`
}
