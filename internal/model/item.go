package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item represents a stock item sold in a major/minor unit pair
// (e.g. carton vs piece) linked by an integer conversion factor.
// ActualStock and SystemStock are kept equal outside of stocktaking;
// both are mutated only by the ledger engine or a stocktake override.
type Item struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code             string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Name             string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	MajorUnit        string          `gorm:"type:varchar(50);not null" json:"major_unit"`
	MinorUnit        string          `gorm:"type:varchar(50)" json:"minor_unit"`
	ConversionFactor int64           `gorm:"type:int;default:1;not null" json:"conversion_factor"` // minor units per major unit
	ActualStock      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"actual_stock"`
	SystemStock      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"system_stock"`
	CostMajor        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"cost_major"`    // weighted-average unit cost per major unit
	AvgDiscount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"avg_discount"`  // weighted-average supplier discount %
	PriceMajor       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"price_major"`
	PriceMinor       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"price_minor"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

// MovementDirection constants
const (
	MovementIn     = "IN"
	MovementOut    = "OUT"
	MovementAdjust = "ADJUST"
)

// StockMovement records a single stock change for traceability.
// It is informational only: the item's stock columns remain the
// authoritative quantity, movements are never replayed.
type StockMovement struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ItemID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Direction     string          `gorm:"type:varchar(10);not null" json:"direction"` // IN, OUT, ADJUST
	QuantityMajor decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity_major"` // normalized to major unit
	StockAfter    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"stock_after"`
	DocumentNo    string          `gorm:"type:varchar(30);index" json:"document_no"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}
