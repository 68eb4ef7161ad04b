package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StocktakeStatus constants
const (
	StocktakeOpen    = "OPEN"
	StocktakeApplied = "APPLIED"
)

// StocktakeSession groups counted quantities for a physical count.
// Applying a session overrides both stock figures of every counted item
// with the counted quantity; this is the only mutation path into item
// stock besides the ledger engine.
type StocktakeSession struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionNo string           `gorm:"type:varchar(30);uniqueIndex;not null" json:"session_no"`
	Status    string           `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"` // OPEN, APPLIED
	Note      string           `gorm:"type:text" json:"note"`
	Entries   []StocktakeEntry `gorm:"foreignKey:SessionID" json:"entries"`
	AppliedAt *time.Time       `json:"applied_at"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// StocktakeEntry holds one item's counted quantity next to the system
// quantity captured when the entry was recorded.
type StocktakeEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"session_id"`
	ItemID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Item        Item            `gorm:"foreignKey:ItemID" json:"-"`
	SystemQty   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"system_qty"`
	CountedQty  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"counted_qty"`
}
