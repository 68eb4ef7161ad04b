package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateItem      = "CREATE_ITEM"
	ActionUpdateItem      = "UPDATE_ITEM"
	ActionDeleteItem      = "DELETE_ITEM"
	ActionCreateParty     = "CREATE_PARTY"
	ActionUpdateParty     = "UPDATE_PARTY"
	ActionDeleteParty     = "DELETE_PARTY"
	ActionSaveSale        = "SAVE_SALE"
	ActionDeleteSale      = "DELETE_SALE"
	ActionReturnSale      = "RETURN_SALE"
	ActionSavePurchase    = "SAVE_PURCHASE"
	ActionDeletePurchase  = "DELETE_PURCHASE"
	ActionReturnPurchase  = "RETURN_PURCHASE"
	ActionCreateReceipt   = "CREATE_RECEIPT"
	ActionDeleteReceipt   = "DELETE_RECEIPT"
	ActionCreatePayment   = "CREATE_PAYMENT"
	ActionDeletePayment   = "DELETE_PAYMENT"
	ActionCreateStocktake = "CREATE_STOCKTAKE"
	ActionApplyStocktake  = "APPLY_STOCKTAKE"
	ActionCreateExpense   = "CREATE_EXPENSE"
	ActionDeleteExpense   = "DELETE_EXPENSE"
	ActionUpdateCompany   = "UPDATE_COMPANY"
	ActionImportBackup    = "IMPORT_BACKUP"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
