package model

import (
	"time"

	"github.com/google/uuid"
)

// CompanyProfile holds the single-row shop identity printed on documents.
type CompanyProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Address   string    `gorm:"type:text" json:"address"`
	Currency  string    `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
