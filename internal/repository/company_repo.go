package repository

import (
	"context"

	"shopbooks/internal/model"

	"gorm.io/gorm"
)

type CompanyRepository interface {
	Get(ctx context.Context) (*model.CompanyProfile, error)
	Save(ctx context.Context, profile *model.CompanyProfile) error
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

// Get returns the single profile row, if one has been saved yet.
func (r *companyRepository) Get(ctx context.Context) (*model.CompanyProfile, error) {
	var profile model.CompanyProfile
	if err := GetDB(ctx, r.db).Order("created_at asc").First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *companyRepository) Save(ctx context.Context, profile *model.CompanyProfile) error {
	return GetDB(ctx, r.db).Save(profile).Error
}
