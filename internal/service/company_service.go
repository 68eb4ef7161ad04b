package service

import (
	"context"
	"errors"
	"fmt"

	"shopbooks/internal/model"
	"shopbooks/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SaveCompanyRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Email    string `json:"email" binding:"omitempty,email"`
	Address  string `json:"address"`
	Currency string `json:"currency"`
}

type CompanyService interface {
	GetProfile(ctx context.Context) (*model.CompanyProfile, error)
	SaveProfile(ctx context.Context, userID string, req SaveCompanyRequest) (*model.CompanyProfile, error)
}

type companyService struct {
	repo      repository.CompanyRepository
	auditRepo repository.AuditRepository
	log       *logrus.Logger
}

func NewCompanyService(repo repository.CompanyRepository, auditRepo repository.AuditRepository, log *logrus.Logger) CompanyService {
	return &companyService{repo: repo, auditRepo: auditRepo, log: log}
}

func (s *companyService) GetProfile(ctx context.Context) (*model.CompanyProfile, error) {
	profile, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.CompanyProfile{Currency: "USD"}, nil
		}
		return nil, fmt.Errorf("failed to load company profile: %w", err)
	}
	return profile, nil
}

// SaveProfile upserts the single profile row.
func (s *companyService) SaveProfile(ctx context.Context, userID string, req SaveCompanyRequest) (*model.CompanyProfile, error) {
	profile, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load company profile: %w", err)
		}
		profile = &model.CompanyProfile{}
	}

	profile.Name = req.Name
	profile.Phone = req.Phone
	profile.Email = req.Email
	profile.Address = req.Address
	if req.Currency != "" {
		profile.Currency = req.Currency
	}

	if err := s.repo.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save company profile: %w", err)
	}

	var uid *uuid.UUID
	if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
		uid = &parsed
	}
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     model.ActionUpdateCompany,
		EntityID:   profile.ID.String(),
		EntityName: profile.Name,
		Details:    "{}",
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		s.log.WithError(err).Warn("failed to write audit log")
	}
	return profile, nil
}
