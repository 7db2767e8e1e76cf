package settings

import (
	"context"
	"strings"

	"invoice-automation/backend/internal/billing"
)

// ProfileStore reads and writes the company profile
type ProfileStore interface {
	GetCompanyProfile(ctx context.Context) (*billing.CompanyProfile, error)
	SaveCompanyProfile(ctx context.Context, profile *billing.CompanyProfile) error
}

type Service struct {
	store ProfileStore
}

func NewService(store ProfileStore) *Service {
	return &Service{store: store}
}

func (s *Service) GetCompanyProfile(ctx context.Context) (*CompanyProfile, error) {
	profile, err := s.store.GetCompanyProfile(ctx)
	if err != nil {
		return nil, err
	}
	return fromBilling(profile), nil
}

// UpdateCompanyProfile saves the profile; an empty currency falls back to USD
func (s *Service) UpdateCompanyProfile(ctx context.Context, payload *CompanyProfile) (*CompanyProfile, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Currency = strings.ToUpper(strings.TrimSpace(payload.Currency))
	if payload.Currency == "" {
		payload.Currency = billing.DefaultCompanyProfile().Currency
	}

	if err := s.store.SaveCompanyProfile(ctx, payload.toBilling()); err != nil {
		return nil, err
	}
	return payload, nil
}
