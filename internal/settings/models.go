package settings

import (
	"invoice-automation/backend/internal/billing"
)

// CompanyProfile is the JSON form of the company record shown on every document
type CompanyProfile struct {
	Name        string  `json:"name" binding:"required"`
	Email       string  `json:"email" binding:"omitempty,email"`
	Phone       string  `json:"phone"`
	Website     string  `json:"website"`
	Address     string  `json:"address"`
	Currency    string  `json:"currency" binding:"omitempty,len=3"`
	TaxRate     float64 `json:"taxRate" binding:"gte=0,lte=100"`
	Logo        string  `json:"logo,omitempty"`
	HeaderImage string  `json:"pdfHeaderImage,omitempty"`
}

func fromBilling(p *billing.CompanyProfile) *CompanyProfile {
	return &CompanyProfile{
		Name:        p.Name,
		Email:       p.Email,
		Phone:       p.Phone,
		Website:     p.Website,
		Address:     p.Address,
		Currency:    p.Currency,
		TaxRate:     p.TaxRate,
		Logo:        string(p.Logo),
		HeaderImage: string(p.HeaderImage),
	}
}

func (p *CompanyProfile) toBilling() *billing.CompanyProfile {
	profile := &billing.CompanyProfile{
		Name:     p.Name,
		Email:    p.Email,
		Phone:    p.Phone,
		Website:  p.Website,
		Address:  p.Address,
		Currency: p.Currency,
		TaxRate:  p.TaxRate,
	}
	if p.Logo != "" {
		profile.Logo = billing.ImagePayload(p.Logo)
	}
	if p.HeaderImage != "" {
		profile.HeaderImage = billing.ImagePayload(p.HeaderImage)
	}
	return profile
}
