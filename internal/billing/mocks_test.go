package billing

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"invoice-automation/backend/internal/delivery"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetInvoice(ctx context.Context, id string) (*Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Document), args.Error(1)
}

func (m *MockRepository) GetQuotation(ctx context.Context, id string) (*Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Document), args.Error(1)
}

func (m *MockRepository) UpdateQuotationStatus(ctx context.Context, id string, from, to Status) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockRepository) CreateInvoiceFromQuotation(ctx context.Context, quotation *Document, dueDate time.Time) (*Document, error) {
	args := m.Called(ctx, quotation, dueDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Document), args.Error(1)
}

func (m *MockRepository) GetCompanyProfile(ctx context.Context) (*CompanyProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CompanyProfile), args.Error(1)
}

func (m *MockRepository) SaveCompanyProfile(ctx context.Context, profile *CompanyProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DashboardStats), args.Error(1)
}

// MockRenderer is a mock implementation of the DocumentRenderer interface
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) RenderBillingDocument(doc *Document, company *CompanyProfile, opts *RenderOptions) ([]byte, error) {
	args := m.Called(doc, company, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRenderer) RenderDashboardReport(stats DashboardStats) ([]byte, error) {
	args := m.Called(stats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockSpreadsheet is a mock implementation of the SpreadsheetExporter interface
type MockSpreadsheet struct {
	mock.Mock
}

func (m *MockSpreadsheet) ExportBillingDocument(doc *Document, company *CompanyProfile) ([]byte, error) {
	args := m.Called(doc, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockMailer is a mock implementation of the Mailer interface
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendEmail(ctx context.Context, email delivery.EmailDelivery) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockInsights is a mock implementation of the InsightsProvider interface
type MockInsights struct {
	mock.Mock
}

func (m *MockInsights) Insights(ctx context.Context, stats DashboardStats) (string, error) {
	args := m.Called(ctx, stats)
	return args.String(0), args.Error(1)
}

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) InvoicePDF(ctx context.Context, id string) (*RenderedFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RenderedFile), args.Error(1)
}

func (m *MockService) QuotationPDF(ctx context.Context, id string, opts *RenderOptions) (*RenderedFile, error) {
	args := m.Called(ctx, id, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RenderedFile), args.Error(1)
}

func (m *MockService) InvoiceSpreadsheet(ctx context.Context, id string) (*RenderedFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RenderedFile), args.Error(1)
}

func (m *MockService) InvoiceCSV(ctx context.Context, id string) (*RenderedFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RenderedFile), args.Error(1)
}

func (m *MockService) SendInvoice(ctx context.Context, id string, recipients []string) error {
	args := m.Called(ctx, id, recipients)
	return args.Error(0)
}

func (m *MockService) SendQuotation(ctx context.Context, id string, recipients []string) error {
	args := m.Called(ctx, id, recipients)
	return args.Error(0)
}

func (m *MockService) RespondToQuotation(ctx context.Context, id string, accepted bool) (*Document, error) {
	args := m.Called(ctx, id, accepted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Document), args.Error(1)
}

func (m *MockService) DashboardReport(ctx context.Context) (*RenderedFile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RenderedFile), args.Error(1)
}

func (m *MockService) EmailDashboardReport(ctx context.Context, recipients []string) error {
	args := m.Called(ctx, recipients)
	return args.Error(0)
}
