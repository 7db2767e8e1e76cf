package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"invoice-automation/backend/internal/delivery"
	"invoice-automation/backend/pkg/security"
)

// Content types of rendered files
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// DocumentRenderer draws billing documents and the dashboard report as PDF
type DocumentRenderer interface {
	RenderBillingDocument(doc *Document, company *CompanyProfile, opts *RenderOptions) ([]byte, error)
	RenderDashboardReport(stats DashboardStats) ([]byte, error)
}

// SpreadsheetExporter writes a billing document as a workbook
type SpreadsheetExporter interface {
	ExportBillingDocument(doc *Document, company *CompanyProfile) ([]byte, error)
}

// Mailer delivers an email
type Mailer interface {
	SendEmail(ctx context.Context, email delivery.EmailDelivery) error
}

// Service exposes billing document generation and delivery
type Service interface {
	InvoicePDF(ctx context.Context, id string) (*RenderedFile, error)
	QuotationPDF(ctx context.Context, id string, opts *RenderOptions) (*RenderedFile, error)
	InvoiceSpreadsheet(ctx context.Context, id string) (*RenderedFile, error)
	InvoiceCSV(ctx context.Context, id string) (*RenderedFile, error)

	SendInvoice(ctx context.Context, id string, recipients []string) error
	SendQuotation(ctx context.Context, id string, recipients []string) error
	RespondToQuotation(ctx context.Context, id string, accepted bool) (*Document, error)

	DashboardReport(ctx context.Context) (*RenderedFile, error)
	EmailDashboardReport(ctx context.Context, recipients []string) error
}

// RenderedFile is a generated download
type RenderedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ServiceConfig holds service settings
type ServiceConfig struct {
	AppURL         string
	InvoiceDueDays int
	Links          *security.LinkSigner
}

// ServiceDeps groups the collaborators of the billing service
type ServiceDeps struct {
	Repo        Repository
	Renderer    DocumentRenderer
	Spreadsheet SpreadsheetExporter
	CSV         SpreadsheetExporter
	Mailer      Mailer
	Assets      AssetResolver
	Insights    InsightsProvider
}

type billingService struct {
	repo        Repository
	renderer    DocumentRenderer
	spreadsheet SpreadsheetExporter
	csv         SpreadsheetExporter
	mailer      Mailer
	assets      AssetResolver
	insights    InsightsProvider
	config      ServiceConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates the billing service
func NewService(deps ServiceDeps, config ServiceConfig, logger *zap.Logger) Service {
	if config.InvoiceDueDays <= 0 {
		config.InvoiceDueDays = 7
	}
	config.AppURL = strings.TrimRight(config.AppURL, "/")
	if config.AppURL == "" {
		config.AppURL = "http://localhost:5000"
	}
	if deps.Assets == nil {
		deps.Assets = passthroughResolver{}
	}
	return &billingService{
		repo:        deps.Repo,
		renderer:    deps.Renderer,
		spreadsheet: deps.Spreadsheet,
		csv:         deps.CSV,
		mailer:      deps.Mailer,
		assets:      deps.Assets,
		insights:    deps.Insights,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *billingService) InvoicePDF(ctx context.Context, id string) (*RenderedFile, error) {
	doc, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderPDF(ctx, doc, nil)
}

func (s *billingService) QuotationPDF(ctx context.Context, id string, opts *RenderOptions) (*RenderedFile, error) {
	doc, err := s.repo.GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderPDF(ctx, doc, opts)
}

func (s *billingService) InvoiceSpreadsheet(ctx context.Context, id string) (*RenderedFile, error) {
	return s.exportInvoice(ctx, id, s.spreadsheet, "xlsx", ContentTypeXLSX)
}

func (s *billingService) InvoiceCSV(ctx context.Context, id string) (*RenderedFile, error) {
	return s.exportInvoice(ctx, id, s.csv, "csv", ContentTypeCSV)
}

func (s *billingService) exportInvoice(ctx context.Context, id string, exporter SpreadsheetExporter, ext, contentType string) (*RenderedFile, error) {
	if exporter == nil {
		return nil, fmt.Errorf("%w: %s export", ErrUnsupportedFormat, ext)
	}
	doc, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	company, err := s.repo.GetCompanyProfile(ctx)
	if err != nil {
		return nil, err
	}

	data, err := exporter.ExportBillingDocument(doc, company)
	if err != nil {
		return nil, fmt.Errorf("failed to export %s %s: %w", doc.Kind, id, err)
	}
	return &RenderedFile{
		Name:        fmt.Sprintf("%s-%s.%s", doc.Kind, id, ext),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// renderPDF loads the company profile fresh and renders doc
func (s *billingService) renderPDF(ctx context.Context, doc *Document, opts *RenderOptions) (*RenderedFile, error) {
	company, err := s.repo.GetCompanyProfile(ctx)
	if err != nil {
		return nil, err
	}
	company, doc, opts = s.resolveAssets(ctx, company, doc, opts)

	start := s.now()
	data, err := s.renderer.RenderBillingDocument(doc, company, opts)
	if err != nil {
		s.logger.Error("Failed to render document",
			zap.String("kind", string(doc.Kind)),
			zap.String("id", doc.ID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to render %s %s: %w", doc.Kind, doc.ID, err)
	}

	s.logger.Debug("Rendered document",
		zap.String("kind", string(doc.Kind)),
		zap.String("id", doc.ID),
		zap.Int("bytes", len(data)),
		zap.Duration("took", s.now().Sub(start)))

	return &RenderedFile{
		Name:        fmt.Sprintf("%s-%s.pdf", doc.Kind, doc.ID),
		ContentType: ContentTypePDF,
		Data:        data,
	}, nil
}

// resolveAssets swaps stored image references for image bytes on copies of
// the inputs. Only the stored profile and document images may point at
// object storage; a request header image must carry its own bytes.
func (s *billingService) resolveAssets(ctx context.Context, company *CompanyProfile, doc *Document, opts *RenderOptions) (*CompanyProfile, *Document, *RenderOptions) {
	c := *company
	c.Logo = s.assets.Resolve(ctx, c.Logo)
	c.HeaderImage = s.assets.Resolve(ctx, c.HeaderImage)

	d := *doc
	d.Logo = s.assets.Resolve(ctx, d.Logo)

	if opts == nil {
		return &c, &d, nil
	}
	o := *opts
	if isStoredReference(o.HeaderImage) {
		s.logger.Warn("Ignoring object storage reference in request header image",
			zap.String("id", doc.ID))
		o.HeaderImage = nil
	}
	return &c, &d, &o
}

func (s *billingService) SendInvoice(ctx context.Context, id string, recipients []string) error {
	doc, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	return s.emailInvoice(ctx, doc, recipients, "Invoice from Invoice System")
}

func (s *billingService) emailInvoice(ctx context.Context, doc *Document, recipients []string, subject string) error {
	to := recipientsFor(doc, recipients)
	if len(to) == 0 {
		return ErrNoRecipients
	}

	file, err := s.renderPDF(ctx, doc, nil)
	if err != nil {
		return err
	}

	ref, err := ReferenceCode(doc.Kind, doc.ID, doc.Date)
	if err != nil {
		return err
	}
	data := invoiceEmailData{
		CustomerName: greetingName(doc.Customer),
		Reference:    ref,
		Total:        FormatMoney(ComputeTotals(doc.Items, doc.TaxRatePercent).Total),
	}
	if doc.DueDate != nil {
		data.DueDate = FormatDate(*doc.DueDate)
	}
	html, err := renderTemplate(invoiceEmailTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render invoice email: %w", err)
	}

	return s.mailer.SendEmail(ctx, delivery.EmailDelivery{
		To:          to,
		Subject:     subject,
		HTMLBody:    html,
		Attachments: []delivery.Attachment{{Name: file.Name, Data: file.Data, ContentType: file.ContentType}},
	})
}

func (s *billingService) SendQuotation(ctx context.Context, id string, recipients []string) error {
	doc, err := s.repo.GetQuotation(ctx, id)
	if err != nil {
		return err
	}

	to := recipientsFor(doc, recipients)
	if len(to) == 0 {
		return ErrNoRecipients
	}

	file, err := s.renderPDF(ctx, doc, nil)
	if err != nil {
		return err
	}

	html, err := renderTemplate(quotationEmailTemplate, quotationEmailData{
		CustomerName: greetingName(doc.Customer),
		AcceptURL:    responseURL(s.config.AppURL, id, ActionAccept, s.config.Links),
		DeclineURL:   responseURL(s.config.AppURL, id, ActionDecline, s.config.Links),
	})
	if err != nil {
		return fmt.Errorf("failed to render quotation email: %w", err)
	}

	if err := s.mailer.SendEmail(ctx, delivery.EmailDelivery{
		To:          to,
		Subject:     "Quotation from Invoice System",
		HTMLBody:    html,
		Attachments: []delivery.Attachment{{Name: file.Name, Data: file.Data, ContentType: file.ContentType}},
	}); err != nil {
		return err
	}

	if markSentOnDelivery(doc.Status) {
		err := s.repo.UpdateQuotationStatus(ctx, id, doc.Status, StatusSent)
		if errors.Is(err, ErrInvalidStatus) {
			s.logger.Info("Quotation status changed while sending, keeping it",
				zap.String("id", id),
				zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}

func (s *billingService) RespondToQuotation(ctx context.Context, id string, accepted bool) (*Document, error) {
	doc, err := s.repo.GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}

	target := StatusDeclined
	if accepted {
		target = StatusAccepted
	}

	if doc.Status == target {
		return doc, nil
	}
	if err := checkQuotationTransition(id, doc.Status, target); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateQuotationStatus(ctx, id, doc.Status, target); err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			return s.answeredElsewhere(ctx, id, target, err)
		}
		return nil, err
	}
	doc.Status = target

	s.logger.Info("Quotation answered",
		zap.String("id", id),
		zap.String("status", string(target)))

	if accepted {
		s.invoiceAcceptedQuotation(ctx, doc)
	}
	return doc, nil
}

// answeredElsewhere handles losing a race to another response. The same
// answer is reported as done without creating a second invoice.
func (s *billingService) answeredElsewhere(ctx context.Context, id string, target Status, conflict error) (*Document, error) {
	current, err := s.repo.GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == target {
		s.logger.Info("Quotation already answered",
			zap.String("id", id),
			zap.String("status", string(target)))
		return current, nil
	}
	return nil, conflict
}

// invoiceAcceptedQuotation creates the invoice for an accepted quotation and
// mails it to the customer. Failures are logged; the acceptance stands.
func (s *billingService) invoiceAcceptedQuotation(ctx context.Context, quotation *Document) {
	due := s.now().UTC().AddDate(0, 0, s.config.InvoiceDueDays)
	invoice, err := s.repo.CreateInvoiceFromQuotation(ctx, quotation, due)
	if err != nil {
		s.logger.Error("Failed to create invoice from quotation",
			zap.String("quotation_id", quotation.ID),
			zap.Error(err))
		return
	}
	if invoice.Date.IsZero() {
		invoice.Date = s.now()
	}

	err = s.emailInvoice(ctx, invoice, nil, "Invoice for your accepted quotation")
	switch {
	case errors.Is(err, ErrNoRecipients):
		s.logger.Warn("Customer has no email, invoice not sent",
			zap.String("invoice_id", invoice.ID))
	case err != nil:
		s.logger.Error("Failed to email invoice",
			zap.String("invoice_id", invoice.ID),
			zap.Error(err))
	}
}

func (s *billingService) DashboardReport(ctx context.Context) (*RenderedFile, error) {
	stats, err := s.dashboardStats(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.renderer.RenderDashboardReport(*stats)
	if err != nil {
		return nil, fmt.Errorf("failed to render dashboard report: %w", err)
	}
	return &RenderedFile{
		Name:        "dashboard-report.pdf",
		ContentType: ContentTypePDF,
		Data:        data,
	}, nil
}

func (s *billingService) dashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats, err := s.repo.GetDashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	if s.insights == nil {
		return stats, nil
	}

	insights, err := s.insights.Insights(ctx, *stats)
	if err != nil {
		s.logger.Warn("Insights unavailable", zap.Error(err))
		insights = InsightsUnavailable
	}
	stats.Insights = insights
	return stats, nil
}

func (s *billingService) EmailDashboardReport(ctx context.Context, recipients []string) error {
	to := cleanRecipients(recipients)
	if len(to) == 0 {
		return ErrNoRecipients
	}

	stats, err := s.dashboardStats(ctx)
	if err != nil {
		return err
	}
	data, err := s.renderer.RenderDashboardReport(*stats)
	if err != nil {
		return fmt.Errorf("failed to render dashboard report: %w", err)
	}

	html, err := renderTemplate(reportEmailTemplate, reportEmailData{
		Revenue:   FormatMoneyFloat(stats.TotalRevenue),
		Overdue:   FormatMoneyFloat(stats.Overdue),
		Customers: stats.Customers,
	})
	if err != nil {
		return fmt.Errorf("failed to render report email: %w", err)
	}

	name := fmt.Sprintf("dashboard-report-%s.pdf", s.now().UTC().Format("2006-01-02"))
	return s.mailer.SendEmail(ctx, delivery.EmailDelivery{
		To:          to,
		Subject:     "Weekly summary",
		HTMLBody:    html,
		Attachments: []delivery.Attachment{{Name: name, Data: data, ContentType: ContentTypePDF}},
	})
}

// recipientsFor uses the explicit list when given, otherwise the customer email
func recipientsFor(doc *Document, recipients []string) []string {
	if to := cleanRecipients(recipients); len(to) > 0 {
		return to
	}
	return cleanRecipients([]string{CustomerEmail(doc.Customer)})
}

func cleanRecipients(recipients []string) []string {
	var out []string
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func greetingName(ref CustomerRef) string {
	if ref != nil {
		if name := strings.TrimSpace(ref.DisplayName()); name != "" {
			return name
		}
	}
	return "valued customer"
}
