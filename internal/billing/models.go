package billing

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("billing document not found")
	ErrMissingDocumentID = errors.New("billing document has no id")
	ErrNoRecipients      = errors.New("no recipients found")
	ErrInvalidStatus     = errors.New("status transition not allowed")
	ErrUnsupportedFormat = errors.New("export format not configured")
)

// DocumentKind distinguishes invoices from quotations
type DocumentKind string

const (
	KindInvoice   DocumentKind = "invoice"
	KindQuotation DocumentKind = "quotation"
)

// Title returns the heading printed on the document
func (k DocumentKind) Title() string {
	if k == KindQuotation {
		return "QUOTATION"
	}
	return "INVOICE"
}

// RefPrefix returns the three letter reference prefix
func (k DocumentKind) RefPrefix() string {
	if k == KindQuotation {
		return "QUO"
	}
	return "INV"
}

// Status represents the lifecycle state of an invoice or quotation
type Status string

const (
	StatusDraft    Status = "Draft"
	StatusSent     Status = "Sent"
	StatusAccepted Status = "Accepted"
	StatusDeclined Status = "Declined"
	StatusPaid     Status = "Paid"
	StatusOverdue  Status = "Overdue"
)

// ImagePayload holds either raw image bytes or a data URI / base64 string.
// An empty payload means no image.
type ImagePayload []byte

func (p ImagePayload) IsZero() bool {
	return len(p) == 0
}

// CustomerRef is either a CustomerName or a CustomerRecord.
type CustomerRef interface {
	DisplayName() string
	isCustomerRef()
}

// CustomerName is a customer known only by its display name
type CustomerName string

func (n CustomerName) DisplayName() string { return string(n) }
func (CustomerName) isCustomerRef()        {}

// CustomerRecord is a fully populated customer
type CustomerRecord struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

func (r CustomerRecord) DisplayName() string { return r.Name }
func (CustomerRecord) isCustomerRef()        {}

// CustomerEmail returns the email of a structured customer, or "".
func CustomerEmail(ref CustomerRef) string {
	if rec, ok := ref.(CustomerRecord); ok {
		return rec.Email
	}
	return ""
}

// LineItem is one billed row
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Document is an invoice or quotation as handed to the renderer
type Document struct {
	ID             string
	Kind           DocumentKind
	Date           time.Time
	Customer       CustomerRef
	CustomerID     string
	Items          []LineItem
	TaxRatePercent float64
	Currency       string
	Logo           ImagePayload
	Status         Status
	DueDate        *time.Time
}

// CompanyProfile is the single installation-wide company record
type CompanyProfile struct {
	Name        string
	Address     string
	Email       string
	Phone       string
	Website     string
	Currency    string
	TaxRate     float64
	Logo        ImagePayload
	HeaderImage ImagePayload
}

// HeaderMode selects how the header band is drawn
type HeaderMode string

const (
	HeaderDefault       HeaderMode = "default"
	HeaderCompanyHeader HeaderMode = "company_header"
	HeaderCustomTitle   HeaderMode = "custom_text"
	HeaderCustomImage   HeaderMode = "custom_image"
)

// RenderOptions are per-request header overrides. A nil *RenderOptions
// renders in HeaderDefault mode.
type RenderOptions struct {
	HeaderMode  HeaderMode
	HeaderTitle string
	HeaderImage ImagePayload
}

// DashboardStats feeds the dashboard report
type DashboardStats struct {
	TotalRevenue float64
	Overdue      float64
	Customers    int
	Insights     string
}
