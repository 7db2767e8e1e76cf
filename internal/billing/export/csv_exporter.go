package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"invoice-automation/backend/internal/billing"
)

// CSVOptions configures CSV export behavior
type CSVOptions struct {
	Delimiter     rune `json:"delimiter"`
	UseCRLF       bool `json:"use_crlf"`
	IncludeHeader bool `json:"include_header"`
	IncludeTotals bool `json:"include_totals"`
}

// DefaultCSVOptions returns default CSV export options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:     ',',
		IncludeHeader: true,
		IncludeTotals: true,
	}
}

// CSVExporter writes a billing document's line items as CSV
type CSVExporter struct {
	options CSVOptions
	now     func() time.Time
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(options CSVOptions) *CSVExporter {
	if options.Delimiter == 0 {
		options.Delimiter = ','
	}
	return &CSVExporter{options: options, now: time.Now}
}

// ExportBillingDocument returns one row per line item, optionally followed by
// the subtotal, tax and total rows. Money columns are plain decimals.
func (e *CSVExporter) ExportBillingDocument(doc *billing.Document, _ *billing.CompanyProfile) ([]byte, error) {
	if doc == nil {
		return nil, billing.ErrMissingDocumentID
	}
	date := doc.Date
	if date.IsZero() {
		date = e.now()
	}
	ref, err := billing.ReferenceCode(doc.Kind, doc.ID, date)
	if err != nil {
		return nil, err
	}
	totals := billing.ComputeTotals(doc.Items, doc.TaxRatePercent)

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.Comma = e.options.Delimiter
	writer.UseCRLF = e.options.UseCRLF

	var records [][]string
	if e.options.IncludeHeader {
		records = append(records, []string{"Reference", "Description", "Quantity", "Unit Price", "Amount"})
	}
	for i, item := range doc.Items {
		desc := item.Description
		if desc == "" {
			desc = "No description"
		}
		records = append(records, []string{
			ref,
			desc,
			formatCSVNumber(billing.SanitizeNumber(item.Quantity)),
			formatCSVNumber(billing.SanitizeNumber(item.UnitPrice)),
			totals.Amounts[i].StringFixed(2),
		})
	}
	if e.options.IncludeTotals {
		records = append(records,
			[]string{ref, "Subtotal", "", "", totals.Subtotal.StringFixed(2)},
			[]string{ref, billing.FormatTaxLabel(totals.TaxRate), "", "", totals.Tax.StringFixed(2)},
			[]string{ref, "Total", "", "", totals.Total.StringFixed(2)},
		)
	}

	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatCSVNumber(v float64) string {
	return fmt.Sprintf("%g", v)
}
