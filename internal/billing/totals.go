package billing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Totals holds the money values printed on a billing document. All values
// are rounded to cents, and Subtotal is the sum of the rounded Amounts so the
// printed rows always add up.
type Totals struct {
	Amounts  []decimal.Decimal
	Subtotal decimal.Decimal
	TaxRate  float64
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals calculates row amounts, subtotal, tax and total
func ComputeTotals(items []LineItem, taxRatePercent float64) Totals {
	t := Totals{
		Amounts:  make([]decimal.Decimal, len(items)),
		Subtotal: decimal.Zero,
		TaxRate:  SanitizeNumber(taxRatePercent),
	}

	for i, item := range items {
		amount := decimal.NewFromFloat(SanitizeNumber(item.Quantity)).
			Mul(decimal.NewFromFloat(SanitizeNumber(item.UnitPrice))).
			Round(2)
		t.Amounts[i] = amount
		t.Subtotal = t.Subtotal.Add(amount)
	}

	t.Tax = t.Subtotal.Mul(decimal.NewFromFloat(t.TaxRate)).Div(decimal.NewFromInt(100)).Round(2)
	t.Total = t.Subtotal.Add(t.Tax)
	return t
}

// SanitizeNumber coerces negative, NaN and infinite values to zero.
func SanitizeNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// FormatMoney renders an amount as "$1234.50"
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// FormatMoneyFloat is FormatMoney for plain float amounts
func FormatMoneyFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return FormatMoney(decimal.NewFromFloat(v))
}

// FormatQuantity prints a quantity without trailing zeros
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(SanitizeNumber(q), 'f', -1, 64)
}

// FormatTaxLabel returns the label of the tax line, e.g. "TAX (7.5%)"
func FormatTaxLabel(rate float64) string {
	return fmt.Sprintf("TAX (%s%%)", strconv.FormatFloat(SanitizeNumber(rate), 'f', -1, 64))
}

// FormatDate formats a document date the way it is printed (M/D/YYYY)
func FormatDate(t time.Time) string {
	return t.Format("1/2/2006")
}

// ReferenceCode builds the printed reference, e.g. INV-2024-CD34
func ReferenceCode(kind DocumentKind, id string, date time.Time) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMissingDocumentID
	}

	runes := []rune(id)
	if len(runes) > 4 {
		runes = runes[len(runes)-4:]
	}
	return fmt.Sprintf("%s-%04d-%s", kind.RefPrefix(), date.Year(), strings.ToUpper(string(runes))), nil
}

// ResolveHeaderImage picks the header image by precedence: per-call image,
// the company header banner (company_header mode only), the document logo,
// then the company logo.
func ResolveHeaderImage(doc *Document, company *CompanyProfile, opts *RenderOptions) ImagePayload {
	if opts != nil && !opts.HeaderImage.IsZero() {
		return opts.HeaderImage
	}
	if opts != nil && opts.HeaderMode == HeaderCompanyHeader && company != nil && !company.HeaderImage.IsZero() {
		return company.HeaderImage
	}
	if doc != nil && !doc.Logo.IsZero() {
		return doc.Logo
	}
	if company != nil && !company.Logo.IsZero() {
		return company.Logo
	}
	return nil
}

// IsBannerHeader reports whether the header image should use the wide banner box
func IsBannerHeader(opts *RenderOptions) bool {
	if opts == nil {
		return false
	}
	return opts.HeaderMode == HeaderCompanyHeader || opts.HeaderMode == HeaderCustomImage
}

// ResolveTitle returns the custom header title if set, else the kind title
func ResolveTitle(kind DocumentKind, opts *RenderOptions) string {
	if opts != nil {
		if title := strings.TrimSpace(opts.HeaderTitle); title != "" {
			return title
		}
	}
	return kind.Title()
}
