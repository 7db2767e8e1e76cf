package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"invoice-automation/backend/internal/billing"
)

// Page geometry in points (US Letter portrait)
const (
	pageWidth      = 612.0
	pageHeight     = 792.0
	marginLeft     = 50.0
	marginRight    = 550.0
	marginTop      = 50.0
	pageBottom     = 742.0
	headerRuleY    = 125.0
	infoY          = 145.0
	tableHeaderY   = 280.0
	tableFirstRowY = 310.0
	rowBreakY      = 650.0
	minRowHeight   = 30.0
	descLineHeight = 12.0
	summaryMinY    = 500.0
	summaryHeight  = 70.0
	footerY        = 750.0
)

// Table columns
const (
	colDescX = 50.0
	colDescW = 240.0
	colQtyX  = 300.0
	colQtyW  = 40.0
	colUnitX = 350.0
	colUnitW = 80.0
	colAmtX  = 450.0
	colAmtW  = 100.0
)

// PDFOptions configures PDF rendering
type PDFOptions struct {
	Compress          bool    `json:"compress"`
	RepeatTableHeader bool    `json:"repeat_table_header"`
	FontFamily        string  `json:"font_family"`
	Palette           Palette `json:"palette"`
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		Compress:   true,
		FontFamily: "Helvetica",
		Palette:    DefaultPalette(),
	}
}

// PDFRenderer renders invoices, quotations and the dashboard report.
// It holds no per-call state and is safe for concurrent use.
type PDFRenderer struct {
	options PDFOptions
	logger  *zap.Logger
	now     func() time.Time
}

// NewPDFRenderer creates a new PDF renderer
func NewPDFRenderer(options PDFOptions, logger *zap.Logger) *PDFRenderer {
	if options.FontFamily == "" {
		options.FontFamily = "Helvetica"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFRenderer{
		options: options,
		logger:  logger,
		now:     time.Now,
	}
}

// page is the drawing surface and layout cursor of a single render call
type page struct {
	pdf     *gofpdf.Fpdf
	tr      func(string) string
	options PDFOptions
	logger  *zap.Logger
	y       float64
}

func (r *PDFRenderer) newPage(created time.Time) *page {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(marginLeft, marginTop, pageWidth-marginRight)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(r.options.Compress)
	// fixed dates and sorted catalog make identical inputs yield identical bytes
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.AddPage()

	return &page{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		options: r.options,
		logger:  r.logger,
	}
}

// RenderBillingDocument lays out an invoice or quotation and returns the PDF bytes
func (r *PDFRenderer) RenderBillingDocument(doc *billing.Document, company *billing.CompanyProfile, opts *billing.RenderOptions) ([]byte, error) {
	if doc == nil {
		return nil, billing.ErrMissingDocumentID
	}
	if company == nil {
		company = &billing.CompanyProfile{}
	}

	date := doc.Date
	if date.IsZero() {
		date = r.now()
	}
	ref, err := billing.ReferenceCode(doc.Kind, doc.ID, date)
	if err != nil {
		return nil, err
	}

	totals := billing.ComputeTotals(doc.Items, doc.TaxRatePercent)

	p := r.newPage(date)
	p.drawHeader(doc, company, opts, ref, date)
	p.drawParties(doc.Customer, company)
	p.drawItems(doc.Items, totals)
	p.drawSummary(totals, doc.Currency)
	p.drawFooter(company.Name)

	return p.output()
}

// drawHeader draws the header image, title, reference, date and the closing rule
func (p *page) drawHeader(doc *billing.Document, company *billing.CompanyProfile, opts *billing.RenderOptions, ref string, date time.Time) {
	if payload := billing.ResolveHeaderImage(doc, company, opts); !payload.IsZero() {
		boxW, boxH := 60.0, 60.0
		if billing.IsBannerHeader(opts) {
			boxW = 180
		}
		p.image("header", payload, marginLeft, 45, boxW, boxH)
	}

	pal := p.options.Palette
	p.text(110, 50, marginRight-110, 24, "", pal.Heading, "R", billing.ResolveTitle(doc.Kind, opts))
	p.text(110, 80, marginRight-110, 10, "", pal.Muted, "R", "REF: "+ref)
	p.text(110, 95, marginRight-110, 10, "", pal.Muted, "R", "Date: "+billing.FormatDate(date))

	p.rule(headerRuleY, 1, pal.Rule)
}

// drawParties draws the customer and company columns
func (p *page) drawParties(customer billing.CustomerRef, company *billing.CompanyProfile) {
	pal := p.options.Palette

	name := ""
	if customer != nil {
		name = strings.TrimSpace(customer.DisplayName())
	}
	if name == "" {
		name = "Unspecified Customer"
	}

	p.text(50, infoY, 250, 8, "B", pal.Label, "L", "TO CUSTOMER")
	p.text(50, infoY+15, 250, 12, "B", pal.Primary, "L", name)
	if rec, ok := customer.(billing.CustomerRecord); ok {
		p.text(50, infoY+32, 250, 10, "", pal.Muted, "L", rec.Email)
		p.text(50, infoY+47, 250, 10, "", pal.Muted, "L", rec.Phone)
		p.text(50, infoY+62, 250, 10, "", pal.Muted, "L", rec.Address)
	}

	companyName := strings.TrimSpace(company.Name)
	if companyName == "" {
		companyName = "Your Company Name"
	}
	p.text(320, infoY, 230, 8, "B", pal.Label, "L", "FROM COMPANY")
	p.text(320, infoY+15, 230, 12, "B", pal.Primary, "L", companyName)
	p.text(320, infoY+32, 230, 10, "", pal.Muted, "L", company.Address)
	p.text(320, infoY+47, 230, 10, "", pal.Muted, "L", company.Email)
	p.text(320, infoY+62, 230, 10, "", pal.Muted, "L", company.Phone)
}

// drawTableHeader draws the column captions and the heavy rule below them
func (p *page) drawTableHeader(y float64) {
	pal := p.options.Palette
	p.text(colDescX, y, colDescW, 8, "B", pal.Label, "L", "DESCRIPTION")
	p.text(colQtyX, y, colQtyW, 8, "B", pal.Label, "C", "QTY")
	p.text(colUnitX, y, colUnitW, 8, "B", pal.Label, "R", "UNIT PRICE")
	p.text(colAmtX, y, colAmtW, 8, "B", pal.Label, "R", "AMOUNT")
	p.rule(y+15, 2, pal.Primary)
}

// drawItems draws one row per item, starting a new page whenever the
// cursor passes the break line.
func (p *page) drawItems(items []billing.LineItem, totals billing.Totals) {
	pal := p.options.Palette

	p.drawTableHeader(tableHeaderY)
	p.y = tableFirstRowY
	rowsOnPage := 0

	for i, item := range items {
		desc := strings.TrimSpace(item.Description)
		if desc == "" {
			desc = "No description"
		}

		p.pdf.SetFont(p.options.FontFamily, "B", 10)
		lines := p.pdf.SplitLines([]byte(p.tr(desc)), colDescW)
		if len(lines) == 0 {
			lines = [][]byte{{}}
		}
		rowHeight := itemRowHeight(len(lines))

		// a tall wrapped row must not run off the page
		if rowsOnPage > 0 && p.y+rowHeight > pageBottom {
			p.breakPage()
			rowsOnPage = 0
		}
		if p.y+rowHeight > pageBottom {
			fit := int((pageBottom - p.y - 18) / descLineHeight)
			if fit < 1 {
				fit = 1
			}
			if fit < len(lines) {
				lines = lines[:fit]
			}
			rowHeight = itemRowHeight(len(lines))
		}

		for n, line := range lines {
			p.rawText(colDescX, p.y+float64(n)*descLineHeight, colDescW, 10, "B", pal.Primary, "L", string(line))
		}
		p.text(colQtyX, p.y, colQtyW, 10, "", pal.Muted, "C", billing.FormatQuantity(item.Quantity))
		p.text(colUnitX, p.y, colUnitW, 10, "", pal.Muted, "R", billing.FormatMoneyFloat(billing.SanitizeNumber(item.UnitPrice)))
		p.text(colAmtX, p.y, colAmtW, 10, "B", pal.Primary, "R", billing.FormatMoney(totals.Amounts[i]))

		p.y += rowHeight
		rowsOnPage++
		p.rule(p.y-10, 1, pal.Rule)

		if p.y > rowBreakY {
			p.breakPage()
			rowsOnPage = 0
		}
	}
}

func itemRowHeight(lines int) float64 {
	h := float64(lines)*descLineHeight + 18
	if h < minRowHeight {
		return minRowHeight
	}
	return h
}

func (p *page) breakPage() {
	p.pdf.AddPage()
	p.y = marginTop
	if p.options.RepeatTableHeader {
		p.drawTableHeader(marginTop)
		p.y = marginTop + 30
	}
}

// drawSummary prints subtotal, tax and the emphasized total
func (p *page) drawSummary(totals billing.Totals, currency string) {
	pal := p.options.Palette

	y := p.y + 20
	if y < summaryMinY {
		y = summaryMinY
	}
	if y+summaryHeight > pageBottom {
		p.pdf.AddPage()
		y = summaryMinY
	}

	p.text(colUnitX, y, colUnitW, 10, "", pal.Muted, "R", "SUBTOTAL")
	p.text(colAmtX, y, colAmtW, 10, "B", pal.Primary, "R", billing.FormatMoney(totals.Subtotal))
	p.text(colUnitX, y+20, colUnitW, 10, "", pal.Muted, "R", billing.FormatTaxLabel(totals.TaxRate))
	p.text(colAmtX, y+20, colAmtW, 10, "B", pal.Primary, "R", billing.FormatMoney(totals.Tax))

	label := "TOTAL"
	if code := strings.ToUpper(strings.TrimSpace(currency)); code != "" && code != "USD" {
		label = fmt.Sprintf("TOTAL (%s)", code)
	}
	p.text(colUnitX-40, y+45, colUnitW+40, 18, "B", pal.Primary, "R", label)
	p.text(440, y+45, 110, 18, "B", pal.Primary, "R", billing.FormatMoney(totals.Total))
	p.y = y + summaryHeight
}

// drawFooter prints the thank-you line on the current (last) page
func (p *page) drawFooter(companyName string) {
	name := strings.TrimSpace(companyName)
	if name == "" {
		name = "us"
	}
	p.text(0, footerY, pageWidth, 8, "I", p.options.Palette.Label, "C", fmt.Sprintf("Thank you for choosing %s.", name))
}

// text draws a single line of UTF-8 text with its top edge at y
func (p *page) text(x, y, w, size float64, style string, c PDFColor, align, s string) {
	if s == "" {
		return
	}
	p.rawText(x, y, w, size, style, c, align, p.tr(s))
}

// rawText draws text that is already in the font encoding
func (p *page) rawText(x, y, w, size float64, style string, c PDFColor, align, s string) {
	p.pdf.SetFont(p.options.FontFamily, style, size)
	p.pdf.SetTextColor(c.R, c.G, c.B)
	p.pdf.SetXY(x, y)
	p.pdf.CellFormat(w, size*1.2, s, "", 0, align, false, 0, "")
}

// rule draws a horizontal line across the content width
func (p *page) rule(y, width float64, c PDFColor) {
	p.pdf.SetDrawColor(c.R, c.G, c.B)
	p.pdf.SetLineWidth(width)
	p.pdf.Line(marginLeft, y, marginRight, y)
}

// image embeds a payload inside the given box. Undecodable payloads are
// logged and skipped.
func (p *page) image(name string, payload billing.ImagePayload, x, y, boxW, boxH float64) {
	img, err := decodeImagePayload(payload)
	if err != nil {
		p.logger.Warn("Skipping undecodable image", zap.String("image", name), zap.Error(err))
		return
	}

	opts := gofpdf.ImageOptions{ImageType: img.imageType}
	p.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.data))
	if err := p.pdf.Error(); err != nil {
		p.logger.Warn("Skipping image rejected by PDF surface", zap.String("image", name), zap.Error(err))
		p.pdf.ClearError()
		return
	}

	w, h := fitBox(img.width, img.height, boxW, boxH)
	p.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

// output finalizes the document into a byte slice
func (p *page) output() ([]byte, error) {
	if err := p.pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
