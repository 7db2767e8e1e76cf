package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"invoice-automation/backend/internal/billing"
)

// ExcelOptions configures spreadsheet export
type ExcelOptions struct {
	SheetName      string            `json:"sheet_name"`
	CurrencyFormat string            `json:"currency_format"`
	HeaderStyle    *ExcelStyleConfig `json:"header_style,omitempty"`
	TotalStyle     *ExcelStyleConfig `json:"total_style,omitempty"`
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool   `json:"font_bold"`
	FontSize  int    `json:"font_size"`
	FontColor string `json:"font_color"`
	FillColor string `json:"fill_color"`
	Alignment string `json:"alignment"` // left, center, right
}

// DefaultExcelOptions returns default spreadsheet options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		SheetName:      "Items",
		CurrencyFormat: "$#,##0.00",
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  10,
			FontColor: "94A3B8",
			Alignment: "left",
		},
		TotalStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  12,
			FontColor: "0F172A",
		},
	}
}

// ExcelExporter writes a billing document's line items as an XLSX workbook.
// Every call builds its own workbook.
type ExcelExporter struct {
	options ExcelOptions
	now     func() time.Time
}

// NewExcelExporter creates a new spreadsheet exporter
func NewExcelExporter(options ExcelOptions) *ExcelExporter {
	if options.SheetName == "" {
		options.SheetName = "Items"
	}
	return &ExcelExporter{options: options, now: time.Now}
}

// Spreadsheet layout
const (
	xlsxHeaderRow = 5
	xlsxFirstRow  = 6
)

// ExportBillingDocument returns the workbook bytes for doc
func (e *ExcelExporter) ExportBillingDocument(doc *billing.Document, company *billing.CompanyProfile) ([]byte, error) {
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

	file := excelize.NewFile()
	defer file.Close()

	sheet := e.options.SheetName
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	customer := "Unspecified Customer"
	if doc.Customer != nil && doc.Customer.DisplayName() != "" {
		customer = doc.Customer.DisplayName()
	}
	companyName := "Your Company Name"
	if company != nil && company.Name != "" {
		companyName = company.Name
	}

	cells := map[string]interface{}{
		"A1": doc.Kind.Title(),
		"B1": ref,
		"A2": "Date",
		"B2": billing.FormatDate(date),
		"A3": "Customer",
		"B3": customer,
		"C3": "Company",
		"D3": companyName,
	}
	for cell, val := range cells {
		if err := file.SetCellValue(sheet, cell, val); err != nil {
			return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}

	headerStyle, err := e.createStyle(file, e.options.HeaderStyle, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	moneyStyle, err := e.createStyle(file, nil, e.options.CurrencyFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create money style: %w", err)
	}
	totalStyle, err := e.createStyle(file, e.options.TotalStyle, e.options.CurrencyFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create total style: %w", err)
	}

	for i, caption := range []string{"Description", "Quantity", "Unit Price", "Amount"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, xlsxHeaderRow)
		file.SetCellValue(sheet, cell, caption)
		file.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	row := xlsxFirstRow
	for i, item := range doc.Items {
		desc := item.Description
		if desc == "" {
			desc = "No description"
		}
		values := []interface{}{
			desc,
			billing.SanitizeNumber(item.Quantity),
			billing.SanitizeNumber(item.UnitPrice),
			totals.Amounts[i].InexactFloat64(),
		}
		for col, val := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(sheet, cell, val); err != nil {
				return nil, fmt.Errorf("failed to set cell value: %w", err)
			}
			if col >= 2 {
				file.SetCellStyle(sheet, cell, cell, moneyStyle)
			}
		}
		row++
	}

	row++
	summary := []struct {
		label string
		value float64
		style int
	}{
		{"Subtotal", totals.Subtotal.InexactFloat64(), moneyStyle},
		{billing.FormatTaxLabel(totals.TaxRate), totals.Tax.InexactFloat64(), moneyStyle},
		{"Total", totals.Total.InexactFloat64(), totalStyle},
	}
	for _, line := range summary {
		labelCell, _ := excelize.CoordinatesToCellName(3, row)
		valueCell, _ := excelize.CoordinatesToCellName(4, row)
		file.SetCellValue(sheet, labelCell, line.label)
		file.SetCellValue(sheet, valueCell, line.value)
		file.SetCellStyle(sheet, valueCell, valueCell, line.style)
		row++
	}

	file.SetColWidth(sheet, "A", "A", 40)
	file.SetColWidth(sheet, "B", "D", 16)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// createStyle creates an Excel style from config and an optional number format
func (e *ExcelExporter) createStyle(file *excelize.File, config *ExcelStyleConfig, numFmt string) (int, error) {
	style := &excelize.Style{}

	if config != nil {
		style.Font = &excelize.Font{
			Bold:  config.FontBold,
			Size:  float64(config.FontSize),
			Color: config.FontColor,
		}
		if config.FillColor != "" {
			style.Fill = excelize.Fill{
				Type:    "pattern",
				Pattern: 1,
				Color:   []string{config.FillColor},
			}
		}
		if config.Alignment != "" {
			style.Alignment = &excelize.Alignment{Horizontal: config.Alignment}
		}
	}

	if numFmt != "" {
		style.CustomNumFmt = &numFmt
	}

	return file.NewStyle(style)
}
