package export

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"invoice-automation/backend/internal/billing"
)

const (
	metricBoxY      = 150.0
	metricBoxW      = 240.0
	metricBoxH      = 60.0
	insightsWidth   = 500.0
	insightsLineGap = 14.0
)

// RenderDashboardReport renders the single page business overview
func (r *PDFRenderer) RenderDashboardReport(stats billing.DashboardStats) ([]byte, error) {
	generated := r.now()
	p := r.newPage(generated)
	pal := p.options.Palette

	p.text(marginLeft, 50, 500, 24, "", pal.Heading, "L", "DASHBOARD REPORT")
	p.text(marginLeft, 80, 500, 10, "", pal.Muted, "L", "Generated on: "+generated.Format("1/2/2006, 3:04:05 PM"))
	p.rule(100, 1, pal.Rule)

	p.text(marginLeft, 120, 500, 16, "B", pal.Primary, "L", "Business Overview")

	p.metricBox(50, pal.RevenueFill, pal.RevenueStroke, pal.Muted, pal.Primary,
		"TOTAL REVENUE", billing.FormatMoneyFloat(stats.TotalRevenue))
	p.metricBox(300, pal.OverdueFill, pal.OverdueStroke, pal.OverdueLabel, pal.OverdueValue,
		"OVERDUE AMOUNT", billing.FormatMoneyFloat(stats.Overdue))

	p.text(marginLeft, 230, 500, 12, "B", pal.Primary, "L", fmt.Sprintf("Active Customers: %d", stats.Customers))

	if insights := strings.TrimSpace(stats.Insights); insights != "" {
		p.text(marginLeft, 270, 500, 14, "B", pal.Heading, "L", "AI Business Insights")
		p.paragraph(marginLeft, 295, insightsWidth, 10, pal.Body, insights)
	}

	return p.output()
}

// metricBox draws a filled box with a caption and a large value
func (p *page) metricBox(x float64, fill, stroke, labelColor, valueColor PDFColor, label, value string) {
	p.pdf.SetFillColor(fill.R, fill.G, fill.B)
	p.pdf.SetDrawColor(stroke.R, stroke.G, stroke.B)
	p.pdf.SetLineWidth(1)
	p.pdf.Rect(x, metricBoxY, metricBoxW, metricBoxH, "FD")

	p.text(x+10, metricBoxY+15, metricBoxW-20, 8, "B", labelColor, "L", label)
	p.text(x+10, metricBoxY+35, metricBoxW-20, 14, "B", valueColor, "L", value)
}

// paragraph wraps text to width and clips whatever does not fit above the bottom margin
func (p *page) paragraph(x, y, w, size float64, c PDFColor, s string) {
	p.pdf.SetFont(p.options.FontFamily, "", size)
	lines := p.pdf.SplitLines([]byte(p.tr(s)), w)

	maxLines := int((pageBottom - y) / insightsLineGap)
	if len(lines) > maxLines {
		p.logger.Debug("Clipping insights paragraph",
			zap.Int("lines", len(lines)), zap.Int("kept", maxLines))
		lines = lines[:maxLines]
	}
	for i, line := range lines {
		p.rawText(x, y+float64(i)*insightsLineGap, w, size, "", c, "L", string(line))
	}
}
