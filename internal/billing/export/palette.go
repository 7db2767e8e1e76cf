package export

import (
	"strconv"
	"strings"
)

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// HexColor parses "#rrggbb". Malformed input yields black.
func HexColor(hex string) PDFColor {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return PDFColor{}
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return PDFColor{}
	}
	return PDFColor{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}
}

// Palette is shared by the billing document and the dashboard report
type Palette struct {
	Heading       PDFColor `json:"heading"`
	Primary       PDFColor `json:"primary"`
	Muted         PDFColor `json:"muted"`
	Label         PDFColor `json:"label"`
	Body          PDFColor `json:"body"`
	Rule          PDFColor `json:"rule"`
	RevenueFill   PDFColor `json:"revenue_fill"`
	RevenueStroke PDFColor `json:"revenue_stroke"`
	OverdueFill   PDFColor `json:"overdue_fill"`
	OverdueStroke PDFColor `json:"overdue_stroke"`
	OverdueLabel  PDFColor `json:"overdue_label"`
	OverdueValue  PDFColor `json:"overdue_value"`
}

// DefaultPalette returns the slate palette used on every document
func DefaultPalette() Palette {
	return Palette{
		Heading:       HexColor("#1e293b"),
		Primary:       HexColor("#0f172a"),
		Muted:         HexColor("#64748b"),
		Label:         HexColor("#94a3b8"),
		Body:          HexColor("#475569"),
		Rule:          HexColor("#f1f5f9"),
		RevenueFill:   HexColor("#f8fafc"),
		RevenueStroke: HexColor("#e2e8f0"),
		OverdueFill:   HexColor("#fef2f2"),
		OverdueStroke: HexColor("#fecaca"),
		OverdueLabel:  HexColor("#991b1b"),
		OverdueValue:  HexColor("#b91c1c"),
	}
}
