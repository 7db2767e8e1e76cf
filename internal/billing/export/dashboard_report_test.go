package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"invoice-automation/backend/internal/billing"
)

func TestRenderDashboardReport(t *testing.T) {
	r := newTestRenderer(zap.NewNop())

	out, err := r.RenderDashboardReport(billing.DashboardStats{
		TotalRevenue: 12500.5,
		Overdue:      830,
		Customers:    17,
		Insights:     "Revenue grew steadily. Two invoices are overdue.",
	})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	pages := pageTexts(out)
	require.Len(t, pages, 1)
	texts := pages[0]
	assert.Contains(t, texts, "DASHBOARD REPORT")
	assert.Contains(t, texts, "Generated on: 6/15/2024, 9:30:00 AM")
	assert.Equal(t, "$12500.50", valueAfter(t, texts, "TOTAL REVENUE"))
	assert.Equal(t, "$830.00", valueAfter(t, texts, "OVERDUE AMOUNT"))
	assert.Contains(t, texts, "Active Customers: 17")
	assert.Contains(t, texts, "AI Business Insights")
	assert.Contains(t, texts, "Revenue grew steadily. Two invoices are overdue.")
}

func TestRenderDashboardReport_WithoutInsights(t *testing.T) {
	r := newTestRenderer(zap.NewNop())

	out, err := r.RenderDashboardReport(billing.DashboardStats{})
	require.NoError(t, err)

	texts := pdfText(out)
	assert.Equal(t, "$0.00", valueAfter(t, texts, "TOTAL REVENUE"))
	assert.Contains(t, texts, "Active Customers: 0")
	assert.NotContains(t, texts, "AI Business Insights")
}

func TestRenderDashboardReport_ClipsLongInsights(t *testing.T) {
	r := newTestRenderer(zap.NewNop())

	out, err := r.RenderDashboardReport(billing.DashboardStats{
		Insights: strings.Repeat("Customers keep paying on time and revenue keeps growing. ", 400),
	})
	require.NoError(t, err)

	assert.Len(t, pageTexts(out), 1)
}
