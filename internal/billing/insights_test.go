package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleInsights(t *testing.T) {
	provider := NewRuleInsights()
	ctx := context.Background()

	cases := []struct {
		name     string
		stats    DashboardStats
		contains []string
	}{
		{
			name:     "empty business",
			stats:    DashboardStats{},
			contains: []string{"No paid or overdue invoices yet", "no active customers"},
		},
		{
			name:     "only overdue",
			stats:    DashboardStats{Overdue: 250, Customers: 2},
			contains: []string{"$250.00 is overdue", "2 active customers"},
		},
		{
			name:     "high overdue ratio",
			stats:    DashboardStats{TotalRevenue: 1000, Overdue: 400, Customers: 12},
			contains: []string{"$1000.00", "40% of revenue", "12 active customers"},
		},
		{
			name:     "healthy",
			stats:    DashboardStats{TotalRevenue: 1000, Overdue: 0, Customers: 6},
			contains: []string{"no overdue invoices"},
		},
		{
			name:     "small overdue",
			stats:    DashboardStats{TotalRevenue: 1000, Overdue: 100, Customers: 6},
			contains: []string{"$100.00 is under control"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, err := provider.Insights(ctx, tc.stats)
			require.NoError(t, err)
			for _, want := range tc.contains {
				assert.Contains(t, text, want)
			}
		})
	}
}
