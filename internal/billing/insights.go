package billing

import (
	"context"
	"fmt"
	"strings"
)

// InsightsUnavailable is printed when no insights could be produced
const InsightsUnavailable = "AI insights temporarily unavailable. Check API key and model availability."

// InsightsProvider produces the free-text commentary for the dashboard report
type InsightsProvider interface {
	Insights(ctx context.Context, stats DashboardStats) (string, error)
}

// RuleInsights derives short recommendations from the dashboard figures
type RuleInsights struct {
	// OverdueWarnRatio is the overdue/revenue ratio above which collections
	// are flagged
	OverdueWarnRatio float64
}

// NewRuleInsights returns a provider with a 20% overdue threshold
func NewRuleInsights() *RuleInsights {
	return &RuleInsights{OverdueWarnRatio: 0.2}
}

func (r *RuleInsights) Insights(_ context.Context, stats DashboardStats) (string, error) {
	revenue := SanitizeNumber(stats.TotalRevenue)
	overdue := SanitizeNumber(stats.Overdue)

	var points []string
	switch {
	case revenue == 0 && overdue == 0:
		points = append(points, "No paid or overdue invoices yet. Send your first quotations to start building revenue.")
	case revenue == 0:
		points = append(points, fmt.Sprintf("No revenue has been collected while %s is overdue. Prioritise payment follow-ups.", FormatMoneyFloat(overdue)))
	default:
		ratio := overdue / revenue
		points = append(points, fmt.Sprintf("Collected revenue stands at %s.", FormatMoneyFloat(revenue)))
		if ratio > r.OverdueWarnRatio {
			points = append(points, fmt.Sprintf("Overdue invoices amount to %.0f%% of revenue. Send reminders and consider shorter payment terms.", ratio*100))
		} else if overdue > 0 {
			points = append(points, fmt.Sprintf("Overdue balance of %s is under control. Keep following up on late payers.", FormatMoneyFloat(overdue)))
		} else {
			points = append(points, "There are no overdue invoices.")
		}
	}

	switch {
	case stats.Customers == 0:
		points = append(points, "There are no active customers. Reach out to past clients with new offers.")
	case stats.Customers < 5:
		points = append(points, fmt.Sprintf("Revenue depends on %d active customers. Broadening the customer base lowers concentration risk.", stats.Customers))
	default:
		points = append(points, fmt.Sprintf("%d active customers. Consider upselling services to the largest accounts.", stats.Customers))
	}

	return strings.Join(points, " "), nil
}
