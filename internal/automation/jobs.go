package automation

import (
	"context"
	"errors"
	"time"
)

// WeeklyReportJobName identifies the dashboard report job
const WeeklyReportJobName = "weekly-report"

// ReportMailer emails the dashboard report
type ReportMailer interface {
	EmailDashboardReport(ctx context.Context, recipients []string) error
}

// WeeklyReportConfig configures the weekly report job
type WeeklyReportConfig struct {
	CronExpression string
	Timezone       string
	Recipients     []string
}

// WeeklyReportJob emails the dashboard report to the configured recipients
func WeeklyReportJob(mailer ReportMailer, config WeeklyReportConfig) (Job, error) {
	if len(config.Recipients) == 0 {
		return Job{}, errors.New("weekly report needs at least one recipient")
	}
	if config.CronExpression == "" {
		config.CronExpression = "0 8 * * 1"
	}

	return Job{
		Name:           WeeklyReportJobName,
		CronExpression: config.CronExpression,
		Timezone:       config.Timezone,
		Timeout:        10 * time.Minute,
		Run: func(ctx context.Context) error {
			return mailer.EmailDashboardReport(ctx, config.Recipients)
		},
	}, nil
}
