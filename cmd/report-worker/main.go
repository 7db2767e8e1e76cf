package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"invoice-automation/backend/internal/app"
	"invoice-automation/backend/internal/automation"
	"invoice-automation/backend/internal/config"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	runNow := flag.Bool("run-now", false, "send the weekly report once and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, ".env")
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger := config.NewLogger(cfg.Logging).Named("report-worker")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialise dependencies", zap.Error(err))
	}
	defer components.Close(context.Background())

	job, err := automation.WeeklyReportJob(components.Billing, automation.WeeklyReportConfig{
		CronExpression: cfg.Automation.WeeklyReportCron,
		Timezone:       cfg.Automation.Timezone,
		Recipients:     []string{cfg.Email.AdminAddress},
	})
	if err != nil {
		logger.Fatal("Invalid weekly report job", zap.Error(err))
	}

	scheduler := automation.NewScheduler(logger)
	if err := scheduler.AddJob(job); err != nil {
		logger.Fatal("Failed to schedule weekly report", zap.Error(err))
	}

	if *runNow {
		if err := scheduler.RunNow(ctx, job.Name); err != nil {
			logger.Fatal("Weekly report failed", zap.Error(err))
		}
		return
	}

	if !cfg.Automation.Enabled {
		logger.Info("Automation disabled, exiting")
		return
	}

	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	if status, err := scheduler.Status(job.Name); err == nil {
		logger.Info("Weekly report scheduled",
			zap.String("cron", status.Cron),
			zap.String("schedule", automation.DescribeCronExpression(status.Cron)),
			zap.Time("next_run", status.NextRun))
	}

	<-ctx.Done()
	logger.Info("Shutting down report worker...")
	scheduler.Stop()
	logger.Info("Report worker stopped")
}
