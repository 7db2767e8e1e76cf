package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"invoice-automation/backend/internal/billing"
	"invoice-automation/backend/internal/billing/export"
	"invoice-automation/backend/internal/cache"
	"invoice-automation/backend/internal/config"
	"invoice-automation/backend/internal/delivery"
	"invoice-automation/backend/pkg/security"
	"invoice-automation/backend/pkg/storage"
)

// Components are the long-lived dependencies shared by the binaries
type Components struct {
	Mongo   *mongo.Client
	DB      *mongo.Database
	Repo    billing.Repository
	Billing billing.Service
	Cache   cache.Store

	closers []func() error
}

// Close releases the cache and disconnects from MongoDB
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}
	errs = append(errs, c.Mongo.Disconnect(ctx))
	return errors.Join(errs...)
}

// Connect opens MongoDB, loads AWS credentials and wires the billing service
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	logger.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	store, closeStore, err := newCacheStore(ctx, cfg.Cache, logger)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	db := client.Database(cfg.Mongo.Database)
	repo := billing.NewCachingRepository(billing.NewMongoRepository(db), store, cfg.Cache.DashboardTTL, logger.Named("cache"))
	return &Components{
		Mongo:   client,
		DB:      db,
		Repo:    repo,
		Billing: NewBillingService(repo, awsCfg, cfg, logger),
		Cache:   store,
		closers: []func() error{closeStore},
	}, nil
}

func newCacheStore(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (cache.Store, func() error, error) {
	if cfg.RedisURL == "" {
		store := cache.NewMemoryStore(time.Minute)
		return store, func() error { store.Stop(); return nil }, nil
	}

	store, err := cache.NewRedisStore(ctx, cfg.RedisURL, cfg.KeyPrefix)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Using Redis for dashboard cache")
	return store, store.Close, nil
}

// NewBillingService wires the billing service onto its collaborators
func NewBillingService(repo billing.Repository, awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) billing.Service {
	pdfOptions := export.DefaultPDFOptions()
	pdfOptions.Compress = cfg.Render.Compress
	pdfOptions.RepeatTableHeader = cfg.Render.RepeatTableHeader
	if cfg.Render.FontFamily != "" {
		pdfOptions.FontFamily = cfg.Render.FontFamily
	}

	s3 := storage.NewS3Client(awsCfg, storage.S3Options{
		Endpoint:     cfg.AWS.S3Endpoint,
		UsePathStyle: cfg.AWS.S3UsePathStyle,
	})
	mailer := delivery.NewMailer(sesv2.NewFromConfig(awsCfg), delivery.EmailConfig{
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
	}, logger.Named("mailer"))

	return billing.NewService(billing.ServiceDeps{
		Repo:        repo,
		Renderer:    export.NewPDFRenderer(pdfOptions, logger.Named("pdf")),
		Spreadsheet: export.NewExcelExporter(export.DefaultExcelOptions()),
		CSV:         export.NewCSVExporter(export.DefaultCSVOptions()),
		Mailer:      mailer,
		Assets:      billing.NewS3AssetResolver(s3, logger.Named("assets")),
		Insights:    billing.NewRuleInsights(),
	}, billing.ServiceConfig{
		AppURL:         cfg.App.URL,
		InvoiceDueDays: cfg.App.InvoiceDueDays,
		Links:          security.NewLinkSigner(cfg.Security.LinkSecret),
	}, logger.Named("billing"))
}

func loadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}
	return awsCfg, nil
}
