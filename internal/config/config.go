package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `json:"server"`
	App        AppConfig        `json:"app"`
	Mongo      MongoConfig      `json:"mongo"`
	AWS        AWSConfig        `json:"aws"`
	Email      EmailConfig      `json:"email"`
	Security   SecurityConfig   `json:"security"`
	Logging    LoggingConfig    `json:"logging"`
	Render     RenderConfig     `json:"render"`
	Automation AutomationConfig `json:"automation"`
	Cache      CacheConfig      `json:"cache"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	AllowedOrigins  []string      `json:"allowed_origins"`
}

// AppConfig holds settings visible to customers
type AppConfig struct {
	URL            string `json:"url"`
	InvoiceDueDays int    `json:"invoice_due_days"`
}

// MongoConfig represents database configuration
type MongoConfig struct {
	URI            string        `json:"uri"`
	Database       string        `json:"database"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

// AWSConfig holds credentials and endpoints for SES and S3
type AWSConfig struct {
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	S3Endpoint      string `json:"s3_endpoint"`
	S3UsePathStyle  bool   `json:"s3_use_path_style"`
}

// EmailConfig
type EmailConfig struct {
	FromAddress  string `json:"from_address"`
	FromName     string `json:"from_name"`
	AdminAddress string `json:"admin_address"`
}

// SecurityConfig
type SecurityConfig struct {
	JWTSecret  string        `json:"jwt_secret"`
	LinkSecret string        `json:"link_secret"`
	TokenTTL   time.Duration `json:"token_ttl"`
	Issuer     string        `json:"issuer"`
}

// LoggingConfig
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// RenderConfig tunes PDF output
type RenderConfig struct {
	Compress          bool   `json:"compress"`
	RepeatTableHeader bool   `json:"repeat_table_header"`
	FontFamily        string `json:"font_family"`
}

// AutomationConfig schedules background jobs
type AutomationConfig struct {
	Enabled          bool   `json:"enabled"`
	WeeklyReportCron string `json:"weekly_report_cron"`
	Timezone         string `json:"timezone"`
}

// CacheConfig configures dashboard stats caching; an empty RedisURL keeps entries in memory
type CacheConfig struct {
	RedisURL     string        `json:"redis_url"`
	KeyPrefix    string        `json:"key_prefix"`
	DashboardTTL time.Duration `json:"dashboard_ttl"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		App: AppConfig{
			URL:            "http://localhost:5000",
			InvoiceDueDays: 7,
		},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "invoice_automation",
			ConnectTimeout: 10 * time.Second,
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Email: EmailConfig{
			FromAddress:  "billing@myagency.com",
			FromName:     "Invoice System",
			AdminAddress: "admin@example.com",
		},
		Security: SecurityConfig{
			TokenTTL: 24 * time.Hour,
			Issuer:   "invoice-automation",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Render: RenderConfig{
			Compress:   true,
			FontFamily: "Helvetica",
		},
		Automation: AutomationConfig{
			Enabled:          true,
			WeeklyReportCron: "0 8 * * 1",
			Timezone:         "UTC",
		},
		Cache: CacheConfig{
			KeyPrefix:    "invoice-automation:",
			DashboardTTL: time.Minute,
		},
	}
}

// LoadConfig loads configuration from file, .env files and environment
// variables, in that order of precedence from lowest to highest
func LoadConfig(configPath string, envFiles ...string) (*Config, error) {
	config := Default()

	// Load from file if exists
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// godotenv never overrides variables already set in the environment
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func overrideWithEnv(config *Config) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("SERVER_HOST", &config.Server.Host)
	num("PORT", &config.Server.Port)
	num("SERVER_PORT", &config.Server.Port)
	duration("SERVER_SHUTDOWN_TIMEOUT", &config.Server.ShutdownTimeout)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = splitList(origins)
	}

	str("APP_URL", &config.App.URL)
	num("INVOICE_DUE_DAYS", &config.App.InvoiceDueDays)

	str("MONGODB_URI", &config.Mongo.URI)
	str("MONGODB_DATABASE", &config.Mongo.Database)

	str("AWS_REGION", &config.AWS.Region)
	str("AWS_ACCESS_KEY_ID", &config.AWS.AccessKeyID)
	str("AWS_SECRET_ACCESS_KEY", &config.AWS.SecretAccessKey)
	str("S3_ENDPOINT", &config.AWS.S3Endpoint)
	flag("S3_USE_PATH_STYLE", &config.AWS.S3UsePathStyle)

	str("EMAIL_FROM", &config.Email.FromAddress)
	str("EMAIL_FROM_NAME", &config.Email.FromName)
	str("ADMIN_EMAIL", &config.Email.AdminAddress)

	str("JWT_SECRET", &config.Security.JWTSecret)
	str("QUOTATION_LINK_SECRET", &config.Security.LinkSecret)
	duration("JWT_TTL", &config.Security.TokenTTL)

	str("LOG_LEVEL", &config.Logging.Level)
	str("LOG_FORMAT", &config.Logging.Format)

	flag("PDF_COMPRESS", &config.Render.Compress)
	flag("PDF_REPEAT_TABLE_HEADER", &config.Render.RepeatTableHeader)

	flag("AUTOMATION_ENABLED", &config.Automation.Enabled)
	str("WEEKLY_REPORT_CRON", &config.Automation.WeeklyReportCron)
	str("AUTOMATION_TIMEZONE", &config.Automation.Timezone)

	str("REDIS_URL", &config.Cache.RedisURL)
	duration("DASHBOARD_CACHE_TTL", &config.Cache.DashboardTTL)

	return errors.Join(errs...)
}

// Validate checks values that would fail later at startup
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("mongo uri is required"))
	}
	if c.Mongo.Database == "" {
		errs = append(errs, errors.New("mongo database is required"))
	}
	if c.App.InvoiceDueDays <= 0 {
		errs = append(errs, fmt.Errorf("invoice due days must be positive, got %d", c.App.InvoiceDueDays))
	}
	if c.Automation.Enabled && c.Email.AdminAddress == "" {
		errs = append(errs, errors.New("admin email is required when automation is enabled"))
	}
	if c.Cache.DashboardTTL < 0 {
		errs = append(errs, errors.New("dashboard cache ttl cannot be negative"))
	}
	return errors.Join(errs...)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
