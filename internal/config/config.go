package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Audit store backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Verification strategies
const (
	VerifyFull        = "full"
	VerifyIncremental = "incremental"
)

// DB holds the connection pool settings
type DB struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"50"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	SlowThreshold   time.Duration `env:"DB_SLOW_THRESHOLD" envDefault:"200ms"`
}

// Audit holds the ledger settings
type Audit struct {
	Store              string        `env:"AUDIT_STORE" envDefault:"postgres"`
	HashAlgorithm      string        `env:"AUDIT_HASH_ALGORITHM" envDefault:"sha256"`
	VerifyStrategy     string        `env:"AUDIT_VERIFY_STRATEGY" envDefault:"full"`
	FullVerifyInterval time.Duration `env:"AUDIT_FULL_VERIFY_INTERVAL" envDefault:"15m"`
	AppendTimeout      time.Duration `env:"AUDIT_APPEND_TIMEOUT" envDefault:"5s"`
	MaxAppendRetries   int           `env:"AUDIT_MAX_APPEND_RETRIES" envDefault:"5"`
	ScanBatchSize      int           `env:"AUDIT_SCAN_BATCH_SIZE" envDefault:"500"`
	ArchiveInterval    time.Duration `env:"AUDIT_ARCHIVE_INTERVAL" envDefault:"0s"`
	ComplianceEmail    string        `env:"COMPLIANCE_EMAIL"`
}

// Mirror holds the RabbitMQ settings for publishing committed entries
type Mirror struct {
	AMQPURL    string `env:"AMQP_URL"`
	Exchange   string `env:"AUDIT_MIRROR_EXCHANGE" envDefault:"audit.events"`
	RoutingKey string `env:"AUDIT_MIRROR_ROUTING_KEY" envDefault:"audit.entry.appended"`
}

// Enabled reports whether a broker is configured
func (m Mirror) Enabled() bool {
	return m.AMQPURL != ""
}

// Scoring holds the loan model and explanation settings
type Scoring struct {
	ModelPath        string `env:"LOAN_MODEL_PATH" envDefault:"./data/artifacts/loan_model.json"`
	HuggingFaceURL   string `env:"HUGGINGFACE_API_URL" envDefault:"https://api-inference.huggingface.co/models/facebook/bart-large-cnn"`
	HuggingFaceToken string `env:"HUGGINGFACE_API_TOKEN"`
}

// Config holds all application configuration
type Config struct {
	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DB      DB
	Audit   Audit
	Mirror  Mirror
	Scoring Scoring

	// JWT
	JWTSecret string `env:"JWT_SECRET"`

	// Storage
	StoragePath string `env:"STORAGE_PATH" envDefault:"./storage"`

	// Background Workers
	WorkerCount int `env:"WORKER_COUNT" envDefault:"5"`

	// CORS
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Email (Resend)
	ResendAPIKey string `env:"RESEND_API_KEY"`
	FromEmail    string `env:"FROM_EMAIL" envDefault:"noreply@trustportal.dev"`

	// Sentry
	SentryDSN string `env:"SENTRY_DSN"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}
	for i, origin := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.Audit.Store {
	case StorePostgres:
		if c.DB.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when AUDIT_STORE=postgres"))
		}
	case StoreMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("AUDIT_STORE=memory is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUDIT_STORE must be postgres or memory, got %q", c.Audit.Store))
	}

	switch c.Audit.VerifyStrategy {
	case VerifyFull, VerifyIncremental:
	default:
		errs = append(errs, fmt.Errorf("AUDIT_VERIFY_STRATEGY must be full or incremental, got %q", c.Audit.VerifyStrategy))
	}

	if c.Audit.AppendTimeout <= 0 {
		errs = append(errs, errors.New("AUDIT_APPEND_TIMEOUT must be positive"))
	}
	if c.Audit.FullVerifyInterval <= 0 {
		errs = append(errs, errors.New("AUDIT_FULL_VERIFY_INTERVAL must be positive"))
	}
	if c.Audit.ArchiveInterval < 0 {
		errs = append(errs, errors.New("AUDIT_ARCHIVE_INTERVAL must not be negative"))
	}
	if c.WorkerCount <= 0 {
		errs = append(errs, errors.New("WORKER_COUNT must be positive"))
	}

	if c.JWTSecret == "" && c.IsProduction() {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
