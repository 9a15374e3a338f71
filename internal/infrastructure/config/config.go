// Package config loads the service configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const EnvDevelopment = "development"

type Config struct {
	Port      string        `env:"PORT, default=8080"`
	Env       string        `env:"ENV, default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Email    EmailConfig
	SMTP     SMTPConfig
	SQS      SQSConfig
	Kafka    KafkaConfig
}

type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER, default=postgres"`
	DSN             string        `env:"DATABASE_DSN, default=host=localhost user=postgres password=postgres dbname=animalguardian port=5432 sslmode=disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS, default=20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS, default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=30m"`
	Debug           bool          `env:"DB_DEBUG, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB, default=animalguardian"`
}

type RedisConfig struct {
	URL      string `env:"REDIS_URL"`
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=10"`
}

// EmailConfig sizes the delivery worker pool and picks the transport.
type EmailConfig struct {
	Transport   string        `env:"EMAIL_TRANSPORT, default=log"`
	Workers     int           `env:"EMAIL_WORKERS, default=4"`
	QueueSize   int           `env:"EMAIL_QUEUE_SIZE, default=256"`
	MaxAttempts int           `env:"EMAIL_MAX_ATTEMPTS, default=5"`
	BaseBackoff time.Duration `env:"EMAIL_BASE_BACKOFF, default=2s"`
	MaxBackoff  time.Duration `env:"EMAIL_MAX_BACKOFF, default=1m"`
	DedupTTL    time.Duration `env:"EMAIL_DEDUP_TTL, default=24h"`
	// SweepInterval and SweepMinAge drive the periodic re-queue of pending
	// rows the full queue turned away.
	SweepInterval time.Duration `env:"EMAIL_SWEEP_INTERVAL, default=1m"`
	SweepMinAge   time.Duration `env:"EMAIL_SWEEP_MIN_AGE, default=10m"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM, default=noreply@animalguardian.local"`
}

type SQSConfig struct {
	QueueURL  string `env:"SQS_EMAIL_QUEUE_URL"`
	QueueName string `env:"SQS_EMAIL_QUEUE_NAME"`
}

type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS"`
	Topic   string   `env:"KAFKA_CASE_TOPIC, default=case-events"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, EnvDevelopment)
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" && !c.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.Database.Driver))
	}
	switch c.Email.Transport {
	case "log":
	case "smtp":
		if c.SMTP.Host == "" {
			errs = append(errs, errors.New("SMTP_HOST is required for the smtp transport"))
		}
	case "sqs":
		if c.SQS.QueueURL == "" && c.SQS.QueueName == "" {
			errs = append(errs, errors.New("SQS_EMAIL_QUEUE_URL or SQS_EMAIL_QUEUE_NAME is required for the sqs transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("EMAIL_TRANSPORT %q is not supported", c.Email.Transport))
	}
	if c.Email.SweepInterval <= 0 {
		errs = append(errs, errors.New("EMAIL_SWEEP_INTERVAL must be positive"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads an optional .env file, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith processes configuration from lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = "dev-secret"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
