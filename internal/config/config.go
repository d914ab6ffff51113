package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultJWTSecret     = "change-me-access"
	defaultRefreshSecret = "change-me-refresh"
)

type Config struct {
	// Application
	AppName     string   `env:"APP_NAME" envDefault:"Portfolio"`
	AppEnv      string   `env:"APP_ENV" envDefault:"development"` // 'development' or 'production'
	Port        string   `env:"PORT" envDefault:"5000"`
	FrontendURL string   `env:"FRONTEND_URL" envDefault:"http://localhost:3000"` // Origin used in reset links
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBConnection string `env:"DB_CONNECTION" envDefault:"./data/portfolio.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"`

	// Security
	JWTSecret                string        `env:"JWT_SECRET" envDefault:"change-me-access"`
	JWTExpiry                time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	RefreshTokenSecret       string        `env:"REFRESH_TOKEN_SECRET" envDefault:"change-me-refresh"`
	RefreshTokenExpiry       time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"720h"` // 30 days
	BcryptCost               int           `env:"BCRYPT_COST" envDefault:"10"`
	TokenPasswordResetExpiry time.Duration `env:"TOKEN_PASSWORD_RESET_EXPIRY" envDefault:"10m"`
	// Restores the legacy 404 on forgot-password for unknown emails
	RevealUnknownEmail bool `env:"AUTH_REVEAL_UNKNOWN_EMAIL" envDefault:"false"`

	// Email
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"noreply@example.com"`
	ResendAPIKey string `env:"RESEND_API_KEY"`

	// Observability (optional)
	SentryDSN string `env:"SENTRY_DSN"`

	// Storage: "local" (default) or "s3"
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"local"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	UploadURL     string `env:"UPLOAD_URL" envDefault:"/uploads"`

	// S3-compatible storage (MinIO, AWS S3, Cloudflare R2, ...)
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3Endpoint  string `env:"S3_ENDPOINT"` // Optional: for non-AWS providers
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{}
	err = env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that env tags cannot express.
// Production must not run on the development defaults.
func (c *Config) Validate() error {
	if c.AppEnv != "development" && c.AppEnv != "production" && c.AppEnv != "test" {
		return fmt.Errorf("APP_ENV must be development, production or test, got %q", c.AppEnv)
	}
	if c.BcryptCost < 10 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 10 and 31, got %d", c.BcryptCost)
	}
	if c.JWTSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("JWT_SECRET and REFRESH_TOKEN_SECRET are required")
	}
	if c.JWTSecret == c.RefreshTokenSecret {
		return errors.New("JWT_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.StorageDriver != "local" && c.StorageDriver != "s3" {
		return fmt.Errorf("STORAGE_DRIVER must be local or s3, got %q", c.StorageDriver)
	}
	if c.StorageDriver == "s3" && c.S3Bucket == "" {
		return errors.New("STORAGE_DRIVER=s3 requires S3_BUCKET")
	}

	if c.IsProduction() {
		return validateProduction(c)
	}
	return nil
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows email to use log mode for easier local testing.
func validateProduction(c *Config) error {
	if c.ResendAPIKey == "" {
		return errors.New("production deployment requires RESEND_API_KEY (set APP_ENV=development for email log mode)")
	}
	if c.JWTSecret == defaultJWTSecret || c.RefreshTokenSecret == defaultRefreshSecret {
		return errors.New("production deployment requires JWT_SECRET and REFRESH_TOKEN_SECRET")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AllowedOrigins returns the CORS allow-list. FrontendURL is always allowed.
func (c *Config) AllowedOrigins() []string {
	origins := []string{c.FrontendURL}
	for _, o := range c.CORSOrigins {
		if o != "" && o != c.FrontendURL {
			origins = append(origins, o)
		}
	}
	return origins
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets and credentials are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:       c.AppName,
		AppEnv:        c.AppEnv,
		Port:          c.Port,
		FrontendURL:   c.FrontendURL,
		CORSOrigins:   c.CORSOrigins,
		DBDriver:      c.DBDriver,
		JWTExpiry:     c.JWTExpiry,
		EmailFrom:     c.EmailFrom,
		StorageDriver: c.StorageDriver,
		UploadURL:     c.UploadURL,
		S3Endpoint:    c.S3Endpoint,
	}
}
