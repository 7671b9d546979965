// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// QRAPIConfig provides settings for the QR backend client.
type QRAPIConfig interface {
	GetAPIBaseURL() string
	GetAPIPrefix() string
	GetGeneratorPath() string
	GetHTTPTimeout() time.Duration
}

// CSRFConfig provides settings for the anti-forgery token.
type CSRFConfig interface {
	GetCSRFCookieName() string
	GetCSRFToken() string
}

// FormConfig provides settings for the form controller.
type FormConfig interface {
	GetRecentLimit() int
}

// ExportConfig provides settings for batch image exports.
type ExportConfig interface {
	GetExportConcurrency() int
	GetExportRatePerSecond() float64
}

// StorageConfig provides settings for MinIO S3-compatible storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketQRExports() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	APIBaseURL          string
	APIPrefix           string
	GeneratorPath       string
	HTTPTimeout         time.Duration
	CSRFCookieName      string
	CSRFToken           string
	RecentLimit         int
	ExportConcurrency   int
	ExportRatePerSecond float64
	MinIOEndpoint       string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOUseSSL         bool
	MinioBucketQRExport string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// QRAPIConfig implementation
func (c *Config) GetAPIBaseURL() string         { return c.APIBaseURL }
func (c *Config) GetAPIPrefix() string          { return c.APIPrefix }
func (c *Config) GetGeneratorPath() string      { return c.GeneratorPath }
func (c *Config) GetHTTPTimeout() time.Duration { return c.HTTPTimeout }

// CSRFConfig implementation
func (c *Config) GetCSRFCookieName() string { return c.CSRFCookieName }
func (c *Config) GetCSRFToken() string      { return c.CSRFToken }

// FormConfig implementation
func (c *Config) GetRecentLimit() int { return c.RecentLimit }

// ExportConfig implementation
func (c *Config) GetExportConcurrency() int       { return c.ExportConcurrency }
func (c *Config) GetExportRatePerSecond() float64 { return c.ExportRatePerSecond }

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketQRExports() string { return c.MinioBucketQRExport }
func (c *Config) IsMinIOEnabled() bool            { return c.MinIOEndpoint != "" }

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		APIBaseURL:          strings.TrimRight(getEnv("QR_API_BASE_URL", "http://localhost:8000"), "/"),
		APIPrefix:           normalizePrefix(getEnv("QR_API_PREFIX", "/api")),
		GeneratorPath:       getEnv("QR_GENERATOR_PATH", "/generator/"),
		HTTPTimeout:         mustDuration(getEnv("QR_HTTP_TIMEOUT", "30s")),
		CSRFCookieName:      getEnv("CSRF_COOKIE_NAME", "csrftoken"),
		CSRFToken:           getEnv("CSRF_TOKEN", ""),
		RecentLimit:         mustInt(getEnv("RECENT_LIMIT", "6")),
		ExportConcurrency:   mustInt(getEnv("EXPORT_CONCURRENCY", "4")),
		ExportRatePerSecond: mustFloat(getEnv("EXPORT_RATE_PER_SEC", "5")),
		MinIOEndpoint:       getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:      getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:      getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:         strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketQRExport: getEnv("MINIO_BUCKET_QR_EXPORTS", "qr-exports"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("QR_API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	if c.CSRFCookieName == "" {
		return fmt.Errorf("CSRF_COOKIE_NAME cannot be empty")
	}
	if c.RecentLimit <= 0 {
		return fmt.Errorf("RECENT_LIMIT must be positive")
	}
	if c.ExportConcurrency <= 0 {
		return fmt.Errorf("EXPORT_CONCURRENCY must be positive")
	}
	if c.IsMinIOEnabled() && (c.MinIOAccessKey == "" || c.MinIOSecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func normalizePrefix(value string) string {
	trimmed := strings.Trim(strings.TrimSpace(value), "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}
