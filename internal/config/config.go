package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field maps 1:1 to an env var.
type Config struct {
	// Server
	Port     int    `mapstructure:"PORT"`
	Env      string `mapstructure:"APP_ENV"` // development | production
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// Comma-separated dashboard origins; "*" (development only) allows any without cookies
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`

	// Backend API
	APIBaseURL        string `mapstructure:"API_BASE_URL"`
	APITimeoutSeconds int    `mapstructure:"API_TIMEOUT_SECONDS"`

	// Gateway circuit breaker
	BreakerFailures    int `mapstructure:"BREAKER_FAILURES"`
	BreakerOpenSeconds int `mapstructure:"BREAKER_OPEN_SECONDS"`

	// Session token persistence
	TokenStore    string `mapstructure:"TOKEN_STORE"` // file | redis
	TokenPath     string `mapstructure:"TOKEN_PATH"`
	TokenRedisKey string `mapstructure:"TOKEN_REDIS_KEY"`
	RedisURL      string `mapstructure:"REDIS_URL"`

	// Query cache
	QueryTTLSeconds int `mapstructure:"QUERY_TTL_SECONDS"`

	// Bulk note matching
	BulkColumn     string `mapstructure:"BULK_COLUMN"`
	BulkHeaderRows int    `mapstructure:"BULK_HEADER_ROWS"`
	BulkSheet      string `mapstructure:"BULK_SHEET"`

	// SMTP
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`

	// Reports
	ReportFrom        string `mapstructure:"REPORT_FROM"`
	ReportStoragePath string `mapstructure:"REPORT_STORAGE_PATH"`

	// Report mail delivery
	MailQueue       string `mapstructure:"MAIL_QUEUE"` // direct | redis
	WorkerPoolSize  int    `mapstructure:"WORKER_POOL_SIZE"`
	MailMaxAttempts int    `mapstructure:"MAIL_MAX_ATTEMPTS"`
}

// Load reads configuration from environment variables (and optional .env files).
// A .env.<APP_ENV> file, when present, is loaded into the process environment first
// so it takes precedence over the shared .env.
func Load() (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := godotenv.Load(".env." + env); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: load .env.%s: %w", env, err)
	}

	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	// Optional .env file for local development; missing is fine
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("API_BASE_URL", "http://localhost:3000")
	v.SetDefault("API_TIMEOUT_SECONDS", 30)
	v.SetDefault("BREAKER_FAILURES", 5)
	v.SetDefault("BREAKER_OPEN_SECONDS", 60)
	v.SetDefault("TOKEN_STORE", "file")
	v.SetDefault("TOKEN_PATH", defaultTokenPath())
	v.SetDefault("TOKEN_REDIS_KEY", "garittea:token")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("QUERY_TTL_SECONDS", 30)
	v.SetDefault("BULK_COLUMN", "A")
	v.SetDefault("BULK_HEADER_ROWS", 2)
	v.SetDefault("BULK_SHEET", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("REPORT_FROM", "reportes@garittea.local")
	v.SetDefault("REPORT_STORAGE_PATH", filepath.Join(os.TempDir(), "garittea", "reportes"))
	v.SetDefault("MAIL_QUEUE", "direct")
	v.SetDefault("WORKER_POOL_SIZE", 2)
	v.SetDefault("MAIL_MAX_ATTEMPTS", 3)

	// AutomaticEnv only resolves keys viper already knows about; SMTP creds have no default.
	for _, k := range []string{"SMTP_HOST", "SMTP_USER", "SMTP_PASSWORD"} {
		v.SetDefault(k, "")
	}
}

// UsesRedis reports whether any component needs REDIS_URL.
func (c *Config) UsesRedis() bool { return c.TokenStore == "redis" || c.MailQueue == "redis" }

func (c *Config) validate() error {
	switch c.TokenStore {
	case "file", "redis":
	default:
		return fmt.Errorf("config: TOKEN_STORE must be file or redis, got %q", c.TokenStore)
	}
	switch c.MailQueue {
	case "direct", "redis":
	default:
		return fmt.Errorf("config: MAIL_QUEUE must be direct or redis, got %q", c.MailQueue)
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("config: API_BASE_URL is required")
	}
	if c.Env == "production" && (strings.TrimSpace(c.CORSOrigins) == "" || strings.Contains(c.CORSOrigins, "*")) {
		return fmt.Errorf("config: CORS_ORIGINS must list the dashboard origins in production")
	}
	if c.BulkHeaderRows < 0 {
		return fmt.Errorf("config: BULK_HEADER_ROWS must be >= 0")
	}
	return nil
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "garittea", "token")
	}
	return filepath.Join(home, ".garittea", "token")
}
