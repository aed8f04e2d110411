package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Env      Environment `envconfig:"ENV" default:"development"`
	LogLevel string      `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool        `envconfig:"DEBUG" default:"false"`

	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Temporal   TemporalConfig
	Storage    StorageConfig
	Fetch      FetchConfig
	Locator    LocatorConfig
	RateLimits RateLimitConfig
	Security   SecurityConfig
}

// AppConfig holds application metadata
type AppConfig struct {
	Name    string `envconfig:"APP_NAME" default:"zenit"`
	Version string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	MaxRequestSize  int64         `envconfig:"SERVER_MAX_REQUEST_SIZE" default:"10485760"` // 10MB
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            int           `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" default:"zenit"`
	Password        string        `envconfig:"DB_PASSWORD" required:"true"`
	Database        string        `envconfig:"DB_NAME" default:"zenit"`
	SSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"1m"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	Host         string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port         int           `envconfig:"REDIS_PORT" default:"6379"`
	Password     string        `envconfig:"REDIS_PASSWORD" default:""`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"5"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Addr returns Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TemporalConfig holds Temporal settings
type TemporalConfig struct {
	Host        string `envconfig:"TEMPORAL_HOST" default:"localhost"`
	Port        int    `envconfig:"TEMPORAL_PORT" default:"7233"`
	Namespace   string `envconfig:"TEMPORAL_NAMESPACE" default:"zenit"`
	TaskQueue   string `envconfig:"TEMPORAL_TASK_QUEUE" default:"zenit-tasks"`
	WorkerCount int    `envconfig:"TEMPORAL_WORKER_COUNT" default:"4"`
}

// Addr returns Temporal address
func (c TemporalConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig holds object storage settings
type StorageConfig struct {
	Endpoint   string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKey  string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretKey  string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	Bucket     string `envconfig:"STORAGE_BUCKET" default:"zenit"`
	Region     string `envconfig:"STORAGE_REGION" default:"us-east-1"`
	UseSSL     bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
	UploadPath string `envconfig:"STORAGE_UPLOAD_PATH" default:"prd-uploads"`
	ExportPath string `envconfig:"STORAGE_EXPORT_PATH" default:"session-exports"`
}

// FetchConfig holds settings for fetching remote pages
type FetchConfig struct {
	Timeout        time.Duration `envconfig:"FETCH_TIMEOUT" default:"20s"`
	MaxBodyBytes   int64         `envconfig:"FETCH_MAX_BODY_BYTES" default:"5242880"` // 5MB
	RequestsPerSec float64       `envconfig:"FETCH_REQUESTS_PER_SEC" default:"2"`
	Burst          int           `envconfig:"FETCH_BURST" default:"4"`
	UserAgent      string        `envconfig:"FETCH_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	Rendered       bool          `envconfig:"FETCH_RENDERED_ENABLED" default:"false"`
	RenderTimeout  time.Duration `envconfig:"FETCH_RENDER_TIMEOUT" default:"30s"`
}

// LocatorConfig holds locator engine limits and caching
type LocatorConfig struct {
	MaxElements      int           `envconfig:"LOCATOR_MAX_ELEMENTS" default:"300"`
	MaxInputBytes    int           `envconfig:"LOCATOR_MAX_INPUT_BYTES" default:"5242880"`
	CacheTTL         time.Duration `envconfig:"LOCATOR_CACHE_TTL" default:"1h"`
	EnableCaching    bool          `envconfig:"LOCATOR_ENABLE_CACHING" default:"true"`
	HealingThreshold float64       `envconfig:"LOCATOR_HEALING_THRESHOLD" default:"0.6"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled        bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMin int  `envconfig:"RATE_LIMIT_REQUESTS_PER_MIN" default:"60"`
	BurstSize      int  `envconfig:"RATE_LIMIT_BURST_SIZE" default:"10"`
}

// SecurityConfig holds security settings
type SecurityConfig struct {
	// Identity headers set by the fronting auth proxy
	UserIDHeader   string `envconfig:"SECURITY_USER_ID_HEADER" default:"X-User-ID"`
	UserNameHeader string `envconfig:"SECURITY_USER_NAME_HEADER" default:"X-User-Name"`

	// CORS
	CORSEnabled        bool     `envconfig:"CORS_ENABLED" default:"true"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// TLS
	TLSEnabled  bool   `envconfig:"TLS_ENABLED" default:"false"`
	TLSCertFile string `envconfig:"TLS_CERT_FILE" default:""`
	TLSKeyFile  string `envconfig:"TLS_KEY_FILE" default:""`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with defaults for missing required fields (for CLI tools)
func LoadWithDefaults() (*Config, error) {
	var cfg Config

	// Missing required fields are filled below
	_ = envconfig.Process("", &cfg)

	if cfg.Database.Password == "" {
		cfg.Database.Password = "zenit"
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errors []string

	if c.Env != EnvDevelopment {
		if c.Database.Password == "" {
			errors = append(errors, "DB_PASSWORD is required in non-development mode")
		}
	}

	if c.Locator.MaxElements <= 0 {
		errors = append(errors, "LOCATOR_MAX_ELEMENTS must be positive")
	}
	if c.Locator.MaxInputBytes <= 0 {
		errors = append(errors, "LOCATOR_MAX_INPUT_BYTES must be positive")
	}
	if c.Locator.HealingThreshold <= 0 || c.Locator.HealingThreshold > 1 {
		errors = append(errors, "LOCATOR_HEALING_THRESHOLD must be in (0, 1]")
	}
	if c.Fetch.Timeout <= 0 {
		errors = append(errors, "FETCH_TIMEOUT must be positive")
	}

	if c.Env == EnvProduction {
		if c.Security.TLSEnabled && (c.Security.TLSCertFile == "" || c.Security.TLSKeyFile == "") {
			errors = append(errors, "TLS_CERT_FILE and TLS_KEY_FILE are required when TLS is enabled")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// GetLogLevel returns the appropriate zap log level
func (c *Config) GetLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}
