package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Vector-Insights application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	ClickHouse ClickHouseConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
	Metrics    MetricsConfig
	Upload     UploadConfig
	Cache      CacheConfig
	AppDB      AppDBConfig
	Naming     NamingConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	// DocTTL bounds how long cached aggregate documents live.
	DocTTL time.Duration
}

// ClickHouseConfig configures the optional daily-stats sink.
type ClickHouseConfig struct {
	Enabled  bool
	Addr     string
	Database string
	User     string
	Password string
}

type AuthConfig struct {
	Enabled   bool
	MasterKey string
	SkipPaths []string
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// UploadConfig configures the CSV upload pipeline.
type UploadConfig struct {
	// Dir is where uploaded files and aggregate documents land.
	Dir string
	// Workers bounds concurrent classify+compute work. Parsing is
	// CPU-bound and must not starve request handling.
	Workers int
	// MaxBytes rejects oversized payloads before parsing.
	MaxBytes int64
}

// CacheConfig configures the single-slot aggregation cache and the
// response-size caps on the inventory lists.
type CacheConfig struct {
	TTL           time.Duration
	MaxApps       int
	MaxCategories int
}

// AppDBConfig configures the app dictionary.
type AppDBConfig struct {
	Path string
}

// NamingConfig configures the creative naming cipher.
type NamingConfig struct {
	Dir string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("VECTOR_INSIGHTS_HTTP_ADDR", ":8080"),
			Env:             getEnv("VECTOR_INSIGHTS_ENV", "development"),
			ShutdownTimeout: getDurationEnv("VECTOR_INSIGHTS_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolEnv("VECTOR_INSIGHTS_DB_ENABLED", false),
			Host:     getEnv("VECTOR_INSIGHTS_DB_HOST", "localhost"),
			Port:     getIntEnv("VECTOR_INSIGHTS_DB_PORT", 5432),
			User:     getEnv("VECTOR_INSIGHTS_DB_USER", "insights"),
			Password: getEnv("VECTOR_INSIGHTS_DB_PASSWORD", "insights_secret"),
			DBName:   getEnv("VECTOR_INSIGHTS_DB_NAME", "insights"),
			SSLMode:  getEnv("VECTOR_INSIGHTS_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("VECTOR_INSIGHTS_DB_MAX_CONNS", 25),
			MinConns: getIntEnv("VECTOR_INSIGHTS_DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("VECTOR_INSIGHTS_REDIS_ENABLED", false),
			Addr:     getEnv("VECTOR_INSIGHTS_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("VECTOR_INSIGHTS_REDIS_PASSWORD", ""),
			DB:       getIntEnv("VECTOR_INSIGHTS_REDIS_DB", 0),
			DocTTL:   getDurationEnv("VECTOR_INSIGHTS_REDIS_DOC_TTL", 10*time.Minute),
		},
		ClickHouse: ClickHouseConfig{
			Enabled:  getBoolEnv("VECTOR_INSIGHTS_CLICKHOUSE_ENABLED", false),
			Addr:     getEnv("VECTOR_INSIGHTS_CLICKHOUSE_ADDR", "localhost:9000"),
			Database: getEnv("VECTOR_INSIGHTS_CLICKHOUSE_DB", "insights"),
			User:     getEnv("VECTOR_INSIGHTS_CLICKHOUSE_USER", "default"),
			Password: getEnv("VECTOR_INSIGHTS_CLICKHOUSE_PASSWORD", ""),
		},
		Auth: AuthConfig{
			Enabled:   getBoolEnv("VECTOR_INSIGHTS_AUTH_ENABLED", false),
			MasterKey: getEnv("VECTOR_INSIGHTS_API_KEY_MASTER", ""),
			SkipPaths: getSliceEnv("VECTOR_INSIGHTS_AUTH_SKIP_PATHS", []string{"/health", "/metrics"}),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolEnv("VECTOR_INSIGHTS_RATE_LIMIT_ENABLED", true),
			RPS:     getFloatEnv("VECTOR_INSIGHTS_RATE_LIMIT_RPS", 100),
			Burst:   getIntEnv("VECTOR_INSIGHTS_RATE_LIMIT_BURST", 50),
		},
		Log: LogConfig{
			Level:  getEnv("VECTOR_INSIGHTS_LOG_LEVEL", "info"),
			Format: getEnv("VECTOR_INSIGHTS_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("VECTOR_INSIGHTS_METRICS_ENABLED", true),
			Path:    getEnv("VECTOR_INSIGHTS_METRICS_PATH", "/metrics"),
		},
		Upload: UploadConfig{
			Dir:      getEnv("VECTOR_INSIGHTS_UPLOAD_DIR", "./data/uploads"),
			Workers:  getIntEnv("VECTOR_INSIGHTS_UPLOAD_WORKERS", 3),
			MaxBytes: int64(getIntEnv("VECTOR_INSIGHTS_UPLOAD_MAX_BYTES", 50<<20)),
		},
		Cache: CacheConfig{
			TTL:           getDurationEnv("VECTOR_INSIGHTS_CACHE_TTL", 30*time.Second),
			MaxApps:       getIntEnv("VECTOR_INSIGHTS_CACHE_MAX_APPS", 0),
			MaxCategories: getIntEnv("VECTOR_INSIGHTS_CACHE_MAX_CATEGORIES", 0),
		},
		AppDB: AppDBConfig{
			Path: getEnv("VECTOR_INSIGHTS_APPDB_PATH", "./data/apps.json"),
		},
		Naming: NamingConfig{
			Dir: getEnv("VECTOR_INSIGHTS_NAMING_DIR", "./data/naming"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.MasterKey == "" {
		return fmt.Errorf("VECTOR_INSIGHTS_API_KEY_MASTER is required when auth is enabled")
	}
	if c.Upload.Workers < 1 {
		return fmt.Errorf("VECTOR_INSIGHTS_UPLOAD_WORKERS must be at least 1")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getSliceEnv(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return def
}
