// Package config loads the application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// HTTP API
	HTTP HTTPConfig

	// Object storage (documents, receipts)
	Storage StorageConfig

	// Authentication
	Auth AuthConfig

	// Observability
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// Timezone for deadlines shown to students (default: America/Bogota)
	Timezone string
	Location *time.Location

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// Connection pool settings
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Query timeout
	QueryTimeout time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// Timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Enable for development without Redis
	Disabled bool
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Host string
	Port int

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxUploadBytes int64

	EnableCORS     bool
	AllowedOrigins []string

	// Requests per minute per client IP (0 = disabled)
	RateLimitPerMinute int
}

// StorageConfig holds object storage (MinIO / S3-compatible) settings.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool

	PresignExpiry time.Duration
	MaxFileSize   int64
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	// Secret signs tokens (HS256). Required outside development.
	Secret string

	Issuer   string
	TokenTTL time.Duration
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// Load loads configuration from environment variables. A .env file in the
// working directory is merged in first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App:           loadAppConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		HTTP:          loadHTTPConfig(),
		Storage:       loadStorageConfig(),
		Auth:          loadAuthConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadAppConfig() AppConfig {
	env := Environment(getEnv("APP_ENV", "development"))
	timezone := getEnv("APP_TIMEZONE", "America/Bogota")

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	return AppConfig{
		Name:            getEnv("APP_NAME", "practicas-hub"),
		Environment:     env,
		Debug:           env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		Timezone:        timezone,
		Location:        loc,
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		Database:        getEnv("DB_NAME", "practicas"),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 25)),
		MinConns:        int32(getEnvInt("DB_MIN_CONNS", 5)),
		MaxConnLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		MaxConnIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		QueryTimeout:    getEnvDuration("DB_QUERY_TIMEOUT", 30*time.Second),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		Disabled:     getEnvBool("REDIS_DISABLED", false),
	}
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Host:               getEnv("HTTP_HOST", "0.0.0.0"),
		Port:               getEnvInt("HTTP_PORT", 8080),
		ReadTimeout:        getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:        getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		MaxUploadBytes:     getEnvInt64("HTTP_MAX_UPLOAD_BYTES", 10<<20),
		EnableCORS:         getEnvBool("HTTP_ENABLE_CORS", true),
		AllowedOrigins:     getEnvSlice("HTTP_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvInt("HTTP_RATE_LIMIT_PER_MINUTE", 100),
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Endpoint:      getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		AccessKey:     getEnv("STORAGE_ACCESS_KEY", ""),
		SecretKey:     getEnv("STORAGE_SECRET_KEY", ""),
		Bucket:        getEnv("STORAGE_BUCKET", "practicas-documentos"),
		Region:        getEnv("STORAGE_REGION", "us-east-1"),
		UseSSL:        getEnvBool("STORAGE_USE_SSL", false),
		PresignExpiry: getEnvDuration("STORAGE_PRESIGN_EXPIRY", 15*time.Minute),
		MaxFileSize:   getEnvInt64("STORAGE_MAX_FILE_SIZE", 10<<20),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		Secret:   getEnv("AUTH_JWT_SECRET", ""),
		Issuer:   getEnv("AUTH_ISSUER", "practicas-hub"),
		TokenTTL: getEnvDuration("AUTH_TOKEN_TTL", 8*time.Hour),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Auth.Secret == "" && c.App.Environment != EnvDevelopment {
		errs = append(errs, "AUTH_JWT_SECRET is required outside development")
	}

	if c.App.Environment == EnvProduction {
		if c.Database.Password == "" {
			errs = append(errs, "DB_PASSWORD is required in production")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			errs = append(errs, "STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required in production")
		}
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, "HTTP_PORT must be 1-65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvSlice(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return defaultVal
	}
	return result
}
