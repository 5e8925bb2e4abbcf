package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Store    StoreConfig
	Shipping ShippingConfig
	Carrier  CarrierConfig
	Payment  PaymentConfig
	Redis    RedisConfig
	S3       S3Config
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	AutoMigrate     bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds the secret used to verify shopper session tokens.
type AuthConfig struct {
	JWTSecret string
}

// StoreConfig describes the deployed storefront.
type StoreConfig struct {
	BaseURL  string
	Currency string
}

// Shipping cache backends.
const (
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"
)

// ShippingConfig holds the local shipping rules and the quote cache settings.
type ShippingConfig struct {
	OriginPostalCode  string
	PickupPostalCodes []string
	FreeThreshold     decimal.Decimal
	CacheBackend      string
	CacheTTLMinutes   int
}

// CacheTTL returns the quote freshness window.
func (c *ShippingConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// CarrierConfig holds the carrier rate API settings.
type CarrierConfig struct {
	APIURL         string
	APIToken       string
	UserAgent      string
	TimeoutSeconds int
}

// Timeout returns the carrier HTTP timeout.
func (c *CarrierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PaymentConfig holds the payment gateway settings.
type PaymentConfig struct {
	APIURL        string
	AccessToken   string
	WebhookSecret string
	SuccessPath   string // formatted with the order id
	FailurePath   string
}

// RedisConfig holds Redis connection settings for the redis quote cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// S3Config holds AWS S3 configuration for coupon catalog files.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "coupons/")
}

var postalCodePattern = regexp.MustCompile(`^\d{8}$`)

// Load loads configuration from an optional .env file and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "storefront"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Store: StoreConfig{
			BaseURL:  strings.TrimRight(getEnv("STORE_BASE_URL", ""), "/"),
			Currency: getEnv("STORE_CURRENCY", "BRL"),
		},
		Shipping: ShippingConfig{
			OriginPostalCode:  getEnv("SHIPPING_ORIGIN_POSTAL_CODE", "01001000"),
			PickupPostalCodes: getEnvAsList("SHIPPING_PICKUP_POSTAL_CODES"),
			FreeThreshold:     getEnvAsDecimal("SHIPPING_FREE_THRESHOLD", decimal.NewFromInt(9999)),
			CacheBackend:      getEnv("SHIPPING_CACHE_BACKEND", CacheBackendPostgres),
			CacheTTLMinutes:   getEnvAsInt("SHIPPING_CACHE_TTL_MINUTES", 30),
		},
		Carrier: CarrierConfig{
			APIURL:         getEnv("CARRIER_API_URL", "https://melhorenvio.com.br"),
			APIToken:       getEnv("CARRIER_API_TOKEN", ""),
			UserAgent:      getEnv("CARRIER_USER_AGENT", "storefront (contato@loja.com)"),
			TimeoutSeconds: getEnvAsInt("CARRIER_TIMEOUT_SECONDS", 10),
		},
		Payment: PaymentConfig{
			APIURL:        getEnv("PAYMENT_API_URL", "https://api.mercadopago.com"),
			AccessToken:   getEnv("PAYMENT_ACCESS_TOKEN", ""),
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
			SuccessPath:   getEnv("PAYMENT_SUCCESS_PATH", "/meus-pedidos/%s"),
			FailurePath:   getEnv("PAYMENT_FAILURE_PATH", "/sacola"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "coupons/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Store.BaseURL == "" {
		return fmt.Errorf("store base URL is required")
	}
	if u, err := url.Parse(c.Store.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid store base URL: %s", c.Store.BaseURL)
	}

	if c.Store.Currency == "" {
		return fmt.Errorf("store currency is required")
	}

	if !postalCodePattern.MatchString(c.Shipping.OriginPostalCode) {
		return fmt.Errorf("invalid origin postal code: %s", c.Shipping.OriginPostalCode)
	}

	for _, code := range c.Shipping.PickupPostalCodes {
		if !postalCodePattern.MatchString(code) {
			return fmt.Errorf("invalid pickup postal code: %s", code)
		}
	}

	if c.Shipping.FreeThreshold.IsNegative() {
		return fmt.Errorf("free shipping threshold cannot be negative")
	}

	if c.Shipping.CacheBackend != CacheBackendPostgres && c.Shipping.CacheBackend != CacheBackendRedis {
		return fmt.Errorf("invalid shipping cache backend: %s (must be postgres or redis)", c.Shipping.CacheBackend)
	}

	if c.Shipping.CacheTTLMinutes < 1 {
		return fmt.Errorf("shipping cache TTL must be at least 1 minute")
	}

	if c.Shipping.CacheBackend == CacheBackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when the redis cache backend is selected")
	}

	if c.Carrier.APIURL == "" {
		return fmt.Errorf("carrier API URL is required")
	}

	if c.Carrier.APIToken == "" {
		return fmt.Errorf("carrier API token is required")
	}

	if c.Carrier.TimeoutSeconds < 1 {
		return fmt.Errorf("carrier timeout must be at least 1 second")
	}

	if c.Payment.APIURL == "" {
		return fmt.Errorf("payment API URL is required")
	}

	if c.Payment.AccessToken == "" {
		return fmt.Errorf("payment access token is required")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDecimal retrieves an environment variable as a decimal or returns a default value.
func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping empty entries.
func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ReplaceAll(strings.TrimSpace(part), "-", "")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
