package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// CacheConfig holds query-cache settings. TTLs follow the read endpoints:
// filtered list, single claim, per-claim history, global history.
type CacheConfig struct {
	Backend       string // "memory" or "redis"
	ListTTL       time.Duration
	ClaimTTL      time.Duration
	HistoryTTL    time.Duration
	AllHistoryTTL time.Duration
}

// RedisConfig holds Redis connection settings (only used when the cache
// backend is "redis")
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthUser is a statically provisioned login identity. User management is an
// external concern; the service only needs a principal for attribution.
type AuthUser struct {
	ID       int
	Email    string
	Password string
	Name     string
	Role     string
}

// AuthConfig holds token issuance settings
type AuthConfig struct {
	TokenTTL time.Duration
	Users    []AuthUser
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "claimtrack"),
			User:        getEnv("POSTGRES_USER", "claimtrack"),
			Password:    getEnv("POSTGRES_PASSWORD", "claimtrack"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 20),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Cache: CacheConfig{
			Backend:       getEnv("CACHE_BACKEND", "memory"),
			ListTTL:       getEnvDuration("CACHE_LIST_TTL", 30*time.Second),
			ClaimTTL:      getEnvDuration("CACHE_CLAIM_TTL", 60*time.Second),
			HistoryTTL:    getEnvDuration("CACHE_HISTORY_TTL", 2*time.Minute),
			AllHistoryTTL: getEnvDuration("CACHE_ALL_HISTORY_TTL", 60*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			TokenTTL: getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
			Users:    loadAuthUsers(),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// loadAuthUsers reads the two statically provisioned accounts. Accounts with
// no configured password are omitted, which disables that login entirely.
func loadAuthUsers() []AuthUser {
	var users []AuthUser
	if pw := os.Getenv("AUTH_ADMIN_PASSWORD"); pw != "" {
		users = append(users, AuthUser{
			ID:       1,
			Email:    getEnv("AUTH_ADMIN_EMAIL", "admin@claimtrack.local"),
			Password: pw,
			Name:     getEnv("AUTH_ADMIN_NAME", "Admin User"),
			Role:     "Admin",
		})
	}
	if pw := os.Getenv("AUTH_USER_PASSWORD"); pw != "" {
		users = append(users, AuthUser{
			ID:       2,
			Email:    getEnv("AUTH_USER_EMAIL", "user@claimtrack.local"),
			Password: pw,
			Name:     getEnv("AUTH_USER_NAME", "Regular User"),
			Role:     "User",
		})
	}
	return users
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the host:port address for the Redis cache backend
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
