package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/caninosoft/vetcore/backend/pkg/secrets"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Scheduling SchedulingConfig
	WhatsApp   WhatsAppConfig
	OTEL       OTELConfig
	Logging    LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration. Driver selects the storage
// backend: "postgres", "sqlite" or "memory".
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	SQLitePath string
	MaxConns   int
	MaxIdle    int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// SchedulingConfig holds scheduling core settings
type SchedulingConfig struct {
	// LockWait bounds calendar/stock lock acquisition before Busy is returned
	LockWait time.Duration
	// DefaultDurationMinutes is used when a booking request omits duration
	DefaultDurationMinutes int
	// BranchCapacity caps simultaneous overlapping reservations per branch;
	// 0 disables the cap and only per-veterinarian exclusivity applies
	BranchCapacity int
	// Working day bounds for open-slot suggestions, hours in 24h clock
	DayStartHour int
	DayEndHour   int
	// BackfillEnabled allows the administrative past-dated booking path
	BackfillEnabled bool
}

// WhatsAppConfig holds WhatsApp Cloud API configuration
type WhatsAppConfig struct {
	Enabled       bool
	AccessToken   string
	PhoneNumberID string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level       string
	Environment string
}

// Load loads configuration from the environment. A .env file is applied
// first when present, then Vault secrets when enabled, then the process
// environment wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	if _, err := secrets.HydrateFromVault(secrets.LoadVaultConfigFromEnv("")); err != nil {
		return nil, fmt.Errorf("vault secrets: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			Database:   getEnv("DB_NAME", "vetcore"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "vetcore.db"),
			MaxConns:   getEnvAsInt("DB_MAX_CONNS", 25),
			MaxIdle:    getEnvAsInt("DB_MAX_IDLE", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Scheduling: SchedulingConfig{
			LockWait:               getEnvAsDuration("SCHED_LOCK_WAIT", 3*time.Second),
			DefaultDurationMinutes: getEnvAsInt("SCHED_DEFAULT_DURATION_MIN", 30),
			BranchCapacity:         getEnvAsInt("SCHED_BRANCH_CAPACITY", 0),
			DayStartHour:           getEnvAsInt("SCHED_DAY_START_HOUR", 9),
			DayEndHour:             getEnvAsInt("SCHED_DAY_END_HOUR", 19),
			BackfillEnabled:        getEnvAsBool("SCHED_BACKFILL_ENABLED", false),
		},
		WhatsApp: WhatsAppConfig{
			Enabled:       getEnvAsBool("WHATSAPP_ENABLED", false),
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "vetcore-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("APP_ENV", "development"),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
