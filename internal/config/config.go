package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Authentication Configuration
	Auth AuthConfig

	// Development login configuration
	Dev DevConfig

	// Logging Configuration
	Logging LoggingConfig
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// AuthConfig holds token lifetime configuration
type AuthConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// DevConfig holds development-mode login configuration
type DevConfig struct {
	LoginEnabled    bool   // Expose /auth/login/dummy and /auth/dummy-credentials
	CredentialsFile string // YAML file with seeded development users
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8002"
	}

	// Database URL - default to dairychain.sqlite, allow override for dev
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "dairychain.sqlite"
	}

	// Redis address - default to localhost:6379, allow override for dev/docker
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	// Token lifetimes - short-lived access, long-lived refresh
	accessTTL := durationFromEnv("ACCESS_TOKEN_TTL_MINUTES", 15) * time.Minute
	refreshTTL := durationFromEnv("REFRESH_TOKEN_TTL_HOURS", 24*7) * time.Hour

	devLogin := os.Getenv("DEV_LOGIN_ENABLED") == "true"
	devCredsFile := os.Getenv("DEV_CREDENTIALS_FILE")
	if devCredsFile == "" {
		devCredsFile = "dev_credentials.yaml"
	}

	// Logging configuration - defaults suitable for production
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}

	return &Config{
		HTTP: HTTPConfig{
			Port: port,
		},
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Redis: RedisConfig{
			Address: redisAddr,
		},
		Auth: AuthConfig{
			AccessTokenTTL:  accessTTL,
			RefreshTokenTTL: refreshTTL,
		},
		Dev: DevConfig{
			LoginEnabled:    devLogin,
			CredentialsFile: devCredsFile,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}

func durationFromEnv(key string, fallback int64) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallback)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return time.Duration(fallback)
	}
	return time.Duration(n)
}
