package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings loaded from env vars. Constructed once in
// main and passed down; nothing reads the environment after Load.
type Config struct {
	AppName  string
	Debug    bool
	HTTPPort string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	SMTP     SMTPConfig

	FrontendURL string
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig holds cache connection settings. Enabled is false when no
// REDIS_HOST is configured; the app runs without a cache in that case.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	SecretKey         string
	Algorithm         string
	AccessTokenExpiry time.Duration
}

// SMTPConfig holds mail submission settings for magic-link delivery.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	UseTLS    bool
}

// Load loads configuration from environment variables.
// Required in production: SECRET_KEY. Everything else has a default.
func Load() Config {
	return Config{
		AppName:  envOr("APP_NAME", "Neo Together"),
		Debug:    envBool("DEBUG", false),
		HTTPPort: envOr("PORT", "8080"),
		Database: DatabaseConfig{
			Host:     envOr("DB_HOST", "localhost"),
			Port:     envOr("DB_PORT", "5432"),
			User:     envOr("DB_USER", "postgres"),
			Password: envOr("DB_PASSWORD", "postgres"),
			Name:     envOr("DB_NAME", "neo_together"),
			SSLMode:  envOr("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  os.Getenv("REDIS_HOST") != "",
			Host:     envOr("REDIS_HOST", "localhost"),
			Port:     envInt("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			SecretKey:         envOr("SECRET_KEY", ""),
			Algorithm:         envOr("JWT_ALGORITHM", "HS256"),
			AccessTokenExpiry: time.Duration(envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*7)) * time.Minute,
		},
		SMTP: SMTPConfig{
			Host:      envOr("SMTP_HOST", "localhost"),
			Port:      envInt("SMTP_PORT", 587),
			Username:  os.Getenv("SMTP_USERNAME"),
			Password:  os.Getenv("SMTP_PASSWORD"),
			FromEmail: envOr("SMTP_FROM_EMAIL", "no-reply@neotogether.app"),
			UseTLS:    envBool("SMTP_USE_TLS", true),
		},
		FrontendURL: envOr("FRONTEND_URL", "http://localhost:5173"),
	}
}

// Validate checks that all required configuration is present and valid.
func (c Config) Validate() error {
	if c.Auth.SecretKey == "" && !c.Debug {
		return fmt.Errorf("SECRET_KEY is required outside debug mode")
	}
	if c.Auth.Algorithm != "HS256" && c.Auth.Algorithm != "HS384" && c.Auth.Algorithm != "HS512" {
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.Auth.Algorithm)
	}
	if c.Auth.AccessTokenExpiry <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
