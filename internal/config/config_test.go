package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	cfg := Load()

	assert.Equal(t, "Neo Together", cfg.AppName)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.AccessTokenExpiry)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "60")
	t.Setenv("SMTP_USE_TLS", "false")

	cfg := Load()

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "5433", cfg.Database.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, "test-secret", cfg.Auth.SecretKey)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenExpiry)
	assert.False(t, cfg.SMTP.UseTLS)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"secret key set", func(c *Config) { c.Auth.SecretKey = "s" }, false},
		{"missing secret key", func(c *Config) { c.Auth.SecretKey = "" }, true},
		{"debug allows empty secret", func(c *Config) { c.Auth.SecretKey = ""; c.Debug = true }, false},
		{"bad algorithm", func(c *Config) { c.Auth.SecretKey = "s"; c.Auth.Algorithm = "RS256" }, true},
		{"zero expiry", func(c *Config) { c.Auth.SecretKey = "s"; c.Auth.AccessTokenExpiry = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			cfg := Load()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
