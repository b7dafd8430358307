package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(5001), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Empty(t, cfg.HTTP.PublicURL)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Empty(t, cfg.Auth.Secret)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, "http", cfg.Backend.Scheme)
	assert.Equal(t, "127.0.0.1", cfg.Backend.Host)
	assert.Equal(t, int32(5000), cfg.Backend.Port)
	assert.Equal(t, DefaultTokenSize, cfg.Tokens.Size)
	assert.Equal(t, time.Minute, cfg.Tokens.BookTTL)
	assert.Equal(t, time.Hour, cfg.Tokens.CoverTTL)
	assert.False(t, cfg.Sweep.Enabled)
	assert.Equal(t, "*/30 * * * *", cfg.Sweep.Schedule)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("BACKEND_HOST", "prosa.internal")
	t.Setenv("TOKEN_BOOK_TTL", "5m")
	t.Setenv("SWEEP_ENABLED", "true")

	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, "prosa.internal", cfg.Backend.Host)
	assert.Equal(t, 5*time.Minute, cfg.Tokens.BookTTL)
	assert.True(t, cfg.Sweep.Enabled)
}
