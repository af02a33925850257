package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ReadsYAML(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 720*time.Hour, cfg.Listing.DefaultLifetime)
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoad_LegacyEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("PG_HOST", "db.internal")
	t.Setenv("RATE_LIMIT_MAX", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 5, cfg.RateLimit.MaxRequests)
}
