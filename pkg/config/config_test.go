package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, "development", cfg.Server.Environment)
		assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
		assert.Equal(t, 3, cfg.Extract.MaxConcurrent)
		assert.Equal(t, 1.0, cfg.Extract.RatePerSecond)
		assert.Equal(t, 1, cfg.Extract.Burst)
		assert.Equal(t, 60*time.Second, cfg.Extract.Timeout)
		assert.Equal(t, ":memory:", cfg.Cache.Path)
		assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.Empty(t, cfg.Sites.Disabled)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("CLEANURI_SERVER_PORT", "8081")
		t.Setenv("CLEANURI_SERVER_ENVIRONMENT", "production")
		t.Setenv("CLEANURI_SERVER_ALLOWED_ORIGINS", "https://a.example,chrome-extension://*")
		t.Setenv("CLEANURI_EXTRACT_MAX_CONCURRENT", "5")
		t.Setenv("CLEANURI_EXTRACT_RATE_PER_SECOND", "0.5")
		t.Setenv("CLEANURI_EXTRACT_BURST", "2")
		t.Setenv("CLEANURI_EXTRACT_TIMEOUT", "15s")
		t.Setenv("CLEANURI_CACHE_PATH", "/var/lib/cleanuri/cache.db")
		t.Setenv("CLEANURI_CACHE_TTL", "1h")
		t.Setenv("CLEANURI_LOG_LEVEL", "debug")
		t.Setenv("CLEANURI_LOG_FORMAT", "json")
		t.Setenv("CLEANURI_SITES_DISABLED", "Spar,Hofer")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8081", cfg.Server.Port)
		assert.True(t, cfg.IsProduction())
		assert.Equal(t, []string{"https://a.example", "chrome-extension://*"}, cfg.Server.AllowedOrigins)
		assert.Equal(t, 5, cfg.Extract.MaxConcurrent)
		assert.Equal(t, 0.5, cfg.Extract.RatePerSecond)
		assert.Equal(t, 2, cfg.Extract.Burst)
		assert.Equal(t, 15*time.Second, cfg.Extract.Timeout)
		assert.Equal(t, "/var/lib/cleanuri/cache.db", cfg.Cache.Path)
		assert.Equal(t, time.Hour, cfg.Cache.TTL)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, []string{"Spar", "Hofer"}, cfg.Sites.Disabled)
	})

	t.Run("fails validation for zero concurrency", func(t *testing.T) {
		t.Setenv("CLEANURI_EXTRACT_MAX_CONCURRENT", "0")

		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, "invalid configuration: extract.max_concurrent must be at least 1, got: 0", err.Error())
	})

	t.Run("fails validation for invalid log format", func(t *testing.T) {
		t.Setenv("CLEANURI_LOG_FORMAT", "xml")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log format must be 'console' or 'json'")
	})

	t.Run("fails validation for non-positive rate", func(t *testing.T) {
		t.Setenv("CLEANURI_EXTRACT_RATE_PER_SECOND", "0")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestSiteEnabled(t *testing.T) {
	cfg := &Config{Sites: SitesConfig{Disabled: []string{"Spar"}}}

	assert.False(t, cfg.SiteEnabled("Spar"))
	assert.False(t, cfg.SiteEnabled("spar"))
	assert.True(t, cfg.SiteEnabled("Billa"))
}
