package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "PLAINTEXT", cfg.SearchSignatureMethod)
	assert.Equal(t, 10*time.Minute, cfg.RequestTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, "memory", cfg.SessionStore)
	assert.Equal(t, "https://secure.tmsandbox.co.nz", cfg.OAuthBaseURL)
	assert.False(t, cfg.ScrapeFallbackEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("APP_BASE_URL", "http://localhost:9090/")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("SCRAPE_FALLBACK_ENABLED", "true")
	t.Setenv("SCRAPE_SETTLE_DELAY", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "http://localhost:9090/auth/callback", cfg.CallbackURL())
	assert.Equal(t, "http://localhost:9090/auth/start", cfg.AuthStartURL())
	assert.Equal(t, "http://localhost:9090/search/results?auth=success", cfg.SuccessURL())
	assert.Equal(t, "redis", cfg.SessionStore)
	assert.True(t, cfg.ScrapeFallbackEnabled)
	assert.Equal(t, 2*time.Second, cfg.ScrapeSettleDelay)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("SESSION_STORE", "memcached")
	t.Setenv("TRADEME_SEARCH_SIGNATURE_METHOD", "RSA-SHA1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_STORE")
	assert.Contains(t, err.Error(), "TRADEME_SEARCH_SIGNATURE_METHOD")
}

func TestValidateProductionRequiresHTTPS(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("TRADEME_API_KEY", "key")
	t.Setenv("TRADEME_SECRET_KEY", "secret")
	t.Setenv("APP_BASE_URL", "http://rentals.example.nz")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_BASE_URL must be an https URL")
}

func TestValidateProductionRequiresConsumerCredentials(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("APP_BASE_URL", "https://rentals.example.nz")
	t.Setenv("TRADEME_API_KEY", "")
	t.Setenv("TRADEME_SECRET_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRADEME_API_KEY")
}

func TestValidateProductionAccepts(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("APP_BASE_URL", "https://rentals.example.nz")
	t.Setenv("TRADEME_API_KEY", "key")
	t.Setenv("TRADEME_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
