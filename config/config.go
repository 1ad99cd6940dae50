package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	BaseURL     string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	ConsumerKey           string        `env:"TRADEME_API_KEY"`
	ConsumerSecret        string        `env:"TRADEME_SECRET_KEY"`
	OAuthBaseURL          string        `env:"TRADEME_OAUTH_BASE_URL" envDefault:"https://secure.tmsandbox.co.nz"`
	APIBaseURL            string        `env:"TRADEME_API_BASE_URL" envDefault:"https://api.tmsandbox.co.nz"`
	WebBaseURL            string        `env:"TRADEME_WEB_BASE_URL" envDefault:"https://www.tmsandbox.co.nz"`
	SearchSignatureMethod string        `env:"TRADEME_SEARCH_SIGNATURE_METHOD" envDefault:"PLAINTEXT"`
	ProviderTimeout       time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"15s"`
	RequestTokenTTL       time.Duration `env:"REQUEST_TOKEN_TTL" envDefault:"10m"`
	AccessTokenTTL        time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"720h"`

	SessionStore  string `env:"SESSION_STORE" envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	PostgresDSN string `env:"POSTGRES_DSN"`

	ScrapeFallbackEnabled bool          `env:"SCRAPE_FALLBACK_ENABLED" envDefault:"false"`
	ChromeBin             string        `env:"CHROME_BIN"`
	ScrapeSettleDelay     time.Duration `env:"SCRAPE_SETTLE_DELAY" envDefault:"10s"`
	ScrapeWaitTimeout     time.Duration `env:"SCRAPE_WAIT_TIMEOUT" envDefault:"15s"`
	ScrapeTimeout         time.Duration `env:"SCRAPE_TIMEOUT" envDefault:"90s"`
	ScrapesPerMinute      int           `env:"SCRAPE_PER_MINUTE" envDefault:"6"`
	SelectorsFile         string        `env:"SELECTORS_FILE"`

	MaxConcurrency int    `env:"MAX_CONCURRENCY" envDefault:"3"`
	RateLimitMs    int    `env:"RATE_LIMIT_MS" envDefault:"2000"`
	MaxRetries     int    `env:"MAX_RETRIES" envDefault:"3"`
	CSVOutputPath  string `env:"CSV_OUTPUT_PATH" envDefault:"./output/listings.csv"`
}

// Load reads the .env file, parses the environment and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// CallbackURL is where the provider sends the user after authorization.
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/auth/callback"
}

// AuthStartURL is the entry point of the handshake.
func (c *Config) AuthStartURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/auth/start"
}

// SuccessURL is where the user lands once the handshake completes.
func (c *Config) SuccessURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/search/results?auth=success"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func (c *Config) validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort))
	}
	switch c.SessionStore {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be memory or redis, got %q", c.SessionStore))
	}
	switch c.SearchSignatureMethod {
	case "PLAINTEXT", "HMAC-SHA1":
	default:
		errs = append(errs, fmt.Errorf("TRADEME_SEARCH_SIGNATURE_METHOD must be PLAINTEXT or HMAC-SHA1, got %q", c.SearchSignatureMethod))
	}
	if c.RequestTokenTTL <= 0 || c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.ScrapesPerMinute < 1 {
		errs = append(errs, fmt.Errorf("SCRAPE_PER_MINUTE must be at least 1, got %d", c.ScrapesPerMinute))
	}

	// PLAINTEXT signatures carry the secrets verbatim, so production must
	// talk HTTPS end to end.
	if c.IsProduction() {
		if c.ConsumerKey == "" || c.ConsumerSecret == "" {
			errs = append(errs, errors.New("TRADEME_API_KEY and TRADEME_SECRET_KEY are required in production"))
		}
		for name, raw := range map[string]string{
			"APP_BASE_URL":           c.BaseURL,
			"TRADEME_OAUTH_BASE_URL": c.OAuthBaseURL,
			"TRADEME_API_BASE_URL":   c.APIBaseURL,
			"TRADEME_WEB_BASE_URL":   c.WebBaseURL,
		} {
			if u, err := url.Parse(raw); err != nil || u.Scheme != "https" {
				errs = append(errs, fmt.Errorf("%s must be an https URL in production, got %q", name, raw))
			}
		}
	}

	return errors.Join(errs...)
}
