package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"rental-search/catalog"
	"rental-search/config"
	"rental-search/handlers"
	"rental-search/httpclient"
	"rental-search/oauth"
	scrapetm "rental-search/scraper/trademe"
	"rental-search/services"
	"rental-search/session"
	"rental-search/storage"
	"rental-search/trademe"
	"rental-search/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}
	logger = utils.NewLoggerWithLevel(utils.ParseLevel(cfg.LogLevel))

	logger.Info("=== Rental Search starting (%s) ===", cfg.Environment)
	logger.Info("Config — port: %d | session store: %s | search signing: %s | scrape fallback: %v",
		cfg.HTTPPort, cfg.SessionStore, cfg.SearchSignatureMethod, cfg.ScrapeFallbackEnabled)
	if cfg.ConsumerKey == "" {
		logger.Warn("TRADEME_API_KEY is not set; the handshake will be rejected by the provider")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to set up session store: %v", err)
		os.Exit(1)
	}
	defer closeStore()

	signer := oauth.NewSigner(cfg.ConsumerKey, cfg.ConsumerSecret)
	oauthClient := httpclient.New(httpclient.DefaultConfig("trademe-oauth", cfg.ProviderTimeout), logger)
	apiClient := httpclient.New(httpclient.DefaultConfig("trademe-api", cfg.ProviderTimeout), logger)

	handshake := oauth.NewHandshake(signer, oauthClient, store, oauth.HandshakeConfig{
		Endpoints:       oauth.ProviderEndpoints(cfg.OAuthBaseURL),
		CallbackURL:     cfg.CallbackURL(),
		SuccessURL:      cfg.SuccessURL(),
		RequestTokenTTL: cfg.RequestTokenTTL,
		AccessTokenTTL:  cfg.AccessTokenTTL,
	}, logger)

	fetcher := trademe.NewFetcher(apiClient, signer, trademe.FetcherConfig{
		APIBaseURL:      cfg.APIBaseURL,
		WebBaseURL:      cfg.WebBaseURL,
		SignatureMethod: cfg.SearchSignatureMethod,
		AuthStartURL:    cfg.AuthStartURL(),
	}, logger)

	var external services.ListingSource = trademe.NewSource(fetcher, store)
	if cfg.ScrapeFallbackEnabled {
		scraper, err := newScraper(cfg, logger)
		if err != nil {
			logger.Error("Failed to set up scraper: %v", err)
			os.Exit(1)
		}
		external = &services.FallbackSource{
			Primary:  external,
			Fallback: scrapetm.NewSource(scraper, services.NewCleaner(logger)),
			Logger:   logger,
		}
	}

	properties := catalog.Default()
	sources := []services.ListingSource{properties, external}

	if cfg.PostgresDSN != "" {
		pg, err := storage.NewPostgresWriter(ctx, cfg.PostgresDSN, &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			os.Exit(1)
		}
		defer pg.Close()
		sources = append(sources, &storage.PostgresSource{Writer: pg, BaseScore: services.DefaultMatchScore})
		logger.Info("Serving stored listing snapshots from PostgreSQL")
	}

	aggregator := services.NewAggregator(logger, sources...)

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:           handlers.NewAuthHandler(handshake, logger),
		Listings:       handlers.NewListingsHandler(aggregator, external, properties, logger),
		Logger:         logger,
		SecureCookies:  cfg.IsProduction(),
		SessionTTL:     cfg.AccessTokenTTL,
		RequestTimeout: cfg.ScrapeTimeout + cfg.ProviderTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Listening on %s (public URL %s)", cfg.Addr(), cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
	logger.Info("Stopped")
}

func newSessionStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (session.Store, func(), error) {
	if cfg.SessionStore != "redis" {
		logger.Info("Using in-memory session store")
		return session.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do(ctx, "redis ping", func() error { return client.Ping(ctx).Err() }); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("Using Redis session store at %s", cfg.RedisAddr)
	return session.NewRedisStore(client), func() { _ = client.Close() }, nil
}

func newScraper(cfg *config.Config, logger *utils.Logger) (*scrapetm.Scraper, error) {
	selectors, err := scrapetm.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		return nil, err
	}
	return scrapetm.New(scrapetm.NewChromeLauncher(cfg.ChromeBin, logger), scrapetm.Config{
		WebBaseURL:  cfg.WebBaseURL,
		SettleDelay: cfg.ScrapeSettleDelay,
		WaitTimeout: cfg.ScrapeWaitTimeout,
		Timeout:     cfg.ScrapeTimeout,
		PerMinute:   cfg.ScrapesPerMinute,
		Selectors:   selectors,
	}, logger), nil
}
