// Command scrape collects rental listings from the provider's public search
// pages for a set of locations, without API credentials, and stores them as
// CSV and (optionally) PostgreSQL snapshots before printing a summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"rental-search/config"
	"rental-search/models"
	scrapetm "rental-search/scraper/trademe"
	"rental-search/services"
	"rental-search/storage"
	"rental-search/utils"
)

func main() {
	locations := flag.String("locations", "wellington,auckland,christchurch", "comma-separated locations to scrape")
	flag.Parse()

	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}
	logger = utils.NewLoggerWithLevel(utils.ParseLevel(cfg.LogLevel))

	targets := splitLocations(*locations)
	if len(targets) == 0 {
		logger.Error("No locations given. Use -locations wellington,auckland")
		os.Exit(2)
	}

	logger.Info("=== Rental Scrape starting ===")
	logger.Info("Config — locations: %s | concurrency: %d | rate: %dms | scrapes/min: %d",
		strings.Join(targets, ", "), cfg.MaxConcurrency, cfg.RateLimitMs, cfg.ScrapesPerMinute)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	selectors, err := scrapetm.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		logger.Error("Failed to load selectors: %v", err)
		os.Exit(1)
	}
	scraper := scrapetm.New(scrapetm.NewChromeLauncher(cfg.ChromeBin, logger), scrapetm.Config{
		WebBaseURL:  cfg.WebBaseURL,
		SettleDelay: cfg.ScrapeSettleDelay,
		WaitTimeout: cfg.ScrapeWaitTimeout,
		Timeout:     cfg.ScrapeTimeout,
		PerMinute:   cfg.ScrapesPerMinute,
		Selectors:   selectors,
	}, logger)

	rawListings := scrapeAll(ctx, scraper, targets, utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs), logger)
	if len(rawListings) == 0 {
		logger.Error("No listings were scraped. Exiting.")
		os.Exit(1)
	}
	logger.Info("Scraped %d raw listings", len(rawListings))

	cleaner := services.NewCleaner(logger)
	listings := cleaner.Clean(rawListings)

	writers := []storage.ListingWriter{}
	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	writers = append(writers, csvWriter)

	var pgWriter *storage.PostgresWriter
	if cfg.PostgresDSN != "" {
		pgWriter, err = storage.NewPostgresWriter(ctx, cfg.PostgresDSN, &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
		} else {
			writers = append(writers, pgWriter)
		}
	}

	for _, w := range writers {
		if err := w.Write(ctx, listings); err != nil {
			logger.Error("Write failed (%T): %v", w, err)
		}
	}

	report := listings
	if pgWriter != nil {
		if stored, err := pgWriter.FetchAll(ctx, services.DefaultMatchScore); err != nil {
			logger.Error("Failed to fetch listings from DB for insights: %v", err)
		} else {
			report = stored
		}
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(report))

	for _, w := range writers {
		if err := w.Close(); err != nil {
			logger.Warn("Close failed (%T): %v", w, err)
		}
	}

	dest := "CSV → " + cfg.CSVOutputPath
	if pgWriter != nil {
		dest += " | PostgreSQL (listings table)"
	}
	fmt.Printf("  Done. %s\n\n", dest)
}

// scrapeAll runs one scrape per location on the pool. A failed location is
// logged and skipped.
func scrapeAll(ctx context.Context, scraper *scrapetm.Scraper, targets []string, pool *utils.WorkerPool, logger *utils.Logger) []models.RawListing {
	var (
		mu  sync.Mutex
		all []models.RawListing
	)
	for _, loc := range targets {
		pool.SubmitContext(ctx, func(ctx context.Context) {
			raw, err := scraper.Scrape(ctx, models.SearchCriteria{Location: loc})
			if err != nil {
				logger.Error("[scrape] %s: %v", loc, err)
				return
			}
			logger.Info("[scrape] %s: %d listings", loc, len(raw))
			mu.Lock()
			all = append(all, raw...)
			mu.Unlock()
		})
	}
	pool.Wait()
	return all
}

func splitLocations(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
