// Package trademe drives a headless browser against the provider's public
// rental search pages. Listings come from captured API responses when the
// page fetches them as JSON, otherwise from the rendered listing cards.
package trademe

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	apperrors "rental-search/errors"
	"rental-search/models"
	"rental-search/utils"
)

// SourceName labels listings produced by the scraper.
const SourceName = "TradeMe"

var scrapeResults = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scrape_results_total",
		Help: "Scrape runs by the tier that produced listings (network, dom, none, error)",
	},
	[]string{"tier"},
)

// Config holds scraper timing and target settings.
type Config struct {
	WebBaseURL string
	// SettleDelay is a fixed pause after navigation for client-side
	// rendering and background API calls.
	SettleDelay time.Duration
	// WaitTimeout bounds the race between wait selectors. Expiry is logged,
	// not fatal.
	WaitTimeout time.Duration
	// Timeout bounds a whole scrape including browser start-up.
	Timeout time.Duration
	// PerMinute caps browser launches across all callers.
	PerMinute int
	Selectors SelectorConfig
}

// Scraper orchestrates one browser session per search.
type Scraper struct {
	launcher Launcher
	cfg      Config
	limiter  *rate.Limiter
	logger   *utils.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates a Scraper.
func New(launcher Launcher, cfg Config, logger *utils.Logger) *Scraper {
	if cfg.PerMinute < 1 {
		cfg.PerMinute = 1
	}
	if cfg.Selectors.CardSelectors == nil {
		cfg.Selectors = DefaultSelectors()
	}
	return &Scraper{
		launcher: launcher,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.PerMinute)), 1),
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// SearchPageURL is the public results page scraped for criteria.
func (s *Scraper) SearchPageURL(c models.SearchCriteria) string {
	q := url.Values{}
	if c.Location != "" {
		q.Set("search_string", c.Location)
	}
	if c.MinPrice != nil {
		q.Set("price_min", strconv.FormatFloat(*c.MinPrice, 'f', -1, 64))
	}
	if c.MaxPrice != nil {
		q.Set("price_max", strconv.FormatFloat(*c.MaxPrice, 'f', -1, 64))
	}
	if c.MinBedrooms != nil {
		q.Set("bedrooms_min", strconv.Itoa(*c.MinBedrooms))
	}
	if c.MinBathrooms != nil {
		q.Set("bathrooms_min", strconv.Itoa(*c.MinBathrooms))
	}

	u := strings.TrimRight(s.cfg.WebBaseURL, "/") + "/a/property/residential/rent/search"
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// Scrape returns raw listings for criteria. Any failure before extraction
// is a single scrape error with no partial results. A page without
// listings yields an empty slice and no error. The browser session is
// closed on every path, panics included.
func (s *Scraper) Scrape(ctx context.Context, c models.SearchCriteria) ([]models.RawListing, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, s.fail(fmt.Errorf("waiting for launch slot: %w", err))
	}

	sess, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, s.fail(fmt.Errorf("launch browser: %w", err))
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.logger.Warn("[scraper] Closing browser session: %v", cerr)
		}
	}()

	if err := sess.InterceptResponses(s.matchesAPI); err != nil {
		return nil, s.fail(fmt.Errorf("enable interception: %w", err))
	}

	target := s.SearchPageURL(c)
	s.logger.Info("[scraper] Navigating to %s", target)
	if err := sess.Navigate(ctx, target); err != nil {
		return nil, s.fail(fmt.Errorf("navigate: %w", err))
	}

	if err := s.sleep(ctx, s.cfg.SettleDelay); err != nil {
		return nil, s.fail(fmt.Errorf("waiting for page to settle: %w", err))
	}
	if err := sess.WaitForAny(ctx, s.cfg.Selectors.WaitSelectors, s.cfg.WaitTimeout); err != nil {
		s.logger.Warn("[scraper] %v, continuing anyway", err)
	}

	now := s.now()
	if items, from := listingsFromCaptured(sess.Captured(), s.cfg.Selectors); len(items) > 0 {
		s.logger.Info("[scraper] Captured %d listings from %s", len(items), from)
		scrapeResults.WithLabelValues("network").Inc()
		return rawFromItems(items, s.cfg.Selectors, s.cfg.WebBaseURL, now), nil
	}

	html, err := sess.HTML(ctx)
	if err != nil {
		return nil, s.fail(fmt.Errorf("read rendered page: %w", err))
	}
	raw, err := rawFromDOM(html, target, s.cfg.Selectors, now)
	if err != nil {
		return nil, s.fail(fmt.Errorf("parse rendered page: %w", err))
	}
	if len(raw) == 0 {
		s.logger.Warn("[scraper] No listing cards matched on %s", target)
		scrapeResults.WithLabelValues("none").Inc()
		return []models.RawListing{}, nil
	}

	s.logger.Info("[scraper] Extracted %d listings from page markup", len(raw))
	scrapeResults.WithLabelValues("dom").Inc()
	return raw, nil
}

func (s *Scraper) matchesAPI(rawURL, contentType string) bool {
	if !strings.Contains(strings.ToLower(contentType), "json") {
		return false
	}
	lower := strings.ToLower(rawURL)
	for _, p := range s.cfg.Selectors.APIURLPatterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func (s *Scraper) fail(err error) error {
	s.logger.Error("[scraper] %v", err)
	scrapeResults.WithLabelValues("error").Inc()
	return apperrors.Scrape(err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
