package services

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"rental-search/models"
	"rental-search/utils"
)

const (
	// DefaultMatchScore is the starting score for externally sourced listings.
	DefaultMatchScore = 85
	PlaceholderImage  = "https://via.placeholder.com/300x200?text=No+Image"
)

var (
	// priceRegexp captures the first run of digits and commas, e.g. "$1,250 per week"
	priceRegexp = regexp.MustCompile(`\$?([\d,]+)`)
	// monthlyRegexp spots prices quoted per month so they can be converted to weekly
	monthlyRegexp = regexp.MustCompile(`(?i)(per|/|a)\s*(month|mth|pcm)`)
)

// Cleaner transforms RawListings into normalized Listings. Unreadable fields
// fall back to safe defaults; listings are never dropped for missing data.
type Cleaner struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger, now: time.Now}
}

// Clean processes raw listings and returns normalized records. Listings
// sharing a non-empty URL are collapsed to the first one seen.
func (c *Cleaner) Clean(raw []models.RawListing) []models.Listing {
	seen := utils.NewURLSet()
	result := make([]models.Listing, 0, len(raw))

	for _, r := range raw {
		link := strings.TrimSpace(r.URL)
		if link != "" && !seen.Add(link) {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", link)
			continue
		}

		title := orDefault(normaliseText(r.Title), "No Title")
		listing := models.Listing{
			Title:       title,
			Location:    orDefault(normaliseText(r.Location), "Unknown Location"),
			Price:       c.parsePrice(r.RawPrice),
			Bedrooms:    nonNegative(r.Bedrooms),
			Bathrooms:   nonNegative(r.Bathrooms),
			Description: orDefault(normaliseText(r.Description), orDefault(normaliseText(r.Title), "No Description")),
			ImageURL:    orDefault(strings.TrimSpace(r.ImageURL), PlaceholderImage),
			MatchScore:  DefaultMatchScore,
			Available:   orDefault(normaliseText(r.Available), "Now"),
			ExternalURL: link,
			Source:      orDefault(strings.TrimSpace(r.Source), "Unknown"),
			CreatedAt:   r.ScrapedAt,
		}
		listing.ID = listingID(r, listing)
		if listing.CreatedAt.IsZero() {
			listing.CreatedAt = c.now()
		}

		result = append(result, listing)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (merged %d duplicates)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// parsePrice extracts a weekly rent. Unparseable input is 0.
// Examples:
//
//	"$450 per week" → 450
//	"$1,300 per month" → 300 (1300*12/52)
//	"Enquire" → 0
func (c *Cleaner) parsePrice(raw string) float64 {
	m := priceRegexp.FindStringSubmatch(raw)
	if len(m) < 2 {
		return 0
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}

	if monthlyRegexp.MatchString(raw) {
		weekly := round2(price * 12 / 52)
		c.logger.Debug("[cleaner] Monthly price detected: $%.2f/month = $%.2f/week", price, weekly)
		return weekly
	}
	return price
}

// listingID prefers the source's own ID. Without one the ID is a hash of the
// cleaned title, location and price, so it stays the same across scrapes.
func listingID(r models.RawListing, l models.Listing) string {
	prefix := strings.ToLower(strings.Join(strings.Fields(orDefault(r.Source, "listing")), "-"))
	if id := strings.TrimSpace(r.ExternalID); id != "" {
		return prefix + "-" + id
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%.2f", strings.ToLower(l.Title), strings.ToLower(l.Location), l.Price)
	return fmt.Sprintf("%s-%016x", prefix, h.Sum64())
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
