package trademe

import (
	"context"

	"rental-search/models"
)

// Normalizer turns raw scraped records into normalized listings.
type Normalizer interface {
	Clean(raw []models.RawListing) []models.Listing
}

// Source exposes the Scraper as a listing source.
type Source struct {
	scraper    *Scraper
	normalizer Normalizer
}

// NewSource creates a scraping listing source.
func NewSource(scraper *Scraper, normalizer Normalizer) *Source {
	return &Source{scraper: scraper, normalizer: normalizer}
}

func (s *Source) Name() string { return SourceName + " (web)" }

func (s *Source) Search(ctx context.Context, c models.SearchCriteria) ([]models.Listing, error) {
	raw, err := s.scraper.Scrape(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Clean(raw), nil
}
