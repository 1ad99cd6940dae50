package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	apperrors "rental-search/errors"
	"rental-search/models"
	"rental-search/utils"
)

// ListingSource is anything that can answer a search with normalized listings.
type ListingSource interface {
	Name() string
	Search(ctx context.Context, c models.SearchCriteria) ([]models.Listing, error)
}

// Aggregator merges listings from several sources, filters them against the
// criteria and ranks them by keyword-adjusted match score.
type Aggregator struct {
	sources []ListingSource
	logger  *utils.Logger
}

// NewAggregator creates an Aggregator querying sources in the given order.
func NewAggregator(logger *utils.Logger, sources ...ListingSource) *Aggregator {
	return &Aggregator{sources: sources, logger: logger}
}

// Search queries every source in turn. A failing source never fails the
// search; it is reported under MissingSources, with its re-auth URL when
// the failure was an authentication requirement. A listing ID seen from an
// earlier source shadows later copies.
func (a *Aggregator) Search(ctx context.Context, c models.SearchCriteria) models.SearchResult {
	res := models.SearchResult{
		Listings:       []models.Listing{},
		Sources:        []string{},
		MissingSources: []string{},
		AuthURLs:       map[string]string{},
	}

	var combined []models.Listing
	seen := make(map[string]struct{})
	for _, src := range a.sources {
		if err := ctx.Err(); err != nil {
			res.MissingSources = append(res.MissingSources, src.Name())
			continue
		}
		listings, err := src.Search(ctx, c)
		if err != nil {
			a.recordFailure(&res, src.Name(), err)
			continue
		}
		res.Sources = append(res.Sources, src.Name())
		for _, l := range listings {
			if _, dup := seen[l.ID]; dup {
				a.logger.Debug("[aggregator] dropping duplicate %s from %s", l.ID, src.Name())
				continue
			}
			seen[l.ID] = struct{}{}
			combined = append(combined, l)
		}
	}

	res.Listings = Rank(combined, c)
	res.Count = len(res.Listings)
	a.logger.Info("[aggregator] %d listings from %d sources (%d missing)",
		res.Count, len(res.Sources), len(res.MissingSources))
	return res
}

func (a *Aggregator) recordFailure(res *models.SearchResult, name string, err error) {
	res.MissingSources = append(res.MissingSources, name)
	if u, ok := apperrors.AuthURL(err); ok {
		res.AuthURLs[name] = u
		a.logger.Info("[aggregator] %s needs authorization", name)
		return
	}
	a.logger.Warn("[aggregator] %s failed: %v", name, err)
}

// Rank filters listings against c, applies keyword scoring to copies and
// returns them ordered by descending score. Equal scores keep input order.
func Rank(listings []models.Listing, c models.SearchCriteria) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if !Matches(l, c) {
			continue
		}
		ApplyScore(&l, c.PositiveKeywords, c.NegativeKeywords)
		out = append(out, l)
	}
	slices.SortStableFunc(out, func(x, y models.Listing) int {
		return y.MatchScore - x.MatchScore
	})
	return out
}

// Matches reports whether l satisfies every bound set in c.
func Matches(l models.Listing, c models.SearchCriteria) bool {
	if loc := strings.TrimSpace(c.Location); loc != "" &&
		!strings.Contains(strings.ToLower(l.Location), strings.ToLower(loc)) {
		return false
	}
	if c.MinPrice != nil && l.Price < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && l.Price > *c.MaxPrice {
		return false
	}
	if c.MinBedrooms != nil && l.Bedrooms < *c.MinBedrooms {
		return false
	}
	if c.MinBathrooms != nil && l.Bathrooms < *c.MinBathrooms {
		return false
	}
	return true
}

// FallbackSource tries Primary and, on any failure, Fallback. Listings keep
// the source label their producer gave them.
type FallbackSource struct {
	Primary  ListingSource
	Fallback ListingSource
	Logger   *utils.Logger
}

func (f *FallbackSource) Name() string { return f.Primary.Name() }

func (f *FallbackSource) Search(ctx context.Context, c models.SearchCriteria) ([]models.Listing, error) {
	listings, err := f.Primary.Search(ctx, c)
	if err == nil {
		return listings, nil
	}
	if f.Fallback == nil {
		return nil, err
	}

	f.Logger.Warn("[fallback] %s failed (%v), trying %s", f.Primary.Name(), err, f.Fallback.Name())
	fallback, ferr := f.Fallback.Search(ctx, c)
	if ferr != nil {
		// Prefer the primary's authentication error so the caller can still
		// send the user to authorize.
		if errors.Is(err, apperrors.ErrAuthenticationRequired) {
			return nil, err
		}
		return nil, ferr
	}
	return fallback, nil
}
