package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rental-search/errors"
	"rental-search/models"
)

type stubSource struct {
	name     string
	listings []models.Listing
	err      error
	calls    int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Search(context.Context, models.SearchCriteria) ([]models.Listing, error) {
	s.calls++
	return s.listings, s.err
}

func ptr[T any](v T) *T { return &v }

func fixtureListings() []models.Listing {
	return []models.Listing{
		{ID: "a", Location: "Wellington", Price: 550, Bedrooms: 2, Bathrooms: 1, MatchScore: 95,
			Description: "Sunny apartment close to a busy road"},
		{ID: "b", Location: "Lower Hutt", Price: 650, Bedrooms: 3, Bathrooms: 2, MatchScore: 88,
			Description: "Quiet family home with garden"},
		{ID: "c", Location: "Auckland", Price: 420, Bedrooms: 1, Bathrooms: 1, MatchScore: 82,
			Description: "Compact studio near cafes"},
		{ID: "d", Location: "Wellington Central", Price: 480, Bedrooms: 2, Bathrooms: 1, MatchScore: 88,
			Description: "Renovated flat"},
	}
}

func ids(ls []models.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func TestParseKeywords(t *testing.T) {
	assert.Equal(t, []string{"sunny", "quiet", "garden"}, ParseKeywords("  Sunny, quiet,,garden "))
	assert.Nil(t, ParseKeywords(" , "))
}

func TestApplyScore(t *testing.T) {
	tests := []struct {
		name     string
		base     int
		desc     string
		pos, neg []string
		want     int
	}{
		{"positive", 95, "Sunny flat", []string{"sunny"}, nil, 98},
		{"negative", 95, "Busy street", nil, []string{"busy"}, 80},
		{"positive capped", 99, "sunny quiet", []string{"sunny", "quiet"}, nil, 100},
		{"negative floored", 20, "busy noisy", nil, []string{"busy", "noisy"}, 0},
		{"both from same base", 95, "sunny but busy", []string{"sunny"}, []string{"busy"}, 83},
		{"keyword counted once", 50, "sunny sunny sunny", []string{"sunny"}, nil, 53},
		{"case insensitive", 50, "SUNNY", []string{"Sunny"}, nil, 53},
		{"no match", 85, "plain", []string{"pool"}, []string{"mould"}, 85},
		{"capped positive then negative", 99, "sunny quiet busy", []string{"sunny", "quiet"}, []string{"busy"}, 85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := models.Listing{MatchScore: tt.base, Description: tt.desc}
			ApplyScore(&l, tt.pos, tt.neg)
			assert.Equal(t, tt.want, l.MatchScore)
			assert.GreaterOrEqual(t, l.MatchScore, 0)
			assert.LessOrEqual(t, l.MatchScore, 100)
		})
	}
}

func TestRankFilters(t *testing.T) {
	all := fixtureListings()

	got := Rank(all, models.SearchCriteria{Location: "wellington"})
	assert.Equal(t, []string{"a", "d"}, ids(got))

	got = Rank(all, models.SearchCriteria{MinPrice: ptr(450.0), MaxPrice: ptr(600.0)})
	assert.Equal(t, []string{"a", "d"}, ids(got))
	for _, l := range got {
		assert.True(t, l.Price >= 450 && l.Price <= 600)
	}

	got = Rank(all, models.SearchCriteria{MinBedrooms: ptr(3)})
	assert.Equal(t, []string{"b"}, ids(got))

	got = Rank(all, models.SearchCriteria{MinBathrooms: ptr(2)})
	assert.Equal(t, []string{"b"}, ids(got))

	assert.Empty(t, Rank(all, models.SearchCriteria{MinPrice: ptr(600.0), MaxPrice: ptr(400.0)}))
}

func TestRankStableAndDoesNotMutateInput(t *testing.T) {
	all := fixtureListings()
	c := models.SearchCriteria{PositiveKeywords: []string{"garden"}, NegativeKeywords: []string{"busy"}}

	first := Rank(all, c)
	second := Rank(all, c)

	// b: 88+3=91, d: 88 (ties with nothing), a: 95-15=80, c: 82
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids(first))
	assert.Equal(t, first, second)
	assert.Equal(t, 95, all[0].MatchScore)
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	ls := []models.Listing{{ID: "x", MatchScore: 85}, {ID: "y", MatchScore: 90}, {ID: "z", MatchScore: 85}}
	assert.Equal(t, []string{"y", "x", "z"}, ids(Rank(ls, models.SearchCriteria{})))
}

func TestAggregatorScenario(t *testing.T) {
	catalog := &stubSource{name: "Catalog", listings: fixtureListings()}
	agg := NewAggregator(newTestLogger(), catalog)

	res := agg.Search(context.Background(), models.SearchCriteria{
		Location:         "Wellington",
		PositiveKeywords: []string{"sunny"},
	})

	require.Equal(t, 2, res.Count)
	assert.Equal(t, "a", res.Listings[0].ID)
	assert.Equal(t, 98, res.Listings[0].MatchScore)
	assert.Equal(t, []string{"Catalog"}, res.Sources)
	assert.Empty(t, res.MissingSources)
}

func TestAggregatorRecordsFailingSources(t *testing.T) {
	catalog := &stubSource{name: "Catalog", listings: fixtureListings()[:1]}
	api := &stubSource{name: "TradeMe", err: apperrors.AuthenticationRequired("http://localhost:8080/auth/start")}
	broken := &stubSource{name: "Snapshots", err: errors.New("connection refused")}
	agg := NewAggregator(newTestLogger(), catalog, api, broken)

	res := agg.Search(context.Background(), models.SearchCriteria{})

	assert.Equal(t, 1, res.Count)
	assert.Equal(t, []string{"Catalog"}, res.Sources)
	assert.Equal(t, []string{"TradeMe", "Snapshots"}, res.MissingSources)
	assert.Equal(t, map[string]string{"TradeMe": "http://localhost:8080/auth/start"}, res.AuthURLs)
}

func TestAggregatorDropsDuplicateIDsKeepingFirstSource(t *testing.T) {
	first := &stubSource{name: "TradeMe", listings: []models.Listing{
		{ID: "trademe-4711", Title: "From API", Price: 500, MatchScore: 80},
	}}
	second := &stubSource{name: "Snapshots", listings: []models.Listing{
		{ID: "trademe-4711", Title: "From snapshot", Price: 500, MatchScore: 90},
		{ID: "trademe-4712", Title: "Other", Price: 520, MatchScore: 70},
	}}
	agg := NewAggregator(newTestLogger(), first, second)

	res := agg.Search(context.Background(), models.SearchCriteria{})

	require.Equal(t, 2, res.Count)
	assert.Equal(t, []string{"trademe-4711", "trademe-4712"}, ids(res.Listings))
	assert.Equal(t, "From API", res.Listings[0].Title)
	assert.Equal(t, 80, res.Listings[0].MatchScore)
}

func TestAggregatorEmptyResultIsNotNil(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	res := agg.Search(context.Background(), models.SearchCriteria{})
	assert.NotNil(t, res.Listings)
	assert.Equal(t, 0, res.Count)
}

func TestFallbackSource(t *testing.T) {
	ok := []models.Listing{{ID: "scraped"}}

	t.Run("primary succeeds", func(t *testing.T) {
		primary := &stubSource{name: "TradeMe", listings: []models.Listing{{ID: "api"}}}
		fallback := &stubSource{name: "Scrape", listings: ok}
		f := &FallbackSource{Primary: primary, Fallback: fallback, Logger: newTestLogger()}

		got, err := f.Search(context.Background(), models.SearchCriteria{})
		require.NoError(t, err)
		assert.Equal(t, "api", got[0].ID)
		assert.Equal(t, 0, fallback.calls)
		assert.Equal(t, "TradeMe", f.Name())
	})

	t.Run("falls back on failure", func(t *testing.T) {
		primary := &stubSource{name: "TradeMe", err: apperrors.UpstreamRequest("search", 500, nil)}
		f := &FallbackSource{Primary: primary, Fallback: &stubSource{name: "Scrape", listings: ok}, Logger: newTestLogger()}

		got, err := f.Search(context.Background(), models.SearchCriteria{})
		require.NoError(t, err)
		assert.Equal(t, ok, got)
	})

	t.Run("both fail keeps auth requirement", func(t *testing.T) {
		primary := &stubSource{name: "TradeMe", err: apperrors.AuthenticationRequired("http://x/auth/start")}
		fallback := &stubSource{name: "Scrape", err: apperrors.Scrape(errors.New("no chrome"))}
		f := &FallbackSource{Primary: primary, Fallback: fallback, Logger: newTestLogger()}

		_, err := f.Search(context.Background(), models.SearchCriteria{})
		assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)
	})

	t.Run("both fail returns fallback error", func(t *testing.T) {
		primary := &stubSource{name: "TradeMe", err: apperrors.UpstreamRequest("search", 503, nil)}
		fallback := &stubSource{name: "Scrape", err: apperrors.Scrape(errors.New("no chrome"))}
		f := &FallbackSource{Primary: primary, Fallback: fallback, Logger: newTestLogger()}

		_, err := f.Search(context.Background(), models.SearchCriteria{})
		assert.ErrorIs(t, err, apperrors.ErrScrape)
	})

	t.Run("no fallback configured", func(t *testing.T) {
		primary := &stubSource{name: "TradeMe", err: errors.New("down")}
		f := &FallbackSource{Primary: primary, Logger: newTestLogger()}

		_, err := f.Search(context.Background(), models.SearchCriteria{})
		assert.EqualError(t, err, "down")
	})
}
