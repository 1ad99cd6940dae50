package trademe

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rental-search/errors"
	"rental-search/models"
	"rental-search/utils"
)

type fakeSession struct {
	navigateErr error
	waitErr     error
	htmlErr     error
	html        string
	captured    []CapturedResponse
	panicOnHTML bool

	matcher    func(url, contentType string) bool
	navigated  string
	closeCalls int
}

func (s *fakeSession) InterceptResponses(match func(url, contentType string) bool) error {
	s.matcher = match
	return nil
}

func (s *fakeSession) Navigate(_ context.Context, u string) error {
	s.navigated = u
	return s.navigateErr
}

func (s *fakeSession) WaitForAny(context.Context, []string, time.Duration) error { return s.waitErr }

func (s *fakeSession) Captured() []CapturedResponse {
	var out []CapturedResponse
	for _, c := range s.captured {
		if s.matcher == nil || s.matcher(c.URL, c.ContentType) {
			out = append(out, c)
		}
	}
	return out
}

func (s *fakeSession) HTML(context.Context) (string, error) {
	if s.panicOnHTML {
		panic("renderer crashed")
	}
	return s.html, s.htmlErr
}

func (s *fakeSession) Close() error {
	s.closeCalls++
	return nil
}

type fakeLauncher struct {
	sess *fakeSession
	err  error
}

func (l *fakeLauncher) Launch(context.Context) (Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.sess, nil
}

func newTestScraper(l Launcher) *Scraper {
	s := New(l, Config{
		WebBaseURL: "https://www.tmsandbox.co.nz",
		Timeout:    5 * time.Second,
		PerMinute:  6000,
		Selectors:  DefaultSelectors(),
	}, utils.NopLogger())
	s.sleep = func(context.Context, time.Duration) error { return nil }
	s.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

const cardsHTML = `<html><body><ul>
<li class="o-card">
  <a href="/a/property/residential/rent/listing/4001">
    <h3>Sunny flat near the park</h3>
  </a>
  <div class="tm-property-search-card-price-attribute__price">$520 per week</div>
  <div class="tm-property-search-card-address-subtitle">Mount Victoria, Wellington</div>
  <span>2 bedrooms</span><span>1 bathroom</span>
  <img src="https://images.example.com/4001.jpg">
</li>
<li class="o-card">
  <a href="/a/property/residential/rent/listing/4002?rsqid=abc">
    <h3>Townhouse with garage</h3>
  </a>
  <p>3 bed 2 bath townhouse, $690 per week</p>
</li>
<li class="o-card">
  <a href="/a/property/residential/rent/listing/4002">
    <h3>Townhouse with garage (repeat)</h3>
  </a>
</li>
</ul></body></html>`

func TestScrapeNetworkTier(t *testing.T) {
	sess := &fakeSession{
		captured: []CapturedResponse{
			{URL: "https://cdn.example.com/bundle.js", ContentType: "application/javascript", Body: []byte(`{"List":[{"ListingId":1}]}`)},
			{
				URL:         "https://api.tmsandbox.co.nz/v1/search/property/rental.json?page=1",
				ContentType: "application/json; charset=utf-8",
				Body: []byte(`{"TotalCount":2,"List":[
					{"ListingId":5001,"Title":"Harbour views","PriceDisplay":"$700 per week","Address":"Oriental Bay","Bedrooms":2,"Bathrooms":"1","PictureHref":"https://img/1.jpg"},
					{"ListingId":"5002","Title":"Studio"}
				]}`),
			},
		},
	}
	s := newTestScraper(&fakeLauncher{sess: sess})

	raw, err := s.Scrape(context.Background(), models.SearchCriteria{Location: "wellington"})
	require.NoError(t, err)
	require.Len(t, raw, 2)

	assert.Equal(t, "5001", raw[0].ExternalID)
	assert.Equal(t, "Harbour views", raw[0].Title)
	assert.Equal(t, "$700 per week", raw[0].RawPrice)
	assert.Equal(t, "Oriental Bay", raw[0].Location)
	assert.Equal(t, 2, raw[0].Bedrooms)
	assert.Equal(t, 1, raw[0].Bathrooms)
	assert.Equal(t, "https://www.tmsandbox.co.nz/a/property/residential/rent/listing/5001", raw[0].URL)
	assert.Equal(t, SourceName, raw[0].Source)
	assert.Equal(t, "5002", raw[1].ExternalID)
	assert.Equal(t, 1, sess.closeCalls)
}

func TestScrapeFallsBackToDOM(t *testing.T) {
	sess := &fakeSession{html: cardsHTML, waitErr: errors.New("no selector became visible")}
	s := newTestScraper(&fakeLauncher{sess: sess})

	raw, err := s.Scrape(context.Background(), models.SearchCriteria{})
	require.NoError(t, err)
	require.Len(t, raw, 2, "repeat card with the same canonical URL is skipped")

	first := raw[0]
	assert.Equal(t, "Sunny flat near the park", first.Title)
	assert.Equal(t, "$520 per week", first.RawPrice)
	assert.Equal(t, "Mount Victoria, Wellington", first.Location)
	assert.Equal(t, 2, first.Bedrooms)
	assert.Equal(t, 1, first.Bathrooms)
	assert.Equal(t, "4001", first.ExternalID)
	assert.Equal(t, "https://images.example.com/4001.jpg", first.ImageURL)

	second := raw[1]
	assert.Equal(t, "$690", second.RawPrice, "price falls back to a pattern over card text")
	assert.Equal(t, 3, second.Bedrooms)
	assert.Equal(t, 2, second.Bathrooms)
	assert.Equal(t, "4002", second.ExternalID)
	assert.Equal(t, 1, sess.closeCalls)
}

func TestScrapeNoListingsIsEmptyNotError(t *testing.T) {
	sess := &fakeSession{html: "<html><body><p>No results</p></body></html>"}
	s := newTestScraper(&fakeLauncher{sess: sess})

	raw, err := s.Scrape(context.Background(), models.SearchCriteria{})
	require.NoError(t, err)
	assert.NotNil(t, raw)
	assert.Empty(t, raw)
	assert.Equal(t, 1, sess.closeCalls)
}

func TestScrapeLaunchFailure(t *testing.T) {
	s := newTestScraper(&fakeLauncher{err: errors.New("chrome not found")})

	raw, err := s.Scrape(context.Background(), models.SearchCriteria{})
	assert.Nil(t, raw)
	assert.ErrorIs(t, err, apperrors.ErrScrape)
}

func TestScrapeNavigationFailureClosesSession(t *testing.T) {
	sess := &fakeSession{navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	s := newTestScraper(&fakeLauncher{sess: sess})

	raw, err := s.Scrape(context.Background(), models.SearchCriteria{})
	assert.Nil(t, raw)
	assert.ErrorIs(t, err, apperrors.ErrScrape)
	assert.Equal(t, 1, sess.closeCalls)
}

func TestScrapeHTMLFailureClosesSession(t *testing.T) {
	sess := &fakeSession{htmlErr: errors.New("target closed")}
	s := newTestScraper(&fakeLauncher{sess: sess})

	_, err := s.Scrape(context.Background(), models.SearchCriteria{})
	assert.ErrorIs(t, err, apperrors.ErrScrape)
	assert.Equal(t, 1, sess.closeCalls)
}

func TestScrapePanicClosesSession(t *testing.T) {
	sess := &fakeSession{panicOnHTML: true}
	s := newTestScraper(&fakeLauncher{sess: sess})

	assert.Panics(t, func() {
		_, _ = s.Scrape(context.Background(), models.SearchCriteria{})
	})
	assert.Equal(t, 1, sess.closeCalls)
}

func TestSearchPageURL(t *testing.T) {
	s := newTestScraper(&fakeLauncher{})
	minPrice, beds := 400.0, 2

	got := s.SearchPageURL(models.SearchCriteria{Location: "lower hutt", MinPrice: &minPrice, MinBedrooms: &beds})
	u, err := url.Parse(got)
	require.NoError(t, err)

	assert.Equal(t, "/a/property/residential/rent/search", u.Path)
	assert.Equal(t, "lower hutt", u.Query().Get("search_string"))
	assert.Equal(t, "400", u.Query().Get("price_min"))
	assert.Equal(t, "2", u.Query().Get("bedrooms_min"))
	assert.False(t, u.Query().Has("price_max"))

	assert.Equal(t, "https://www.tmsandbox.co.nz/a/property/residential/rent/search", s.SearchPageURL(models.SearchCriteria{}))
}

func TestMatchesAPIRequiresJSON(t *testing.T) {
	s := newTestScraper(&fakeLauncher{})

	assert.True(t, s.matchesAPI("https://api.trademe.co.nz/v1/Search/Property/Rental.json", "application/json"))
	assert.False(t, s.matchesAPI("https://api.trademe.co.nz/v1/Search/Property/Rental.json", "text/html"))
	assert.False(t, s.matchesAPI("https://example.com/other.json", "application/json"))
}

type idNormalizer struct{}

func (idNormalizer) Clean(raw []models.RawListing) []models.Listing {
	out := make([]models.Listing, len(raw))
	for i, r := range raw {
		out[i] = models.Listing{ID: r.ExternalID, Title: r.Title, Source: r.Source}
	}
	return out
}

func TestSourceNormalizesScrapedListings(t *testing.T) {
	sess := &fakeSession{html: cardsHTML}
	src := NewSource(newTestScraper(&fakeLauncher{sess: sess}), idNormalizer{})

	got, err := src.Search(context.Background(), models.SearchCriteria{Location: "wellington"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "4001", got[0].ID)
	assert.Equal(t, SourceName, got[0].Source)
	assert.Equal(t, "TradeMe (web)", src.Name())
}

func TestSourcePropagatesScrapeError(t *testing.T) {
	src := NewSource(newTestScraper(&fakeLauncher{err: errors.New("boom")}), idNormalizer{})

	_, err := src.Search(context.Background(), models.SearchCriteria{})
	assert.ErrorIs(t, err, apperrors.ErrScrape)
}
