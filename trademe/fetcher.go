// Package trademe queries the provider's rental search API with a user's
// access token and maps the results into listings.
package trademe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "rental-search/errors"
	"rental-search/httpclient"
	"rental-search/models"
	"rental-search/oauth"
	"rental-search/utils"
)

const searchPath = "/v1/Search/Property/Rental.json"

// FetcherConfig wires a Fetcher.
type FetcherConfig struct {
	APIBaseURL string
	WebBaseURL string
	// SignatureMethod is what the search endpoint accepts: PLAINTEXT for the
	// sandbox search endpoint, HMAC-SHA1 for general API calls.
	SignatureMethod string
	// AuthStartURL is returned to callers that need to (re)authenticate.
	AuthStartURL string
}

// Fetcher issues signed search queries against the provider API.
type Fetcher struct {
	client httpclient.Doer
	signer *oauth.Signer
	cfg    FetcherConfig
	logger *utils.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(client httpclient.Doer, signer *oauth.Signer, cfg FetcherConfig, logger *utils.Logger) *Fetcher {
	if cfg.SignatureMethod == "" {
		cfg.SignatureMethod = oauth.MethodPlaintext
	}
	return &Fetcher{client: client, signer: signer, cfg: cfg, logger: logger}
}

// SearchURL builds the provider query for criteria. Keyword preferences are
// applied locally and never sent upstream.
func (f *Fetcher) SearchURL(c models.SearchCriteria) string {
	q := url.Values{}
	if c.Location != "" {
		q.Set("region", RegionID(c.Location))
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

	u := strings.TrimRight(f.cfg.APIBaseURL, "/") + searchPath
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// Search runs one signed query. Without a usable access token it returns an
// authentication-required error carrying AuthStartURL and makes no request.
func (f *Fetcher) Search(ctx context.Context, c models.SearchCriteria, token *models.AccessToken) ([]models.Listing, error) {
	if !token.Valid() {
		return nil, apperrors.AuthenticationRequired(f.cfg.AuthStartURL)
	}

	searchURL := f.SearchURL(c)
	header, err := f.signer.AuthorizationHeader(http.MethodGet, searchURL, f.cfg.SignatureMethod,
		oauth.Params{Token: token.Token}, token.TokenSecret)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("build search request: %w", err))
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("Accept", "application/json")

	f.logger.Info("[trademe] Searching %s", searchURL)
	resp, err := f.client.Do(ctx, req)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return nil, apperrors.UpstreamRequest("listing search", statusErr.StatusCode, err)
		}
		return nil, apperrors.UpstreamRequest("listing search", 0, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// The provider is the only judge of token expiry.
		f.logger.Warn("[trademe] Access token %s rejected, re-authentication required", utils.Redact(token.Token))
		return nil, apperrors.AuthenticationRequired(f.cfg.AuthStartURL)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		f.logger.Error("[trademe] Search returned %d: %s", resp.StatusCode, string(body))
		return nil, apperrors.UpstreamRequest("listing search", resp.StatusCode, nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&payload); err != nil {
		return nil, apperrors.UpstreamRequest("listing search", resp.StatusCode, fmt.Errorf("decode body: %w", err))
	}

	listings := make([]models.Listing, 0, len(payload.List))
	for i, item := range payload.List {
		listings = append(listings, f.toListing(item, i))
	}
	f.logger.Info("[trademe] Received %d listings (total %d)", len(listings), payload.TotalCount)
	return listings, nil
}

func (f *Fetcher) listingURL(id string) string {
	return strings.TrimRight(f.cfg.WebBaseURL, "/") + "/a/property/residential/rent/listing/" + url.PathEscape(id)
}
