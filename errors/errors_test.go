package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing credentials", MissingCredentials("no secret"), http.StatusBadRequest},
		{"upstream", UpstreamRequest("request token", 503, nil), http.StatusBadGateway},
		{"auth required", AuthenticationRequired("http://localhost/auth/start"), http.StatusUnauthorized},
		{"scrape", Scrape(errors.New("launch")), http.StatusBadGateway},
		{"not found", NotFound("property", "x"), http.StatusNotFound},
		{"wrapped sentinel", fmt.Errorf("outer: %w", ErrMissingCredentials), http.StatusBadRequest},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(UpstreamRequest("access token", 0, cause), "complete handshake")

	assert.True(t, errors.Is(err, ErrUpstreamRequest))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrMissingCredentials))

	scrapeErr := Scrape(cause)
	assert.True(t, errors.Is(scrapeErr, ErrScrape))
	assert.True(t, errors.Is(scrapeErr, cause))
}

func TestAuthURL(t *testing.T) {
	url, ok := AuthURL(Wrap(AuthenticationRequired("https://app.example/auth/start"), "search"))
	assert.True(t, ok)
	assert.Equal(t, "https://app.example/auth/start", url)

	_, ok = AuthURL(errors.New("plain"))
	assert.False(t, ok)
}

func TestUpstreamRequestMessage(t *testing.T) {
	assert.Equal(t, "request token failed with status 401", UpstreamRequest("request token", 401, nil).Message)
	assert.Equal(t, "search failed", UpstreamRequest("search", 0, nil).Message)
}
