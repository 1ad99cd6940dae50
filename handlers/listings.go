package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rental-search/models"
	"rental-search/services"
	"rental-search/utils"
)

// DefaultExternalLocation is searched when /listings/external has no location.
const DefaultExternalLocation = "auckland"

// Searcher aggregates listings across sources.
type Searcher interface {
	Search(ctx context.Context, c models.SearchCriteria) models.SearchResult
}

// PropertyLookup resolves one local property by id.
type PropertyLookup interface {
	Get(id string) (models.Listing, error)
}

// ExternalResult is the body of /listings/external.
type ExternalResult struct {
	Query    models.SearchCriteria `json:"query"`
	Source   string                `json:"source"`
	Listings []models.Listing      `json:"listings"`
	Count    int                   `json:"count"`
}

// ListingsHandler serves search and property endpoints.
type ListingsHandler struct {
	aggregator Searcher
	external   services.ListingSource
	properties PropertyLookup
	logger     *utils.Logger
}

func NewListingsHandler(aggregator Searcher, external services.ListingSource, properties PropertyLookup, logger *utils.Logger) *ListingsHandler {
	return &ListingsHandler{aggregator: aggregator, external: external, properties: properties, logger: logger}
}

// Search handles GET /listings.
func (h *ListingsHandler) Search(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, h.aggregator.Search(r.Context(), c))
}

// External handles GET /listings/external, a direct provider search with
// no local listings mixed in. Without provider authorization it answers
// 401 with the URL that starts the handshake.
func (h *ListingsHandler) External(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	if c.Location == "" {
		c.Location = DefaultExternalLocation
	}

	listings, err := h.external.Search(r.Context(), c)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	for i := range listings {
		services.ApplyScore(&listings[i], c.PositiveKeywords, c.NegativeKeywords)
	}

	WriteJSON(w, http.StatusOK, ExternalResult{
		Query:    c,
		Source:   h.external.Name(),
		Listings: listings,
		Count:    len(listings),
	})
}

// Property handles GET /properties/{id}.
func (h *ListingsHandler) Property(w http.ResponseWriter, r *http.Request) {
	l, err := h.properties.Get(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}
