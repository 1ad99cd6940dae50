package models

// SearchCriteria is derived from a query string once per request.
// Nil bounds impose no constraint.
type SearchCriteria struct {
	Location         string   `json:"location"`
	MinPrice         *float64 `json:"minPrice,omitempty" validate:"omitempty,gte=0"`
	MaxPrice         *float64 `json:"maxPrice,omitempty" validate:"omitempty,gte=0"`
	MinBedrooms      *int     `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	MinBathrooms     *int     `json:"bathrooms,omitempty" validate:"omitempty,gte=0"`
	PositiveKeywords []string `json:"positiveKeywords,omitempty"`
	NegativeKeywords []string `json:"negativeKeywords,omitempty"`
}

// SearchResult is the aggregated response for one search.
type SearchResult struct {
	Listings       []Listing         `json:"listings"`
	Count          int               `json:"count"`
	Sources        []string          `json:"sources"`
	MissingSources []string          `json:"missingSources"`
	AuthURLs       map[string]string `json:"authUrls"`
}
