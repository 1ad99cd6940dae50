package models

import "time"

// RawListing holds unprocessed data pulled from a provider page or captured
// API response, before defaults and price parsing are applied.
type RawListing struct {
	ExternalID  string
	Title       string
	RawPrice    string
	Location    string
	Bedrooms    int
	Bathrooms   int
	Description string
	ImageURL    string
	URL         string
	Available   string
	Source      string
	ScrapedAt   time.Time
}

// Listing is the normalized property record every source is mapped into.
type Listing struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Location     string    `json:"location"`
	Price        float64   `json:"price"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"imageUrl"`
	MatchScore   int       `json:"matchScore"`
	Available    string    `json:"available"`
	ExternalURL  string    `json:"externalUrl,omitempty"`
	Source       string    `json:"source"`
	Amenities    []string  `json:"amenities,omitempty"`
	Address      string    `json:"address,omitempty"`
	ContactName  string    `json:"contactName,omitempty"`
	ContactPhone string    `json:"contactPhone,omitempty"`
	CreatedAt    time.Time `json:"-"`
}

// InsightReport holds summary statistics over a set of listings.
type InsightReport struct {
	TotalListings      int
	ListingsBySource   map[string]int
	PricedListings     int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	MostExpensive      *Listing
	TopMatches         []Listing
	ListingsByLocation map[string]int
}
