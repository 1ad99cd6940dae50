package trademe

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"rental-search/models"
)

const (
	// SourceName labels listings that came from the provider API.
	SourceName        = "TradeMe"
	DefaultMatchScore = 85
	PlaceholderImage  = "https://via.placeholder.com/300x200?text=No+Image"
)

var priceRegexp = regexp.MustCompile(`\$?([\d,]+)`)

// ExtractPrice pulls the first run of digits out of a price display such as
// "$450 per week". Anything unparseable is 0.
func ExtractPrice(display string) float64 {
	m := priceRegexp.FindStringSubmatch(display)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return n
}

// flexString decodes a JSON string or number. Other shapes decode to "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// flexInt decodes a JSON number or numeric string. Other shapes decode to 0.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*f = flexInt(v)
			return nil
		}
	}
	*f = 0
	return nil
}

type searchResponse struct {
	TotalCount int           `json:"TotalCount"`
	List       []listingItem `json:"List"`
}

type listingItem struct {
	ListingID     flexString `json:"ListingId"`
	Title         flexString `json:"Title"`
	Suburb        flexString `json:"Suburb"`
	City          flexString `json:"City"`
	PriceDisplay  flexString `json:"PriceDisplay"`
	Bedrooms      flexInt    `json:"Bedrooms"`
	Bathrooms     flexInt    `json:"Bathrooms"`
	Body          flexString `json:"Body"`
	PictureHref   flexString `json:"PictureHref"`
	AvailableFrom flexString `json:"AvailableFrom"`
}

func (f *Fetcher) toListing(item listingItem, index int) models.Listing {
	id := string(item.ListingID)
	if id == "" {
		id = strconv.Itoa(index)
	}

	var parts []string
	for _, p := range []flexString{item.Suburb, item.City} {
		if s := strings.TrimSpace(string(p)); s != "" {
			parts = append(parts, s)
		}
	}
	location := strings.Join(parts, ", ")
	if location == "" {
		location = "Unknown Location"
	}

	l := models.Listing{
		ID:          "trademe-" + id,
		Title:       orDefault(string(item.Title), "No Title"),
		Location:    location,
		Price:       ExtractPrice(string(item.PriceDisplay)),
		Bedrooms:    int(item.Bedrooms),
		Bathrooms:   int(item.Bathrooms),
		Description: orDefault(string(item.Body), orDefault(string(item.Title), "No Description")),
		ImageURL:    orDefault(string(item.PictureHref), PlaceholderImage),
		MatchScore:  DefaultMatchScore,
		Available:   orDefault(string(item.AvailableFrom), "Now"),
		Source:      SourceName,
	}
	if item.ListingID != "" {
		l.ExternalURL = f.listingURL(string(item.ListingID))
	}
	return l
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
