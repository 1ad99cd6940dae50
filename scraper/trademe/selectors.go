package trademe

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v2"
)

// FieldLookup lists, per listing field, the JSON keys to try in priority
// order. A dotted key such as "Address.Suburb" descends into nested objects.
type FieldLookup map[string][]string

// SelectorConfig drives both extraction tiers. The provider's markup and
// private API change without notice, so none of this is hard-coded.
type SelectorConfig struct {
	APIURLPatterns  []string    `yaml:"api_url_patterns"`
	ListKeys        []string    `yaml:"list_keys"`
	WaitSelectors   []string    `yaml:"wait_selectors"`
	CardSelectors   []string    `yaml:"card_selectors"`
	Title           []string    `yaml:"title"`
	Price           []string    `yaml:"price"`
	Location        []string    `yaml:"location"`
	Image           []string    `yaml:"image"`
	Link            []string    `yaml:"link"`
	BedroomPattern  string      `yaml:"bedroom_pattern"`
	BathroomPattern string      `yaml:"bathroom_pattern"`
	PricePattern    string      `yaml:"price_pattern"`
	Fields          FieldLookup `yaml:"fields"`

	bedroomRe  *regexp.Regexp
	bathroomRe *regexp.Regexp
	priceRe    *regexp.Regexp
}

// DefaultSelectors returns the built-in configuration.
func DefaultSelectors() SelectorConfig {
	cfg := SelectorConfig{
		APIURLPatterns: []string{
			"api.trademe.co.nz",
			"api.tmsandbox.co.nz",
			"/v1/search/property",
			"/search/property",
			"/property/residential/rent",
		},
		ListKeys: []string{"List", "list", "props", "properties", "results", "data.list"},
		WaitSelectors: []string{
			"tm-property-search-card",
			`[data-testid="listing-card"]`,
			".tm-property-search-card__link",
		},
		CardSelectors: []string{
			"tm-property-search-card",
			`[data-testid="listing-card"]`,
			".tm-property-premium-listing-card",
			".tm-search-card-switcher__card",
			"li.o-card",
		},
		Title: []string{
			".tm-property-search-card-listing-title__title",
			`[data-testid="listing-title"]`,
			"h3",
			"h2",
		},
		Price: []string{
			".tm-property-search-card-price-attribute__price",
			`[data-testid="price"]`,
			`[class*="price"]`,
		},
		Location: []string{
			".tm-property-search-card-address-subtitle",
			".tm-property-search-card-listing-title__address",
			`[data-testid="address"]`,
			`[class*="address"]`,
		},
		Image: []string{"img"},
		Link: []string{
			`a[href*="/listing/"]`,
			"a[href]",
		},
		BedroomPattern:  `(?i)(\d+)\s*bed`,
		BathroomPattern: `(?i)(\d+)\s*bath`,
		PricePattern:    `\$[\d,]+`,
		Fields: FieldLookup{
			"id":          {"ListingId", "listingId", "id"},
			"title":       {"Title", "title", "name"},
			"price":       {"PriceDisplay", "priceDisplay", "price", "RentPerWeek", "rent"},
			"location":    {"Address", "address", "location", "Suburb", "suburb", "City", "city"},
			"bedrooms":    {"Bedrooms", "bedrooms", "beds"},
			"bathrooms":   {"Bathrooms", "bathrooms", "baths"},
			"description": {"Body", "body", "description", "Title", "title"},
			"image":       {"PictureHref", "pictureHref", "image", "imageUrl", "photo"},
			"url":         {"Url", "url", "link", "href"},
			"available":   {"AvailableFrom", "availableFrom", "available"},
		},
	}
	if err := cfg.compile(); err != nil {
		panic(err)
	}
	return cfg
}

// LoadSelectors reads a YAML file over the defaults. Keys absent from the
// file keep their default values. An empty path returns the defaults.
func LoadSelectors(path string) (SelectorConfig, error) {
	cfg := DefaultSelectors()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return SelectorConfig{}, fmt.Errorf("read selectors %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SelectorConfig{}, fmt.Errorf("parse selectors %q: %w", path, err)
	}
	if err := cfg.compile(); err != nil {
		return SelectorConfig{}, fmt.Errorf("selectors %q: %w", path, err)
	}
	return cfg, nil
}

func (c *SelectorConfig) compile() error {
	var err error
	if c.bedroomRe, err = regexp.Compile(c.BedroomPattern); err != nil {
		return fmt.Errorf("bedroom_pattern: %w", err)
	}
	if c.bathroomRe, err = regexp.Compile(c.BathroomPattern); err != nil {
		return fmt.Errorf("bathroom_pattern: %w", err)
	}
	if c.priceRe, err = regexp.Compile(c.PricePattern); err != nil {
		return fmt.Errorf("price_pattern: %w", err)
	}
	if len(c.CardSelectors) == 0 {
		return fmt.Errorf("card_selectors must not be empty")
	}
	return nil
}
