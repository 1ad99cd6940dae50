// Package catalog serves a fixed set of local rental properties.
package catalog

import (
	"context"
	"slices"

	apperrors "rental-search/errors"
	"rental-search/models"
)

// SourceName labels catalog listings.
const SourceName = "Catalog"

const imageQuery = "?ixlib=rb-4.0.3&auto=format&fit=crop&w=500&q=60"

// Catalog is an immutable in-memory listing source.
type Catalog struct {
	listings []models.Listing
	byID     map[string]int
}

// New creates a catalog over listings.
func New(listings []models.Listing) *Catalog {
	c := &Catalog{listings: slices.Clone(listings), byID: make(map[string]int, len(listings))}
	for i, l := range c.listings {
		c.byID[l.ID] = i
	}
	return c
}

// Default returns the catalog seeded with the built-in properties.
func Default() *Catalog { return New(seed()) }

func (c *Catalog) Name() string { return SourceName }

// Search returns copies of every listing. Filtering and scoring are left to
// the aggregator.
func (c *Catalog) Search(context.Context, models.SearchCriteria) ([]models.Listing, error) {
	out := make([]models.Listing, len(c.listings))
	for i, l := range c.listings {
		out[i] = clone(l)
	}
	return out, nil
}

// Get returns one property with its detail fields.
func (c *Catalog) Get(id string) (models.Listing, error) {
	i, ok := c.byID[id]
	if !ok {
		return models.Listing{}, apperrors.NotFound("property", id)
	}
	return clone(c.listings[i]), nil
}

func clone(l models.Listing) models.Listing {
	l.Amenities = slices.Clone(l.Amenities)
	return l
}

func seed() []models.Listing {
	return []models.Listing{
		{
			ID:           "prop1",
			Title:        "Sunny 2 Bedroom in Wellington CBD",
			Location:     "Wellington",
			Price:        550,
			Bedrooms:     2,
			Bathrooms:    1,
			Description:  "Modern apartment with great natural light and renovated kitchen. Close to public transport and shops.",
			ImageURL:     "https://images.unsplash.com/photo-1522708323590-d24dbb6b0267" + imageQuery,
			MatchScore:   95,
			Available:    "Now",
			Source:       SourceName,
			Amenities:    []string{"Dishwasher", "Heat Pump", "Parking"},
			Address:      "123 Lambton Quay, Wellington",
			ContactName:  "Jane Smith",
			ContactPhone: "04-123-4567",
		},
		{
			ID:           "prop2",
			Title:        "Spacious Family Home in Lower Hutt",
			Location:     "Lower Hutt",
			Price:        650,
			Bedrooms:     3,
			Bathrooms:    2,
			Description:  "Quiet neighborhood, close to schools. Large backyard and modern appliances. Recently renovated bathroom.",
			ImageURL:     "https://images.unsplash.com/photo-1570129477492-45c003edd2be" + imageQuery,
			MatchScore:   88,
			Available:    "2023-06-01",
			Source:       SourceName,
			Amenities:    []string{"Garden", "Garage", "Heat Pump", "Pets Allowed"},
			Address:      "45 High Street, Lower Hutt",
			ContactName:  "Michael Brown",
			ContactPhone: "04-987-6543",
		},
		{
			ID:           "prop3",
			Title:        "Modern Studio in Auckland",
			Location:     "Auckland",
			Price:        420,
			Bedrooms:     1,
			Bathrooms:    1,
			Description:  "Compact but well-designed studio apartment. Great location with cafes and bus stops nearby.",
			ImageURL:     "https://images.unsplash.com/photo-1560448204-e02f11c3d0e2" + imageQuery,
			MatchScore:   82,
			Available:    "Now",
			Source:       SourceName,
			Amenities:    []string{"Furnished", "Internet Included", "Laundry Facilities"},
			Address:      "78 Queen Street, Auckland",
			ContactName:  "Sarah Johnson",
			ContactPhone: "09-555-1234",
		},
		{
			ID:           "prop4",
			Title:        "Charming Cottage in Christchurch",
			Location:     "Christchurch",
			Price:        480,
			Bedrooms:     2,
			Bathrooms:    1,
			Description:  "Beautifully renovated cottage with garden. Quiet street with friendly neighbors. Modern kitchen and cozy living room.",
			ImageURL:     "https://images.unsplash.com/photo-1518780664697-55e3ad937233" + imageQuery,
			MatchScore:   91,
			Available:    "2023-06-15",
			Source:       SourceName,
			Amenities:    []string{"Garden", "Fireplace", "Storage Shed"},
			Address:      "15 Riverside Lane, Christchurch",
			ContactName:  "David Wilson",
			ContactPhone: "03-333-7890",
		},
		{
			ID:           "prop5",
			Title:        "Waterfront Apartment in Tauranga",
			Location:     "Tauranga",
			Price:        595,
			Bedrooms:     2,
			Bathrooms:    2,
			Description:  "Modern apartment with stunning ocean views. Walking distance to cafes and shops. Includes parking and storage.",
			ImageURL:     "https://images.unsplash.com/photo-1574362848149-11496d93a7c7" + imageQuery,
			MatchScore:   89,
			Available:    "Now",
			Source:       SourceName,
			Amenities:    []string{"Balcony", "Sea View", "Secure Parking", "Gym"},
			Address:      "230 Marine Parade, Tauranga",
			ContactName:  "Emma Taylor",
			ContactPhone: "07-777-4321",
		},
	}
}
