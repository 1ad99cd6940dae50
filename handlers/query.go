package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "rental-search/errors"
	"rental-search/models"
	"rental-search/services"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Query keys, primary name first. The snake_case spellings are accepted too.
var (
	keyMinPrice  = []string{"minPrice", "min_price"}
	keyMaxPrice  = []string{"maxPrice", "max_price"}
	keyBedrooms  = []string{"bedrooms"}
	keyBathrooms = []string{"bathrooms"}
	keyPositive  = []string{"positivePreferences", "positive_preferences", "positive"}
	keyNegative  = []string{"negativePreferences", "negative_preferences", "negative"}
)

// ParseCriteria reads search criteria from a query string. Keys are
// location, minPrice, maxPrice, bedrooms, bathrooms, positivePreferences
// and negativePreferences; the last two are free text split into keywords.
// Inverted price bounds are accepted and simply match nothing.
func ParseCriteria(q url.Values) (models.SearchCriteria, error) {
	c := models.SearchCriteria{
		Location:         strings.TrimSpace(q.Get("location")),
		PositiveKeywords: services.ParseKeywords(lookup(q, keyPositive)),
		NegativeKeywords: services.ParseKeywords(lookup(q, keyNegative)),
	}

	var err error
	if c.MinPrice, err = parseFloat(q, keyMinPrice); err != nil {
		return c, err
	}
	if c.MaxPrice, err = parseFloat(q, keyMaxPrice); err != nil {
		return c, err
	}
	if c.MinBedrooms, err = parseInt(q, keyBedrooms); err != nil {
		return c, err
	}
	if c.MinBathrooms, err = parseInt(q, keyBathrooms); err != nil {
		return c, err
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s must not be negative", queryName(fe.Field())))
			}
			return c, apperrors.InvalidInput(strings.Join(msgs, "; "))
		}
		return c, apperrors.InvalidInput(err.Error())
	}
	return c, nil
}

// lookup returns the first non-empty value among keys.
func lookup(q url.Values, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

func parseFloat(q url.Values, keys []string) (*float64, error) {
	v := lookup(q, keys)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, apperrors.InvalidInput(keys[0] + " must be a valid number")
	}
	return &f, nil
}

func parseInt(q url.Values, keys []string) (*int, error) {
	v := lookup(q, keys)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, apperrors.InvalidInput(keys[0] + " must be a whole number")
	}
	return &n, nil
}

func queryName(field string) string {
	switch field {
	case "MinPrice":
		return keyMinPrice[0]
	case "MaxPrice":
		return keyMaxPrice[0]
	case "MinBedrooms":
		return "bedrooms"
	case "MinBathrooms":
		return "bathrooms"
	default:
		return field
	}
}
