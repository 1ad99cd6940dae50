package trademe

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"rental-search/models"
	"rental-search/utils"
)

const listingPath = "/a/property/residential/rent/listing/"

// listingsFromCaptured returns the items of the first captured body that
// holds a non-empty listings array under one of the configured keys.
func listingsFromCaptured(captured []CapturedResponse, cfg SelectorConfig) ([]map[string]any, string) {
	for _, c := range captured {
		var doc any
		if err := json.Unmarshal(c.Body, &doc); err != nil {
			continue
		}
		for _, key := range cfg.ListKeys {
			v, ok := lookupPath(doc, key)
			if !ok {
				continue
			}
			arr, ok := v.([]any)
			if !ok || len(arr) == 0 {
				continue
			}
			items := make([]map[string]any, 0, len(arr))
			for _, el := range arr {
				if m, ok := el.(map[string]any); ok {
					items = append(items, m)
				}
			}
			if len(items) > 0 {
				return items, c.URL
			}
		}
	}
	return nil, ""
}

// lookupPath walks a dotted key through nested JSON objects.
func lookupPath(doc any, path string) (any, bool) {
	cur := doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// first returns the first candidate key with a present, non-null value.
func (f FieldLookup) first(item map[string]any, field string) (any, bool) {
	for _, key := range f[field] {
		if v, ok := lookupPath(item, key); ok {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

func (f FieldLookup) text(item map[string]any, field string) string {
	v, ok := f.first(item, field)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func (f FieldLookup) integer(item map[string]any, field string) int {
	v, ok := f.first(item, field)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// rawFromItems maps captured JSON items field by field. A field that cannot
// be read is left empty for the cleaner to default; the item is kept.
func rawFromItems(items []map[string]any, cfg SelectorConfig, webBaseURL string, now time.Time) []models.RawListing {
	out := make([]models.RawListing, 0, len(items))
	for _, item := range items {
		r := models.RawListing{
			ExternalID:  cfg.Fields.text(item, "id"),
			Title:       cfg.Fields.text(item, "title"),
			RawPrice:    cfg.Fields.text(item, "price"),
			Location:    cfg.Fields.text(item, "location"),
			Bedrooms:    cfg.Fields.integer(item, "bedrooms"),
			Bathrooms:   cfg.Fields.integer(item, "bathrooms"),
			Description: cfg.Fields.text(item, "description"),
			ImageURL:    cfg.Fields.text(item, "image"),
			URL:         cfg.Fields.text(item, "url"),
			Available:   cfg.Fields.text(item, "available"),
			Source:      SourceName,
			ScrapedAt:   now,
		}
		if r.URL == "" && r.ExternalID != "" {
			r.URL = strings.TrimRight(webBaseURL, "/") + listingPath + url.PathEscape(r.ExternalID)
		} else if r.URL != "" {
			r.URL = resolveURL(webBaseURL, r.URL)
		}
		out = append(out, r)
	}
	return out
}

// rawFromDOM tries each card selector in order and extracts every card of
// the first one that matches.
func rawFromDOM(html, pageURL string, cfg SelectorConfig, now time.Time) ([]models.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var cards *goquery.Selection
	for _, sel := range cfg.CardSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			cards = found
			break
		}
	}
	if cards == nil {
		return nil, nil
	}

	seen := utils.NewURLSet()
	var out []models.RawListing
	cards.Each(func(_ int, card *goquery.Selection) {
		text := collapse(card.Text())

		r := models.RawListing{
			Title:     firstText(card, cfg.Title),
			RawPrice:  firstText(card, cfg.Price),
			Location:  firstText(card, cfg.Location),
			Bedrooms:  matchInt(cfg.bedroomRe.FindStringSubmatch(text)),
			Bathrooms: matchInt(cfg.bathroomRe.FindStringSubmatch(text)),
			ImageURL:  firstAttr(card, cfg.Image, "src", "data-src"),
			Source:    SourceName,
			ScrapedAt: now,
		}
		if r.RawPrice == "" {
			r.RawPrice = cfg.priceRe.FindString(text)
		}
		if href := firstAttr(card, cfg.Link, "href"); href != "" {
			r.URL = resolveURL(pageURL, href)
		} else if href, ok := card.Attr("href"); ok {
			r.URL = resolveURL(pageURL, href)
		}
		r.ExternalID = listingIDFromURL(r.URL)
		if r.ImageURL != "" {
			r.ImageURL = resolveURL(pageURL, r.ImageURL)
		}

		if r.URL != "" && !seen.Add(r.URL) {
			return
		}
		out = append(out, r)
	})
	return out, nil
}

func firstText(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := collapse(card.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func firstAttr(card *goquery.Selection, selectors []string, attrs ...string) string {
	for _, sel := range selectors {
		el := card.Find(sel).First()
		for _, a := range attrs {
			if v, ok := el.Attr(a); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

func matchInt(m []string) int {
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolveURL(base, ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return u.String()
	}
	return b.ResolveReference(u).String()
}

func listingIDFromURL(link string) string {
	i := strings.Index(link, "/listing/")
	if i < 0 {
		return ""
	}
	id := link[i+len("/listing/"):]
	if j := strings.IndexAny(id, "/?#"); j >= 0 {
		id = id[:j]
	}
	return id
}
