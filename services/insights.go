package services

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"rental-search/models"
	"rental-search/utils"
)

const topMatchCount = 5

type InsightService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, out: os.Stdout}
}

func (s *InsightService) Generate(listings []models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		ListingsBySource:   make(map[string]int),
		ListingsByLocation: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var priced []models.Listing
	for _, l := range listings {
		report.ListingsBySource[l.Source]++
		if l.Price > 0 {
			priced = append(priced, l)
		}
		if l.Location != "" {
			report.ListingsByLocation[l.Location]++
		}
	}

	// Price stats (only listings with price > 0)
	if len(priced) > 0 {
		report.PricedListings = len(priced)
		report.MinPrice = priced[0].Price
		report.MaxPrice = priced[0].Price
		expensive := priced[0]
		var total float64
		for _, l := range priced {
			total += l.Price
			if l.Price < report.MinPrice {
				report.MinPrice = l.Price
			}
			if l.Price > report.MaxPrice {
				report.MaxPrice = l.Price
				expensive = l
			}
		}
		report.MostExpensive = &expensive
		report.AveragePrice = round2(total / float64(len(priced)))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	// Top matches by score, ties in input order
	ranked := slices.Clone(listings)
	slices.SortStableFunc(ranked, func(a, b models.Listing) int {
		return b.MatchScore - a.MatchScore
	})
	if len(ranked) > topMatchCount {
		ranked = ranked[:topMatchCount]
	}
	report.TopMatches = ranked

	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	w := s.out
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 RENTAL SEARCH INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings : \033[1m%d\033[0m\n", r.TotalListings)
	for _, src := range sortedKeys(r.ListingsBySource) {
		fmt.Fprintf(w, "  %-14s : \033[1m%d\033[0m\n", truncate(src, 14), r.ListingsBySource[src])
	}
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Weekly Rent (%d priced listings)\033[0m\n", r.PricedListings)
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Fprintf(w, "  Average rent : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum rent : \033[1;32m$%.2f\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum rent : \033[1;32m$%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Title, 50))
		fmt.Fprintf(w, "  Location : %s\n", r.MostExpensive.Location)
		fmt.Fprintf(w, "  Rent     : \033[1;31m$%.2f/week\033[0m\n", r.MostExpensive.Price)
		fmt.Fprintln(w)
	}

	// ── TOP MATCHES ──────────────────────────────────────────────────────
	fmt.Fprintf(w, "\033[1;33m  Top %d Matches\033[0m\n", topMatchCount)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopMatches) == 0 {
		fmt.Fprintf(w, "  No listings found\n")
	} else {
		for i, l := range r.TopMatches {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%3d\033[0m\n",
				i+1, truncate(l.Title, 38), l.MatchScore)
		}
	}
	fmt.Fprintln(w)

	// Listings by Location
	fmt.Fprintf(w, "\033[1;33m  Listings by Location\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ListingsByLocation) == 0 {
		fmt.Fprintf(w, "  No location data\n")
	} else {
		type locCount struct {
			loc   string
			count int
		}
		var locs []locCount
		for loc, cnt := range r.ListingsByLocation {
			locs = append(locs, locCount{loc, cnt})
		}
		sort.Slice(locs, func(i, j int) bool {
			if locs[i].count != locs[j].count {
				return locs[i].count > locs[j].count
			}
			return locs[i].loc < locs[j].loc
		})
		for _, lc := range locs {
			bar := strings.Repeat("█", lc.count)
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(lc.loc, 28), bar, lc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
