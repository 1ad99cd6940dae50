package services

import (
	"bytes"
	"strings"
	"testing"

	"rental-search/models"
)

func sampleListings() []models.Listing {
	return []models.Listing{
		{Source: "Catalog", Title: "Villa A", Price: 700, Location: "Wellington", MatchScore: 95},
		{Source: "Catalog", Title: "Studio B", Price: 350, Location: "Wellington", MatchScore: 82},
		{Source: "TradeMe", Title: "Loft C", Price: 520, Location: "Auckland", MatchScore: 91},
		{Source: "TradeMe", Title: "Cabin D", Price: 800, Location: "Tauranga", MatchScore: 85},
		{Source: "TradeMe", Title: "Flat E", Price: 0, Location: "Auckland", MatchScore: 85},
		{Source: "TradeMe", Title: "Room F", Price: 250, Location: "", MatchScore: 60},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.TotalListings != 6 {
		t.Errorf("TotalListings: got %d, want 6", r.TotalListings)
	}
	if r.ListingsBySource["TradeMe"] != 4 || r.ListingsBySource["Catalog"] != 2 {
		t.Errorf("ListingsBySource: got %v", r.ListingsBySource)
	}
	if r.PricedListings != 5 {
		t.Errorf("PricedListings: got %d, want 5", r.PricedListings)
	}
	if r.ListingsByLocation["Auckland"] != 2 {
		t.Errorf("Auckland count: got %d, want 2", r.ListingsByLocation["Auckland"])
	}
	if _, ok := r.ListingsByLocation[""]; ok {
		t.Error("empty location should not be counted")
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	wantAvg := 524.0
	if r.AveragePrice != wantAvg {
		t.Errorf("AveragePrice: got %.2f, want %.2f", r.AveragePrice, wantAvg)
	}
	if r.MinPrice != 250 {
		t.Errorf("MinPrice: got %.2f, want 250", r.MinPrice)
	}
	if r.MaxPrice != 800 {
		t.Errorf("MaxPrice: got %.2f, want 800", r.MaxPrice)
	}
}

func TestInsightMostExpensive(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.MostExpensive == nil {
		t.Fatal("MostExpensive should not be nil")
	}
	if r.MostExpensive.Title != "Cabin D" {
		t.Errorf("MostExpensive: got %q, want %q", r.MostExpensive.Title, "Cabin D")
	}
}

func TestInsightMostExpensiveWhenFirstIsMax(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate([]models.Listing{{Title: "Top", Price: 900}, {Title: "Low", Price: 100}})
	if r.MostExpensive == nil || r.MostExpensive.Title != "Top" {
		t.Errorf("MostExpensive: got %+v, want Top", r.MostExpensive)
	}
}

func TestInsightTopMatches(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if len(r.TopMatches) != 5 {
		t.Fatalf("TopMatches: got %d, want 5", len(r.TopMatches))
	}
	want := []string{"Villa A", "Loft C", "Cabin D", "Flat E", "Studio B"}
	for i, title := range want {
		if r.TopMatches[i].Title != title {
			t.Errorf("TopMatches[%d]: got %q, want %q", i, r.TopMatches[i].Title, title)
		}
	}
}

func TestInsightEmpty(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r.TotalListings != 0 || r.MostExpensive != nil {
		t.Errorf("expected empty report, got %+v", r)
	}
}

func TestInsightPrint(t *testing.T) {
	var buf bytes.Buffer
	svc := NewInsightService(newTestLogger())
	svc.out = &buf

	svc.Print(svc.Generate(sampleListings()))

	out := buf.String()
	for _, want := range []string{"RENTAL SEARCH INSIGHTS", "$524.00", "Cabin D", "Wellington"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
