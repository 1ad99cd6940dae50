package services

import (
	"regexp"
	"strings"

	"rental-search/models"
)

const (
	positiveWeight = 3
	negativeWeight = 15
	maxScore       = 100
)

var keywordSplit = regexp.MustCompile(`[\s,]+`)

// ParseKeywords splits free text on whitespace and commas into lowercase
// tokens, dropping empties.
func ParseKeywords(s string) []string {
	var out []string
	for _, tok := range keywordSplit.Split(strings.ToLower(s), -1) {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// ApplyScore adjusts the listing's match score from keyword hits in its
// description. Each keyword counts at most once. The positive and negative
// adjustments are both computed from the incoming score and summed.
func ApplyScore(l *models.Listing, positive, negative []string) {
	base := l.MatchScore
	desc := strings.ToLower(l.Description)

	pos := countMatches(desc, positive)
	neg := countMatches(desc, negative)

	delta := 0
	if pos > 0 {
		delta += min(base+positiveWeight*pos, maxScore) - base
	}
	if neg > 0 {
		delta += max(base-negativeWeight*neg, 0) - base
	}
	l.MatchScore = clamp(base+delta, 0, maxScore)
}

func countMatches(desc string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(desc, k) {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
