package cache

import (
	"strings"

	"github.com/xrash/smetrics"
)

// Matcher computes a normalized similarity ratio between two question
// strings. Implementations must be symmetric, return 1.0 for identical
// strings and 0.0 for fully disjoint ones, so the comparison strategy stays
// swappable and independently testable.
type Matcher interface {
	Ratio(a, b string) float64
}

// NormalizeQuestion lowercases and trims a question for cache comparison.
func NormalizeQuestion(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// JaroWinklerMatcher scores with the Jaro-Winkler metric, which favors
// strings sharing a common prefix. This is the default matcher.
type JaroWinklerMatcher struct{}

func (JaroWinklerMatcher) Ratio(a, b string) float64 {
	a, b = NormalizeQuestion(a), NormalizeQuestion(b)
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

// TokenOverlapMatcher scores by the Jaccard overlap of whitespace-delimited
// tokens. An alternative for corpora where word order varies heavily.
type TokenOverlapMatcher struct{}

func (TokenOverlapMatcher) Ratio(a, b string) float64 {
	ta := strings.Fields(NormalizeQuestion(a))
	tb := strings.Fields(NormalizeQuestion(b))
	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}
	seen := make(map[string]bool, len(ta))
	for _, t := range ta {
		seen[t] = true
	}
	union := make(map[string]bool, len(ta)+len(tb))
	for _, t := range ta {
		union[t] = true
	}
	var shared int
	for _, t := range tb {
		if seen[t] {
			shared++
			// Count each shared token once.
			seen[t] = false
		}
		union[t] = true
	}
	return float64(shared) / float64(len(union))
}
