package recall

import (
	"strings"

	"github.com/tidwall/match"
)

// jaccardWordOverlapWeight is the ceiling applied to Jaccard overlap in
// the string-method score, so overlap alone never outscores an exact
// match (spec §4.8.1).
const jaccardWordOverlapWeight = 0.8

// stringScore implements the "string" search method: 1.0 on an exact
// substring match (or glob match if query contains '*'/'?' wildcards),
// otherwise jaccardSimilarity(query, doc) * 0.8. Also reports whether the
// match was exact.
func stringScore(query, doc string) (score float64, exactMatch bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	d := strings.ToLower(doc)

	if q == "" {
		return 0, false
	}

	if containsWildcard(q) {
		if match.Match(d, q) {
			return 1.0, true
		}
	} else if strings.Contains(d, q) {
		return 1.0, true
	}

	jaccard := jaccardSimilarity(q, d)
	return jaccard * jaccardWordOverlapWeight, false
}

func containsWildcard(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// jaccardSimilarity returns the Jaccard index of the word sets of a and
// b: |intersection| / |union|.
func jaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := tokenize(s)
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

// commonWords returns the words shared between a and b, for the lexical
// analysis attached to find_similar hits (spec §4.8.2).
func commonWords(a, b string) []string {
	setA := wordSet(a)
	setB := wordSet(b)
	var out []string
	for w := range setA {
		if setB[w] {
			out = append(out, w)
		}
	}
	return out
}
