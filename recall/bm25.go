package recall

import (
	"math"
	"strings"
)

// bm25 ranks a fixed corpus of documents against arbitrary queries using
// Okapi BM25 with k1=1.2, b=0.75 (spec §4.8.1 — the original Python
// prototype uses k1=1.5; the distilled spec pins 1.2 and that is what's
// implemented here).
type bm25 struct {
	k1, b float64

	docLen   []int
	avgDL    float64
	docFreqs []map[string]int
	idf      map[string]float64
}

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// newBM25 indexes corpus for repeated scoring.
func newBM25(corpus []string) *bm25 {
	m := &bm25{k1: bm25K1, b: bm25B}

	m.docLen = make([]int, len(corpus))
	m.docFreqs = make([]map[string]int, len(corpus))

	var totalLen int
	for i, doc := range corpus {
		words := tokenize(doc)
		m.docLen[i] = len(words)
		totalLen += len(words)

		freq := make(map[string]int, len(words))
		for _, w := range words {
			freq[w]++
		}
		m.docFreqs[i] = freq
	}
	if len(corpus) > 0 {
		m.avgDL = float64(totalLen) / float64(len(corpus))
	}

	m.idf = make(map[string]float64)
	for _, freq := range m.docFreqs {
		for word := range freq {
			if _, done := m.idf[word]; done {
				continue
			}
			containing := 0
			for _, other := range m.docFreqs {
				if other[word] > 0 {
					containing++
				}
			}
			n := float64(len(corpus))
			m.idf[word] = math.Log((n-float64(containing)+0.5)/(float64(containing)+0.5) + 1.0)
		}
	}

	return m
}

// score returns the raw (unnormalized) BM25 score of query against
// document docIdx.
func (m *bm25) score(query string, docIdx int) float64 {
	if docIdx < 0 || docIdx >= len(m.docFreqs) {
		return 0
	}

	freq := m.docFreqs[docIdx]
	docLen := float64(m.docLen[docIdx])

	var score float64
	for _, word := range tokenize(query) {
		f, ok := freq[word]
		if !ok {
			continue
		}
		idf, ok := m.idf[word]
		if !ok {
			continue
		}
		numerator := float64(f) * (m.k1 + 1)
		denominator := float64(f) + m.k1*(1-m.b+m.b*docLen/nonZero(m.avgDL))
		score += idf * (numerator / denominator)
	}
	return score
}

// scores returns the raw BM25 score of query against every document in
// the corpus, in corpus order.
func (m *bm25) scores(query string) []float64 {
	out := make([]float64, len(m.docFreqs))
	for i := range out {
		out[i] = m.score(query, i)
	}
	return out
}

func nonZero(f float64) float64 {
	if f == 0 {
		return 1
	}
	return f
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
