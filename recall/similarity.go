package recall

import "math"

// LexicalAnalysis is the lightweight word-level comparison attached to
// every find_similar hit (spec §4.8.2).
type LexicalAnalysis struct {
	CommonWords       []string
	JaccardSimilarity float64
	LengthRatio       float64 // shorter length / longer length, in [0, 1]; 0 when either is empty
}

func analyzeLexical(reference, doc string) LexicalAnalysis {
	return LexicalAnalysis{
		CommonWords:       commonWords(reference, doc),
		JaccardSimilarity: jaccardSimilarity(reference, doc),
		LengthRatio:       lengthRatio(reference, doc),
	}
}

func lengthRatio(a, b string) float64 {
	la, lb := float64(len(a)), float64(len(b))
	if la == 0 || lb == 0 {
		return 0
	}
	shorter, longer := la, lb
	if lb < la {
		shorter, longer = lb, la
	}
	return math.Max(0, shorter/longer)
}
