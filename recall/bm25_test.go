package recall

import "testing"

func TestBM25_ScoresMatchingDocumentHigherThanUnrelated(t *testing.T) {
	corpus := []string{
		"the user enjoys hiking on weekends",
		"the user prefers tea over coffee",
		"completely unrelated sentence about nothing",
	}
	ranker := newBM25(corpus)

	scores := ranker.scores("hiking weekends")
	if scores[0] <= scores[1] || scores[0] <= scores[2] {
		t.Fatalf("expected doc 0 to score highest, got %v", scores)
	}
}

func TestBM25_UnknownQueryWordsScoreZero(t *testing.T) {
	ranker := newBM25([]string{"alpha beta", "gamma delta"})
	scores := ranker.scores("zzz nonexistent")
	for i, s := range scores {
		if s != 0 {
			t.Fatalf("expected zero score for doc %d, got %v", i, s)
		}
	}
}

func TestBM25_EmptyCorpusDoesNotPanic(t *testing.T) {
	ranker := newBM25(nil)
	scores := ranker.scores("anything")
	if len(scores) != 0 {
		t.Fatalf("expected no scores, got %v", scores)
	}
}
