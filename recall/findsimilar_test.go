package recall

import (
	"context"
	"strings"
	"testing"
)

func TestFindSimilar_FiltersByThresholdAndAttachesLexical(t *testing.T) {
	a := newTestAgent(t)
	seedArtifact(t, a, "agent1", "alice", "profile",
		"Alice enjoys hiking on weekends.\nSomething totally unrelated to anything.")

	hits, err := a.FindSimilar(context.Background(), "agent1", "alice", "Alice enjoys hiking on weekends.", 0.3, 10)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected at least one hit above threshold")
	}
	for _, h := range hits {
		if h.Combined < 0.3 {
			t.Fatalf("expected hit combined score >= threshold, got %v", h.Combined)
		}
		if h.Lexical.JaccardSimilarity == 0 && len(h.Lexical.CommonWords) == 0 {
			t.Fatalf("expected some lexical overlap for the matching hit")
		}
	}
}

func TestFindSimilar_RespectsMaxResults(t *testing.T) {
	a := newTestAgent(t)
	seedArtifact(t, a, "agent1", "alice", "profile",
		"Alice enjoys hiking.\nAlice enjoys hiking trips.\nAlice enjoys hiking gear.")

	hits, err := a.FindSimilar(context.Background(), "agent1", "alice", "Alice enjoys hiking", 0.0, 2)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(hits) > 2 {
		t.Fatalf("expected at most 2 hits, got %d", len(hits))
	}
}

// TestFindSimilar_DoesNotDropAboveThresholdHitsBeyondDefaultSearchLimit
// seeds more matching lines than recall.Search's internal default Limit
// of 10 and asks for every one of them (maxResults=0, meaning "no cap").
// Asking Search for only maxResults candidates (0, which Search defaults
// to 10) would silently discard the matches ranked 11th and 12th before
// the threshold filter ever saw them.
func TestFindSimilar_DoesNotDropAboveThresholdHitsBeyondDefaultSearchLimit(t *testing.T) {
	a := newTestAgent(t)

	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("Alice enjoys hiking on weekends.\n")
	}
	seedArtifact(t, a, "agent1", "alice", "profile", b.String())

	hits, err := a.FindSimilar(context.Background(), "agent1", "alice", "Alice enjoys hiking on weekends.", 0.3, 0)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(hits) != 12 {
		t.Fatalf("expected all 12 above-threshold lines to survive, got %d", len(hits))
	}
}
