package response

import "testing"

func TestDedupeSnippets_SameUserSameTrimmedLowercasedContentIsDuplicate(t *testing.T) {
	in := []Snippet{
		{UserID: "alice", Content: "Likes Tea"},
		{UserID: "alice", Content: "  likes tea  "},
		{UserID: "bob", Content: "Likes Tea"},
	}
	out := dedupeSnippets(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 deduped snippets, got %d: %+v", len(out), out)
	}
	if out[0].UserID != "alice" || out[1].UserID != "bob" {
		t.Fatalf("expected first-seen order preserved, got %+v", out)
	}
}

func TestDedupeSnippets_DistinctContentNotDropped(t *testing.T) {
	in := []Snippet{
		{UserID: "alice", Content: "Likes tea"},
		{UserID: "alice", Content: "Likes coffee"},
	}
	out := dedupeSnippets(in)
	if len(out) != 2 {
		t.Fatalf("expected both snippets kept, got %d", len(out))
	}
}
