package recall

import (
	"context"
	"testing"
)

func TestSummary_IncludesOnlyNonEmptyCategories(t *testing.T) {
	a := newTestAgent(t)
	seedArtifact(t, a, "agent1", "alice", "profile", "Alice is a teacher.")
	seedArtifact(t, a, "agent1", "alice", "event", "Alice started a new job.")

	summary, err := a.Summary(context.Background(), "agent1", "alice")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary["profile"] != "Alice is a teacher." {
		t.Fatalf("expected profile content, got %q", summary["profile"])
	}
	if _, ok := summary["reminder"]; ok {
		t.Fatalf("did not expect reminder category to be present")
	}
}

func TestListUsers_ReturnsEveryUserWithArtifacts(t *testing.T) {
	a := newTestAgent(t)
	seedArtifact(t, a, "agent1", "alice", "profile", "p")
	seedArtifact(t, a, "agent1", "bob", "profile", "p")

	users, err := a.ListUsers(context.Background(), "agent1")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %v", users)
	}
}
