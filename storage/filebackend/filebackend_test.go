package filebackend

import (
	"context"
	"testing"

	"github.com/nevamind-ai/memu-go/memerr"
)

func TestReadWrite_RoundTrip(t *testing.T) {
	b, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if _, ok, err := b.Read(ctx, "agent1", "user1", "profile.md"); err != nil || ok {
		t.Fatalf("expected missing artifact, got ok=%v err=%v", ok, err)
	}

	if err := b.Write(ctx, "agent1", "user1", "profile.md", "hello"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	content, ok, err := b.Read(ctx, "agent1", "user1", "profile.md")
	if err != nil || !ok {
		t.Fatalf("expected artifact to exist, got ok=%v err=%v", ok, err)
	}
	if content != "hello" {
		t.Fatalf("expected content %q, got %q", "hello", content)
	}

	if err := b.Write(ctx, "agent1", "user1", "profile.md", "replaced"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	content, _, _ = b.Read(ctx, "agent1", "user1", "profile.md")
	if content != "replaced" {
		t.Fatalf("expected replace semantics, got %q", content)
	}
}

func TestAppend_AccumulatesEntries(t *testing.T) {
	b, _ := New(t.TempDir())
	ctx := context.Background()

	if err := b.Append(ctx, "agent1", "user1", "events.md", "- bought a car"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Append(ctx, "agent1", "user1", "events.md", "- started a new job"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	content, _, _ := b.Read(ctx, "agent1", "user1", "events.md")
	want := "- bought a car\n- started a new job\n"
	if content != want {
		t.Fatalf("expected %q, got %q", want, content)
	}
}

func TestListCategoriesAndUsers(t *testing.T) {
	b, _ := New(t.TempDir())
	ctx := context.Background()

	_ = b.Write(ctx, "agent1", "alice", "profile.md", "p")
	_ = b.Write(ctx, "agent1", "alice", "events.md", "e")
	_ = b.Write(ctx, "agent1", "bob", "profile.md", "p")

	cats, err := b.ListCategories(ctx, "agent1", "alice")
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %v", cats)
	}

	users, err := b.ListUsers(ctx, "agent1")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %v", users)
	}
}

func TestClear_RemovesAllArtifactsForUser(t *testing.T) {
	b, _ := New(t.TempDir())
	ctx := context.Background()

	_ = b.Write(ctx, "agent1", "alice", "profile.md", "p")
	if err := b.Clear(ctx, "agent1", "alice"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	exists, err := b.Exists(ctx, "agent1", "alice", "profile.md")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatalf("expected artifact to be gone after Clear")
	}
}

func TestNew_FailsOnUnwritableBase(t *testing.T) {
	_, err := New("/root/module-file-backend-test/\x00bad")
	if err == nil || !memerr.Is(err, memerr.StorageIOError) {
		t.Fatalf("expected StorageIOError, got %v", err)
	}
}
