// Package storage defines the persistence contract category agents and the
// recall agent use to read, write, and search memory artifacts (spec §4.3).
//
// A Backend stores artifacts under a (agentID, userID, filename) key. Two
// concrete implementations exist: filebackend, a deterministic directory
// tree with no vector search, and dbbackend, a relational store with a
// paired vector index. Both share the same locking discipline via
// storage/keylock.
package storage

import "context"

// Artifact is one stored memory file: a category's current content for one
// user, plus the metadata needed to rank and cite it during recall.
type Artifact struct {
	AgentID   string
	UserID    string
	Category  string // category name, e.g. "profile", "event"
	Filename  string
	Content   string
	UpdatedAt int64 // unix seconds
}

// ScoredArtifact pairs an Artifact with a vector-similarity score from
// SearchByVector.
type ScoredArtifact struct {
	Artifact
	Score float64
}

// Backend is the persistence contract shared by every storage
// implementation. All methods must be safe for concurrent use; callers
// rely on implementations serializing writes to the same artifact (spec
// §5) rather than doing so themselves.
type Backend interface {
	// Read returns the current content of (agentID, userID, filename). It
	// returns ("", false, nil) if the artifact does not exist.
	Read(ctx context.Context, agentID, userID, filename string) (content string, ok bool, err error)

	// Write replaces the content of (agentID, userID, filename), creating
	// it if absent.
	Write(ctx context.Context, agentID, userID, filename, content string) error

	// Append adds content as a new entry to (agentID, userID, filename),
	// preserving what's already there. Used by append-policy categories
	// (event, important_event).
	Append(ctx context.Context, agentID, userID, filename, content string) error

	// Exists reports whether an artifact has been written.
	Exists(ctx context.Context, agentID, userID, filename string) (bool, error)

	// ListCategories returns the filenames written for (agentID, userID).
	ListCategories(ctx context.Context, agentID, userID string) ([]string, error)

	// ListUsers returns the distinct userIDs with at least one artifact
	// under agentID.
	ListUsers(ctx context.Context, agentID string) ([]string, error)

	// Clear deletes every artifact under (agentID, userID).
	Clear(ctx context.Context, agentID, userID string) error

	// SaveEmbedding associates a vector with (agentID, userID, filename)
	// content for later similarity search.
	SaveEmbedding(ctx context.Context, agentID, userID, filename string, vector []float32) error
}

// VectorSearcher is an optional capability: backends that maintain a
// vector index implement it so callers can rank stored artifacts by vector
// similarity. filebackend does not implement it; dbbackend does.
// recall.Agent does not use it; its semantic scoring embeds text through its
// own Embedder.
type VectorSearcher interface {
	// SearchByVector returns the topK artifacts under agentID (optionally
	// scoped to userID, if non-empty) ranked by cosine similarity to
	// query.
	SearchByVector(ctx context.Context, agentID, userID string, query []float32, topK int) ([]ScoredArtifact, error)
}
