// Package dbbackend implements storage.Backend on top of a relational
// table (content + a full history log of every write) paired with an
// embedded vector index, so recall can do both exact lookups and semantic
// search against the same artifacts (spec §4.3).
package dbbackend

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
	_ "modernc.org/sqlite"

	"github.com/nevamind-ai/memu-go/memerr"
	"github.com/nevamind-ai/memu-go/storage"
	"github.com/nevamind-ai/memu-go/storage/keylock"
)

// Backend persists artifact content and history in SQLite and their
// embeddings in an in-process chromem-go vector index.
type Backend struct {
	db    *sql.DB
	locks *keylock.Striped

	vdb         *chromem.DB
	mu          sync.RWMutex
	collections map[string]*chromem.Collection // keyed by agentID
}

var _ storage.Backend = (*Backend)(nil)
var _ storage.VectorSearcher = (*Backend)(nil)

// History actions recorded in artifact_history (spec §4.3: "a companion
// history table records every CREATE|UPDATE|DELETE|EMBED action with a
// timestamp").
const (
	actionCreate = "CREATE"
	actionUpdate = "UPDATE"
	actionDelete = "DELETE"
	actionEmbed  = "EMBED"
)

// Open creates (or reopens) a Backend backed by the SQLite database at
// path. Use ":memory:" for an ephemeral, process-local store.
func Open(path string) (*Backend, error) {
	const op = "dbbackend.Open"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, memerr.Wrap(memerr.StorageIOError, op, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: one writer, avoid SQLITE_BUSY

	b := &Backend{
		db:          db,
		locks:       keylock.New(),
		vdb:         chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}

	if err := b.migrate(context.Background()); err != nil {
		return nil, memerr.Wrap(memerr.StorageIOError, op, err)
	}
	return b, nil
}

func (b *Backend) migrate(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS artifacts (
			agent_id   TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			filename   TEXT NOT NULL,
			content    TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (agent_id, user_id, filename)
		);
		CREATE TABLE IF NOT EXISTS artifact_history (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			agent_id   TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			filename   TEXT NOT NULL,
			action     TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_artifact
			ON artifact_history (agent_id, user_id, filename);
	`)
	return err
}

// Close releases the underlying database handle.
func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) getOrCreateCollection(agentID string) (*chromem.Collection, error) {
	b.mu.RLock()
	col, ok := b.collections[agentID]
	b.mu.RUnlock()
	if ok {
		return col, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if col, ok := b.collections[agentID]; ok {
		return col, nil
	}

	name := "agent_" + agentID
	col, err := b.vdb.CreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	b.collections[agentID] = col
	return col, nil
}

func docID(agentID, userID, filename string) string {
	return agentID + "/" + userID + "/" + filename
}

func (b *Backend) Read(ctx context.Context, agentID, userID, filename string) (string, bool, error) {
	const op = "dbbackend.Backend.Read"
	var content string
	err := b.db.QueryRowContext(ctx,
		`SELECT content FROM artifacts WHERE agent_id = ? AND user_id = ? AND filename = ?`,
		agentID, userID, filename,
	).Scan(&content)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, memerr.Wrap(memerr.StorageIOError, op, err)
	}
	return content, true, nil
}

func (b *Backend) Write(ctx context.Context, agentID, userID, filename, content string) error {
	const op = "dbbackend.Backend.Write"
	key := keylock.ArtifactKey(agentID, userID, filename)

	var err error
	b.locks.WithLock(key, func() {
		err = b.upsertAndLog(ctx, agentID, userID, filename, content)
	})
	if err != nil {
		return memerr.Wrap(memerr.StoragePersistFailed, op, err)
	}
	return nil
}

func (b *Backend) Append(ctx context.Context, agentID, userID, filename, content string) error {
	const op = "dbbackend.Backend.Append"
	key := keylock.ArtifactKey(agentID, userID, filename)

	var err error
	b.locks.WithLock(key, func() {
		current, _, rerr := b.Read(ctx, agentID, userID, filename)
		if rerr != nil {
			err = rerr
			return
		}
		merged := content
		if current != "" {
			merged = current + "\n" + content
		}
		err = b.upsertAndLog(ctx, agentID, userID, filename, merged)
	})
	if err != nil {
		return memerr.Wrap(memerr.StoragePersistFailed, op, err)
	}
	return nil
}

// upsertAndLog must run with the artifact's stripe lock held: it writes
// the latest content and appends a CREATE or UPDATE row to the
// immutable history log in one transaction.
func (b *Backend) upsertAndLog(ctx context.Context, agentID, userID, filename, content string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existed int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM artifacts WHERE agent_id = ? AND user_id = ? AND filename = ?`,
		agentID, userID, filename,
	).Scan(&existed)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	action := actionCreate
	if existed == 1 {
		action = actionUpdate
	}

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO artifacts (agent_id, user_id, filename, content, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (agent_id, user_id, filename)
		DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`, agentID, userID, filename, content, now); err != nil {
		return err
	}

	if err := logHistory(ctx, tx, agentID, userID, filename, action, content, now); err != nil {
		return err
	}

	return tx.Commit()
}

// logHistory appends one row to artifact_history. Callers hold the
// relevant artifact's stripe lock (or, for Clear, iterate with it held
// per filename).
func logHistory(ctx context.Context, tx *sql.Tx, agentID, userID, filename, action, content string, at int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO artifact_history (agent_id, user_id, filename, action, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, agentID, userID, filename, action, content, at)
	return err
}

func (b *Backend) Exists(ctx context.Context, agentID, userID, filename string) (bool, error) {
	const op = "dbbackend.Backend.Exists"
	var one int
	err := b.db.QueryRowContext(ctx,
		`SELECT 1 FROM artifacts WHERE agent_id = ? AND user_id = ? AND filename = ?`,
		agentID, userID, filename,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, memerr.Wrap(memerr.StorageIOError, op, err)
	}
	return true, nil
}

func (b *Backend) ListCategories(ctx context.Context, agentID, userID string) ([]string, error) {
	const op = "dbbackend.Backend.ListCategories"
	rows, err := b.db.QueryContext(ctx,
		`SELECT filename FROM artifacts WHERE agent_id = ? AND user_id = ? ORDER BY filename`,
		agentID, userID,
	)
	if err != nil {
		return nil, memerr.Wrap(memerr.StorageIOError, op, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, memerr.Wrap(memerr.StorageIOError, op, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (b *Backend) ListUsers(ctx context.Context, agentID string) ([]string, error) {
	const op = "dbbackend.Backend.ListUsers"
	rows, err := b.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM artifacts WHERE agent_id = ? ORDER BY user_id`,
		agentID,
	)
	if err != nil {
		return nil, memerr.Wrap(memerr.StorageIOError, op, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, memerr.Wrap(memerr.StorageIOError, op, err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (b *Backend) Clear(ctx context.Context, agentID, userID string) error {
	const op = "dbbackend.Backend.Clear"
	key := keylock.ArtifactKey(agentID, userID, "*")

	var err error
	b.locks.WithLock(key, func() {
		err = b.clearLocked(ctx, agentID, userID)
	})
	if err != nil {
		return memerr.Wrap(memerr.StorageIOError, op, err)
	}
	return nil
}

// clearLocked must run with the user's stripe lock held: it logs a
// DELETE row for every artifact about to be removed, then drops the
// artifacts. Their history rows are kept.
func (b *Backend) clearLocked(ctx context.Context, agentID, userID string) error {
	rows, err := b.db.QueryContext(ctx,
		`SELECT filename, content FROM artifacts WHERE agent_id = ? AND user_id = ?`, agentID, userID)
	if err != nil {
		return err
	}
	type artifact struct{ filename, content string }
	var existing []artifact
	for rows.Next() {
		var a artifact
		if err := rows.Scan(&a.filename, &a.content); err != nil {
			rows.Close()
			return err
		}
		existing = append(existing, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, a := range existing {
		if err := logHistory(ctx, tx, agentID, userID, a.filename, actionDelete, a.content, now); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM artifacts WHERE agent_id = ? AND user_id = ?`, agentID, userID); err != nil {
		return err
	}

	return tx.Commit()
}

// SaveEmbedding stores vector under the collection for agentID, keyed by
// the (agentID, userID, filename) document id, so SearchByVector can later
// filter by owner.
func (b *Backend) SaveEmbedding(ctx context.Context, agentID, userID, filename string, vector []float32) error {
	const op = "dbbackend.Backend.SaveEmbedding"

	content, ok, err := b.Read(ctx, agentID, userID, filename)
	if err != nil {
		return memerr.Wrap(memerr.EmbeddingFailed, op, err)
	}
	if !ok {
		content = ""
	}

	col, err := b.getOrCreateCollection(agentID)
	if err != nil {
		return memerr.Wrap(memerr.EmbeddingFailed, op, err)
	}

	doc := chromem.Document{
		ID:        docID(agentID, userID, filename),
		Content:   content,
		Embedding: vector,
		Metadata: map[string]string{
			"user_id":  userID,
			"filename": filename,
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return memerr.Wrap(memerr.EmbeddingFailed, op, fmt.Errorf("add document: %w", err))
	}

	if _, err := b.db.ExecContext(ctx, `
		INSERT INTO artifact_history (agent_id, user_id, filename, action, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, agentID, userID, filename, actionEmbed, content, time.Now().Unix()); err != nil {
		return memerr.Wrap(memerr.EmbeddingFailed, op, fmt.Errorf("log embed history: %w", err))
	}
	return nil
}

// SearchByVector ranks artifacts under agentID by cosine similarity to
// query, optionally scoped to userID. It retries with a smaller topK when
// the collection holds fewer documents than requested, mirroring the
// embedded vector store's own limitation.
func (b *Backend) SearchByVector(ctx context.Context, agentID, userID string, query []float32, topK int) ([]storage.ScoredArtifact, error) {
	const op = "dbbackend.Backend.SearchByVector"

	col, err := b.getOrCreateCollection(agentID)
	if err != nil {
		return nil, memerr.Wrap(memerr.StorageIOError, op, err)
	}

	var where map[string]string
	if userID != "" {
		where = map[string]string{"user_id": userID}
	}

	var results []chromem.Result
	for n := topK; n >= 1; n-- {
		results, err = col.QueryEmbedding(ctx, query, n, where, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if n == 1 {
				log.Printf("[DBBACKEND] collection for agent=%s has no documents", agentID)
				return nil, nil
			}
			continue
		}
		return nil, memerr.Wrap(memerr.StorageIOError, op, err)
	}

	out := make([]storage.ScoredArtifact, 0, len(results))
	for _, r := range results {
		out = append(out, storage.ScoredArtifact{
			Artifact: storage.Artifact{
				AgentID:  agentID,
				UserID:   r.Metadata["user_id"],
				Filename: r.Metadata["filename"],
				Content:  r.Content,
			},
			Score: float64(r.Similarity),
		})
	}
	return out, nil
}

func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "nResults must be") || strings.Contains(s, "number of documents")
}
