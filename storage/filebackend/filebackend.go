// Package filebackend implements storage.Backend as a deterministic
// directory tree: base/<agentID>/<userID>/<filename>. It keeps no vector
// index and does not implement storage.VectorSearcher (spec §4.3).
package filebackend

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nevamind-ai/memu-go/memerr"
	"github.com/nevamind-ai/memu-go/storage"
	"github.com/nevamind-ai/memu-go/storage/keylock"
)

// Backend stores artifacts as plain files under a base directory.
type Backend struct {
	base  string
	locks *keylock.Striped
}

// New creates a Backend rooted at base, creating the directory if needed.
func New(base string) (*Backend, error) {
	const op = "filebackend.New"
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, memerr.Wrap(memerr.StorageIOError, op, err)
	}
	return &Backend{base: base, locks: keylock.New()}, nil
}

var _ storage.Backend = (*Backend)(nil)

func (b *Backend) path(agentID, userID, filename string) string {
	return filepath.Join(b.base, agentID, userID, filename)
}

func (b *Backend) Read(_ context.Context, agentID, userID, filename string) (string, bool, error) {
	const op = "filebackend.Backend.Read"
	data, err := os.ReadFile(b.path(agentID, userID, filename))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, memerr.Wrap(memerr.StorageIOError, op, err)
	}
	return string(data), true, nil
}

func (b *Backend) Write(_ context.Context, agentID, userID, filename, content string) error {
	const op = "filebackend.Backend.Write"
	key := keylock.ArtifactKey(agentID, userID, filename)
	var err error
	b.locks.WithLock(key, func() {
		err = b.writeLocked(agentID, userID, filename, content)
	})
	if err != nil {
		return memerr.Wrap(memerr.StoragePersistFailed, op, err)
	}
	return nil
}

func (b *Backend) writeLocked(agentID, userID, filename, content string) error {
	dir := filepath.Join(b.base, agentID, userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644)
}

func (b *Backend) Append(_ context.Context, agentID, userID, filename, content string) error {
	const op = "filebackend.Backend.Append"
	key := keylock.ArtifactKey(agentID, userID, filename)
	var err error
	b.locks.WithLock(key, func() {
		err = b.appendLocked(agentID, userID, filename, content)
	})
	if err != nil {
		return memerr.Wrap(memerr.StoragePersistFailed, op, err)
	}
	return nil
}

func (b *Backend) appendLocked(agentID, userID, filename, content string) error {
	dir := filepath.Join(b.base, agentID, userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, filename)

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	var out strings.Builder
	out.Write(existing)
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		out.WriteByte('\n')
	}
	out.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		out.WriteByte('\n')
	}

	return os.WriteFile(path, []byte(out.String()), 0o644)
}

func (b *Backend) Exists(_ context.Context, agentID, userID, filename string) (bool, error) {
	_, err := os.Stat(b.path(agentID, userID, filename))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, memerr.Wrap(memerr.StorageIOError, "filebackend.Backend.Exists", err)
	}
	return true, nil
}

func (b *Backend) ListCategories(_ context.Context, agentID, userID string) ([]string, error) {
	const op = "filebackend.Backend.ListCategories"
	dir := filepath.Join(b.base, agentID, userID)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, memerr.Wrap(memerr.StorageIOError, op, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (b *Backend) ListUsers(_ context.Context, agentID string) ([]string, error) {
	const op = "filebackend.Backend.ListUsers"
	dir := filepath.Join(b.base, agentID)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, memerr.Wrap(memerr.StorageIOError, op, err)
	}
	var users []string
	for _, e := range entries {
		if e.IsDir() {
			users = append(users, e.Name())
		}
	}
	sort.Strings(users)
	return users, nil
}

func (b *Backend) Clear(_ context.Context, agentID, userID string) error {
	const op = "filebackend.Backend.Clear"
	key := keylock.ArtifactKey(agentID, userID, "*")
	var err error
	b.locks.WithLock(key, func() {
		err = os.RemoveAll(filepath.Join(b.base, agentID, userID))
	})
	if err != nil {
		return memerr.Wrap(memerr.StorageIOError, op, err)
	}
	return nil
}

// SaveEmbedding is a no-op: filebackend keeps no vector index, so the
// vector is discarded.
func (b *Backend) SaveEmbedding(context.Context, string, string, string, []float32) error {
	return nil
}
