package backlog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const entrySuffix = ".queued"

// FSQueue keeps the backlog as one small file per queued container. The
// entry name is a digest of the container path, so re-enqueueing is
// naturally idempotent and entries survive restarts.
type FSQueue struct {
	dir string
}

// NewFSQueue creates the backing directory if needed.
func NewFSQueue(dir string) (*FSQueue, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("backlog: ensuring %s: %w", dir, err)
	}
	return &FSQueue{dir: dir}, nil
}

func (q *FSQueue) entryPath(containerPath string) string {
	sum := sha256.Sum256([]byte(containerPath))
	return filepath.Join(q.dir, hex.EncodeToString(sum[:16])+entrySuffix)
}

// Enqueue records a container as pending.
func (q *FSQueue) Enqueue(_ context.Context, containerPath string) error {
	path := q.entryPath(containerPath)
	if err := os.WriteFile(path, []byte(containerPath+"\n"), 0o644); err != nil {
		return fmt.Errorf("backlog: enqueueing %s: %w", containerPath, err)
	}
	return nil
}

// List returns the pending container paths, sorted for stable drains.
func (q *FSQueue) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return nil, fmt.Errorf("backlog: listing %s: %w", q.dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entrySuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(q.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("backlog: reading entry %s: %w", e.Name(), err)
		}
		paths = append(paths, strings.TrimSpace(string(data)))
	}
	sort.Strings(paths)
	return paths, nil
}

// Remove drops a container from the backlog; removing an absent entry is
// not an error.
func (q *FSQueue) Remove(_ context.Context, containerPath string) error {
	err := os.Remove(q.entryPath(containerPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("backlog: removing %s: %w", containerPath, err)
	}
	return nil
}
