// Package archive copies produced device files to long-term storage. The
// local filesystem backend serves single-machine deployments; S3 and GCS
// backends serve labs that replicate session data off-site.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store is a write-only archive of device files, keyed by session
// directory and file name.
type Store interface {
	Put(ctx context.Context, sessionDir, name string, data []byte) error
}

// DirStore archives into a directory tree: <base>/<sessionDir>/<name>.
type DirStore struct {
	baseDir string
}

// NewDirStore creates the base directory if needed.
func NewDirStore(baseDir string) (*DirStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("archive: ensuring %s: %w", baseDir, err)
	}
	return &DirStore{baseDir: baseDir}, nil
}

// Put writes the file under its session directory. Writes stage through a
// temporary name so a crash never leaves a truncated archive copy.
func (s *DirStore) Put(_ context.Context, sessionDir, name string, data []byte) error {
	dir := filepath.Join(s.baseDir, sessionDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("archive: ensuring %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("archive: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("archive: committing %s: %w", path, err)
	}
	return nil
}
