package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalBackend stores file bytes at <stateDir>/files/<hash>. It is the
// default backend.
type LocalBackend struct {
	filesDir string
}

// NewLocalBackend ensures <stateDir>/files exists and returns a Backend
// rooted there.
func NewLocalBackend(stateDir string) (*LocalBackend, error) {
	dir := filepath.Join(stateDir, "files")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: failed to create files dir: %w", err)
	}
	return &LocalBackend{filesDir: dir}, nil
}

func (b *LocalBackend) path(hash string) string {
	return filepath.Join(b.filesDir, hash)
}

// Write writes data to <files>/<hash> via a temp-file-then-rename so a
// crash mid-write never leaves a partially-written byte file at the final
// path; the index (serialized separately) is the source of truth for what
// exists, so an orphaned temp file left behind by a crash is harmless and
// may be cleaned up offline.
func (b *LocalBackend) Write(_ context.Context, hash string, data []byte) error {
	final := b.path(hash)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("filestore: failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("filestore: failed to finalize %s: %w", final, err)
	}
	return nil
}

func (b *LocalBackend) Read(_ context.Context, hash string) ([]byte, error) {
	data, err := os.ReadFile(b.path(hash))
	if err != nil {
		return nil, fmt.Errorf("filestore: failed to read %s: %w", hash, err)
	}
	return data, nil
}

func (b *LocalBackend) Remove(_ context.Context, hash string) error {
	if err := os.Remove(b.path(hash)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestore: failed to remove %s: %w", hash, err)
	}
	return nil
}

func (b *LocalBackend) Size(_ context.Context, hash string) (int64, error) {
	info, err := os.Stat(b.path(hash))
	if err != nil {
		return 0, fmt.Errorf("filestore: failed to stat %s: %w", hash, err)
	}
	return info.Size(), nil
}
