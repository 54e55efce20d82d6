package repositories

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CoverPrefix is the leading segment of every stored cover path. Covers are
// served back under the same URL prefix.
const CoverPrefix = "uploads/"

// DiskStore keeps covers as files in a single local directory.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the directory covers are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Store streams body into a fresh temp file and renames it to a
// UUID-based name carrying ext. When the rename fails the temp file is
// left in place and its path is part of the returned error.
func (s *DiskStore) Store(ctx context.Context, body io.Reader, ext, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close upload: %w", err)
	}

	name := uuid.NewString() + ext
	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("rename upload (kept at %s): %w", tmpPath, err)
	}
	return CoverPrefix + name, nil
}

func (s *DiskStore) Remove(ctx context.Context, path string) error {
	name, err := coverName(path)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.dir, name))
}

// coverName extracts the file name from a stored cover path and rejects
// anything that would escape the cover directory.
func coverName(path string) (string, error) {
	name, ok := strings.CutPrefix(path, CoverPrefix)
	if !ok || name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid cover path %q", path)
	}
	return name, nil
}
