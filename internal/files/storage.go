package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DiskStorage stores blobs as plain files under a root directory. Keys are
// opaque and never derived from user input, so no path sanitization beyond
// the join is needed.
type DiskStorage struct {
	root string
}

// NewDiskStorage prepares the storage root.
func NewDiskStorage(root string) (*DiskStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("files: prepare storage root: %w", err)
	}
	return &DiskStorage{root: root}, nil
}

// Save writes a blob and returns its size.
func (s *DiskStorage) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	f, err := os.Create(filepath.Join(s.root, key))
	if err != nil {
		return 0, fmt.Errorf("files: create blob: %w", err)
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filepath.Join(s.root, key))
		return 0, fmt.Errorf("files: write blob: %w", err)
	}
	return n, nil
}

// Open returns a reader over a stored blob.
func (s *DiskStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("files: open blob: %w", err)
	}
	return f, nil
}

// Remove deletes a stored blob. A missing blob is not an error; the
// metadata row is authoritative.
func (s *DiskStorage) Remove(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.root, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("files: remove blob: %w", err)
	}
	return nil
}

var _ Storage = (*DiskStorage)(nil)
