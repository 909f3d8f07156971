package files

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates a missing file record.
var ErrNotFound = errors.New("files: not found")

// CreateParams carries the metadata for a new file record.
type CreateParams struct {
	CourseID    *int64
	UploaderID  int64
	Name        string
	StorageKey  string
	ContentType string
	SizeBytes   int64
	Public      bool
}

// Repository defines persistence operations for file metadata.
type Repository interface {
	ListByCourse(ctx context.Context, courseID int64) ([]File, error)
	Get(ctx context.Context, id int64) (File, error)
	Create(ctx context.Context, params CreateParams) (File, error)
	Delete(ctx context.Context, id int64) error
}

// Storage holds the blobs themselves, addressed by opaque key.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}
