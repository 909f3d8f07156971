package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/courses"
)

// ErrInvalidInput indicates a rejected upload.
var ErrInvalidInput = errors.New("files: invalid input")

// CourseStore resolves a file's parent course for scope checks.
type CourseStore interface {
	Get(ctx context.Context, id int64) (courses.Course, error)
}

// Service wraps the upload rules: professors attach files to the courses
// they teach, forum posters attach public images.
type Service struct {
	repo    Repository
	storage Storage
	catalog CourseStore
	engine  *access.Engine
	logger  *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, storage Storage, catalog CourseStore, engine *access.Engine, logger *slog.Logger) *Service {
	return &Service{repo: repo, storage: storage, catalog: catalog, engine: engine, logger: logger}
}

// Upload carries an incoming blob.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// ListCourseFiles returns the attachments of a course the actor may read.
func (s *Service) ListCourseFiles(ctx context.Context, actor access.Principal, courseID int64) ([]File, error) {
	course, err := s.catalog.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	courseRes := course.Resource()
	if d := s.engine.Authorize(actor, access.ActionRead, access.File{Course: &courseRes}); !d.Allow {
		return nil, d.Err()
	}
	return s.repo.ListByCourse(ctx, courseID)
}

// UploadCourseFile attaches a blob to a course.
func (s *Service) UploadCourseFile(ctx context.Context, actor access.Principal, courseID int64, up Upload) (File, error) {
	if err := validateUpload(up); err != nil {
		return File{}, err
	}
	course, err := s.catalog.Get(ctx, courseID)
	if err != nil {
		return File{}, err
	}
	courseRes := course.Resource()
	if d := s.engine.Authorize(actor, access.ActionUpload, access.File{Course: &courseRes}); !d.Allow {
		return File{}, d.Err()
	}
	return s.store(ctx, actor, &courseID, up, false)
}

// UploadForumImage stores a public image for embedding in forum posts.
func (s *Service) UploadForumImage(ctx context.Context, actor access.Principal, up Upload) (File, error) {
	if err := validateUpload(up); err != nil {
		return File{}, err
	}
	if !strings.HasPrefix(up.ContentType, "image/") {
		return File{}, fmt.Errorf("%w: forum uploads must be images", ErrInvalidInput)
	}
	// The target is owned by the uploader; posting rights carry image
	// upload rights.
	target := access.File{UploaderID: actor.ID, Public: true}
	if d := s.engine.Authorize(actor, access.ActionCreate, target); !d.Allow {
		return File{}, d.Err()
	}
	return s.store(ctx, actor, nil, up, true)
}

// Get returns a file's metadata if the actor may read it.
func (s *Service) Get(ctx context.Context, actor access.Principal, id int64) (File, error) {
	file, course, err := s.load(ctx, id)
	if err != nil {
		return File{}, err
	}
	if d := s.engine.Authorize(actor, access.ActionRead, file.Resource(course)); !d.Allow {
		return File{}, d.Err()
	}
	return file, nil
}

// Download opens a file's blob if the actor may read it.
func (s *Service) Download(ctx context.Context, actor access.Principal, id int64) (File, io.ReadCloser, error) {
	file, err := s.Get(ctx, actor, id)
	if err != nil {
		return File{}, nil, err
	}
	rc, err := s.storage.Open(ctx, file.StorageKey)
	if err != nil {
		return File{}, nil, err
	}
	return file, rc, nil
}

// Delete removes a file's metadata and blob.
func (s *Service) Delete(ctx context.Context, actor access.Principal, id int64) error {
	file, course, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if d := s.engine.Authorize(actor, access.ActionDelete, file.Resource(course)); !d.Allow {
		return d.Err()
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.storage.Remove(ctx, file.StorageKey); err != nil {
		// The metadata row is gone; an orphan blob is a cleanup concern,
		// not a request failure.
		s.logger.Error("remove blob", slog.Any("error", err), slog.String("key", file.StorageKey))
	}
	s.logger.Info("file deleted", slog.Int64("actor", actor.ID), slog.Int64("file", id))
	return nil
}

func (s *Service) store(ctx context.Context, actor access.Principal, courseID *int64, up Upload, public bool) (File, error) {
	key := uuid.NewString()
	size, err := s.storage.Save(ctx, key, up.Body)
	if err != nil {
		return File{}, err
	}
	file, err := s.repo.Create(ctx, CreateParams{
		CourseID:    courseID,
		UploaderID:  actor.ID,
		Name:        strings.TrimSpace(up.Name),
		StorageKey:  key,
		ContentType: up.ContentType,
		SizeBytes:   size,
		Public:      public,
	})
	if err != nil {
		s.storage.Remove(ctx, key)
		return File{}, err
	}
	s.logger.Info("file stored", slog.Int64("actor", actor.ID), slog.Int64("file", file.ID), slog.String("name", file.Name))
	return file, nil
}

func (s *Service) load(ctx context.Context, id int64) (File, *courses.Course, error) {
	file, err := s.repo.Get(ctx, id)
	if err != nil {
		return File{}, nil, err
	}
	if file.CourseID == nil {
		return file, nil, nil
	}
	course, err := s.catalog.Get(ctx, *file.CourseID)
	if err != nil {
		return File{}, nil, fmt.Errorf("files: load course %d: %w", *file.CourseID, err)
	}
	return file, &course, nil
}

func validateUpload(up Upload) error {
	if strings.TrimSpace(up.Name) == "" {
		return fmt.Errorf("%w: file name required", ErrInvalidInput)
	}
	if up.Body == nil {
		return fmt.Errorf("%w: empty body", ErrInvalidInput)
	}
	return nil
}
