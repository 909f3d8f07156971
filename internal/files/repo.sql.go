package files

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fileColumns = `id, course_id, uploader_id, name, storage_key, content_type, size_bytes, public, created_at`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListByCourse returns a course's attachments, newest first.
func (r *PGRepository) ListByCourse(ctx context.Context, courseID int64) ([]File, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+fileColumns+` FROM files WHERE course_id = $1 ORDER BY created_at DESC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, file)
	}
	return list, rows.Err()
}

// Get fetches a file record by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (File, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id)
	file, err := scanFile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrNotFound
		}
		return File{}, err
	}
	return file, nil
}

// Create inserts a file record.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (File, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO files (course_id, uploader_id, name, storage_key, content_type, size_bytes, public, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING `+fileColumns,
		params.CourseID, params.UploaderID, params.Name, params.StorageKey,
		params.ContentType, params.SizeBytes, params.Public)
	return scanFile(row)
}

// Delete removes a file record.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (File, error) {
	var f File
	err := row.Scan(&f.ID, &f.CourseID, &f.UploaderID, &f.Name, &f.StorageKey,
		&f.ContentType, &f.SizeBytes, &f.Public, &f.CreatedAt)
	if err != nil {
		return File{}, err
	}
	return f, nil
}

var _ Repository = (*PGRepository)(nil)
