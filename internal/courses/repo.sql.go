package courses

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const courseColumns = `id, code, name, description, department, professor_id, semester, is_active, forum_enabled, created_at, updated_at`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns courses matching the filter, ordered by code.
func (r *PGRepository) List(ctx context.Context, filter Filter) ([]Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE 1=1`
	args := []any{}
	if filter.Department != "" {
		args = append(args, string(filter.Department))
		query += fmt.Sprintf(` AND department = $%d`, len(args))
	}
	if filter.ProfessorID != 0 {
		args = append(args, filter.ProfessorID)
		query += fmt.Sprintf(` AND professor_id = $%d`, len(args))
	}
	if filter.ActiveOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY code`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, course)
	}
	return list, rows.Err()
}

// Get fetches a course by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (Course, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
	course, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, err
	}
	return course, nil
}

// Create inserts a new course.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (Course, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO courses (code, name, description, department, professor_id, semester, is_active, forum_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, now(), now())
		RETURNING `+courseColumns,
		params.Code, params.Name, params.Description, string(params.Department),
		params.ProfessorID, params.Semester, params.ForumEnabled)
	course, err := scanCourse(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Course{}, ErrCodeTaken
		}
		return Course{}, err
	}
	return course, nil
}

// Update rewrites the mutable course fields.
func (r *PGRepository) Update(ctx context.Context, id int64, params UpdateParams) (Course, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE courses
		SET name = $2, description = $3, professor_id = $4, semester = $5,
		    is_active = $6, forum_enabled = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+courseColumns,
		id, params.Name, params.Description, params.ProfessorID,
		params.Semester, params.IsActive, params.ForumEnabled)
	course, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, err
	}
	return course, nil
}

// Delete removes a course; dependent rows cascade in the schema.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
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

func scanCourse(row rowScanner) (Course, error) {
	var course Course
	var department string
	err := row.Scan(&course.ID, &course.Code, &course.Name, &course.Description, &department,
		&course.ProfessorID, &course.Semester, &course.IsActive, &course.ForumEnabled,
		&course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		return Course{}, err
	}
	course.Department = Department(department)
	return course, nil
}

var _ Repository = (*PGRepository)(nil)
