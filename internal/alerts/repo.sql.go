package alerts

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const alertColumns = `id, kind, forum_id, message_id, user_id, detail, reviewed, created_at`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Record inserts an alert.
func (r *PGRepository) Record(ctx context.Context, params RecordParams) (Alert, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO alerts (kind, forum_id, message_id, user_id, detail, reviewed, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, now())
		RETURNING `+alertColumns,
		string(params.Kind), params.ForumID, params.MessageID, params.UserID, params.Detail)
	return scanAlert(row)
}

// List returns alerts, newest first.
func (r *PGRepository) List(ctx context.Context, unreviewedOnly bool) ([]Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts`
	if unreviewedOnly {
		query += ` WHERE NOT reviewed`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, alert)
	}
	return list, rows.Err()
}

// MarkReviewed flags an alert as handled.
func (r *PGRepository) MarkReviewed(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE alerts SET reviewed = TRUE WHERE id = $1`, id)
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

func scanAlert(row rowScanner) (Alert, error) {
	var a Alert
	var kind string
	err := row.Scan(&a.ID, &kind, &a.ForumID, &a.MessageID, &a.UserID, &a.Detail, &a.Reviewed, &a.CreatedAt)
	if err != nil {
		return Alert{}, err
	}
	a.Kind = Kind(kind)
	return a, nil
}

var _ Repository = (*PGRepository)(nil)
