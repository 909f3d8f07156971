package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGAuditLog persists successful logins for later review. Rows are pruned
// by the nightly sweep job.
type PGAuditLog struct {
	pool *pgxpool.Pool
}

// NewAuditLog constructs the login audit log.
func NewAuditLog(pool *pgxpool.Pool) *PGAuditLog {
	return &PGAuditLog{pool: pool}
}

// RecordLogin appends one audit row.
func (l *PGAuditLog) RecordLogin(ctx context.Context, userID int64, ip string) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO login_audit (user_id, ip, created_at)
		VALUES ($1, $2, now())`, userID, ip)
	return err
}

// DeleteBefore removes audit rows older than the cutoff and reports how
// many were dropped.
func (l *PGAuditLog) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := l.pool.Exec(ctx, `DELETE FROM login_audit WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
