package alerts

import (
	"context"
	"errors"
)

// ErrNotFound indicates a missing alert.
var ErrNotFound = errors.New("alerts: not found")

// RecordParams carries a new alert.
type RecordParams struct {
	Kind      Kind
	ForumID   int64
	MessageID int64
	UserID    int64
	Detail    string
}

// Repository defines persistence operations for alerts.
type Repository interface {
	Record(ctx context.Context, params RecordParams) (Alert, error)
	List(ctx context.Context, unreviewedOnly bool) ([]Alert, error)
	MarkReviewed(ctx context.Context, id int64) error
}
