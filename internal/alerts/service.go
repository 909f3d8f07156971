package alerts

import (
	"context"
	"log/slog"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
)

// Service wraps alert recording and review.
type Service struct {
	repo   Repository
	engine *access.Engine
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, engine *access.Engine, logger *slog.Logger) *Service {
	return &Service{repo: repo, engine: engine, logger: logger}
}

// Record persists an alert. Called from the background worker, never from a
// request path, so it takes no actor.
func (s *Service) Record(ctx context.Context, params RecordParams) (Alert, error) {
	alert, err := s.repo.Record(ctx, params)
	if err != nil {
		return Alert{}, err
	}
	s.logger.Warn("alert recorded",
		slog.String("kind", string(alert.Kind)),
		slog.Int64("alert", alert.ID),
		slog.Int64("user", alert.UserID))
	return alert, nil
}

// List returns alerts for reviewers.
func (s *Service) List(ctx context.Context, actor access.Principal, unreviewedOnly bool) ([]Alert, error) {
	if !s.engine.Policy().HasCapability(actor.Role, access.CapViewReports) {
		return nil, access.Denied(access.ReasonInsufficientRole).Err()
	}
	return s.repo.List(ctx, unreviewedOnly)
}

// MarkReviewed flags an alert as handled.
func (s *Service) MarkReviewed(ctx context.Context, actor access.Principal, id int64) error {
	if !s.engine.Policy().HasCapability(actor.Role, access.CapViewReports) {
		return access.Denied(access.ReasonInsufficientRole).Err()
	}
	return s.repo.MarkReviewed(ctx, id)
}
