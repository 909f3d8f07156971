// Package jobs defines the background task types and the Asynq worker
// that processes them. Request paths only enqueue; all persistence of
// alerts happens here.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atheneum-portal/atheneum-portal/internal/alerts"
	jobmetrics "github.com/atheneum-portal/atheneum-portal/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeRecordAlert persists a moderation or security alert.
	TaskTypeRecordAlert = "alerts:record"
	// TaskTypeAlertDigest logs a summary of unreviewed alerts; registered
	// on a cron schedule.
	TaskTypeAlertDigest = "alerts:digest"
	// TaskTypeAuditSweep prunes stale login audit rows nightly.
	TaskTypeAuditSweep = "audit:sweep"
)

// auditRetention is how long login audit rows are kept.
const auditRetention = 90 * 24 * time.Hour

// RecordAlertPayload carries one alert through the queue.
type RecordAlertPayload struct {
	Kind      string `json:"kind"`
	ForumID   int64  `json:"forum_id,omitempty"`
	MessageID int64  `json:"message_id,omitempty"`
	UserID    int64  `json:"user_id,omitempty"`
	Detail    string `json:"detail"`
}

// NewRecordAlertTask constructs an Asynq task for the payload.
func NewRecordAlertTask(payload RecordAlertPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRecordAlert, data), nil
}

// NewAlertDigestTask constructs the digest task; it carries no payload.
func NewAlertDigestTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAlertDigest, nil)
}

// NewAuditSweepTask constructs the audit sweep task; it carries no payload.
func NewAuditSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAuditSweep, nil)
}

// NewRecordAlertHandler returns the handler persisting queued alerts.
func NewRecordAlertHandler(svc *alerts.Service, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeRecordAlert)
		var payload RecordAlertPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("record alert: bad payload", slog.Any("error", err))
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		_, err := svc.Record(ctx, alerts.RecordParams{
			Kind:      alerts.Kind(payload.Kind),
			ForumID:   payload.ForumID,
			MessageID: payload.MessageID,
			UserID:    payload.UserID,
			Detail:    payload.Detail,
		})
		if err == nil {
			metrics.CountAlert(payload.Kind)
		}
		return tracker.End(err)
	}
}

// StalePruner deletes rows older than a cutoff.
type StalePruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewAuditSweepHandler returns the handler pruning old login audit rows.
func NewAuditSweepHandler(pruner StalePruner, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeAuditSweep)
		dropped, err := pruner.DeleteBefore(ctx, time.Now().Add(-auditRetention))
		if err != nil {
			return tracker.End(err)
		}
		logger.Info("audit sweep", slog.Int64("dropped", dropped))
		return tracker.End(nil)
	}
}

// NewAlertDigestHandler returns the handler summarizing unreviewed alerts
// for the operations log.
func NewAlertDigestHandler(repo alerts.Repository, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeAlertDigest)
		list, err := repo.List(ctx, true)
		if err != nil {
			return tracker.End(err)
		}
		logger.Info("alert digest", slog.Int("unreviewed", len(list)))
		return tracker.End(nil)
	}
}
