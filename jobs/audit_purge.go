package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/sekolah-app/sekolah/internal/jobs"
	"github.com/sekolah-app/sekolah/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AuditPurgeJob trims audit_logs down to the retention window.
type AuditPurgeJob struct {
	Audit   *shared.AuditLogger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAuditPurgeJob wires dependencies for the purge handler.
func NewAuditPurgeJob(audit *shared.AuditLogger, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditPurgeJob {
	return &AuditPurgeJob{
		Audit:   audit,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes audit purge tasks.
func (j *AuditPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Audit == nil {
		return errors.New("audit purge: handler not configured")
	}
	var payload AuditPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Retention <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskAuditPurge)
	cutoff := j.clock().Add(-payload.Retention)
	removed, err := j.Audit.PurgeBefore(ctx, cutoff)
	if err != nil {
		j.logger().Error("purge audit logs", slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger().Info("audit logs purged",
		slog.Time("cutoff", cutoff),
		slog.Int64("removed", removed))
	return tracker.End(nil)
}

func (j *AuditPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *AuditPurgeJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
