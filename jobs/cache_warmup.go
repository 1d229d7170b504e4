package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/sekolah-app/sekolah/internal/jobs"
	"github.com/sekolah-app/sekolah/internal/students"
)

// CacheWarmupJob pre-populates per-school statistics caches so the first
// dashboard hit of the day is served warm.
type CacheWarmupJob struct {
	Students *students.Service
	Pool     *pgxpool.Pool
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewCacheWarmupJob wires dependencies for the warmup handler.
func NewCacheWarmupJob(studentsSvc *students.Service, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheWarmupJob {
	return &CacheWarmupJob{Students: studentsSvc, Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle processes cache warmup tasks.
func (j *CacheWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Students == nil {
		return errors.New("cache warmup: handler not configured")
	}
	var payload CacheWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskCacheWarmup)

	schoolIDs := payload.SchoolIDs
	if len(schoolIDs) == 0 {
		var err error
		schoolIDs, err = j.activeSchools(ctx)
		if err != nil {
			j.logger().Error("load warmup schools", slog.Any("error", err))
			return tracker.End(err)
		}
	}
	if len(schoolIDs) == 0 {
		j.logger().Info("no schools discovered for warmup")
		return tracker.End(nil)
	}

	warmed := 0
	for _, schoolID := range schoolIDs {
		if _, err := j.Students.Stats(ctx, schoolID); err != nil {
			j.logger().Error("warm school stats", slog.Int64("school_id", schoolID), slog.Any("error", err))
			return tracker.End(err)
		}
		warmed++
	}
	j.logger().Info("cache warmup complete", slog.Int("schools", warmed))
	return tracker.End(nil)
}

func (j *CacheWarmupJob) activeSchools(ctx context.Context) ([]int64, error) {
	if j.Pool == nil {
		return nil, errors.New("cache warmup: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT id FROM schools WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (j *CacheWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *CacheWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
