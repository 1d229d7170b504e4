package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditPurge removes audit records past the retention window.
	TaskAuditPurge = "audit:purge"
	// TaskCacheWarmup pre-populates per-school statistics caches.
	TaskCacheWarmup = "cache:warmup"
)

// AuditPurgePayload configures a purge run.
type AuditPurgePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewAuditPurgeTask constructs an audit purge task.
func NewAuditPurgeTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPurgePayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPurge, data), nil
}

// CacheWarmupPayload selects which schools get warmed; empty means all active.
type CacheWarmupPayload struct {
	SchoolIDs []int64 `json:"school_ids,omitempty"`
}

// NewCacheWarmupTask constructs a cache warmup task.
func NewCacheWarmupTask(schoolIDs ...int64) (*asynq.Task, error) {
	data, err := json.Marshal(CacheWarmupPayload{SchoolIDs: schoolIDs})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheWarmup, data), nil
}
