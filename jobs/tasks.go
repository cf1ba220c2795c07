package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup precomputes dashboard reports into the cache.
	TaskReportWarmup = "report:warmup"
	// TaskCacheInvalidate bumps the cache version after a warehouse load.
	TaskCacheInvalidate = "cache:invalidate"
)

// ReportWarmupPayload selects which reports the warmup run precomputes.
// An empty family list means every registered metric family, an empty
// date means each family's default reporting date.
type ReportWarmupPayload struct {
	JobID    string   `json:"job_id"`
	Families []string `json:"families,omitempty"`
	Date     string   `json:"date,omitempty"`
}

// NewReportWarmupTask constructs an Asynq task for report warmup.
func NewReportWarmupTask(families []string, date string) (*asynq.Task, error) {
	payload := ReportWarmupPayload{
		JobID:    uuid.NewString(),
		Families: families,
		Date:     date,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}

// CacheInvalidatePayload carries the correlation id for an invalidation run.
type CacheInvalidatePayload struct {
	JobID  string `json:"job_id"`
	Reason string `json:"reason,omitempty"`
}

// NewCacheInvalidateTask constructs an Asynq task for cache invalidation.
func NewCacheInvalidateTask(reason string) (*asynq.Task, error) {
	payload := CacheInvalidatePayload{JobID: uuid.NewString(), Reason: reason}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheInvalidate, data), nil
}
