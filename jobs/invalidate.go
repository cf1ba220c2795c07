package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/telcodash/telcodash/internal/jobs"
)

// CacheInvalidator bumps the shared cache version.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// CacheInvalidateJob drops every cached report after the ETL finishes a
// warehouse load. Warmup is expected to follow on the next cron tick.
type CacheInvalidateJob struct {
	Service CacheInvalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCacheInvalidateJob wires dependencies for the invalidation handler.
func NewCacheInvalidateJob(service CacheInvalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheInvalidateJob {
	return &CacheInvalidateJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle processes cache invalidation tasks.
func (j *CacheInvalidateJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("cache invalidate: handler not configured")
	}
	var payload CacheInvalidatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskCacheInvalidate)
	err := tracker.End(j.Service.Invalidate(ctx))
	if err != nil {
		j.logger().Error("bump cache version", slog.String("job_id", payload.JobID), slog.Any("error", err))
		return err
	}
	j.logger().Info("cache version bumped", slog.String("job_id", payload.JobID), slog.String("reason", payload.Reason))
	return nil
}

func (j *CacheInvalidateJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCacheInvalidate))
	}
	return slog.Default().With(slog.String("job", TaskCacheInvalidate))
}

func (j *CacheInvalidateJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
