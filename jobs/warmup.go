package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/telcodash/telcodash/internal/jobs"
	"github.com/telcodash/telcodash/internal/rollup"
	"github.com/telcodash/telcodash/internal/territory"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReportWarmer computes a report in wire form, populating the cache as
// a side effect.
type ReportWarmer interface {
	ReportJSON(ctx context.Context, familyKey string, date time.Time, filter territory.Filter) ([]byte, error)
}

// ReportWarmupJob pre-populates the report cache so the first dashboard
// hit after a warehouse load does not pay the computation cost.
type ReportWarmupJob struct {
	Service ReportWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(service ReportWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle processes report warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	var date time.Time
	if payload.Date != "" {
		parsed, err := time.Parse("2006-01-02", payload.Date)
		if err != nil {
			return asynq.SkipRetry
		}
		date = parsed
	}

	families := payload.Families
	if len(families) == 0 {
		for _, spec := range rollup.Families() {
			families = append(families, spec.Key)
		}
	}

	tracker := j.metrics().Track(TaskReportWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("job_id", payload.JobID))
	logger.Info("starting report warmup", slog.Int("families", len(families)))

	start := time.Now()
	warmed := 0
	for _, family := range families {
		if err := j.warmFamily(ctx, family, date); err != nil {
			resultErr = err
			logger.Error("warm family", slog.String("family", family), slog.Any("error", err))
			return resultErr
		}
		j.metrics().AddWarmedReports(family, 1)
		warmed++
	}

	logger.Info("completed report warmup", slog.Int("reports", warmed), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *ReportWarmupJob) warmFamily(ctx context.Context, family string, date time.Time) error {
	// Cap each family so a slow warehouse cannot stall the whole run.
	familyCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	_, err := j.Service.ReportJSON(familyCtx, family, date, territory.Filter{})
	return err
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportWarmup))
}

func (j *ReportWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
