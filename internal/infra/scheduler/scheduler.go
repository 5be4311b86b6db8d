// Package scheduler runs periodic background jobs on robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/family-finance-go/internal/infra/observability"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("scheduler")

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner with logging, tracing and job metrics.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	metrics *observability.Metrics
	logger  *zap.Logger
}

// New creates a scheduler running jobs in UTC. Each run gets timeout.
func New(timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

// Add registers job under name on a standard five-field cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.Run(context.Background(), name, job) }); err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}
	s.logger.Info("scheduled job registered", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Run executes job once, recording its outcome. Panics are recovered and
// counted as errors.
func (s *Scheduler) Run(ctx context.Context, name string, job Job) (err error) {
	ctx, span := tracer.Start(ctx, "Scheduler."+name)
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}
		status := "success"
		if err != nil {
			status = "error"
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		} else {
			s.logger.Info("scheduled job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
		}
		s.metrics.IncrJobRun(name, status)
	}()

	return job(ctx)
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling new runs and waits for running jobs, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}
