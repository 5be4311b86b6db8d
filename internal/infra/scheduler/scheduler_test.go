package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/infra/scheduler"

	"go.uber.org/zap"
)

func TestRun_RecordsOutcome(t *testing.T) {
	metrics := observability.NewMetrics()
	s := scheduler.New(time.Second, metrics, zap.NewNop())

	if err := s.Run(context.Background(), "ok", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	boom := errors.New("boom")
	if err := s.Run(context.Background(), "fails", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if v := metrics.CounterValue("job_runs", "ok", "success"); v != 1 {
		t.Errorf("expected 1 success, got %v", v)
	}
	if v := metrics.CounterValue("job_runs", "fails", "error"); v != 1 {
		t.Errorf("expected 1 error, got %v", v)
	}
}

func TestRun_RecoversPanic(t *testing.T) {
	metrics := observability.NewMetrics()
	s := scheduler.New(0, metrics, zap.NewNop())

	err := s.Run(context.Background(), "panics", func(context.Context) error { panic("kaboom") })
	if err == nil {
		t.Fatal("expected error from panicking job")
	}
	if v := metrics.CounterValue("job_runs", "panics", "error"); v != 1 {
		t.Errorf("expected panic counted as error, got %v", v)
	}
}

func TestRun_AppliesTimeout(t *testing.T) {
	s := scheduler.New(10*time.Millisecond, observability.NewMetrics(), zap.NewNop())

	err := s.Run(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestAdd_InvalidSpec(t *testing.T) {
	s := scheduler.New(time.Second, observability.NewMetrics(), zap.NewNop())

	if err := s.Add("bad", "not a cron spec", func(context.Context) error { return nil }); err == nil {
		t.Error("expected error for invalid spec")
	}
	if err := s.Add("monthly", "5 0 1 * *", func(context.Context) error { return nil }); err != nil {
		t.Errorf("expected valid spec, got %v", err)
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
