// Package service provides the business logic layer (use cases).
// FinanceService handles the family ledger: transactions, installment
// purchases, accounts and card bills, categories, budgets, the dashboard
// and the CFO insights.
package service

import (
	"context"
	"time"

	"github.com/boddenberg/family-finance-go/internal/billing"
	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var financeTracer = otel.Tracer("service/finance")

// FinanceService orchestrates all ledger operations via the finance store.
type FinanceService struct {
	store      port.FinanceStore
	categories port.Cache[[]domain.Category]
	points     *GamificationService
	splitter   *billing.Splitter
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewFinanceService creates a new finance service. points may be nil, in
// which case no gamification is recorded.
func NewFinanceService(
	store port.FinanceStore,
	categories port.Cache[[]domain.Category],
	points *GamificationService,
	splitter *billing.Splitter,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *FinanceService {
	o := applyOptions(opts)
	if splitter == nil {
		splitter = billing.NewSplitter()
	}
	return &FinanceService{
		store:      store,
		categories: categories,
		points:     points,
		splitter:   splitter,
		metrics:    metrics,
		logger:     logger,
		now:        o.now,
	}
}

// Ping checks the store for readiness probes.
func (s *FinanceService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *FinanceService) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *FinanceService) record(ctx context.Context, userID string, actions ...domain.PointAction) {
	if s.points == nil || len(actions) == 0 {
		return
	}
	s.points.RecordActivity(ctx, userID, actions...)
}
