package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/cache"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/infra/resilience"
	"github.com/boddenberg/family-finance-go/internal/infra/sqlite"
	"github.com/boddenberg/family-finance-go/internal/service"

	"go.uber.org/zap"
)

// fixedNow is the pinned "today" of every service test: Wed 14 Oct 2026.
var fixedNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store   *sqlite.Store
	metrics *observability.Metrics
	points  *service.GamificationService
	finance *service.FinanceService
	auth    *service.AuthService
	family  *service.FamilyService
	admin   domain.Session
}

// newFixture wires the services on a temporary SQLite database and
// registers one family whose admin is returned in f.admin.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "finance.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	guard := resilience.NewGuard(resilience.NewCircuitBreaker("sqlite-test"), resilience.Config{
		MaxRetries:     0,
		InitialBackoff: time.Millisecond,
	})
	store := sqlite.New(db, guard, resilience.NewBulkhead(1), metrics, logger)

	categories := cache.New[[]domain.Category](time.Minute)
	t.Cleanup(categories.Close)

	clock := service.WithClock(func() time.Time { return fixedNow })
	points := service.NewGamificationService(store, metrics, logger, clock)

	f := &fixture{
		store:   store,
		metrics: metrics,
		points:  points,
		finance: service.NewFinanceService(store, categories, points, nil, metrics, logger, clock),
		auth:    service.NewAuthService(store, points, "test-jwt-secret", time.Hour, logger, clock),
		family:  service.NewFamilyService(store, logger),
	}

	resp, err := f.auth.Register(ctx, &domain.RegisterRequest{
		Name:       "Ana",
		Email:      "ana@example.com",
		Password:   "segredo123",
		FamilyName: "Silva",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	f.admin = domain.Session{
		UserID:   resp.User.ID,
		FamilyID: resp.Family.ID,
		Role:     domain.RoleAdmin,
		Name:     resp.User.Name,
		Email:    resp.User.Email,
	}
	return f
}

// category returns the id of one of the family's starter categories.
func (f *fixture) category(t *testing.T, name string) string {
	t.Helper()
	cats, err := f.finance.ListCategories(context.Background(), f.admin)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	for _, c := range cats {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %q not found", name)
	return ""
}

// card creates a credit card closing on day 5 and due on day 12.
func (f *fixture) card(t *testing.T) *domain.Account {
	t.Helper()
	limit := domain.Cents(500000)
	closing, due := 5, 12
	a, err := f.finance.CreateAccount(context.Background(), f.admin, &domain.AccountRequest{
		Name:       "Nubank",
		Type:       domain.AccountCreditCard,
		Limit:      &limit,
		ClosingDay: &closing,
		DueDay:     &due,
	})
	if err != nil {
		t.Fatalf("create card: %v", err)
	}
	return a
}

// expense records a transaction with the given fields and fails the test on error.
func (f *fixture) expense(t *testing.T, req domain.CreateTransactionRequest) *domain.CreateTransactionResult {
	t.Helper()
	if req.Type == "" {
		req.Type = domain.TransactionExpense
	}
	if req.Description == "" {
		req.Description = "Despesa"
	}
	result, err := f.finance.CreateTransaction(context.Background(), f.admin, &req)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return result
}

func strPtr(s string) *string { return &s }
