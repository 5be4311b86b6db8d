package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/boddenberg/family-finance-go/internal/billing"
	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/insight"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// Dashboard
// ============================================================

const (
	trendMonths  = 6
	futureMonths = 6
)

// Dashboard builds the current-month overview. The trend window, the
// future installments window and the pending count are fetched concurrently.
func (s *FinanceService) Dashboard(ctx context.Context, session domain.Session) (*domain.Dashboard, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.Dashboard")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", session.FamilyID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("dashboard", time.Since(start))
	}()

	now := s.now().UTC()
	trendFrom, _ := billing.MonthWindow(now, -(trendMonths - 1))
	_, currentEnd := billing.MonthWindow(now, 0)
	futureTo, _ := billing.MonthWindow(now, futureMonths+1)

	var (
		history []domain.Transaction
		future  []domain.Transaction
		pending int
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := s.store.ListTransactions(gCtx, session.FamilyID, domain.TransactionFilter{
			Status: domain.StatusConfirmed,
			From:   trendFrom,
			To:     currentEnd,
		})
		if err != nil {
			return fmt.Errorf("trend fetch: %w", err)
		}
		history = txs
		return nil
	})

	g.Go(func() error {
		txs, err := s.store.ListTransactions(gCtx, session.FamilyID, domain.TransactionFilter{
			Status:           domain.StatusConfirmed,
			InstallmentsOnly: true,
			From:             currentEnd,
			To:               futureTo,
		})
		if err != nil {
			return fmt.Errorf("installments fetch: %w", err)
		}
		future = txs
		return nil
	})

	g.Go(func() error {
		n, err := s.store.CountTransactions(gCtx, session.FamilyID, domain.TransactionFilter{Status: domain.StatusPending})
		if err != nil {
			return fmt.Errorf("pending count: %w", err)
		}
		pending = n
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard fetch failed", zap.String("family_id", session.FamilyID), zap.Error(err))
		return nil, err
	}

	return buildDashboard(now, history, future, pending), nil
}

// buildDashboard partitions the fetched windows by calendar month.
func buildDashboard(now time.Time, history, future []domain.Transaction, pending int) *domain.Dashboard {
	currentStart := billing.MonthStart(now)

	byMonth := make(map[time.Time][]domain.Transaction)
	for _, tx := range history {
		m := billing.MonthStart(tx.Date)
		byMonth[m] = append(byMonth[m], tx)
	}
	current := byMonth[currentStart]
	totals := domain.Totals(current)

	d := &domain.Dashboard{
		Income:             totals.Income,
		Expenses:           totals.Expenses,
		Balance:            totals.Balance(),
		CategoryBreakdown:  categoryBreakdown(current),
		MonthlyTrend:       make([]domain.MonthlyTrend, 0, trendMonths),
		ProjectedBalance:   projectedBalance(totals, now),
		FutureInstallments: []domain.FutureInstallment{},
		PendingCount:       pending,
		TransactionCount:   len(current),
	}

	for offset := -(trendMonths - 1); offset <= 0; offset++ {
		m, _ := billing.MonthWindow(now, offset)
		t := domain.Totals(byMonth[m])
		d.MonthlyTrend = append(d.MonthlyTrend, domain.MonthlyTrend{
			Month:    domain.MonthAbbrev(m.Month()),
			Income:   t.Income,
			Expenses: t.Expenses,
			Balance:  t.Balance(),
		})
	}

	futureByMonth := make(map[time.Time]domain.Money)
	for _, tx := range future {
		futureByMonth[billing.MonthStart(tx.Date)] += tx.Amount
	}
	for offset := 1; offset <= futureMonths; offset++ {
		m, _ := billing.MonthWindow(now, offset)
		if amount := futureByMonth[m]; amount > 0 {
			d.FutureInstallments = append(d.FutureInstallments, domain.FutureInstallment{
				Month:  fmt.Sprintf("%s/%d", domain.MonthAbbrev(m.Month()), m.Year()),
				Amount: amount,
			})
		}
	}

	for _, tx := range current {
		if tx.IsInstallment && tx.Type == domain.TransactionExpense {
			d.CurrentMonthInstallments += tx.Amount
		}
	}
	return d
}

// projectedBalance extrapolates the daily expense rate to the whole month.
func projectedBalance(t domain.MonthTotals, now time.Time) domain.Money {
	day := now.Day()
	if day < 1 {
		day = 1
	}
	days := billing.DaysInMonth(now.Year(), now.Month())
	projected := t.Expenses.Decimal().Mul(decimal.NewFromInt(int64(days))).Div(decimal.NewFromInt(int64(day)))
	return t.Income - domain.MoneyFromDecimal(projected)
}

func categoryBreakdown(txs []domain.Transaction) []domain.CategoryBreakdown {
	index := make(map[string]int)
	out := []domain.CategoryBreakdown{}
	for i := range txs {
		if txs[i].Type != domain.TransactionExpense {
			continue
		}
		name := txs[i].CategoryName()
		pos, ok := index[name]
		if !ok {
			entry := domain.CategoryBreakdown{Name: name, Color: domain.DefaultCategoryColor, Icon: domain.DefaultCategoryIcon}
			if c := txs[i].Category; c != nil {
				if c.Color != "" {
					entry.Color = c.Color
				}
				if c.Icon != "" {
					entry.Icon = c.Icon
				}
			}
			pos = len(out)
			index[name] = pos
			out = append(out, entry)
		}
		out[pos].Total += txs[i].Amount
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Total > out[b].Total })
	return out
}

// ============================================================
// CFO insights
// ============================================================

// Insights fetches the current and previous month's confirmed transactions
// and the current budgets concurrently, then runs the insight rules.
func (s *FinanceService) Insights(ctx context.Context, session domain.Session) ([]domain.Insight, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.Insights")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", session.FamilyID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("insights", time.Since(start))
	}()

	now := s.now().UTC()
	curFrom, curTo := billing.MonthWindow(now, 0)
	prevFrom, prevTo := billing.MonthWindow(now, -1)

	snap := insight.Snapshot{Now: now}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := s.store.ListTransactions(gCtx, session.FamilyID, domain.TransactionFilter{
			Status: domain.StatusConfirmed, From: curFrom, To: curTo,
		})
		if err != nil {
			return fmt.Errorf("current month fetch: %w", err)
		}
		snap.Current = txs
		return nil
	})

	g.Go(func() error {
		txs, err := s.store.ListTransactions(gCtx, session.FamilyID, domain.TransactionFilter{
			Status: domain.StatusConfirmed, From: prevFrom, To: prevTo,
		})
		if err != nil {
			return fmt.Errorf("previous month fetch: %w", err)
		}
		snap.Previous = txs
		return nil
	})

	g.Go(func() error {
		budgets, err := s.store.ListBudgets(gCtx, session.FamilyID, domain.FormatMonth(curFrom))
		if err != nil {
			return fmt.Errorf("budgets fetch: %w", err)
		}
		snap.Budgets = budgets
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("insights fetch failed", zap.String("family_id", session.FamilyID), zap.Error(err))
		return nil, err
	}

	insights := insight.Generate(snap)
	for _, in := range insights {
		s.metrics.IncrInsight(string(in.Type))
	}
	return insights, nil
}
