package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/boddenberg/family-finance-go/internal/billing"
	"github.com/boddenberg/family-finance-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Budgets
// ============================================================

// ListBudgets returns the budgets of month ("" means the current month)
// with what was spent against each one.
func (s *FinanceService) ListBudgets(ctx context.Context, session domain.Session, month string) ([]domain.BudgetStatus, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListBudgets")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", session.FamilyID), attribute.String("budget.month", month))

	start, err := s.billMonth(month)
	if err != nil {
		return nil, err
	}
	budgets, err := s.store.ListBudgets(ctx, session.FamilyID, domain.FormatMonth(start))
	if err != nil {
		return nil, err
	}

	from, to := billing.MonthWindow(start, 0)
	txs, err := s.store.ListTransactions(ctx, session.FamilyID, domain.TransactionFilter{
		Type:   domain.TransactionExpense,
		Status: domain.StatusConfirmed,
		From:   from,
		To:     to,
	})
	if err != nil {
		return nil, err
	}
	return budgetStatuses(budgets, txs), nil
}

// budgetStatuses matches spending to budgets by category id.
func budgetStatuses(budgets []domain.Budget, txs []domain.Transaction) []domain.BudgetStatus {
	spent := make(map[string]domain.Money)
	for i := range txs {
		if txs[i].CategoryID != nil {
			spent[*txs[i].CategoryID] += txs[i].Amount
		}
	}

	out := make([]domain.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st := domain.BudgetStatus{Budget: b, Spent: spent[b.CategoryID]}
		st.Remaining = b.Limit - st.Spent
		if b.Limit > 0 {
			st.Percentage = st.Spent.Float64() / b.Limit.Float64() * 100
		}
		out = append(out, st)
	}
	return out
}

func (s *FinanceService) CreateBudget(ctx context.Context, session domain.Session, req *domain.BudgetRequest) (*domain.Budget, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateBudget")
	defer span.End()

	if strings.TrimSpace(req.CategoryID) == "" || req.Month == "" {
		return nil, &domain.ErrValidation{Field: "body", Message: "Campos obrigatórios: categoryId, month, limit"}
	}
	month, err := domain.ParseMonth("month", req.Month)
	if err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		return nil, &domain.ErrValidation{Field: "limit", Message: "O limite deve ser maior que zero"}
	}
	category, err := s.familyCategory(ctx, session.FamilyID, &req.CategoryID)
	if err != nil {
		return nil, err
	}

	b := &domain.Budget{
		FamilyID:   session.FamilyID,
		CategoryID: req.CategoryID,
		Category:   category,
		Month:      domain.FormatMonth(month),
		Limit:      req.Limit,
	}
	if err := s.store.CreateBudget(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("budget created",
		zap.String("family_id", session.FamilyID),
		zap.String("budget_id", b.ID),
		zap.String("month", b.Month),
		zap.String("limit", b.Limit.String()),
	)
	return b, nil
}

func (s *FinanceService) UpdateBudget(ctx context.Context, session domain.Session, req *domain.BudgetRequest) (*domain.Budget, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateBudget")
	defer span.End()
	span.SetAttributes(attribute.String("budget.id", req.ID))

	if req.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "ID obrigatório"}
	}
	b, err := s.store.GetBudget(ctx, session.FamilyID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Month != "" {
		month, err := domain.ParseMonth("month", req.Month)
		if err != nil {
			return nil, err
		}
		b.Month = domain.FormatMonth(month)
	}
	if req.CategoryID != "" && req.CategoryID != b.CategoryID {
		category, err := s.familyCategory(ctx, session.FamilyID, &req.CategoryID)
		if err != nil {
			return nil, err
		}
		b.CategoryID = req.CategoryID
		b.Category = category
	}
	if req.Limit != 0 {
		if req.Limit < 0 {
			return nil, &domain.ErrValidation{Field: "limit", Message: "O limite deve ser maior que zero"}
		}
		b.Limit = req.Limit
	}

	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *FinanceService) DeleteBudget(ctx context.Context, session domain.Session, id string) (*domain.MessageResponse, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteBudget")
	defer span.End()

	if id == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "ID obrigatório"}
	}
	if err := s.store.DeleteBudget(ctx, session.FamilyID, id); err != nil {
		return nil, err
	}
	return &domain.MessageResponse{Message: "Orçamento removido"}, nil
}

// RolloverResult reports one rollover run.
type RolloverResult struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Families int    `json:"families"`
	Copied   int    `json:"copied"`
}

// RolloverBudgets copies every budget of month from into month to, for
// every family, skipping categories already budgeted in to.
func (s *FinanceService) RolloverBudgets(ctx context.Context, from, to string) (*RolloverResult, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.RolloverBudgets")
	defer span.End()
	span.SetAttributes(attribute.String("rollover.from", from), attribute.String("rollover.to", to))

	if _, err := domain.ParseMonth("from", from); err != nil {
		return nil, err
	}
	if _, err := domain.ParseMonth("to", to); err != nil {
		return nil, err
	}
	if from == to {
		return nil, &domain.ErrValidation{Field: "to", Message: "os meses de origem e destino devem ser diferentes"}
	}

	families, err := s.store.ListBudgetFamilies(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("list budget families: %w", err)
	}
	sort.Strings(families)

	result := &RolloverResult{From: from, To: to, Families: len(families)}
	for _, familyID := range families {
		n, err := s.rolloverFamily(ctx, familyID, from, to)
		if err != nil {
			return result, fmt.Errorf("rollover family %s: %w", familyID, err)
		}
		result.Copied += n
	}

	s.logger.Info("budgets rolled over",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("families", result.Families),
		zap.Int("copied", result.Copied),
	)
	return result, nil
}

func (s *FinanceService) rolloverFamily(ctx context.Context, familyID, from, to string) (int, error) {
	source, err := s.store.ListBudgets(ctx, familyID, from)
	if err != nil {
		return 0, err
	}
	existing, err := s.store.ListBudgets(ctx, familyID, to)
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, b := range existing {
		have[b.CategoryID] = true
	}

	copied := 0
	for _, b := range source {
		if have[b.CategoryID] {
			continue
		}
		next := &domain.Budget{FamilyID: familyID, CategoryID: b.CategoryID, Month: to, Limit: b.Limit}
		err := s.store.CreateBudget(ctx, next)
		var conflict *domain.ErrConflict
		if errors.As(err, &conflict) {
			continue
		}
		if err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

// RolloverIntoCurrentMonth copies last month's budgets into the current
// month. Run by the monthly scheduler job.
func (s *FinanceService) RolloverIntoCurrentMonth(ctx context.Context) (*RolloverResult, error) {
	current := s.today()
	current = time.Date(current.Year(), current.Month(), 1, 0, 0, 0, 0, time.UTC)
	return s.RolloverBudgets(ctx, domain.FormatMonth(current.AddDate(0, -1, 0)), domain.FormatMonth(current))
}
