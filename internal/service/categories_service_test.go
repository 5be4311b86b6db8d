package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

func TestListCategories_StarterSetAndCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cats, err := f.finance.ListCategories(ctx, f.admin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != len(domain.DefaultCategories()) {
		t.Errorf("expected %d starter categories, got %d", len(domain.DefaultCategories()), len(cats))
	}
	if _, err := f.finance.ListCategories(ctx, f.admin); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if v := f.metrics.CounterValue("cache_hits", "categories"); v < 1 {
		t.Errorf("expected a cache hit, got %v", v)
	}

	if _, err := f.finance.CreateCategory(ctx, f.admin, &domain.CategoryRequest{Name: "Pets"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	after, err := f.finance.ListCategories(ctx, f.admin)
	if err != nil {
		t.Fatalf("list after create: %v", err)
	}
	if len(after) != len(cats)+1 {
		t.Errorf("expected the cache to be invalidated on create, got %d categories", len(after))
	}
}

func TestCreateCategory_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.finance.CreateCategory(ctx, f.admin, &domain.CategoryRequest{Name: "  Pets  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Name != "Pets" || c.Type != domain.TransactionExpense || c.Icon != domain.DefaultCategoryIcon {
		t.Errorf("unexpected defaults %+v", c)
	}

	_, err = f.finance.CreateCategory(ctx, f.admin, &domain.CategoryRequest{Name: "Pets"})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("expected conflict on duplicate name and type, got %v", err)
	}

	if _, err := f.finance.CreateCategory(ctx, f.admin, &domain.CategoryRequest{Name: "Pets", Type: domain.TransactionIncome}); err != nil {
		t.Errorf("same name with another type must be allowed, got %v", err)
	}

	member := f.admin
	member.Role = domain.RoleMember
	_, err = f.finance.CreateCategory(ctx, member, &domain.CategoryRequest{Name: "Viagem"})
	var forbidden *domain.ErrForbidden
	if !errors.As(err, &forbidden) {
		t.Errorf("expected members to be forbidden, got %v", err)
	}
}

func TestDeleteCategory_KeepsTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	food := f.category(t, "Alimentação")

	tx := f.expense(t, domain.CreateTransactionRequest{Amount: domain.Cents(1000), Date: "2026-10-10", CategoryID: &food}).Transaction

	if _, err := f.finance.DeleteCategory(ctx, f.admin, food); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := f.store.GetTransaction(ctx, f.admin.FamilyID, tx.ID)
	if err != nil {
		t.Fatalf("transaction should survive: %v", err)
	}
	if got.CategoryID != nil {
		t.Errorf("expected category cleared, got %v", *got.CategoryID)
	}
}

func TestResolveCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		typ   domain.TransactionType
		want  string
	}{
		{"exact ignoring case", "alimentação", domain.TransactionExpense, "Alimentação"},
		{"partial", "transp", domain.TransactionExpense, "Transporte"},
		{"type scoped", "salário", domain.TransactionIncome, "Salário"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := f.finance.ResolveCategory(ctx, f.admin.FamilyID, tt.query, tt.typ)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if c.Name != tt.want {
				t.Errorf("expected %s, got %s", tt.want, c.Name)
			}
		})
	}

	_, err := f.finance.ResolveCategory(ctx, f.admin.FamilyID, "salário", domain.TransactionExpense)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("expected not found across types, got %v", err)
	}
}

func TestListBudgets_Spending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	food := f.category(t, "Alimentação")

	if _, err := f.finance.CreateBudget(ctx, f.admin, &domain.BudgetRequest{CategoryID: food, Month: "2026-10", Limit: domain.Cents(50000)}); err != nil {
		t.Fatalf("create budget: %v", err)
	}
	f.expense(t, domain.CreateTransactionRequest{Amount: domain.Cents(12000), Date: "2026-10-02", CategoryID: &food})
	f.expense(t, domain.CreateTransactionRequest{Amount: domain.Cents(9900), Date: "2026-10-03", CategoryID: &food, Status: domain.StatusPending})
	f.expense(t, domain.CreateTransactionRequest{Amount: domain.Cents(3000), Date: "2026-09-30", CategoryID: &food})

	statuses, err := f.finance.ListBudgets(ctx, f.admin, "")
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("expected 1 budget, got %d", len(statuses))
	}
	st := statuses[0]
	if st.Spent != 12000 || st.Remaining != 38000 || st.Percentage != 24 {
		t.Errorf("unexpected status spent=%s remaining=%s pct=%v", st.Spent, st.Remaining, st.Percentage)
	}
}

func TestCreateBudget_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	food := f.category(t, "Alimentação")

	tests := []struct {
		name string
		req  domain.BudgetRequest
	}{
		{"missing category", domain.BudgetRequest{Month: "2026-10", Limit: 100}},
		{"bad month", domain.BudgetRequest{CategoryID: food, Month: "10/2026", Limit: 100}},
		{"zero limit", domain.BudgetRequest{CategoryID: food, Month: "2026-10"}},
		{"unknown category", domain.BudgetRequest{CategoryID: "nope", Month: "2026-10", Limit: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.finance.CreateBudget(ctx, f.admin, &req)
			var ve *domain.ErrValidation
			if !errors.As(err, &ve) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRolloverIntoCurrentMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	food := f.category(t, "Alimentação")
	home := f.category(t, "Moradia")

	for _, req := range []domain.BudgetRequest{
		{CategoryID: food, Month: "2026-09", Limit: domain.Cents(50000)},
		{CategoryID: home, Month: "2026-09", Limit: domain.Cents(150000)},
		{CategoryID: home, Month: "2026-10", Limit: domain.Cents(180000)},
	} {
		req := req
		if _, err := f.finance.CreateBudget(ctx, f.admin, &req); err != nil {
			t.Fatalf("create budget: %v", err)
		}
	}

	result, err := f.finance.RolloverIntoCurrentMonth(ctx)
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if result.From != "2026-09" || result.To != "2026-10" || result.Families != 1 || result.Copied != 1 {
		t.Errorf("unexpected result %+v", result)
	}

	statuses, err := f.finance.ListBudgets(ctx, f.admin, "2026-10")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	limits := make(map[string]domain.Money)
	for _, st := range statuses {
		limits[st.CategoryID] = st.Limit
	}
	if limits[food] != 50000 || limits[home] != 180000 {
		t.Errorf("expected copied food budget and untouched home budget, got %v", limits)
	}

	again, err := f.finance.RolloverIntoCurrentMonth(ctx)
	if err != nil {
		t.Fatalf("second rollover: %v", err)
	}
	if again.Copied != 0 {
		t.Errorf("rollover must be idempotent, copied %d", again.Copied)
	}
}

func TestRolloverBudgets_SameMonth(t *testing.T) {
	f := newFixture(t)
	_, err := f.finance.RolloverBudgets(context.Background(), "2026-10", "2026-10")
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Errorf("expected validation error, got %v", err)
	}
}
