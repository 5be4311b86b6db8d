package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	chatdomain "github.com/boddenberg/family-finance-go/internal/chat/domain"
	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/infra/resilience"
	"github.com/boddenberg/family-finance-go/internal/infra/sqlite"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "data", "finance.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	guard := resilience.NewGuard(resilience.NewCircuitBreaker("sqlite-test"), resilience.Config{
		MaxRetries:     0,
		InitialBackoff: time.Millisecond,
	})
	return sqlite.New(db, guard, resilience.NewBulkhead(1), observability.NewMetrics(), zap.NewNop())
}

// seedFamily creates a family with an admin and the default categories.
func seedFamily(t *testing.T, s *sqlite.Store, email string) (*domain.Family, *domain.User, []domain.Category) {
	t.Helper()
	family := &domain.Family{Name: "Silva"}
	admin := &domain.User{Name: "Ana", Email: email, Role: domain.RoleAdmin, PasswordHash: "hash"}
	cats := domain.DefaultCategories()
	if err := s.CreateFamily(context.Background(), family, admin, cats); err != nil {
		t.Fatalf("create family: %v", err)
	}
	return family, admin, cats
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStore_FamilyAndUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	family, admin, _ := seedFamily(t, s, "ana@example.com")

	got, err := s.GetFamily(ctx, family.ID)
	if err != nil {
		t.Fatalf("get family: %v", err)
	}
	if got.Name != "Silva" || len(got.Users) != 1 || got.Users[0].ID != admin.ID {
		t.Errorf("unexpected family: %+v", got)
	}

	byEmail, err := s.GetUserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.PasswordHash != "hash" || byEmail.Role != domain.RoleAdmin {
		t.Errorf("unexpected user: %+v", byEmail)
	}

	dup := &domain.User{FamilyID: family.ID, Name: "Outra", Email: "ana@example.com", Role: domain.RoleMember, PasswordHash: "x"}
	err = s.CreateUser(ctx, dup)
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestStore_CreateFamily_RollsBackOnDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedFamily(t, s, "ana@example.com")

	family := &domain.Family{Name: "Souza"}
	admin := &domain.User{Name: "Bia", Email: "ana@example.com", Role: domain.RoleAdmin, PasswordHash: "x"}
	if err := s.CreateFamily(ctx, family, admin, domain.DefaultCategories()); err == nil {
		t.Fatal("expected duplicate email error")
	}

	if _, err := s.GetFamily(ctx, family.ID); err == nil {
		t.Error("family row must be rolled back")
	}
}

func TestStore_Categories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	family, _, _ := seedFamily(t, s, "ana@example.com")

	cats, err := s.ListCategories(ctx, family.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 9 {
		t.Fatalf("expected 9 default categories, got %d", len(cats))
	}
	if cats[0].Name != "Alimentação" {
		t.Errorf("expected name order, first = %q", cats[0].Name)
	}
	if len(cats[0].Rules) == 0 {
		t.Error("expected rules to round-trip")
	}

	err = s.CreateCategory(ctx, &domain.Category{FamilyID: family.ID, Name: "Lazer", Type: domain.TransactionExpense, Icon: "🎮", Color: "#000"})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Same name, other type is allowed.
	if err := s.CreateCategory(ctx, &domain.Category{FamilyID: family.ID, Name: "Lazer", Type: domain.TransactionIncome, Icon: "🎮", Color: "#000"}); err != nil {
		t.Errorf("same name with other type should be allowed: %v", err)
	}
}

func TestStore_DeleteCategory_KeepsTransactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	family, admin, cats := seedFamily(t, s, "ana@example.com")
	catID := cats[0].ID

	tx := domain.Transaction{
		FamilyID: family.ID, UserID: admin.ID, Amount: 1500, Description: "Mercado",
		Date: date(2026, 10, 3), Type: domain.TransactionExpense, CategoryID: &catID,
	}
	if err := s.CreateTransactions(ctx, []domain.Transaction{tx}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateBudget(ctx, &domain.Budget{FamilyID: family.ID, CategoryID: catID, Month: "2026-10", Limit: 50000}); err != nil {
		t.Fatalf("budget: %v", err)
	}

	if err := s.DeleteCategory(ctx, family.ID, catID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	list, err := s.ListTransactions(ctx, family.ID, domain.TransactionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].CategoryID != nil || list[0].Category != nil {
		t.Errorf("expected transaction to survive uncategorised, got %+v", list)
	}
	budgets, _ := s.ListBudgets(ctx, family.ID, "2026-10")
	if len(budgets) != 0 {
		t.Errorf("expected budgets of the category to be removed, got %d", len(budgets))
	}
}

func TestStore_InstallmentGroup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	family, admin, _ := seedFamily(t, s, "ana@example.com")

	group := "group-1"
	var batch []domain.Transaction
	for i := 1; i <= 3; i++ {
		batch = append(batch, domain.Transaction{
			FamilyID: family.ID, UserID: admin.ID, Amount: 3333, Description: "TV",
			Date: date(2026, time.Month(9+i), 10), Type: domain.TransactionExpense,
			IsInstallment: true, InstallmentGroupID: &group, InstallmentNumber: i, TotalInstallments: 3,
		})
	}
	batch[2].Amount = 3334
	if err := s.CreateTransactions(ctx, batch); err != nil {
		t.Fatalf("create batch: %v", err)
	}

	list, err := s.ListTransactions(ctx, family.ID, domain.TransactionFilter{InstallmentGroupID: group})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].InstallmentNumber != 1 || list[2].InstallmentNumber != 3 {
		t.Fatalf("expected ascending installment order, got %+v", list)
	}
	if list[0].UserName != "Ana" {
		t.Errorf("expected joined user name, got %q", list[0].UserName)
	}

	desc := "TV 50\""
	n, err := s.PatchInstallmentGroup(ctx, family.ID, group, domain.InstallmentPatch{Description: &desc})
	if err != nil || n != 3 {
		t.Fatalf("patch: n=%d err=%v", n, err)
	}

	n, err = s.CancelInstallmentGroup(ctx, family.ID, group, 2)
	if err != nil || n != 2 {
		t.Fatalf("cancel: n=%d err=%v", n, err)
	}

	list, _ = s.ListTransactions(ctx, family.ID, domain.TransactionFilter{InstallmentGroupID: group})
	if list[0].Status != domain.StatusConfirmed || list[1].Status != domain.StatusCancelled || list[2].Status != domain.StatusCancelled {
		t.Errorf("unexpected statuses: %s %s %s", list[0].Status, list[1].Status, list[2].Status)
	}
	if want := desc + " (2/3)"; list[1].Description != want {
		t.Errorf("expected %q, got %q", want, list[1].Description)
	}
}

func TestStore_CreateTransactions_IsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	family, admin, _ := seedFamily(t, s, "ana@example.com")

	batch := []domain.Transaction{
		{ID: "same", FamilyID: family.ID, UserID: admin.ID, Amount: 100, Description: "a", Date: date(2026, 10, 1), Type: domain.TransactionExpense},
		{ID: "same", FamilyID: family.ID, UserID: admin.ID, Amount: 100, Description: "b", Date: date(2026, 11, 1), Type: domain.TransactionExpense},
	}
	if err := s.CreateTransactions(ctx, batch); err == nil {
		t.Fatal("expected duplicate id to fail the batch")
	}

	n, err := s.CountTransactions(ctx, family.ID, domain.TransactionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected no rows after failed batch, got %d", n)
	}
}

func TestStore_TransactionFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	family, admin, _ := seedFamily(t, s, "ana@example.com")
	other, _, _ := seedFamily(t, s, "bia@example.com")

	card := &domain.Account{FamilyID: family.ID, Name: "Nubank", Type: domain.AccountCreditCard, Color: "#8b5cf6", Icon: "💳"}
	if err := s.CreateAccount(ctx, card); err != nil {
		t.Fatal(err)
	}
	october := date(2026, 10, 1)

	txs := []domain.Transaction{
		{FamilyID: family.ID, UserID: admin.ID, Amount: 5000, Description: "Salário", Date: date(2026, 10, 5), Type: domain.TransactionIncome},
		{FamilyID: family.ID, UserID: admin.ID, Amount: 2000, Description: "Cinema", Date: date(2026, 10, 6), Type: domain.TransactionExpense,
			AccountID: &card.ID, BillingMonth: &october, Status: domain.StatusPending},
		{FamilyID: family.ID, UserID: admin.ID, Amount: 900, Description: "Café", Date: date(2026, 9, 30), Type: domain.TransactionExpense},
	}
	if err := s.CreateTransactions(ctx, txs); err != nil {
		t.Fatal(err)
	}

	start, end := date(2026, 10, 1), date(2026, 11, 1)
	inOctober, err := s.ListTransactions(ctx, family.ID, domain.TransactionFilter{From: start, To: end})
	if err != nil {
		t.Fatal(err)
	}
	if len(inOctober) != 2 || inOctober[0].Description != "Cinema" {
		t.Errorf("expected date desc within window, got %+v", inOctober)
	}

	bill, _ := s.ListTransactions(ctx, family.ID, domain.TransactionFilter{AccountID: card.ID, BillingMonth: &october})
	if len(bill) != 1 || bill[0].BillingMonth == nil || !bill[0].BillingMonth.Equal(october) {
		t.Errorf("expected one bill item, got %+v", bill)
	}

	n, err := s.ConfirmTransactions(ctx, family.ID, []string{bill[0].ID})
	if err != nil || n != 1 {
		t.Errorf("confirm: n=%d err=%v", n, err)
	}

	pending, _ := s.CountTransactions(ctx, family.ID, domain.TransactionFilter{Status: domain.StatusPending})
	if pending != 0 {
		t.Errorf("expected no pending after confirm, got %d", pending)
	}

	_, err = s.GetTransaction(ctx, other.ID, bill[0].ID)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("other family must not see the row, got %v", err)
	}

	limited, _ := s.ListTransactions(ctx, family.ID, domain.TransactionFilter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestStore_Budgets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	family, _, cats := seedFamily(t, s, "ana@example.com")

	b := &domain.Budget{FamilyID: family.ID, CategoryID: cats[0].ID, Month: "2026-10", Limit: 80000}
	if err := s.CreateBudget(ctx, b); err != nil {
		t.Fatal(err)
	}
	err := s.CreateBudget(ctx, &domain.Budget{FamilyID: family.ID, CategoryID: cats[0].ID, Month: "2026-10", Limit: 100})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("expected conflict, got %v", err)
	}

	list, err := s.ListBudgets(ctx, family.ID, "2026-10")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if list[0].CategoryName() != cats[0].Name || list[0].Limit != 80000 {
		t.Errorf("unexpected budget %+v", list[0])
	}

	families, _ := s.ListBudgetFamilies(ctx, "2026-10")
	if len(families) != 1 || families[0] != family.ID {
		t.Errorf("unexpected families %v", families)
	}
}

func TestStore_Gamification(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	family, admin, _ := seedFamily(t, s, "ana@example.com")

	member := &domain.User{FamilyID: family.ID, Name: "Beto", Email: "beto@example.com", Role: domain.RoleMember, PasswordHash: "x"}
	if err := s.CreateUser(ctx, member); err != nil {
		t.Fatal(err)
	}

	if err := s.AddPoints(ctx, member.ID, 25); err != nil {
		t.Fatal(err)
	}
	if err := s.AddPoints(ctx, admin.ID, 10); err != nil {
		t.Fatal(err)
	}
	if err := s.SetStreak(ctx, admin.ID, 3, "2026-10-14"); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateAchievement(ctx, &domain.Achievement{UserID: member.ID, Type: domain.MedalRecorder}); err != nil {
		t.Fatal(err)
	}
	err := s.CreateAchievement(ctx, &domain.Achievement{UserID: member.ID, Type: domain.MedalRecorder})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("expected conflict on second medal, got %v", err)
	}

	ranking, err := s.Ranking(ctx, family.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranking) != 2 || ranking[0].ID != member.ID || ranking[0].Points != 25 {
		t.Fatalf("unexpected ranking %+v", ranking)
	}
	if len(ranking[0].Achievements) != 1 || ranking[0].Achievements[0].Name != "Registrador" {
		t.Errorf("expected medal with definition, got %+v", ranking[0].Achievements)
	}

	u, _ := s.GetUser(ctx, admin.ID)
	if u.Streak != 3 || u.LastLoginDate != "2026-10-14" {
		t.Errorf("unexpected streak state %+v", u)
	}
}

func TestStore_ChatHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, admin, _ := seedFamily(t, s, "ana@example.com")

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 55; i++ {
		m := &chatdomain.Message{
			UserID:    admin.ID,
			Content:   "oi",
			Response:  "olá",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveChatMessage(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := s.ListChatMessages(ctx, admin.ID, chatdomain.HistoryLimit)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 50 {
		t.Fatalf("expected 50 messages, got %d", len(msgs))
	}
	if !msgs[0].CreatedAt.Equal(base.Add(5*time.Second)) || !msgs[0].CreatedAt.Before(msgs[49].CreatedAt) {
		t.Errorf("expected newest 50 in ascending order, first=%s last=%s", msgs[0].CreatedAt, msgs[49].CreatedAt)
	}
}
