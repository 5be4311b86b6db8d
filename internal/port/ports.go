// Package port defines the interfaces (ports) that the service layer depends on.
// Concrete implementations live in the infra layer (adapters).
package port

import (
	"context"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	DeletePrefix(prefix string)
}

// TransactionStore persists transactions. Every call is family-scoped;
// lookups of another family's rows return *domain.ErrNotFound.
type TransactionStore interface {
	// CreateTransactions inserts all rows atomically: either every row is
	// written or none is.
	CreateTransactions(ctx context.Context, txs []domain.Transaction) error
	GetTransaction(ctx context.Context, familyID, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, familyID string, f domain.TransactionFilter) ([]domain.Transaction, error)
	CountTransactions(ctx context.Context, familyID string, f domain.TransactionFilter) (int, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	PatchInstallmentGroup(ctx context.Context, familyID, groupID string, patch domain.InstallmentPatch) (int64, error)
	CancelInstallmentGroup(ctx context.Context, familyID, groupID string, fromNumber int) (int64, error)
	ConfirmTransactions(ctx context.Context, familyID string, ids []string) (int64, error)
	DeleteTransaction(ctx context.Context, familyID, id string) error
}

// AccountStore persists cash, bank and credit card accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *domain.Account) error
	GetAccount(ctx context.Context, familyID, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, familyID string) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, a *domain.Account) error
	// DeleteAccount detaches the account from its transactions.
	DeleteAccount(ctx context.Context, familyID, id string) error
}

// CategoryStore persists categories, unique per (family, name, type).
type CategoryStore interface {
	// CreateCategory returns *domain.ErrConflict on a duplicate name/type.
	CreateCategory(ctx context.Context, c *domain.Category) error
	GetCategory(ctx context.Context, familyID, id string) (*domain.Category, error)
	ListCategories(ctx context.Context, familyID string) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, c *domain.Category) error
	// DeleteCategory nulls the category on its transactions and drops its budgets.
	DeleteCategory(ctx context.Context, familyID, id string) error
}

// BudgetStore persists monthly budgets, unique per (family, category, month).
type BudgetStore interface {
	CreateBudget(ctx context.Context, b *domain.Budget) error
	GetBudget(ctx context.Context, familyID, id string) (*domain.Budget, error)
	ListBudgets(ctx context.Context, familyID, month string) ([]domain.Budget, error)
	UpdateBudget(ctx context.Context, b *domain.Budget) error
	DeleteBudget(ctx context.Context, familyID, id string) error
	// ListBudgetFamilies returns the families that have budgets in month.
	ListBudgetFamilies(ctx context.Context, month string) ([]string, error)
}

// FinanceStore is the composite store used by FinanceService.
type FinanceStore interface {
	TransactionStore
	AccountStore
	CategoryStore
	BudgetStore
	Ping(ctx context.Context) error
}

// UserStore persists families and their members.
type UserStore interface {
	// CreateFamily writes the family, its first admin and its starter
	// categories in one transaction.
	CreateFamily(ctx context.Context, family *domain.Family, admin *domain.User, categories []domain.Category) error
	GetFamily(ctx context.Context, id string) (*domain.Family, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, familyID string) ([]domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, familyID, id string) error
}

// GamificationStore persists points, streaks and medals.
type GamificationStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	AddPoints(ctx context.Context, userID string, points int) error
	SetStreak(ctx context.Context, userID string, streak int, lastLoginDate string) error
	CountUserTransactions(ctx context.Context, userID string) (int, error)
	ListAchievements(ctx context.Context, userID string) ([]domain.Achievement, error)
	// CreateAchievement returns *domain.ErrConflict when already earned.
	CreateAchievement(ctx context.Context, a *domain.Achievement) error
	Ranking(ctx context.Context, familyID string) ([]domain.RankingEntry, error)
}
