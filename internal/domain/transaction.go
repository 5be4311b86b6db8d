package domain

import (
	"strings"
	"time"
)

// ============================================================
// Transactions
// ============================================================

type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusConfirmed TransactionStatus = "CONFIRMED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a status change is allowed.
// PENDING → CONFIRMED, any → CANCELLED; CANCELLED is terminal.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s == next {
		return true
	}
	switch {
	case s == StatusCancelled:
		return false
	case next == StatusCancelled:
		return true
	case s == StatusPending && next == StatusConfirmed:
		return true
	}
	return false
}

type TransactionSource string

const (
	SourceManual TransactionSource = "MANUAL"
	SourceEmail  TransactionSource = "EMAIL"
)

// Transaction is a family income or expense record.
type Transaction struct {
	ID                 string            `json:"id"`
	FamilyID           string            `json:"familyId"`
	UserID             string            `json:"userId"`
	UserName           string            `json:"userName,omitempty"`
	Amount             Money             `json:"amount"`
	Description        string            `json:"description"`
	Date               time.Time         `json:"date"`
	Type               TransactionType   `json:"type"`
	Status             TransactionStatus `json:"status"`
	Source             TransactionSource `json:"source"`
	CategoryID         *string           `json:"categoryId"`
	Category           *Category         `json:"category,omitempty"`
	AccountID          *string           `json:"accountId"`
	BillingMonth       *time.Time        `json:"billingMonth"`
	Recurring          bool              `json:"recurring"`
	RecurringInterval  *string           `json:"recurringInterval"`
	IsInstallment      bool              `json:"isInstallment"`
	InstallmentGroupID *string           `json:"installmentGroupId"`
	InstallmentNumber  int               `json:"installmentNumber,omitempty"`
	TotalInstallments  int               `json:"totalInstallments,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
}

// CategoryName returns the category name or the uncategorised label.
func (t *Transaction) CategoryName() string {
	if t.Category != nil && t.Category.Name != "" {
		return t.Category.Name
	}
	return UncategorizedName
}

// UncategorizedName labels expenses without a category.
const UncategorizedName = "Sem Categoria"

// TransactionFilter narrows transaction listings. Zero values are ignored.
type TransactionFilter struct {
	Type               TransactionType
	Status             TransactionStatus
	CategoryID         string
	AccountID          string
	UserID             string
	InstallmentGroupID string
	InstallmentsOnly   bool
	// From is inclusive, To is exclusive.
	From time.Time
	To   time.Time
	// BillingMonth matches the first-of-month billing cycle.
	BillingMonth *time.Time
	Limit        int
}

// CreateTransactionRequest is the body of POST /api/transactions.
type CreateTransactionRequest struct {
	Amount               Money             `json:"amount"`
	Description          string            `json:"description"`
	Date                 string            `json:"date"`
	Type                 TransactionType   `json:"type"`
	CategoryID           *string           `json:"categoryId"`
	AccountID            *string           `json:"accountId"`
	Status               TransactionStatus `json:"status"`
	Recurring            bool              `json:"recurring"`
	RecurringInterval    *string           `json:"recurringInterval"`
	IsInstallment        bool              `json:"isInstallment"`
	TotalInstallments    int               `json:"totalInstallments"`
	FirstInstallmentDate string            `json:"firstInstallmentDate"`
	Source               TransactionSource `json:"-"`
}

// CreateTransactionResult wraps either a single record or an installment batch.
type CreateTransactionResult struct {
	Transaction        *Transaction  `json:"-"`
	Message            string        `json:"message,omitempty"`
	Transactions       []Transaction `json:"transactions,omitempty"`
	InstallmentGroupID string        `json:"installmentGroupId,omitempty"`
}

// UpdateTransactionRequest is the body of PUT /api/transactions.
// Nil fields are left untouched.
type UpdateTransactionRequest struct {
	ID          string             `json:"id"`
	Amount      *Money             `json:"amount"`
	Description *string            `json:"description"`
	Date        *string            `json:"date"`
	Type        *TransactionType   `json:"type"`
	CategoryID  *string            `json:"categoryId"`
	Status      *TransactionStatus `json:"status"`
	Recurring   *bool              `json:"recurring"`
	// ClearCategory is set when the body carries "categoryId": null or "".
	ClearCategory bool `json:"-"`
}

// InstallmentPatch holds the fields propagated to every installment of a group.
type InstallmentPatch struct {
	Amount        *Money
	Description   *string
	CategoryID    *string
	ClearCategory bool
}

func (p InstallmentPatch) Empty() bool {
	return p.Amount == nil && p.Description == nil && p.CategoryID == nil && !p.ClearCategory
}

// ============================================================
// Dates
// ============================================================

const DateLayout = "2006-01-02"

// ParseDate accepts "2006-01-02" or RFC3339 and returns the UTC calendar date.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ErrValidation{Field: field, Message: "data obrigatória"}
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, &ErrValidation{Field: field, Message: "data inválida, use AAAA-MM-DD"}
}

// ParseMonth parses a "YYYY-MM" string into the first day of that month.
func ParseMonth(field, s string) (time.Time, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ErrValidation{Field: field, Message: "mês inválido, use AAAA-MM"}
	}
	return t, nil
}

// FormatMonth renders t as "YYYY-MM".
func FormatMonth(t time.Time) string {
	return t.Format("2006-01")
}
