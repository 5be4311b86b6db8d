package domain

import "time"

// ============================================================
// Accounts
// ============================================================

type AccountType string

const (
	AccountCash       AccountType = "CASH"
	AccountBank       AccountType = "BANK"
	AccountCreditCard AccountType = "CREDIT_CARD"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountCash, AccountBank, AccountCreditCard:
		return true
	}
	return false
}

// DefaultIcon returns the icon used when none is given.
func (t AccountType) DefaultIcon() string {
	switch t {
	case AccountCreditCard:
		return "💳"
	case AccountBank:
		return "🏦"
	}
	return "💵"
}

// Account is a cash wallet, bank account or credit card of a family.
type Account struct {
	ID         string      `json:"id"`
	FamilyID   string      `json:"familyId"`
	Name       string      `json:"name"`
	Type       AccountType `json:"type"`
	Balance    Money       `json:"balance"`
	Limit      *Money      `json:"limit"`
	ClosingDay *int        `json:"closingDay"`
	DueDay     *int        `json:"dueDay"`
	Color      string      `json:"color"`
	Icon       string      `json:"icon"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// IsCreditCard reports whether the account has a billing cycle.
func (a *Account) IsCreditCard() bool {
	return a != nil && a.Type == AccountCreditCard && a.ClosingDay != nil
}

// AccountView decorates credit cards with their current utilization.
type AccountView struct {
	Account
	UsedLimit          *Money   `json:"usedLimit,omitempty"`
	AvailableLimit     *Money   `json:"availableLimit,omitempty"`
	UtilizationPercent *float64 `json:"utilizationPercent,omitempty"`
}

// AccountRequest is the body of POST and PUT /api/accounts.
type AccountRequest struct {
	ID         string      `json:"id,omitempty"`
	Name       string      `json:"name"`
	Type       AccountType `json:"type"`
	Balance    *Money      `json:"balance"`
	Limit      *Money      `json:"limit"`
	ClosingDay *int        `json:"closingDay"`
	DueDay     *int        `json:"dueDay"`
	Color      string      `json:"color"`
	Icon       string      `json:"icon"`
}

// ============================================================
// Credit card bill
// ============================================================

// Bill is the statement of one credit card for one billing month.
type Bill struct {
	Account           BillAccount   `json:"account"`
	BillingMonth      string        `json:"billingMonth"`
	BillingMonthLabel string        `json:"billingMonthLabel"`
	DueDate           string        `json:"dueDate"`
	IsOverdue         bool          `json:"isOverdue"`
	TotalBill         Money         `json:"totalBill"`
	TotalPaid         Money         `json:"totalPaid"`
	TotalPending      Money         `json:"totalPending"`
	TransactionCount  int           `json:"transactionCount"`
	Transactions      []Transaction `json:"transactions"`
}

type BillAccount struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Limit      *Money `json:"limit"`
	ClosingDay *int   `json:"closingDay"`
	DueDay     *int   `json:"dueDay"`
	Color      string `json:"color"`
	Icon       string `json:"icon"`
}

// PayBillRequest is the body of POST /api/accounts/{id}/bill.
type PayBillRequest struct {
	Month     string  `json:"month"`
	AccountID *string `json:"accountId"`
}

type PayBillResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	PaidAmount       Money  `json:"paidAmount"`
	TransactionsPaid int    `json:"transactionsPaid"`
}
