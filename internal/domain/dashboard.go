package domain

// Dashboard is the current-month overview of a family.
type Dashboard struct {
	Income                   Money               `json:"income"`
	Expenses                 Money               `json:"expenses"`
	Balance                  Money               `json:"balance"`
	CategoryBreakdown        []CategoryBreakdown `json:"categoryBreakdown"`
	MonthlyTrend             []MonthlyTrend      `json:"monthlyTrend"`
	ProjectedBalance         Money               `json:"projectedBalance"`
	FutureInstallments       []FutureInstallment `json:"futureInstallments"`
	CurrentMonthInstallments Money               `json:"currentMonthInstallments"`
	PendingCount             int                 `json:"pendingCount"`
	TransactionCount         int                 `json:"transactionCount"`
}

type CategoryBreakdown struct {
	Name  string `json:"name"`
	Total Money  `json:"total"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type MonthlyTrend struct {
	Month    string `json:"month"`
	Income   Money  `json:"income"`
	Expenses Money  `json:"expenses"`
	Balance  Money  `json:"balance"`
}

type FutureInstallment struct {
	Month  string `json:"month"`
	Amount Money  `json:"amount"`
}

// MonthTotals sums confirmed income and expenses of a transaction set.
type MonthTotals struct {
	Income   Money
	Expenses Money
}

func (t MonthTotals) Balance() Money { return t.Income - t.Expenses }

// Totals sums confirmed transactions by type.
func Totals(txs []Transaction) MonthTotals {
	var t MonthTotals
	for i := range txs {
		if txs[i].Status != StatusConfirmed {
			continue
		}
		switch txs[i].Type {
		case TransactionIncome:
			t.Income += txs[i].Amount
		case TransactionExpense:
			t.Expenses += txs[i].Amount
		}
	}
	return t
}
