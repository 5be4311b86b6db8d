// Package insight turns two months of confirmed transactions and the
// current month's budgets into advisory insights.
//
// Generate is pure: callers fetch the data, the package only computes.
// Threshold comparisons run on integer cents so boundaries are exact
// (89.9% of a budget never reads as 90%).
package insight

import (
	"fmt"
	"math"
	"time"

	"github.com/boddenberg/family-finance-go/internal/billing"
	"github.com/boddenberg/family-finance-go/internal/domain"
)

// Snapshot is the input of Generate.
type Snapshot struct {
	Current  []domain.Transaction
	Previous []domain.Transaction
	Budgets  []domain.Budget
	Now      time.Time
}

// Generate evaluates every rule in declaration order and returns the
// matching insights. Multi-instance rules keep input encounter order.
func Generate(s Snapshot) []domain.Insight {
	cur := summarize(s.Current)
	prev := summarize(s.Previous)

	out := make([]domain.Insight, 0, 4)
	out = append(out, spendingTrend(cur, prev)...)
	out = append(out, balanceProjection(cur, s.Now))
	out = append(out, categorySpikes(s.Current, s.Previous)...)
	out = append(out, budgetAlerts(s.Current, s.Budgets)...)
	out = append(out, incomeGrowth(cur, prev)...)
	out = append(out, savingsRate(cur)...)
	return out
}

type totals struct {
	income   int64
	expenses int64
}

func summarize(txs []domain.Transaction) totals {
	t := domain.Totals(txs)
	return totals{income: t.Income.Cents(), expenses: t.Expenses.Cents()}
}

func isConfirmedExpense(tx *domain.Transaction) bool {
	return tx.Status == domain.StatusConfirmed && tx.Type == domain.TransactionExpense
}

// percentChange returns (cur-prev)/prev*100; prev must be > 0.
func percentChange(cur, prev int64) float64 {
	return float64(cur-prev) / float64(prev) * 100
}

func ptr(f float64) *float64 { return &f }

// ============================================================
// 1. Spending trend
// ============================================================

func spendingTrend(cur, prev totals) []domain.Insight {
	if prev.expenses <= 0 {
		return nil
	}
	change := percentChange(cur.expenses, prev.expenses)

	switch {
	case cur.expenses*100 > prev.expenses*115:
		return []domain.Insight{{
			ID:         "spending-increase",
			Type:       domain.InsightDanger,
			Icon:       "📈",
			Title:      "Gastos em Alta",
			Message:    fmt.Sprintf("Seus gastos aumentaram %.0f%% em relação ao mês passado. Atenção!", change),
			Percentage: ptr(change),
		}}
	case cur.expenses*100 < prev.expenses*90:
		return []domain.Insight{{
			ID:         "spending-decrease",
			Type:       domain.InsightSuccess,
			Icon:       "📉",
			Title:      "Economia Detectada!",
			Message:    fmt.Sprintf("Parabéns! Seus gastos diminuíram %.0f%% em relação ao mês passado.", math.Abs(change)),
			Percentage: ptr(change),
		}}
	}
	return nil
}

// ============================================================
// 2. Balance projection
// ============================================================

func balanceProjection(cur totals, now time.Time) domain.Insight {
	day := int64(now.Day())
	if day < 1 {
		day = 1
	}
	dim := int64(billing.DaysInMonth(now.Year(), now.Month()))

	projectedExpenses := float64(cur.expenses) / float64(day) * float64(dim)
	projected := math.Round(float64(cur.income)-projectedExpenses) / 100

	// income - expenses/day*dim < 0, without division.
	if cur.income*day < cur.expenses*dim {
		return domain.Insight{
			ID:      "negative-projection",
			Type:    domain.InsightWarning,
			Icon:    "⚠️",
			Title:   "Projeção Negativa",
			Message: fmt.Sprintf("Se o ritmo atual de gastos continuar, você terminará o mês com um déficit de R$ %.2f.", math.Abs(projected)),
			Value:   ptr(projected),
		}
	}
	return domain.Insight{
		ID:      "positive-projection",
		Type:    domain.InsightInfo,
		Icon:    "💰",
		Title:   "Projeção do Mês",
		Message: fmt.Sprintf("Projeção de sobra de R$ %.2f até o final do mês.", projected),
		Value:   ptr(projected),
	}
}

// ============================================================
// 3. Category spikes
// ============================================================

type categoryTotals struct {
	name     string
	current  int64
	previous int64
}

func categorySpikes(current, previous []domain.Transaction) []domain.Insight {
	index := make(map[string]int)
	var cats []categoryTotals

	add := func(txs []domain.Transaction, isCurrent bool) {
		for i := range txs {
			tx := &txs[i]
			if !isConfirmedExpense(tx) {
				continue
			}
			name := tx.CategoryName()
			pos, ok := index[name]
			if !ok {
				pos = len(cats)
				index[name] = pos
				cats = append(cats, categoryTotals{name: name})
			}
			if isCurrent {
				cats[pos].current += tx.Amount.Cents()
			} else {
				cats[pos].previous += tx.Amount.Cents()
			}
		}
	}
	add(current, true)
	add(previous, false)

	var out []domain.Insight
	for _, c := range cats {
		if c.previous <= 0 || c.current*100 <= c.previous*120 {
			continue
		}
		change := percentChange(c.current, c.previous)
		out = append(out, domain.Insight{
			ID:         "category-spike-" + c.name,
			Type:       domain.InsightWarning,
			Icon:       "🔥",
			Title:      c.name + " em Alta",
			Message:    fmt.Sprintf("Seus gastos com %s aumentaram %.0f%% este mês.", c.name, change),
			Percentage: ptr(change),
		})
	}
	return out
}

// ============================================================
// 4. Budget alerts
// ============================================================

func budgetAlerts(current []domain.Transaction, budgets []domain.Budget) []domain.Insight {
	spentBy := make(map[string]int64)
	for i := range current {
		tx := &current[i]
		if isConfirmedExpense(tx) && tx.CategoryID != nil {
			spentBy[*tx.CategoryID] += tx.Amount.Cents()
		}
	}

	var out []domain.Insight
	for i := range budgets {
		b := &budgets[i]
		limit := b.Limit.Cents()
		if limit <= 0 {
			continue
		}
		spent := spentBy[b.CategoryID]
		pct := float64(spent) / float64(limit) * 100
		name := b.CategoryName()

		switch {
		case spent*100 >= limit*90:
			out = append(out, domain.Insight{
				ID:    "budget-alert-" + b.CategoryID,
				Type:  domain.InsightDanger,
				Icon:  "🚨",
				Title: "Orçamento " + name,
				Message: fmt.Sprintf("Você já usou %.0f%% do orçamento de %s (R$ %s de R$ %s).",
					pct, name, domain.Money(spent), b.Limit),
				Percentage: ptr(pct),
			})
		case spent*100 >= limit*70:
			out = append(out, domain.Insight{
				ID:         "budget-warn-" + b.CategoryID,
				Type:       domain.InsightWarning,
				Icon:       "⚡",
				Title:      "Orçamento " + name,
				Message:    fmt.Sprintf("%.0f%% do orçamento de %s já foi utilizado.", pct, name),
				Percentage: ptr(pct),
			})
		}
	}
	return out
}

// ============================================================
// 5. Income growth
// ============================================================

func incomeGrowth(cur, prev totals) []domain.Insight {
	if prev.income <= 0 || cur.income*10 <= prev.income*11 {
		return nil
	}
	change := percentChange(cur.income, prev.income)
	return []domain.Insight{{
		ID:         "income-increase",
		Type:       domain.InsightSuccess,
		Icon:       "🎉",
		Title:      "Receita Crescendo",
		Message:    fmt.Sprintf("Sua receita aumentou %.0f%%!", change),
		Percentage: ptr(change),
	}}
}

// ============================================================
// 6. Savings rate
// ============================================================

func savingsRate(cur totals) []domain.Insight {
	if cur.income <= 0 {
		return nil
	}
	saved := cur.income - cur.expenses
	rate := float64(saved) / float64(cur.income) * 100

	switch {
	case saved*100 > cur.income*20:
		return []domain.Insight{{
			ID:         "savings-rate",
			Type:       domain.InsightSuccess,
			Icon:       "🏆",
			Title:      "Taxa de Poupança",
			Message:    fmt.Sprintf("Excelente! Você está poupando %.0f%% da sua renda este mês.", rate),
			Percentage: ptr(rate),
		}}
	case saved > 0 && saved*100 < cur.income*5:
		return []domain.Insight{{
			ID:         "low-savings",
			Type:       domain.InsightWarning,
			Icon:       "💡",
			Title:      "Margem Apertada",
			Message:    fmt.Sprintf("Sua taxa de poupança é de apenas %.0f%%. Tente reduzir despesas não essenciais.", rate),
			Percentage: ptr(rate),
		}}
	}
	return nil
}
