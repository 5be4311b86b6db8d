// Package service: chat_strategy_finance.go implementa as regras que
// consultam as transações da família no mês corrente.
//
// ============================================================
// REGRAS DE FINANÇAS: testadas nesta ordem
// ============================================================
//
//	1. "quanto gastamos com X (este mês)" → soma das despesas da categoria
//	2. "qual a maior despesa"              → despesa de maior valor
//	3. "saldo atual|geral|total"           → receitas - despesas
//	4. "quantas transações este mês"       → contagem (todos os status)
//	5. "resumo do mês|mensal|financeiro"   → totais + top 5 categorias
//
// Todas usam só transações CONFIRMED, exceto a contagem.
package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/boddenberg/family-finance-go/internal/chat/domain"
	"github.com/boddenberg/family-finance-go/internal/chat/port"
	maindomain "github.com/boddenberg/family-finance-go/internal/domain"
)

// regexStrategy é a base das regras de finanças: casa por regex.
type regexStrategy struct {
	intent string
	re     *regexp.Regexp
	reader port.TransactionReader
}

func (r regexStrategy) Intent() string { return r.intent }

func (r regexStrategy) Match(query string) []string { return r.re.FindStringSubmatch(query) }

// monthTransactions busca as transações do mês corrente com o filtro dado.
func (r regexStrategy) monthTransactions(ctx context.Context, chatCtx *domain.ChatContext, f maindomain.TransactionFilter) ([]maindomain.Transaction, error) {
	f.From = chatCtx.MonthStart
	f.To = chatCtx.MonthEnd
	return r.reader.ListTransactions(ctx, chatCtx.FamilyID, f)
}

// ============================================================
// 1. Gastos por categoria
// ============================================================

type categorySpendStrategy struct{ regexStrategy }

func newCategorySpendStrategy(reader port.TransactionReader) categorySpendStrategy {
	return categorySpendStrategy{regexStrategy{
		intent: domain.IntentCategorySpend,
		re:     regexp.MustCompile(`(?i)quanto\s+gast(amos|ei|ou)\s+(com|em)\s+(.+?)(\s+este\s+m[eê]s|\s+esse\s+m[eê]s|\s+no\s+m[eê]s)?$`),
		reader: reader,
	}}
}

func (s categorySpendStrategy) Handle(ctx context.Context, chatCtx *domain.ChatContext) (string, error) {
	category := strings.TrimSpace(chatCtx.Match[3])

	txs, err := s.monthTransactions(ctx, chatCtx, maindomain.TransactionFilter{
		Type:   maindomain.TransactionExpense,
		Status: maindomain.StatusConfirmed,
	})
	if err != nil {
		return "", err
	}

	// A categoria casa por "contém", sem diferenciar maiúsculas
	var (
		total maindomain.Money
		count int
	)
	for _, t := range txs {
		if t.Category == nil || !strings.Contains(strings.ToLower(t.Category.Name), category) {
			continue
		}
		total += t.Amount
		count++
	}

	if total <= 0 {
		return fmt.Sprintf("Não encontrei gastos com %q este mês.", category), nil
	}
	return fmt.Sprintf("💰 Este mês, vocês gastaram **R$ %s** com %s. Foram %d transação(ões).", total, category, count), nil
}

// ============================================================
// 2. Maior despesa
// ============================================================

type biggestExpenseStrategy struct{ regexStrategy }

func newBiggestExpenseStrategy(reader port.TransactionReader) biggestExpenseStrategy {
	return biggestExpenseStrategy{regexStrategy{
		intent: domain.IntentBiggestExpense,
		re:     regexp.MustCompile(`(?i)qual\s+(a\s+)?maior\s+despesa`),
		reader: reader,
	}}
}

func (s biggestExpenseStrategy) Handle(ctx context.Context, chatCtx *domain.ChatContext) (string, error) {
	txs, err := s.monthTransactions(ctx, chatCtx, maindomain.TransactionFilter{
		Type:   maindomain.TransactionExpense,
		Status: maindomain.StatusConfirmed,
	})
	if err != nil {
		return "", err
	}
	if len(txs) == 0 {
		return "Não há despesas registradas este mês.", nil
	}

	biggest := txs[0]
	for _, t := range txs[1:] {
		if t.Amount > biggest.Amount {
			biggest = t
		}
	}

	category := "Sem categoria"
	if biggest.Category != nil && biggest.Category.Name != "" {
		category = biggest.Category.Name
	}
	return fmt.Sprintf("🔝 A maior despesa do mês é **%s** no valor de **R$ %s** (%s), registrada por %s.",
		biggest.Description, biggest.Amount, category, biggest.UserName), nil
}

// ============================================================
// 3. Saldo do mês
// ============================================================

type balanceStrategy struct{ regexStrategy }

func newBalanceStrategy(reader port.TransactionReader) balanceStrategy {
	return balanceStrategy{regexStrategy{
		intent: domain.IntentBalance,
		re:     regexp.MustCompile(`(?i)saldo\s+(atual|geral|total|da\s+fam[ií]lia)`),
		reader: reader,
	}}
}

func (s balanceStrategy) Handle(ctx context.Context, chatCtx *domain.ChatContext) (string, error) {
	txs, err := s.monthTransactions(ctx, chatCtx, maindomain.TransactionFilter{Status: maindomain.StatusConfirmed})
	if err != nil {
		return "", err
	}
	income, expenses := totals(txs)
	return fmt.Sprintf("📊 **Saldo do mês:**\n\n• Receitas: R$ %s\n• Despesas: R$ %s\n• **Saldo: R$ %s**",
		income, expenses, income-expenses), nil
}

// ============================================================
// 4. Quantidade de transações
// ============================================================

type countStrategy struct{ regexStrategy }

func newCountStrategy(reader port.TransactionReader) countStrategy {
	return countStrategy{regexStrategy{
		intent: domain.IntentCount,
		re:     regexp.MustCompile(`(?i)quantas?\s+transa[çc][ãõo]es?\s+(este|esse|no)\s+m[eê]s`),
		reader: reader,
	}}
}

func (s countStrategy) Handle(ctx context.Context, chatCtx *domain.ChatContext) (string, error) {
	// Conta todos os status: pendentes e canceladas também
	count, err := s.reader.CountTransactions(ctx, chatCtx.FamilyID, maindomain.TransactionFilter{
		From: chatCtx.MonthStart,
		To:   chatCtx.MonthEnd,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📋 Este mês vocês têm **%d transação(ões)** registradas.", count), nil
}

// ============================================================
// 5. Resumo do mês
// ============================================================

// summaryTopCategories é quantas categorias entram no resumo.
const summaryTopCategories = 5

type summaryStrategy struct{ regexStrategy }

func newSummaryStrategy(reader port.TransactionReader) summaryStrategy {
	return summaryStrategy{regexStrategy{
		intent: domain.IntentSummary,
		re:     regexp.MustCompile(`(?i)resumo\s+(do\s+m[eê]s|mensal|financeiro)`),
		reader: reader,
	}}
}

func (s summaryStrategy) Handle(ctx context.Context, chatCtx *domain.ChatContext) (string, error) {
	txs, err := s.monthTransactions(ctx, chatCtx, maindomain.TransactionFilter{Status: maindomain.StatusConfirmed})
	if err != nil {
		return "", err
	}
	income, expenses := totals(txs)

	byCategory := map[string]maindomain.Money{}
	for _, t := range txs {
		if t.Type == maindomain.TransactionExpense {
			byCategory[t.CategoryName()] += t.Amount
		}
	}
	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if byCategory[names[i]] != byCategory[names[j]] {
			return byCategory[names[i]] > byCategory[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > summaryTopCategories {
		names = names[:summaryTopCategories]
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  • %s: R$ %s", name, byCategory[name]))
	}
	catList := strings.Join(lines, "\n")
	if catList == "" {
		catList = "  Nenhuma despesa registrada."
	}

	month := fmt.Sprintf("%s/%d", maindomain.MonthName(chatCtx.MonthStart.Month()), chatCtx.MonthStart.Year())
	return fmt.Sprintf("📊 **Resumo de %s:**\n\n💚 Receitas: R$ %s\n🔴 Despesas: R$ %s\n💰 Saldo: R$ %s\n\n🏷️ **Top categorias:**\n%s",
		month, income, expenses, income-expenses, catList), nil
}

// totals soma receitas e despesas.
func totals(txs []maindomain.Transaction) (income, expenses maindomain.Money) {
	for _, t := range txs {
		switch t.Type {
		case maindomain.TransactionIncome:
			income += t.Amount
		case maindomain.TransactionExpense:
			expenses += t.Amount
		}
	}
	return income, expenses
}
