package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/family-finance-go/internal/billing"
	"github.com/boddenberg/family-finance-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Credit Card Bills
// ============================================================

const defaultDueDay = 10

func (s *FinanceService) creditCard(ctx context.Context, familyID, accountID string) (*domain.Account, error) {
	a, err := s.store.GetAccount(ctx, familyID, accountID)
	if err != nil {
		return nil, err
	}
	if a.Type != domain.AccountCreditCard {
		return nil, &domain.ErrValidation{Field: "accountId", Message: "Esta não é uma conta de cartão de crédito"}
	}
	return a, nil
}

// billMonth parses "YYYY-MM", defaulting to the current month.
func (s *FinanceService) billMonth(month string) (time.Time, error) {
	if strings.TrimSpace(month) == "" {
		return billing.MonthStart(s.now().UTC()), nil
	}
	return domain.ParseMonth("month", month)
}

// GetBill lists the card's expenses of one billing month with their totals.
func (s *FinanceService) GetBill(ctx context.Context, session domain.Session, accountID, month string) (*domain.Bill, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetBill")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID), attribute.String("bill.month", month))

	card, err := s.creditCard(ctx, session.FamilyID, accountID)
	if err != nil {
		return nil, err
	}
	start, err := s.billMonth(month)
	if err != nil {
		return nil, err
	}

	txs, err := s.store.ListTransactions(ctx, session.FamilyID, domain.TransactionFilter{
		AccountID:    card.ID,
		Type:         domain.TransactionExpense,
		BillingMonth: &start,
	})
	if err != nil {
		return nil, err
	}

	bill := &domain.Bill{
		Account: domain.BillAccount{
			ID:         card.ID,
			Name:       card.Name,
			Limit:      card.Limit,
			ClosingDay: card.ClosingDay,
			DueDay:     card.DueDay,
			Color:      card.Color,
			Icon:       card.Icon,
		},
		BillingMonth:      domain.FormatMonth(start),
		BillingMonthLabel: fmt.Sprintf("%s %d", domain.MonthName(start.Month()), start.Year()),
		TransactionCount:  len(txs),
		Transactions:      txs,
	}

	var pending int
	for i := range txs {
		bill.TotalBill += txs[i].Amount
		switch txs[i].Status {
		case domain.StatusConfirmed:
			bill.TotalPaid += txs[i].Amount
		case domain.StatusPending:
			bill.TotalPending += txs[i].Amount
			pending++
		}
	}

	due := dueDate(start, card.DueDay)
	bill.DueDate = due.Format("02/01/2006")
	bill.IsOverdue = due.Before(s.today()) && pending > 0
	return bill, nil
}

// dueDate places the due day in the billing month, clamped to its last day.
func dueDate(month time.Time, dueDay *int) time.Time {
	day := defaultDueDay
	if dueDay != nil {
		day = *dueDay
	}
	if last := billing.DaysInMonth(month.Year(), month.Month()); day > last {
		day = last
	}
	return time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, time.UTC)
}

// PayBill confirms the pending expenses of the bill. When a paying account
// is given, the payment is recorded there as a confirmed expense.
func (s *FinanceService) PayBill(ctx context.Context, session domain.Session, accountID string, req *domain.PayBillRequest) (*domain.PayBillResult, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.PayBill")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	card, err := s.creditCard(ctx, session.FamilyID, accountID)
	if err != nil {
		return nil, err
	}
	start, err := s.billMonth(req.Month)
	if err != nil {
		return nil, err
	}
	payer, err := s.familyAccount(ctx, session.FamilyID, req.AccountID)
	if err != nil {
		return nil, err
	}

	unpaid, err := s.store.ListTransactions(ctx, session.FamilyID, domain.TransactionFilter{
		AccountID:    card.ID,
		Type:         domain.TransactionExpense,
		Status:       domain.StatusPending,
		BillingMonth: &start,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(unpaid))
	var total domain.Money
	for i := range unpaid {
		ids = append(ids, unpaid[i].ID)
		total += unpaid[i].Amount
	}

	if _, err := s.store.ConfirmTransactions(ctx, session.FamilyID, ids); err != nil {
		return nil, err
	}

	if payer != nil && total > 0 {
		batch := []domain.Transaction{{
			FamilyID:    session.FamilyID,
			UserID:      session.UserID,
			Amount:      total,
			Description: fmt.Sprintf("Pagamento fatura %s - %s", card.Name, start.Format("01/2006")),
			Date:        s.today(),
			Type:        domain.TransactionExpense,
			Status:      domain.StatusConfirmed,
			Source:      domain.SourceManual,
			AccountID:   &payer.ID,
		}}
		if payer.IsCreditCard() {
			bm := billing.ResolveBillingMonth(batch[0].Date, *payer.ClosingDay)
			batch[0].BillingMonth = &bm
		}
		if err := s.store.CreateTransactions(ctx, batch); err != nil {
			return nil, err
		}
		s.metrics.IncrTransactionsCreated(string(domain.TransactionExpense), string(domain.SourceManual), 1)
	}

	s.logger.Info("bill paid",
		zap.String("family_id", session.FamilyID),
		zap.String("account_id", card.ID),
		zap.String("month", domain.FormatMonth(start)),
		zap.String("total", total.String()),
		zap.Int("transactions", len(ids)),
	)

	return &domain.PayBillResult{
		Success:          true,
		Message:          "Fatura paga! Total: R$ " + total.String(),
		PaidAmount:       total,
		TransactionsPaid: len(ids),
	}, nil
}
