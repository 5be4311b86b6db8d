package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

func TestCreateAccount_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	limit := domain.Cents(100000)
	bad, ok := 40, 10

	tests := []struct {
		name string
		req  domain.AccountRequest
	}{
		{"missing name", domain.AccountRequest{Type: domain.AccountBank}},
		{"unknown type", domain.AccountRequest{Name: "Conta", Type: "SAVINGS"}},
		{"card without limit", domain.AccountRequest{Name: "Visa", Type: domain.AccountCreditCard, ClosingDay: &ok, DueDay: &ok}},
		{"card closing day out of range", domain.AccountRequest{Name: "Visa", Type: domain.AccountCreditCard, Limit: &limit, ClosingDay: &bad, DueDay: &ok}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.finance.CreateAccount(ctx, f.admin, &req)
			var ve *domain.ErrValidation
			if !errors.As(err, &ve) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateAccount_DefaultsAndNonCardFields(t *testing.T) {
	f := newFixture(t)
	limit := domain.Cents(100000)
	day := 5

	a, err := f.finance.CreateAccount(context.Background(), f.admin, &domain.AccountRequest{
		Name:       "Itaú",
		Type:       domain.AccountBank,
		Limit:      &limit,
		ClosingDay: &day,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Icon != "🏦" || a.Color != domain.DefaultCategoryColor {
		t.Errorf("unexpected defaults icon=%q color=%q", a.Icon, a.Color)
	}
	if a.Limit != nil || a.ClosingDay != nil {
		t.Errorf("bank accounts must not keep card fields: %+v", a)
	}
}

func TestGetBill_TotalsAndOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	card := f.card(t)

	f.expense(t, domain.CreateTransactionRequest{Amount: domain.Cents(5000), Date: "2026-10-01", AccountID: &card.ID})
	f.expense(t, domain.CreateTransactionRequest{Amount: domain.Cents(10000), Date: "2026-10-03", AccountID: &card.ID, Status: domain.StatusPending})
	// Closes on the 5th: billed in November.
	f.expense(t, domain.CreateTransactionRequest{Amount: domain.Cents(7000), Date: "2026-10-10", AccountID: &card.ID})

	bill, err := f.finance.GetBill(ctx, f.admin, card.ID, "2026-10")
	if err != nil {
		t.Fatalf("get bill: %v", err)
	}
	if bill.TotalBill != 15000 || bill.TotalPaid != 5000 || bill.TotalPending != 10000 {
		t.Errorf("unexpected totals bill=%s paid=%s pending=%s", bill.TotalBill, bill.TotalPaid, bill.TotalPending)
	}
	if bill.TransactionCount != 2 {
		t.Errorf("expected 2 transactions, got %d", bill.TransactionCount)
	}
	if bill.DueDate != "12/10/2026" {
		t.Errorf("expected due date 12/10/2026, got %s", bill.DueDate)
	}
	if !bill.IsOverdue {
		t.Error("expected bill with pending items past due to be overdue")
	}
	if bill.BillingMonthLabel != "Outubro 2026" {
		t.Errorf("unexpected label %q", bill.BillingMonthLabel)
	}

	next, err := f.finance.GetBill(ctx, f.admin, card.ID, "2026-11")
	if err != nil {
		t.Fatalf("get next bill: %v", err)
	}
	if next.TotalBill != 7000 || next.IsOverdue {
		t.Errorf("unexpected november bill total=%s overdue=%v", next.TotalBill, next.IsOverdue)
	}
}

func TestGetBill_DueDayClampsToMonthEnd(t *testing.T) {
	f := newFixture(t)
	limit := domain.Cents(100000)
	closing, due := 20, 31

	card, err := f.finance.CreateAccount(context.Background(), f.admin, &domain.AccountRequest{
		Name: "Inter", Type: domain.AccountCreditCard, Limit: &limit, ClosingDay: &closing, DueDay: &due,
	})
	if err != nil {
		t.Fatalf("create card: %v", err)
	}
	bill, err := f.finance.GetBill(context.Background(), f.admin, card.ID, "2026-11")
	if err != nil {
		t.Fatalf("get bill: %v", err)
	}
	if bill.DueDate != "30/11/2026" {
		t.Errorf("expected due date clamped to 30/11/2026, got %s", bill.DueDate)
	}
}

func TestGetBill_RejectsNonCard(t *testing.T) {
	f := newFixture(t)
	a, err := f.finance.CreateAccount(context.Background(), f.admin, &domain.AccountRequest{Name: "Carteira", Type: domain.AccountCash})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.finance.GetBill(context.Background(), f.admin, a.ID, "")
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) || ve.Message != "Esta não é uma conta de cartão de crédito" {
		t.Errorf("expected non-card validation error, got %v", err)
	}
}

func TestPayBill_ConfirmsPendingAndRecordsPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	card := f.card(t)
	bank, err := f.finance.CreateAccount(ctx, f.admin, &domain.AccountRequest{Name: "Itaú", Type: domain.AccountBank})
	if err != nil {
		t.Fatalf("create bank: %v", err)
	}

	f.expense(t, domain.CreateTransactionRequest{Amount: domain.Cents(5000), Date: "2026-10-01", AccountID: &card.ID})
	f.expense(t, domain.CreateTransactionRequest{Amount: domain.Cents(10000), Date: "2026-10-03", AccountID: &card.ID, Status: domain.StatusPending})

	result, err := f.finance.PayBill(ctx, f.admin, card.ID, &domain.PayBillRequest{Month: "2026-10", AccountID: &bank.ID})
	if err != nil {
		t.Fatalf("pay bill: %v", err)
	}
	if !result.Success || result.PaidAmount != 10000 || result.TransactionsPaid != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Message != "Fatura paga! Total: R$ 100.00" {
		t.Errorf("unexpected message %q", result.Message)
	}

	bill, err := f.finance.GetBill(ctx, f.admin, card.ID, "2026-10")
	if err != nil {
		t.Fatalf("get bill: %v", err)
	}
	if bill.TotalPending != 0 || bill.TotalPaid != 15000 || bill.IsOverdue {
		t.Errorf("expected fully paid bill, got paid=%s pending=%s overdue=%v", bill.TotalPaid, bill.TotalPending, bill.IsOverdue)
	}

	payments, err := f.finance.ListTransactions(ctx, f.admin, domain.TransactionFilter{AccountID: bank.ID})
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 1 || payments[0].Amount != 10000 || payments[0].Description != "Pagamento fatura Nubank - 10/2026" {
		t.Errorf("unexpected payment records %+v", payments)
	}
}

func TestListAccounts_CardUtilization(t *testing.T) {
	f := newFixture(t)
	card := f.card(t)

	// 14 Oct is past the closing day: billed in November, not counted.
	f.expense(t, domain.CreateTransactionRequest{Amount: domain.Cents(100000), Date: "2026-10-02", AccountID: &card.ID})
	f.expense(t, domain.CreateTransactionRequest{Amount: domain.Cents(20000), Date: "2026-10-14", AccountID: &card.ID})

	views, err := f.finance.ListAccounts(context.Background(), f.admin)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 account, got %d", len(views))
	}
	v := views[0]
	if v.UsedLimit == nil || *v.UsedLimit != 100000 {
		t.Fatalf("expected used limit 1000.00, got %v", v.UsedLimit)
	}
	if *v.AvailableLimit != 400000 || *v.UtilizationPercent != 20 {
		t.Errorf("unexpected available=%s utilization=%v", *v.AvailableLimit, *v.UtilizationPercent)
	}
}

func TestDeleteAccount_DetachesTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	card := f.card(t)

	tx := f.expense(t, domain.CreateTransactionRequest{Amount: domain.Cents(1000), Date: "2026-10-02", AccountID: &card.ID}).Transaction

	if _, err := f.finance.DeleteAccount(ctx, f.admin, card.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	got, err := f.store.GetTransaction(ctx, f.admin.FamilyID, tx.ID)
	if err != nil {
		t.Fatalf("transaction should survive its account: %v", err)
	}
	if got.AccountID != nil {
		t.Errorf("expected account detached, got %v", *got.AccountID)
	}
}
