package billing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/family-finance-go/internal/billing"
	"github.com/boddenberg/family-finance-go/internal/domain"
)

func fixedIDs() *billing.Splitter {
	return billing.NewSplitterWithIDs(func() string { return "group-1" })
}

func TestSplit_HundredInThree(t *testing.T) {
	plan, err := fixedIDs().Split(billing.SplitRequest{
		Total:        domain.Cents(10000),
		Count:        3,
		PurchaseDate: date(2024, time.March, 5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.Money{3333, 3333, 3334}
	if len(plan.Installments) != len(want) {
		t.Fatalf("expected %d installments, got %d", len(want), len(plan.Installments))
	}
	for i, inst := range plan.Installments {
		if inst.Amount != want[i] {
			t.Errorf("installment %d: got %s, want %s", i+1, inst.Amount, want[i])
		}
		if inst.Number != i+1 || inst.Total != 3 {
			t.Errorf("installment %d: bad numbering %d/%d", i+1, inst.Number, inst.Total)
		}
		if inst.GroupID != "group-1" {
			t.Errorf("installment %d: expected group-1, got %s", i+1, inst.GroupID)
		}
		if inst.BillingMonth != nil {
			t.Errorf("installment %d: billing month should be unset without closing day", i+1)
		}
	}
	if plan.Message() != "3x de R$ 33.33" {
		t.Errorf("unexpected message %q", plan.Message())
	}
}

func TestSplit_SumInvariant(t *testing.T) {
	s := fixedIDs()
	totals := []int64{1, 2, 99, 100, 101, 9999, 10000, 12345, 100001, 99999999}
	for _, total := range totals {
		for n := billing.MinInstallments; n <= billing.MaxInstallments; n++ {
			if total < int64(n) {
				continue
			}
			plan, err := s.Split(billing.SplitRequest{
				Total:        domain.Cents(total),
				Count:        n,
				PurchaseDate: date(2024, time.January, 31),
			})
			if err != nil {
				t.Fatalf("total=%d n=%d: %v", total, n, err)
			}

			var sum domain.Money
			for _, inst := range plan.Installments {
				sum += inst.Amount
			}
			if sum.Cents() != total {
				t.Fatalf("total=%d n=%d: sum %d", total, n, sum)
			}

			// Only the last installment may differ.
			for _, inst := range plan.Installments[:n-1] {
				if inst.Amount != plan.PerInstallment {
					t.Fatalf("total=%d n=%d: non-last installment %d = %d", total, n, inst.Number, inst.Amount)
				}
			}
			last := plan.Installments[n-1]
			if last.Amount < plan.PerInstallment || last.Amount-plan.PerInstallment >= domain.Money(n) {
				t.Fatalf("total=%d n=%d: bad remainder on last installment %d", total, n, last.Amount)
			}
		}
	}
}

func TestSplit_DatesClampAndBillingMonth(t *testing.T) {
	closing := 25
	plan, err := fixedIDs().Split(billing.SplitRequest{
		Total:        domain.Cents(40000),
		Count:        4,
		PurchaseDate: date(2024, time.January, 10),
		FirstDate:    date(2024, time.January, 31),
		ClosingDay:   &closing,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantDates := []time.Time{
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2024, time.March, 31),
		date(2024, time.April, 30),
	}
	wantBilling := []time.Time{
		date(2024, time.February, 1),
		date(2024, time.March, 1),
		date(2024, time.April, 1),
		date(2024, time.May, 1),
	}
	for i, inst := range plan.Installments {
		if !inst.Date.Equal(wantDates[i]) {
			t.Errorf("installment %d: date %s, want %s", i+1, inst.Date.Format("2006-01-02"), wantDates[i].Format("2006-01-02"))
		}
		if inst.BillingMonth == nil || !inst.BillingMonth.Equal(wantBilling[i]) {
			t.Errorf("installment %d: billing month %v, want %s", i+1, inst.BillingMonth, wantBilling[i].Format("2006-01-02"))
		}
	}
}

func TestSplit_FirstDateDefaultsToPurchase(t *testing.T) {
	plan, err := fixedIDs().Split(billing.SplitRequest{
		Total:        domain.Cents(2000),
		Count:        2,
		PurchaseDate: date(2023, time.January, 31),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.Installments[0].Date.Equal(date(2023, time.January, 31)) {
		t.Errorf("unexpected first date %s", plan.Installments[0].Date)
	}
	if !plan.Installments[1].Date.Equal(date(2023, time.February, 28)) {
		t.Errorf("unexpected second date %s", plan.Installments[1].Date)
	}
}

func TestSplit_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   billing.SplitRequest
		field string
	}{
		{"zero amount", billing.SplitRequest{Total: 0, Count: 3}, "amount"},
		{"negative amount", billing.SplitRequest{Total: -100, Count: 3}, "amount"},
		{"one installment", billing.SplitRequest{Total: 100, Count: 1}, "totalInstallments"},
		{"too many installments", billing.SplitRequest{Total: 100000, Count: 37}, "totalInstallments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := fixedIDs().Split(tt.req)
			if plan != nil {
				t.Fatal("expected no plan on validation error")
			}
			var v *domain.ErrValidation
			if !errors.As(err, &v) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if v.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, v.Field)
			}
		})
	}
}

func TestSplit_MaxInstallmentsAccepted(t *testing.T) {
	plan, err := fixedIDs().Split(billing.SplitRequest{
		Total:        domain.Cents(360000),
		Count:        36,
		PurchaseDate: date(2024, time.June, 15),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Installments) != 36 {
		t.Errorf("expected 36, got %d", len(plan.Installments))
	}
	if last := plan.Installments[35].Date; !last.Equal(date(2027, time.May, 15)) {
		t.Errorf("unexpected last date %s", last.Format("2006-01-02"))
	}
}
