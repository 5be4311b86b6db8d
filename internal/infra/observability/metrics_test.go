package observability_test

import (
	"testing"

	"github.com/boddenberg/family-finance-go/internal/infra/observability"
)

func TestMetrics_Counters(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrInsight("danger")
	m.IncrInsight("danger")
	m.IncrInstallmentGroup()
	m.IncrTransactionsCreated("EXPENSE", "MANUAL", 3)
	m.AddPoints("DAILY_LOGIN", 5)

	if v := m.CounterValue("insights", "danger"); v != 2 {
		t.Errorf("expected 2 danger insights, got %v", v)
	}
	if v := m.CounterValue("installment_groups"); v != 1 {
		t.Errorf("expected 1 installment group, got %v", v)
	}
	if v := m.CounterValue("transactions_created", "EXPENSE", "MANUAL"); v != 3 {
		t.Errorf("expected 3 transactions, got %v", v)
	}
	if v := m.CounterValue("points", "DAILY_LOGIN"); v != 5 {
		t.Errorf("expected 5 points, got %v", v)
	}
	if v := m.CounterValue("unknown"); v != 0 {
		t.Errorf("expected 0 for unknown counter, got %v", v)
	}
}

func TestNewMetrics_Twice(t *testing.T) {
	// Private registries must not collide.
	observability.NewMetrics()
	observability.NewMetrics()
}

func TestNewLogger_Levels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error", "bogus"} {
		if l := observability.NewLogger(lvl); l == nil {
			t.Errorf("nil logger for level %s", lvl)
		}
	}
}
