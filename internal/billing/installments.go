package billing

import (
	"fmt"
	"time"

	"github.com/boddenberg/family-finance-go/internal/domain"

	"github.com/google/uuid"
)

const (
	MinInstallments = 2
	MaxInstallments = 36
)

// SplitRequest describes one installment purchase.
type SplitRequest struct {
	Total        domain.Money
	Count        int
	PurchaseDate time.Time
	// FirstDate defaults to PurchaseDate when zero.
	FirstDate time.Time
	// ClosingDay is set when the purchase goes on a credit card.
	ClosingDay *int
}

// Installment is one generated payment, not yet persisted.
type Installment struct {
	Number       int
	Total        int
	GroupID      string
	Amount       domain.Money
	Date         time.Time
	BillingMonth *time.Time
}

// Plan is the ordered result of a split.
type Plan struct {
	GroupID        string
	PerInstallment domain.Money
	Installments   []Installment
}

// Message renders the confirmation shown to the user, e.g. "3x de R$ 33.33".
func (p *Plan) Message() string {
	return fmt.Sprintf("%dx de R$ %s", len(p.Installments), p.PerInstallment)
}

// Splitter splits purchases into installments.
type Splitter struct {
	newGroupID func() string
}

// NewSplitter returns a splitter that tags groups with random UUIDs.
func NewSplitter() *Splitter {
	return &Splitter{newGroupID: func() string { return uuid.New().String() }}
}

// NewSplitterWithIDs returns a splitter with a custom group id source.
func NewSplitterWithIDs(newGroupID func() string) *Splitter {
	return &Splitter{newGroupID: newGroupID}
}

// Split validates the request and produces Count installments in number
// order. Every installment but the last carries floor(total/count) cents;
// the last one absorbs the remainder so the group sums to the total.
func (s *Splitter) Split(req SplitRequest) (*Plan, error) {
	if req.Total <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "O valor deve ser maior que zero"}
	}
	if req.Count < MinInstallments {
		return nil, &domain.ErrValidation{Field: "totalInstallments", Message: fmt.Sprintf("Número mínimo de parcelas é %d", MinInstallments)}
	}
	if req.Count > MaxInstallments {
		return nil, &domain.ErrValidation{Field: "totalInstallments", Message: fmt.Sprintf("Número máximo de parcelas é %d", MaxInstallments)}
	}
	if req.ClosingDay != nil && (*req.ClosingDay < 1 || *req.ClosingDay > 31) {
		return nil, &domain.ErrValidation{Field: "closingDay", Message: "Dia de fechamento deve ser entre 1 e 31"}
	}

	first := req.FirstDate
	if first.IsZero() {
		first = req.PurchaseDate
	}

	n := int64(req.Count)
	per := domain.Money(req.Total.Cents() / n)
	remainder := req.Total - per*domain.Money(n)

	plan := &Plan{
		GroupID:        s.newGroupID(),
		PerInstallment: per,
		Installments:   make([]Installment, 0, req.Count),
	}

	for i := 1; i <= req.Count; i++ {
		inst := Installment{
			Number:  i,
			Total:   req.Count,
			GroupID: plan.GroupID,
			Amount:  per,
			Date:    AddMonthsClamped(first, i-1),
		}
		if i == req.Count {
			inst.Amount = per + remainder
		}
		if req.ClosingDay != nil {
			bm := ResolveBillingMonth(inst.Date, *req.ClosingDay)
			inst.BillingMonth = &bm
		}
		plan.Installments = append(plan.Installments, inst)
	}

	return plan, nil
}
