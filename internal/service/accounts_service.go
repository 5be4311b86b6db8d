package service

import (
	"context"
	"strings"

	"github.com/boddenberg/family-finance-go/internal/billing"
	"github.com/boddenberg/family-finance-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Accounts
// ============================================================

// ListAccounts returns the family's accounts. Credit cards carry the usage
// of the current billing month.
func (s *FinanceService) ListAccounts(ctx context.Context, session domain.Session) ([]domain.AccountView, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", session.FamilyID))

	accounts, err := s.store.ListAccounts(ctx, session.FamilyID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.AccountView, 0, len(accounts))
	for i := range accounts {
		view := domain.AccountView{Account: accounts[i]}
		if accounts[i].IsCreditCard() && accounts[i].Limit != nil && *accounts[i].Limit > 0 {
			used, err := s.usedLimit(ctx, &accounts[i])
			if err != nil {
				return nil, err
			}
			available := *accounts[i].Limit - used
			pct := used.Float64() / accounts[i].Limit.Float64() * 100
			view.UsedLimit = &used
			view.AvailableLimit = &available
			view.UtilizationPercent = &pct
		}
		out = append(out, view)
	}
	return out, nil
}

// usedLimit sums the card's confirmed expenses of the current billing month.
func (s *FinanceService) usedLimit(ctx context.Context, a *domain.Account) (domain.Money, error) {
	month := billing.MonthStart(s.now().UTC())
	txs, err := s.store.ListTransactions(ctx, a.FamilyID, domain.TransactionFilter{
		AccountID:    a.ID,
		Type:         domain.TransactionExpense,
		Status:       domain.StatusConfirmed,
		BillingMonth: &month,
	})
	if err != nil {
		return 0, err
	}
	return domain.Totals(txs).Expenses, nil
}

func (s *FinanceService) CreateAccount(ctx context.Context, session domain.Session, req *domain.AccountRequest) (*domain.Account, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateAccount")
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Type == "" {
		return nil, &domain.ErrValidation{Field: "body", Message: "Campos obrigatórios: name, type"}
	}

	a := &domain.Account{
		FamilyID:   session.FamilyID,
		Name:       req.Name,
		Type:       req.Type,
		Limit:      req.Limit,
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
		Color:      req.Color,
		Icon:       req.Icon,
	}
	if req.Balance != nil {
		a.Balance = *req.Balance
	}
	if err := validateAccount(a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = domain.DefaultCategoryColor
	}
	if a.Icon == "" {
		a.Icon = a.Type.DefaultIcon()
	}

	if err := s.store.CreateAccount(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("family_id", session.FamilyID),
		zap.String("account_id", a.ID),
		zap.String("type", string(a.Type)),
	)
	return a, nil
}

// UpdateAccount applies the non-empty fields of req. Sending 0 for limit,
// closingDay or dueDay clears it.
func (s *FinanceService) UpdateAccount(ctx context.Context, session domain.Session, req *domain.AccountRequest) (*domain.Account, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", req.ID))

	if req.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "ID obrigatório"}
	}
	a, err := s.store.GetAccount(ctx, session.FamilyID, req.ID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		a.Name = name
	}
	if req.Type != "" {
		a.Type = req.Type
	}
	if req.Limit != nil {
		a.Limit = req.Limit
		if *req.Limit == 0 {
			a.Limit = nil
		}
	}
	if req.ClosingDay != nil {
		a.ClosingDay = zeroToNil(req.ClosingDay)
	}
	if req.DueDay != nil {
		a.DueDay = zeroToNil(req.DueDay)
	}
	if req.Color != "" {
		a.Color = req.Color
	}
	if req.Icon != "" {
		a.Icon = req.Icon
	}
	if req.Balance != nil {
		a.Balance = *req.Balance
	}
	if err := validateAccount(a); err != nil {
		return nil, err
	}

	if err := s.store.UpdateAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *FinanceService) DeleteAccount(ctx context.Context, session domain.Session, id string) (*domain.MessageResponse, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", id))

	if id == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "ID obrigatório"}
	}
	if err := s.store.DeleteAccount(ctx, session.FamilyID, id); err != nil {
		return nil, err
	}
	s.logger.Info("account deleted", zap.String("family_id", session.FamilyID), zap.String("account_id", id))
	return &domain.MessageResponse{Message: "Conta removida"}, nil
}

func validateAccount(a *domain.Account) error {
	if !a.Type.Valid() {
		return &domain.ErrValidation{Field: "type", Message: "Tipo deve ser CASH, BANK ou CREDIT_CARD"}
	}
	if a.Type != domain.AccountCreditCard {
		a.Limit, a.ClosingDay, a.DueDay = nil, nil, nil
		return nil
	}
	if a.Limit == nil || a.ClosingDay == nil || a.DueDay == nil {
		return &domain.ErrValidation{Field: "body", Message: "Para cartões de crédito: limit, closingDay e dueDay são obrigatórios"}
	}
	if *a.ClosingDay < 1 || *a.ClosingDay > 31 || *a.DueDay < 1 || *a.DueDay > 31 {
		return &domain.ErrValidation{Field: "closingDay", Message: "Dia de fechamento e vencimento devem ser entre 1 e 31"}
	}
	if *a.Limit <= 0 {
		return &domain.ErrValidation{Field: "limit", Message: "Limite deve ser maior que zero"}
	}
	return nil
}

func zeroToNil(v *int) *int {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}
