package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/boddenberg/family-finance-go/internal/billing"
	"github.com/boddenberg/family-finance-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Transactions
// ============================================================

const defaultTransactionLimit = 100

var installmentSuffix = regexp.MustCompile(`\s\(\d+/\d+\)$`)

func installmentDescription(base string, number, total int) string {
	return fmt.Sprintf("%s (%d/%d)", base, number, total)
}

// CreateTransaction registers a single transaction or, for installment
// purchases, the whole batch in one store call.
func (s *FinanceService) CreateTransaction(ctx context.Context, session domain.Session, req *domain.CreateTransactionRequest) (*domain.CreateTransactionResult, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateTransaction")
	defer span.End()
	span.SetAttributes(
		attribute.String("family.id", session.FamilyID),
		attribute.Bool("transaction.installment", req.IsInstallment),
	)

	req.Description = strings.TrimSpace(req.Description)
	if req.Amount == 0 || req.Description == "" || req.Date == "" || req.Type == "" {
		return nil, &domain.ErrValidation{Field: "body", Message: "Campos obrigatórios: amount, description, date, type"}
	}
	if req.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "O valor deve ser maior que zero"}
	}
	if !req.Type.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "Tipo deve ser INCOME ou EXPENSE"}
	}
	if req.Status == "" {
		req.Status = domain.StatusConfirmed
	}
	if !req.Status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "Status inválido"}
	}
	if req.Source == "" {
		req.Source = domain.SourceManual
	}

	date, err := domain.ParseDate("date", req.Date)
	if err != nil {
		return nil, err
	}

	category, err := s.familyCategory(ctx, session.FamilyID, req.CategoryID)
	if err != nil {
		return nil, err
	}
	account, err := s.familyAccount(ctx, session.FamilyID, req.AccountID)
	if err != nil {
		return nil, err
	}

	var closingDay *int
	if account.IsCreditCard() && req.Type == domain.TransactionExpense {
		closingDay = account.ClosingDay
	}

	base := domain.Transaction{
		FamilyID:          session.FamilyID,
		UserID:            session.UserID,
		UserName:          session.Name,
		Amount:            req.Amount,
		Description:       req.Description,
		Date:              date,
		Type:              req.Type,
		Status:            req.Status,
		Source:            req.Source,
		CategoryID:        emptyToNil(req.CategoryID),
		Category:          category,
		AccountID:         emptyToNil(req.AccountID),
		Recurring:         req.Recurring,
		RecurringInterval: req.RecurringInterval,
	}

	if req.IsInstallment && req.TotalInstallments >= billing.MinInstallments {
		return s.createInstallments(ctx, session, base, req, closingDay)
	}

	if closingDay != nil {
		bm := billing.ResolveBillingMonth(date, *closingDay)
		base.BillingMonth = &bm
	}

	batch := []domain.Transaction{base}
	if err := s.store.CreateTransactions(ctx, batch); err != nil {
		s.logger.Error("failed to create transaction", zap.String("family_id", session.FamilyID), zap.Error(err))
		return nil, err
	}
	created := batch[0]
	s.metrics.IncrTransactionsCreated(string(created.Type), string(created.Source), 1)

	s.logger.Info("transaction created",
		zap.String("family_id", session.FamilyID),
		zap.String("transaction_id", created.ID),
		zap.String("type", string(created.Type)),
		zap.String("amount", created.Amount.String()),
	)

	actions := []domain.PointAction{registerAction(created.Type)}
	if created.CategoryID != nil {
		actions = append(actions, domain.ActionCategorize)
	}
	s.record(ctx, session.UserID, actions...)

	return &domain.CreateTransactionResult{Transaction: &created}, nil
}

func (s *FinanceService) createInstallments(ctx context.Context, session domain.Session, base domain.Transaction, req *domain.CreateTransactionRequest, closingDay *int) (*domain.CreateTransactionResult, error) {
	first := time.Time{}
	if req.FirstInstallmentDate != "" {
		d, err := domain.ParseDate("firstInstallmentDate", req.FirstInstallmentDate)
		if err != nil {
			return nil, err
		}
		first = d
	}

	plan, err := s.splitter.Split(billing.SplitRequest{
		Total:        req.Amount,
		Count:        req.TotalInstallments,
		PurchaseDate: base.Date,
		FirstDate:    first,
		ClosingDay:   closingDay,
	})
	if err != nil {
		return nil, err
	}

	batch := make([]domain.Transaction, 0, len(plan.Installments))
	for _, inst := range plan.Installments {
		t := base
		groupID := inst.GroupID
		t.Amount = inst.Amount
		t.Description = installmentDescription(base.Description, inst.Number, inst.Total)
		t.Date = inst.Date
		t.BillingMonth = inst.BillingMonth
		t.Recurring = false
		t.RecurringInterval = nil
		t.IsInstallment = true
		t.InstallmentGroupID = &groupID
		t.InstallmentNumber = inst.Number
		t.TotalInstallments = inst.Total
		batch = append(batch, t)
	}

	if err := s.store.CreateTransactions(ctx, batch); err != nil {
		s.logger.Error("failed to create installment group",
			zap.String("family_id", session.FamilyID),
			zap.Int("installments", len(batch)),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.IncrTransactionsCreated(string(base.Type), string(base.Source), len(batch))
	s.metrics.IncrInstallmentGroup()

	s.logger.Info("installment group created",
		zap.String("family_id", session.FamilyID),
		zap.String("group_id", plan.GroupID),
		zap.Int("installments", len(batch)),
		zap.String("total", req.Amount.String()),
	)

	s.record(ctx, session.UserID, registerAction(base.Type))

	return &domain.CreateTransactionResult{
		Message:            "Compra parcelada criada: " + plan.Message(),
		Transactions:       batch,
		InstallmentGroupID: plan.GroupID,
	}, nil
}

func registerAction(t domain.TransactionType) domain.PointAction {
	if t == domain.TransactionIncome {
		return domain.ActionRegisterIncome
	}
	return domain.ActionRegisterExpense
}

// ListTransactions returns a whole installment group in number order when
// filtered by group, otherwise the newest transactions first.
func (s *FinanceService) ListTransactions(ctx context.Context, session domain.Session, f domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", session.FamilyID))

	if f.InstallmentGroupID != "" {
		return s.store.ListTransactions(ctx, session.FamilyID, domain.TransactionFilter{InstallmentGroupID: f.InstallmentGroupID})
	}
	if f.Limit <= 0 || f.Limit > defaultTransactionLimit {
		f.Limit = defaultTransactionLimit
	}
	return s.store.ListTransactions(ctx, session.FamilyID, f)
}

// UpdateTransaction edits one transaction. Editing a future installment
// also propagates amount, description and category to its whole group.
func (s *FinanceService) UpdateTransaction(ctx context.Context, session domain.Session, req *domain.UpdateTransactionRequest) (*domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", req.ID))

	if req.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "ID obrigatório"}
	}

	tx, err := s.store.GetTransaction(ctx, session.FamilyID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil && *req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "O valor deve ser maior que zero"}
	}
	var description string
	if req.Description != nil {
		description = strings.TrimSpace(*req.Description)
		if description == "" {
			return nil, &domain.ErrValidation{Field: "description", Message: "Descrição obrigatória"}
		}
	}
	if req.Type != nil && !req.Type.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "Tipo deve ser INCOME ou EXPENSE"}
	}
	if req.Status != nil && !tx.Status.CanTransitionTo(*req.Status) {
		return nil, &domain.ErrValidation{
			Field:   "status",
			Message: fmt.Sprintf("Não é possível mudar de %s para %s", tx.Status, *req.Status),
		}
	}
	if !req.ClearCategory && req.CategoryID != nil {
		if _, err := s.familyCategory(ctx, session.FamilyID, req.CategoryID); err != nil {
			return nil, err
		}
	}

	if tx.IsInstallment && tx.InstallmentGroupID != nil && tx.Date.After(s.today()) {
		patch := domain.InstallmentPatch{Amount: req.Amount, ClearCategory: req.ClearCategory}
		if req.Description != nil {
			stripped := installmentSuffix.ReplaceAllString(description, "")
			patch.Description = &stripped
		}
		if !req.ClearCategory {
			patch.CategoryID = req.CategoryID
		}
		if !patch.Empty() {
			n, err := s.store.PatchInstallmentGroup(ctx, session.FamilyID, *tx.InstallmentGroupID, patch)
			if err != nil {
				return nil, err
			}
			s.logger.Info("installment group updated",
				zap.String("group_id", *tx.InstallmentGroupID),
				zap.Int64("installments", n),
			)
		}
	}

	if req.Amount != nil {
		tx.Amount = *req.Amount
	}
	if req.Description != nil {
		if tx.IsInstallment {
			description = installmentDescription(installmentSuffix.ReplaceAllString(description, ""), tx.InstallmentNumber, tx.TotalInstallments)
		}
		tx.Description = description
	}
	if req.Type != nil {
		tx.Type = *req.Type
	}
	if req.Status != nil {
		tx.Status = *req.Status
	}
	if req.ClearCategory {
		tx.CategoryID = nil
	} else if req.CategoryID != nil {
		tx.CategoryID = req.CategoryID
	}
	if req.Recurring != nil && !tx.IsInstallment {
		tx.Recurring = *req.Recurring
	}
	if req.Date != nil {
		date, err := domain.ParseDate("date", *req.Date)
		if err != nil {
			return nil, err
		}
		tx.Date = date
	}

	if err := s.rebill(ctx, session.FamilyID, tx); err != nil {
		return nil, err
	}

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return s.store.GetTransaction(ctx, session.FamilyID, tx.ID)
}

// rebill recomputes the billing month after a date or type change.
func (s *FinanceService) rebill(ctx context.Context, familyID string, tx *domain.Transaction) error {
	tx.BillingMonth = nil
	if tx.AccountID == nil || tx.Type != domain.TransactionExpense {
		return nil
	}
	account, err := s.store.GetAccount(ctx, familyID, *tx.AccountID)
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return nil
	}
	if err != nil {
		return err
	}
	if account.IsCreditCard() {
		bm := billing.ResolveBillingMonth(tx.Date, *account.ClosingDay)
		tx.BillingMonth = &bm
	}
	return nil
}

// DeleteTransaction hard-deletes a plain transaction. Deleting any member
// of an installment group cancels the whole group instead.
func (s *FinanceService) DeleteTransaction(ctx context.Context, session domain.Session, id string) (*domain.MessageResponse, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	if id == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "ID ou installmentGroupId obrigatório"}
	}

	tx, err := s.store.GetTransaction(ctx, session.FamilyID, id)
	if err != nil {
		return nil, err
	}

	if tx.IsInstallment && tx.InstallmentGroupID != nil {
		if _, err := s.store.CancelInstallmentGroup(ctx, session.FamilyID, *tx.InstallmentGroupID, 1); err != nil {
			return nil, err
		}
		s.logger.Info("installment group cancelled",
			zap.String("group_id", *tx.InstallmentGroupID),
			zap.String("via_transaction", id),
		)
		return &domain.MessageResponse{Message: "Parcelas canceladas"}, nil
	}

	if err := s.store.DeleteTransaction(ctx, session.FamilyID, id); err != nil {
		return nil, err
	}
	s.logger.Info("transaction deleted", zap.String("family_id", session.FamilyID), zap.String("transaction_id", id))
	return &domain.MessageResponse{Message: "Transação removida"}, nil
}

// CancelInstallmentGroup cancels every installment numbered fromNumber or
// later. fromNumber below 1 cancels the whole group.
func (s *FinanceService) CancelInstallmentGroup(ctx context.Context, session domain.Session, groupID string, fromNumber int) (*domain.MessageResponse, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CancelInstallmentGroup")
	defer span.End()
	span.SetAttributes(attribute.String("installment.group_id", groupID))

	if groupID == "" {
		return nil, &domain.ErrValidation{Field: "installmentGroupId", Message: "ID ou installmentGroupId obrigatório"}
	}
	if fromNumber < 1 {
		fromNumber = 1
	}

	n, err := s.store.CancelInstallmentGroup(ctx, session.FamilyID, groupID, fromNumber)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &domain.ErrNotFound{Resource: "installment group", ID: groupID}
	}

	s.logger.Info("installments cancelled",
		zap.String("group_id", groupID),
		zap.Int("from", fromNumber),
		zap.Int64("cancelled", n),
	)
	return &domain.MessageResponse{Message: "Parcelas canceladas"}, nil
}

// ============================================================
// Lookups
// ============================================================

func emptyToNil(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	return id
}

// familyCategory loads the referenced category, rejecting ids of other families.
func (s *FinanceService) familyCategory(ctx context.Context, familyID string, id *string) (*domain.Category, error) {
	if emptyToNil(id) == nil {
		return nil, nil
	}
	c, err := s.store.GetCategory(ctx, familyID, *id)
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return nil, &domain.ErrValidation{Field: "categoryId", Message: "Categoria não encontrada"}
	}
	return c, err
}

// familyAccount loads the referenced account, rejecting ids of other families.
func (s *FinanceService) familyAccount(ctx context.Context, familyID string, id *string) (*domain.Account, error) {
	if emptyToNil(id) == nil {
		return nil, nil
	}
	a, err := s.store.GetAccount(ctx, familyID, *id)
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return nil, &domain.ErrValidation{Field: "accountId", Message: "Conta não encontrada"}
	}
	return a, err
}
