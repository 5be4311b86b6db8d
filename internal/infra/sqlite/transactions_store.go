package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/boddenberg/family-finance-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Transactions
// ============================================================

const transactionColumns = `
	t.id, t.family_id, t.user_id, COALESCE(u.name, ''), t.amount, t.description,
	t.date, t.type, t.status, t.source,
	t.category_id, c.name, c.type, c.icon, c.color,
	t.account_id, t.billing_month, t.recurring, t.recurring_interval,
	t.is_installment, t.installment_group_id, t.installment_number, t.total_installments,
	t.created_at`

const transactionFrom = `
	FROM transactions t
	LEFT JOIN users u ON u.id = t.user_id
	LEFT JOIN categories c ON c.id = t.category_id`

const insertTransaction = `
	INSERT INTO transactions (
		id, family_id, user_id, amount, description, date, type, status, source,
		category_id, account_id, billing_month, recurring, recurring_interval,
		is_installment, installment_group_id, installment_number, total_installments, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func scanTransaction(row scanner) (domain.Transaction, error) {
	var (
		t                                          domain.Transaction
		date, createdAt                            string
		catID, catName, catType, catIcon, catColor sql.NullString
		accountID, billingMonth, interval, groupID sql.NullString
		recurring, installment                     int
	)
	err := row.Scan(
		&t.ID, &t.FamilyID, &t.UserID, &t.UserName, &t.Amount, &t.Description,
		&date, &t.Type, &t.Status, &t.Source,
		&catID, &catName, &catType, &catIcon, &catColor,
		&accountID, &billingMonth, &recurring, &interval,
		&installment, &groupID, &t.InstallmentNumber, &t.TotalInstallments,
		&createdAt,
	)
	if err != nil {
		return t, err
	}

	t.Date = parseDate(date)
	t.CreatedAt = parseTimestamp(createdAt)
	t.CategoryID = stringPtr(catID)
	if catID.Valid && catName.Valid {
		t.Category = &domain.Category{
			ID:       catID.String,
			FamilyID: t.FamilyID,
			Name:     catName.String,
			Type:     domain.TransactionType(catType.String),
			Icon:     catIcon.String,
			Color:    catColor.String,
		}
	}
	t.AccountID = stringPtr(accountID)
	t.BillingMonth = monthPtr(billingMonth)
	t.Recurring = recurring == 1
	t.RecurringInterval = stringPtr(interval)
	t.IsInstallment = installment == 1
	t.InstallmentGroupID = stringPtr(groupID)
	return t, nil
}

// whereTransactions renders the filter as a WHERE clause over alias t.
func whereTransactions(familyID string, f domain.TransactionFilter) (string, []any) {
	clauses := []string{"t.family_id = ?"}
	args := []any{familyID}

	add := func(clause string, arg any) {
		clauses = append(clauses, clause)
		args = append(args, arg)
	}

	if f.Type != "" {
		add("t.type = ?", string(f.Type))
	}
	if f.Status != "" {
		add("t.status = ?", string(f.Status))
	}
	if f.CategoryID != "" {
		add("t.category_id = ?", f.CategoryID)
	}
	if f.AccountID != "" {
		add("t.account_id = ?", f.AccountID)
	}
	if f.UserID != "" {
		add("t.user_id = ?", f.UserID)
	}
	if f.InstallmentGroupID != "" {
		add("t.installment_group_id = ?", f.InstallmentGroupID)
	}
	if f.InstallmentsOnly {
		clauses = append(clauses, "t.is_installment = 1")
	}
	if !f.From.IsZero() {
		add("t.date >= ?", formatDate(f.From))
	}
	if !f.To.IsZero() {
		add("t.date < ?", formatDate(f.To))
	}
	if f.BillingMonth != nil {
		add("t.billing_month = ?", formatDate(*f.BillingMonth))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func insertTransactionRow(ctx context.Context, q querier, t *domain.Transaction) error {
	ensureID(&t.ID)
	ensureCreated(&t.CreatedAt)
	if t.Status == "" {
		t.Status = domain.StatusConfirmed
	}
	if t.Source == "" {
		t.Source = domain.SourceManual
	}
	_, err := q.ExecContext(ctx, insertTransaction,
		t.ID, t.FamilyID, t.UserID, t.Amount.Cents(), t.Description, formatDate(t.Date),
		string(t.Type), string(t.Status), string(t.Source),
		nullString(t.CategoryID), nullString(t.AccountID), nullMonth(t.BillingMonth),
		boolInt(t.Recurring), nullString(t.RecurringInterval),
		boolInt(t.IsInstallment), nullString(t.InstallmentGroupID), t.InstallmentNumber, t.TotalInstallments,
		formatTimestamp(t.CreatedAt),
	)
	return err
}

// CreateTransactions inserts every row in one database transaction.
func (s *Store) CreateTransactions(ctx context.Context, txs []domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "SQLite.CreateTransactions")
	defer span.End()
	span.SetAttributes(attribute.Int("transactions.count", len(txs)))

	if len(txs) == 0 {
		return nil
	}

	err := s.inTx(ctx, "create_transactions", func(tx *sql.Tx) error {
		for i := range txs {
			if err := insertTransactionRow(ctx, tx, &txs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("sqlite: transactions created",
		zap.String("family_id", txs[0].FamilyID),
		zap.Int("count", len(txs)),
	)
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, familyID, id string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetTransaction")
	defer span.End()

	var t domain.Transaction
	err := s.read(ctx, "get_transaction", func() error {
		row := s.db.QueryRowContext(ctx,
			"SELECT"+transactionColumns+transactionFrom+" WHERE t.family_id = ? AND t.id = ?",
			familyID, id)
		var err error
		t, err = scanTransaction(row)
		return notFound(err, "transaction", id)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTransactions orders installment groups by number, everything else by
// date descending.
func (s *Store) ListTransactions(ctx context.Context, familyID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListTransactions")
	defer span.End()

	where, args := whereTransactions(familyID, f)
	query := "SELECT" + transactionColumns + transactionFrom + where
	if f.InstallmentGroupID != "" {
		query += " ORDER BY t.installment_number ASC"
	} else {
		query += " ORDER BY t.date DESC, t.created_at DESC"
	}
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	var out []domain.Transaction
	err := s.read(ctx, "list_transactions", func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			t, err := scanTransaction(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Transaction{}
	}
	return out, nil
}

func (s *Store) CountTransactions(ctx context.Context, familyID string, f domain.TransactionFilter) (int, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CountTransactions")
	defer span.End()

	where, args := whereTransactions(familyID, f)
	var n int
	err := s.read(ctx, "count_transactions", func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions t"+where, args...).Scan(&n)
	})
	return n, err
}

func (s *Store) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateTransaction")
	defer span.End()

	return s.write(ctx, "update_transaction", func() error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE transactions SET
				amount = ?, description = ?, date = ?, type = ?, status = ?,
				category_id = ?, account_id = ?, billing_month = ?,
				recurring = ?, recurring_interval = ?
			WHERE family_id = ? AND id = ?`,
			t.Amount.Cents(), t.Description, formatDate(t.Date), string(t.Type), string(t.Status),
			nullString(t.CategoryID), nullString(t.AccountID), nullMonth(t.BillingMonth),
			boolInt(t.Recurring), nullString(t.RecurringInterval),
			t.FamilyID, t.ID,
		)
		if err != nil {
			return err
		}
		return requireAffected(res, "transaction", t.ID)
	})
}

// PatchInstallmentGroup applies the patch to every installment of the group.
// A patched description is the base text, without the installment suffix.
func (s *Store) PatchInstallmentGroup(ctx context.Context, familyID, groupID string, patch domain.InstallmentPatch) (int64, error) {
	ctx, span := tracer.Start(ctx, "SQLite.PatchInstallmentGroup")
	defer span.End()

	if patch.Empty() {
		return 0, nil
	}

	var (
		sets []string
		args []any
	)
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, patch.Amount.Cents())
	}
	if patch.Description != nil {
		// Each installment keeps its " (i/n)" suffix.
		sets = append(sets, "description = ? || ' (' || installment_number || '/' || total_installments || ')'")
		args = append(args, *patch.Description)
	}
	if patch.ClearCategory {
		sets = append(sets, "category_id = NULL")
	} else if patch.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}
	args = append(args, familyID, groupID)

	var n int64
	err := s.write(ctx, "patch_installment_group", func() error {
		res, err := s.db.ExecContext(ctx,
			"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE family_id = ? AND installment_group_id = ?",
			args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// CancelInstallmentGroup cancels installments numbered fromNumber and later.
func (s *Store) CancelInstallmentGroup(ctx context.Context, familyID, groupID string, fromNumber int) (int64, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CancelInstallmentGroup")
	defer span.End()
	span.SetAttributes(attribute.String("installment.group_id", groupID))

	var n int64
	err := s.write(ctx, "cancel_installment_group", func() error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE transactions SET status = ?
			WHERE family_id = ? AND installment_group_id = ? AND installment_number >= ?`,
			string(domain.StatusCancelled), familyID, groupID, fromNumber)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("sqlite: installments cancelled",
		zap.String("group_id", groupID),
		zap.Int("from", fromNumber),
		zap.Int64("rows", n),
	)
	return n, nil
}

// ConfirmTransactions moves the given PENDING rows to CONFIRMED.
func (s *Store) ConfirmTransactions(ctx context.Context, familyID string, ids []string) (int64, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ConfirmTransactions")
	defer span.End()

	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := []any{string(domain.StatusConfirmed), familyID, string(domain.StatusPending)}
	for _, id := range ids {
		args = append(args, id)
	}

	var n int64
	err := s.write(ctx, "confirm_transactions", func() error {
		res, err := s.db.ExecContext(ctx,
			"UPDATE transactions SET status = ? WHERE family_id = ? AND status = ? AND id IN ("+placeholders+")",
			args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

func (s *Store) DeleteTransaction(ctx context.Context, familyID, id string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteTransaction")
	defer span.End()

	return s.write(ctx, "delete_transaction", func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE family_id = ? AND id = ?", familyID, id)
		if err != nil {
			return err
		}
		return requireAffected(res, "transaction", id)
	})
}
