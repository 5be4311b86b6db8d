package sqlite

import (
	"context"
	"database/sql"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// ============================================================
// Accounts
// ============================================================

const accountColumns = `id, family_id, name, type, balance, credit_limit, closing_day, due_day, color, icon, created_at`

func scanAccount(row scanner) (domain.Account, error) {
	var (
		a               domain.Account
		limit           sql.NullInt64
		closing, dueDay sql.NullInt64
		createdAt       string
	)
	if err := row.Scan(&a.ID, &a.FamilyID, &a.Name, &a.Type, &a.Balance, &limit, &closing, &dueDay, &a.Color, &a.Icon, &createdAt); err != nil {
		return a, err
	}
	a.Limit = moneyPtr(limit)
	a.ClosingDay = intPtr(closing)
	a.DueDay = intPtr(dueDay)
	a.CreatedAt = parseTimestamp(createdAt)
	return a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *domain.Account) error {
	ctx, span := tracer.Start(ctx, "SQLite.CreateAccount")
	defer span.End()

	ensureID(&a.ID)
	ensureCreated(&a.CreatedAt)

	return s.write(ctx, "create_account", func() error {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO accounts ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			a.ID, a.FamilyID, a.Name, string(a.Type), a.Balance.Cents(),
			nullMoney(a.Limit), nullInt(a.ClosingDay), nullInt(a.DueDay),
			a.Color, a.Icon, formatTimestamp(a.CreatedAt),
		)
		return err
	})
}

func (s *Store) GetAccount(ctx context.Context, familyID, id string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetAccount")
	defer span.End()

	var a domain.Account
	err := s.read(ctx, "get_account", func() error {
		row := s.db.QueryRowContext(ctx,
			"SELECT "+accountColumns+" FROM accounts WHERE family_id = ? AND id = ?", familyID, id)
		var err error
		a, err = scanAccount(row)
		return notFound(err, "account", id)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListAccounts(ctx context.Context, familyID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListAccounts")
	defer span.End()

	out := []domain.Account{}
	err := s.read(ctx, "list_accounts", func() error {
		rows, err := s.db.QueryContext(ctx,
			"SELECT "+accountColumns+" FROM accounts WHERE family_id = ? ORDER BY created_at ASC", familyID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			a, err := scanAccount(rows)
			if err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) UpdateAccount(ctx context.Context, a *domain.Account) error {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateAccount")
	defer span.End()

	return s.write(ctx, "update_account", func() error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE accounts SET name = ?, type = ?, balance = ?, credit_limit = ?,
				closing_day = ?, due_day = ?, color = ?, icon = ?
			WHERE family_id = ? AND id = ?`,
			a.Name, string(a.Type), a.Balance.Cents(), nullMoney(a.Limit),
			nullInt(a.ClosingDay), nullInt(a.DueDay), a.Color, a.Icon,
			a.FamilyID, a.ID,
		)
		if err != nil {
			return err
		}
		return requireAffected(res, "account", a.ID)
	})
}

// DeleteAccount detaches transactions first so their history survives.
func (s *Store) DeleteAccount(ctx context.Context, familyID, id string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteAccount")
	defer span.End()

	return s.inTx(ctx, "delete_account", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE transactions SET account_id = NULL WHERE family_id = ? AND account_id = ?", familyID, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM accounts WHERE family_id = ? AND id = ?", familyID, id)
		if err != nil {
			return err
		}
		return requireAffected(res, "account", id)
	})
}
