package sqlite

import (
	"context"
	"database/sql"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// ============================================================
// Budgets
// ============================================================

const budgetSelect = `
	SELECT b.id, b.family_id, b.category_id, b.month, b.amount, b.created_at,
		c.name, c.type, c.icon, c.color
	FROM budgets b
	LEFT JOIN categories c ON c.id = b.category_id`

func scanBudget(row scanner) (domain.Budget, error) {
	var (
		b                                   domain.Budget
		createdAt                           string
		catName, catType, catIcon, catColor sql.NullString
	)
	if err := row.Scan(&b.ID, &b.FamilyID, &b.CategoryID, &b.Month, &b.Limit, &createdAt,
		&catName, &catType, &catIcon, &catColor); err != nil {
		return b, err
	}
	b.CreatedAt = parseTimestamp(createdAt)
	if catName.Valid {
		b.Category = &domain.Category{
			ID:       b.CategoryID,
			FamilyID: b.FamilyID,
			Name:     catName.String,
			Type:     domain.TransactionType(catType.String),
			Icon:     catIcon.String,
			Color:    catColor.String,
		}
	}
	return b, nil
}

const budgetConflict = "Já existe um orçamento para essa categoria neste mês"

func (s *Store) CreateBudget(ctx context.Context, b *domain.Budget) error {
	ctx, span := tracer.Start(ctx, "SQLite.CreateBudget")
	defer span.End()

	ensureID(&b.ID)
	ensureCreated(&b.CreatedAt)

	return s.write(ctx, "create_budget", func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO budgets (id, family_id, category_id, month, amount, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			b.ID, b.FamilyID, b.CategoryID, b.Month, b.Limit.Cents(), formatTimestamp(b.CreatedAt),
		)
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: budgetConflict}
		}
		return err
	})
}

func (s *Store) GetBudget(ctx context.Context, familyID, id string) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetBudget")
	defer span.End()

	var b domain.Budget
	err := s.read(ctx, "get_budget", func() error {
		row := s.db.QueryRowContext(ctx, budgetSelect+" WHERE b.family_id = ? AND b.id = ?", familyID, id)
		var err error
		b, err = scanBudget(row)
		return notFound(err, "budget", id)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBudgets returns the family's budgets; an empty month lists all months.
func (s *Store) ListBudgets(ctx context.Context, familyID, month string) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListBudgets")
	defer span.End()

	query := budgetSelect + " WHERE b.family_id = ?"
	args := []any{familyID}
	if month != "" {
		query += " AND b.month = ?"
		args = append(args, month)
	}
	query += " ORDER BY b.month DESC, c.name ASC"

	out := []domain.Budget{}
	err := s.read(ctx, "list_budgets", func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			b, err := scanBudget(rows)
			if err != nil {
				return err
			}
			out = append(out, b)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) UpdateBudget(ctx context.Context, b *domain.Budget) error {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateBudget")
	defer span.End()

	return s.write(ctx, "update_budget", func() error {
		res, err := s.db.ExecContext(ctx,
			"UPDATE budgets SET category_id = ?, month = ?, amount = ? WHERE family_id = ? AND id = ?",
			b.CategoryID, b.Month, b.Limit.Cents(), b.FamilyID, b.ID,
		)
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: budgetConflict}
		}
		if err != nil {
			return err
		}
		return requireAffected(res, "budget", b.ID)
	})
}

func (s *Store) DeleteBudget(ctx context.Context, familyID, id string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteBudget")
	defer span.End()

	return s.write(ctx, "delete_budget", func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM budgets WHERE family_id = ? AND id = ?", familyID, id)
		if err != nil {
			return err
		}
		return requireAffected(res, "budget", id)
	})
}

func (s *Store) ListBudgetFamilies(ctx context.Context, month string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListBudgetFamilies")
	defer span.End()

	out := []string{}
	err := s.read(ctx, "list_budget_families", func() error {
		rows, err := s.db.QueryContext(ctx,
			"SELECT DISTINCT family_id FROM budgets WHERE month = ? ORDER BY family_id", month)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			out = append(out, id)
		}
		return rows.Err()
	})
	return out, err
}
