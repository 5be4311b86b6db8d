package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// ============================================================
// Categories
// ============================================================

const categoryColumns = `id, family_id, name, type, icon, color, rules, created_at`

func scanCategory(row scanner) (domain.Category, error) {
	var (
		c                domain.Category
		rules, createdAt string
	)
	if err := row.Scan(&c.ID, &c.FamilyID, &c.Name, &c.Type, &c.Icon, &c.Color, &rules, &createdAt); err != nil {
		return c, err
	}
	if err := json.Unmarshal([]byte(rules), &c.Rules); err != nil || c.Rules == nil {
		c.Rules = []string{}
	}
	c.CreatedAt = parseTimestamp(createdAt)
	return c, nil
}

func encodeRules(rules []string) string {
	if rules == nil {
		rules = []string{}
	}
	b, _ := json.Marshal(rules)
	return string(b)
}

func insertCategoryRow(ctx context.Context, q querier, c *domain.Category) error {
	ensureID(&c.ID)
	ensureCreated(&c.CreatedAt)
	_, err := q.ExecContext(ctx,
		"INSERT INTO categories ("+categoryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.FamilyID, c.Name, string(c.Type), c.Icon, c.Color, encodeRules(c.Rules), formatTimestamp(c.CreatedAt),
	)
	if isUniqueViolation(err) {
		return &domain.ErrConflict{Message: "Já existe uma categoria com esse nome para esse tipo."}
	}
	return err
}

func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) error {
	ctx, span := tracer.Start(ctx, "SQLite.CreateCategory")
	defer span.End()

	return s.write(ctx, "create_category", func() error {
		return insertCategoryRow(ctx, s.db, c)
	})
}

func (s *Store) GetCategory(ctx context.Context, familyID, id string) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetCategory")
	defer span.End()

	var c domain.Category
	err := s.read(ctx, "get_category", func() error {
		row := s.db.QueryRowContext(ctx,
			"SELECT "+categoryColumns+" FROM categories WHERE family_id = ? AND id = ?", familyID, id)
		var err error
		c, err = scanCategory(row)
		return notFound(err, "category", id)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context, familyID string) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListCategories")
	defer span.End()

	out := []domain.Category{}
	err := s.read(ctx, "list_categories", func() error {
		rows, err := s.db.QueryContext(ctx,
			"SELECT "+categoryColumns+" FROM categories WHERE family_id = ? ORDER BY name ASC", familyID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			c, err := scanCategory(rows)
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) UpdateCategory(ctx context.Context, c *domain.Category) error {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateCategory")
	defer span.End()

	return s.write(ctx, "update_category", func() error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE categories SET name = ?, type = ?, icon = ?, color = ?, rules = ?
			WHERE family_id = ? AND id = ?`,
			c.Name, string(c.Type), c.Icon, c.Color, encodeRules(c.Rules), c.FamilyID, c.ID,
		)
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "Já existe uma categoria com esse nome para esse tipo."}
		}
		if err != nil {
			return err
		}
		return requireAffected(res, "category", c.ID)
	})
}

// DeleteCategory keeps the category's transactions, uncategorised.
func (s *Store) DeleteCategory(ctx context.Context, familyID, id string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteCategory")
	defer span.End()

	return s.inTx(ctx, "delete_category", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE transactions SET category_id = NULL WHERE family_id = ? AND category_id = ?", familyID, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM budgets WHERE family_id = ? AND category_id = ?", familyID, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE family_id = ? AND id = ?", familyID, id)
		if err != nil {
			return err
		}
		return requireAffected(res, "category", id)
	})
}
