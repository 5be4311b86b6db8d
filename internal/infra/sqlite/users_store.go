package sqlite

import (
	"context"
	"database/sql"

	"github.com/boddenberg/family-finance-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Families and members
// ============================================================

const userColumns = `id, family_id, name, email, role, password_hash, points, streak, COALESCE(last_login_date, ''), created_at`

const emailInUse = "Email já está em uso"

func scanUser(row scanner) (domain.User, error) {
	var (
		u         domain.User
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.FamilyID, &u.Name, &u.Email, &u.Role, &u.PasswordHash,
		&u.Points, &u.Streak, &u.LastLoginDate, &createdAt); err != nil {
		return u, err
	}
	u.CreatedAt = parseTimestamp(createdAt)
	return u, nil
}

func insertUserRow(ctx context.Context, q querier, u *domain.User) error {
	ensureID(&u.ID)
	ensureCreated(&u.CreatedAt)
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, family_id, name, email, role, password_hash, points, streak, last_login_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.FamilyID, u.Name, u.Email, string(u.Role), u.PasswordHash,
		u.Points, u.Streak, nullString(&u.LastLoginDate), formatTimestamp(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return &domain.ErrConflict{Message: emailInUse}
	}
	return err
}

// CreateFamily writes the family, its admin and its starter categories atomically.
func (s *Store) CreateFamily(ctx context.Context, family *domain.Family, admin *domain.User, categories []domain.Category) error {
	ctx, span := tracer.Start(ctx, "SQLite.CreateFamily")
	defer span.End()

	ensureID(&family.ID)
	ensureCreated(&family.CreatedAt)
	admin.FamilyID = family.ID

	err := s.inTx(ctx, "create_family", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO families (id, name, created_at) VALUES (?, ?, ?)",
			family.ID, family.Name, formatTimestamp(family.CreatedAt)); err != nil {
			return err
		}
		if err := insertUserRow(ctx, tx, admin); err != nil {
			return err
		}
		for i := range categories {
			categories[i].FamilyID = family.ID
			if err := insertCategoryRow(ctx, tx, &categories[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("sqlite: family created",
		zap.String("family_id", family.ID),
		zap.String("admin_id", admin.ID),
		zap.Int("categories", len(categories)),
	)
	return nil
}

// GetFamily returns the family with its members.
func (s *Store) GetFamily(ctx context.Context, id string) (*domain.Family, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetFamily")
	defer span.End()

	var f domain.Family
	err := s.read(ctx, "get_family", func() error {
		var createdAt string
		err := s.db.QueryRowContext(ctx, "SELECT id, name, created_at FROM families WHERE id = ?", id).
			Scan(&f.ID, &f.Name, &createdAt)
		if err != nil {
			return notFound(err, "family", id)
		}
		f.CreatedAt = parseTimestamp(createdAt)
		return nil
	})
	if err != nil {
		return nil, err
	}

	users, err := s.ListUsers(ctx, id)
	if err != nil {
		return nil, err
	}
	f.Users = users
	return &f, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetUser")
	defer span.End()

	var u domain.User
	err := s.read(ctx, "get_user", func() error {
		var err error
		u, err = scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
		return notFound(err, "user", id)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetUserByEmail")
	defer span.End()

	var u domain.User
	err := s.read(ctx, "get_user_by_email", func() error {
		var err error
		u, err = scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
		return notFound(err, "user", email)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, familyID string) ([]domain.User, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListUsers")
	defer span.End()

	out := []domain.User{}
	err := s.read(ctx, "list_users", func() error {
		rows, err := s.db.QueryContext(ctx,
			"SELECT "+userColumns+" FROM users WHERE family_id = ? ORDER BY created_at ASC", familyID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	ctx, span := tracer.Start(ctx, "SQLite.CreateUser")
	defer span.End()

	return s.write(ctx, "create_user", func() error {
		return insertUserRow(ctx, s.db, u)
	})
}

// UpdateUser rewrites the member's profile fields. Points and streak are
// owned by the gamification calls.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateUser")
	defer span.End()

	return s.write(ctx, "update_user", func() error {
		res, err := s.db.ExecContext(ctx,
			"UPDATE users SET name = ?, email = ?, role = ?, password_hash = ? WHERE family_id = ? AND id = ?",
			u.Name, u.Email, string(u.Role), u.PasswordHash, u.FamilyID, u.ID)
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: emailInUse}
		}
		if err != nil {
			return err
		}
		return requireAffected(res, "user", u.ID)
	})
}

// DeleteUser removes the member with their transactions, medals and chat history.
func (s *Store) DeleteUser(ctx context.Context, familyID, id string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteUser")
	defer span.End()

	return s.inTx(ctx, "delete_user", func(tx *sql.Tx) error {
		for _, q := range []string{
			"DELETE FROM transactions WHERE user_id = ?",
			"DELETE FROM achievements WHERE user_id = ?",
			"DELETE FROM chat_messages WHERE user_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE family_id = ? AND id = ?", familyID, id)
		if err != nil {
			return err
		}
		return requireAffected(res, "user", id)
	})
}
