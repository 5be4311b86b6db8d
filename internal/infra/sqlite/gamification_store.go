package sqlite

import (
	"context"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// ============================================================
// Gamification
// ============================================================

func (s *Store) AddPoints(ctx context.Context, userID string, points int) error {
	ctx, span := tracer.Start(ctx, "SQLite.AddPoints")
	defer span.End()

	return s.write(ctx, "add_points", func() error {
		res, err := s.db.ExecContext(ctx, "UPDATE users SET points = points + ? WHERE id = ?", points, userID)
		if err != nil {
			return err
		}
		return requireAffected(res, "user", userID)
	})
}

func (s *Store) SetStreak(ctx context.Context, userID string, streak int, lastLoginDate string) error {
	ctx, span := tracer.Start(ctx, "SQLite.SetStreak")
	defer span.End()

	return s.write(ctx, "set_streak", func() error {
		res, err := s.db.ExecContext(ctx,
			"UPDATE users SET streak = ?, last_login_date = ? WHERE id = ?", streak, lastLoginDate, userID)
		if err != nil {
			return err
		}
		return requireAffected(res, "user", userID)
	})
}

func (s *Store) CountUserTransactions(ctx context.Context, userID string) (int, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CountUserTransactions")
	defer span.End()

	var n int
	err := s.read(ctx, "count_user_transactions", func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE user_id = ?", userID).Scan(&n)
	})
	return n, err
}

func (s *Store) ListAchievements(ctx context.Context, userID string) ([]domain.Achievement, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListAchievements")
	defer span.End()

	out := []domain.Achievement{}
	err := s.read(ctx, "list_achievements", func() error {
		rows, err := s.db.QueryContext(ctx,
			"SELECT id, user_id, type, earned_at FROM achievements WHERE user_id = ? ORDER BY earned_at ASC", userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			a, err := scanAchievement(rows)
			if err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	return out, err
}

func scanAchievement(row scanner) (domain.Achievement, error) {
	var (
		a        domain.Achievement
		earnedAt string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Type, &earnedAt); err != nil {
		return a, err
	}
	a.EarnedAt = parseTimestamp(earnedAt)
	if m, ok := domain.MedalByType(a.Type); ok {
		a.Name = m.Name
		a.Icon = m.Icon
	}
	return a, nil
}

// CreateAchievement returns ErrConflict when the user already holds the medal.
func (s *Store) CreateAchievement(ctx context.Context, a *domain.Achievement) error {
	ctx, span := tracer.Start(ctx, "SQLite.CreateAchievement")
	defer span.End()

	ensureID(&a.ID)
	ensureCreated(&a.EarnedAt)

	return s.write(ctx, "create_achievement", func() error {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO achievements (id, user_id, type, earned_at) VALUES (?, ?, ?, ?)",
			a.ID, a.UserID, string(a.Type), formatTimestamp(a.EarnedAt))
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "medalha já conquistada"}
		}
		return err
	})
}

// Ranking lists the family's members by points, highest first.
func (s *Store) Ranking(ctx context.Context, familyID string) ([]domain.RankingEntry, error) {
	ctx, span := tracer.Start(ctx, "SQLite.Ranking")
	defer span.End()

	var out []domain.RankingEntry
	err := s.read(ctx, "ranking", func() error {
		out = []domain.RankingEntry{}
		index := map[string]int{}

		rows, err := s.db.QueryContext(ctx,
			"SELECT id, name, points, streak FROM users WHERE family_id = ? ORDER BY points DESC, name ASC", familyID)
		if err != nil {
			return err
		}
		for rows.Next() {
			e := domain.RankingEntry{Achievements: []domain.Achievement{}}
			if err := rows.Scan(&e.ID, &e.Name, &e.Points, &e.Streak); err != nil {
				rows.Close()
				return err
			}
			index[e.ID] = len(out)
			out = append(out, e)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		achRows, err := s.db.QueryContext(ctx, `
			SELECT a.id, a.user_id, a.type, a.earned_at
			FROM achievements a JOIN users u ON u.id = a.user_id
			WHERE u.family_id = ? ORDER BY a.earned_at ASC`, familyID)
		if err != nil {
			return err
		}
		defer achRows.Close()
		for achRows.Next() {
			a, err := scanAchievement(achRows)
			if err != nil {
				return err
			}
			if i, ok := index[a.UserID]; ok {
				out[i].Achievements = append(out[i].Achievements, a)
			}
		}
		return achRows.Err()
	})
	return out, err
}
