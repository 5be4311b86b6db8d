package sqlite

import (
	"context"

	chatdomain "github.com/boddenberg/family-finance-go/internal/chat/domain"
)

// ============================================================
// Chat history
// ============================================================

func (s *Store) SaveChatMessage(ctx context.Context, m *chatdomain.Message) error {
	ctx, span := tracer.Start(ctx, "SQLite.SaveChatMessage")
	defer span.End()

	ensureID(&m.ID)
	ensureCreated(&m.CreatedAt)

	return s.write(ctx, "save_chat_message", func() error {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO chat_messages (id, user_id, content, response, created_at) VALUES (?, ?, ?, ?, ?)",
			m.ID, m.UserID, m.Content, m.Response, formatTimestamp(m.CreatedAt),
		)
		return err
	})
}

// ListChatMessages returns the newest limit messages, oldest first.
func (s *Store) ListChatMessages(ctx context.Context, userID string, limit int) ([]chatdomain.Message, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListChatMessages")
	defer span.End()

	out := []chatdomain.Message{}
	err := s.read(ctx, "list_chat_messages", func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT m.id, m.user_id, u.family_id, m.content, m.response, m.created_at
			FROM (
				SELECT * FROM chat_messages WHERE user_id = ?
				ORDER BY created_at DESC LIMIT ?
			) m
			JOIN users u ON u.id = m.user_id
			ORDER BY m.created_at ASC`, userID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var (
				m         chatdomain.Message
				createdAt string
			)
			if err := rows.Scan(&m.ID, &m.UserID, &m.FamilyID, &m.Content, &m.Response, &createdAt); err != nil {
				return err
			}
			m.CreatedAt = parseTimestamp(createdAt)
			out = append(out, m)
		}
		return rows.Err()
	})
	return out, err
}
