// Package port: chat_port.go define as interfaces (ports) que o ChatService usa.
//
// Seguindo a arquitetura hexagonal, o ChatService depende dessas interfaces
// e NÃO do store concreto. Isso facilita testes e troca de implementação.
package port

import (
	"context"

	chatdomain "github.com/boddenberg/family-finance-go/internal/chat/domain"
	"github.com/boddenberg/family-finance-go/internal/domain"
)

// TransactionReader é o pedaço do store de finanças que o chat precisa:
// só leitura, sempre escopado pela família da sessão.
type TransactionReader interface {
	ListTransactions(ctx context.Context, familyID string, f domain.TransactionFilter) ([]domain.Transaction, error)
	CountTransactions(ctx context.Context, familyID string, f domain.TransactionFilter) (int, error)
}

// MessageStore persiste o histórico do chat.
type MessageStore interface {
	SaveChatMessage(ctx context.Context, m *chatdomain.Message) error
	// ListChatMessages devolve as últimas limit mensagens do usuário,
	// em ordem cronológica (mais antiga primeiro).
	ListChatMessages(ctx context.Context, userID string, limit int) ([]chatdomain.Message, error)
}
