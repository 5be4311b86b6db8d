// Package service: chat_service.go implementa o ChatService.
//
// ============================================================
// ARQUITETURA: Strategy Pattern por regras
// ============================================================
//
// O ChatService é o orquestrador das rotas GET e POST /api/chat.
// Ele normaliza a pergunta do usuário e testa as strategies EM ORDEM:
// a primeira que casa responde. Não existe chamada a modelo de IA.
//
// Fluxo completo:
//  1. Handler recebe POST /api/chat com body {"content": "..."}
//  2. ChatService.SendMessage() é chamado com a sessão
//  3. A pergunta é normalizada (trim, minúsculas, sem "?!.")
//  4. As strategies de finanças são testadas (gastos, maior despesa, ...)
//  5. Depois vêm as de conversa (saudação, ajuda)
//  6. Se nada casa, devolve a resposta padrão
//  7. Pergunta + resposta vão pro histórico e voltam pro handler
//
// Strategies disponíveis:
//   - categorySpendStrategy, biggestExpenseStrategy, balanceStrategy,
//     countStrategy, summaryStrategy (chat_strategy_finance.go)
//   - greetingStrategy, helpStrategy (chat_strategy_smalltalk.go)
package service

import (
	"context"
	"strings"
	"time"

	"github.com/boddenberg/family-finance-go/internal/chat/domain"
	"github.com/boddenberg/family-finance-go/internal/chat/port"
	maindomain "github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// chatTracer é o tracer OpenTelemetry para o módulo de chat.
var chatTracer = otel.Tracer("chat/service")

// ============================================================
// ChatStrategy: interface que cada regra implementa
// ============================================================

// ChatStrategy define o contrato de uma regra do chat.
//
// Intent: nome da regra, usado em logs e métricas
// Match:  devolve os grupos capturados, ou nil se a regra não casa
// Handle: monta a resposta consultando as transações da família
type ChatStrategy interface {
	Intent() string
	Match(query string) []string
	Handle(ctx context.Context, chatCtx *domain.ChatContext) (string, error)
}

// ============================================================
// ChatService: orquestrador com strategy routing
// ============================================================

// ChatService é o serviço principal da rota de chat.
type ChatService struct {
	// messages persiste o histórico (pergunta + resposta)
	messages port.MessageStore

	// strategies na ordem em que são testadas.
	// A ordem importa: a primeira que casa ganha.
	strategies []ChatStrategy

	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// Option configura o ChatService.
type Option func(*ChatService)

// WithClock troca o relógio usado para calcular o mês corrente.
func WithClock(now func() time.Time) Option {
	return func(s *ChatService) { s.now = now }
}

// NewChatService cria o ChatService com as strategies padrão.
func NewChatService(
	reader port.TransactionReader,
	messages port.MessageStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *ChatService {
	s := &ChatService{
		messages: messages,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.strategies = DefaultStrategies(reader)
	return s
}

// DefaultStrategies devolve as regras na ordem de avaliação.
func DefaultStrategies(reader port.TransactionReader) []ChatStrategy {
	return []ChatStrategy{
		newCategorySpendStrategy(reader),
		newBiggestExpenseStrategy(reader),
		newBalanceStrategy(reader),
		newCountStrategy(reader),
		newSummaryStrategy(reader),
		greetingStrategy{},
		helpStrategy{},
	}
}

// SendMessage responde a pergunta e grava a troca no histórico.
func (s *ChatService) SendMessage(ctx context.Context, session maindomain.Session, req *domain.ChatRequest) (*domain.Message, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.SendMessage")
	defer span.End()

	if strings.TrimSpace(req.Content) == "" {
		return nil, &maindomain.ErrValidation{Field: "content", Message: "Mensagem obrigatória"}
	}

	intent, answer, err := s.Answer(ctx, session, req.Content)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("chat.intent", intent))

	msg := &domain.Message{
		UserID:   session.UserID,
		FamilyID: session.FamilyID,
		Content:  req.Content,
		Response: answer,
	}
	if err := s.messages.SaveChatMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// History devolve as últimas mensagens do usuário, mais antiga primeiro.
func (s *ChatService) History(ctx context.Context, session maindomain.Session) ([]domain.Message, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.History")
	defer span.End()

	return s.messages.ListChatMessages(ctx, session.UserID, domain.HistoryLimit)
}

// Answer roda as strategies sobre a pergunta, sem gravar nada.
// Devolve o intent que respondeu e o texto da resposta.
func (s *ChatService) Answer(ctx context.Context, session maindomain.Session, content string) (string, string, error) {
	query := Normalize(content)

	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	chatCtx := &domain.ChatContext{
		UserID:     session.UserID,
		FamilyID:   session.FamilyID,
		Query:      query,
		MonthStart: start,
		MonthEnd:   start.AddDate(0, 1, 0),
	}

	for _, strategy := range s.strategies {
		match := strategy.Match(query)
		if match == nil {
			continue
		}
		chatCtx.Intent = strategy.Intent()
		chatCtx.Match = match

		answer, err := strategy.Handle(ctx, chatCtx)
		if err != nil {
			s.logger.Error("chat strategy failed",
				zap.String("family_id", session.FamilyID),
				zap.String("intent", chatCtx.Intent),
				zap.Error(err),
			)
			return "", "", err
		}
		s.observe(session, chatCtx.Intent, query)
		return chatCtx.Intent, answer, nil
	}

	// Nenhuma regra casou → resposta padrão
	s.observe(session, domain.IntentFallback, query)
	return domain.IntentFallback, fallbackAnswer, nil
}

func (s *ChatService) observe(session maindomain.Session, intent, query string) {
	if s.metrics != nil {
		s.metrics.IncrChatIntent(intent)
	}
	s.logger.Info("chat message answered",
		zap.String("user_id", session.UserID),
		zap.String("intent", intent),
		zap.Int("query_length", len(query)),
	)
}

// ============================================================
// Normalize: preparação da pergunta
// ============================================================

var punctuation = strings.NewReplacer("?", "", "!", "", ".", "")

// Normalize tira espaços das pontas, passa pra minúsculas e remove "?!.".
func Normalize(content string) string {
	return punctuation.Replace(strings.ToLower(strings.TrimSpace(content)))
}
