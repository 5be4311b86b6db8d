package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/emailparser"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var webhookTracer = otel.Tracer("service/webhook")

// Ledger is the part of FinanceService the webhook writes through.
type Ledger interface {
	CreateTransaction(ctx context.Context, session domain.Session, req *domain.CreateTransactionRequest) (*domain.CreateTransactionResult, error)
	ResolveCategory(ctx context.Context, familyID, name string, t domain.TransactionType) (*domain.Category, error)
	CreateCategoryNamed(ctx context.Context, familyID, name string, t domain.TransactionType) (*domain.Category, error)
}

// UserLookup resolves the member a forwarded e-mail belongs to.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// WebhookService turns forwarded bank e-mails into confirmed expenses.
type WebhookService struct {
	ledger Ledger
	users  UserLookup
	parser *emailparser.Parser
	secret string
	logger *zap.Logger
}

// NewWebhookService creates the e-mail ingestion service. An empty secret
// rejects every call.
func NewWebhookService(ledger Ledger, users UserLookup, parser *emailparser.Parser, secret string, logger *zap.Logger) *WebhookService {
	if parser == nil {
		parser = emailparser.New()
	}
	return &WebhookService{ledger: ledger, users: users, parser: parser, secret: secret, logger: logger}
}

// Authorize checks the shared secret sent in x-webhook-secret.
func (s *WebhookService) Authorize(secret string) error {
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		return &domain.ErrUnauthorized{Message: "Unauthorized"}
	}
	return nil
}

// Ingest parses the e-mail and records the purchase for the user's family.
func (s *WebhookService) Ingest(ctx context.Context, req *domain.WebhookRequest) (*domain.WebhookResult, error) {
	ctx, span := webhookTracer.Start(ctx, "WebhookService.Ingest")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	if req.Content == "" || req.UserID == "" {
		return nil, &domain.ErrValidation{Field: "body", Message: "Missing content or userId"}
	}

	user, err := s.users.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	parsed, ok := s.parser.Best(req.Content)
	if !ok {
		return nil, &domain.ErrValidation{Field: "content", Message: "Nenhuma transação reconhecida no e-mail"}
	}

	categoryName := emailparser.FallbackCategory
	if sug, ok := emailparser.SuggestCategory(parsed.Establishment); ok {
		categoryName = sug.Category
	}
	category, err := s.category(ctx, user.FamilyID, categoryName)
	if err != nil {
		return nil, err
	}

	session := domain.Session{
		UserID:   user.ID,
		FamilyID: user.FamilyID,
		Role:     user.Role,
		Name:     user.Name,
		Email:    user.Email,
	}
	result, err := s.ledger.CreateTransaction(ctx, session, &domain.CreateTransactionRequest{
		Amount:      parsed.Amount,
		Description: parsed.Establishment,
		Date:        parsed.Date,
		Type:        domain.TransactionExpense,
		Status:      domain.StatusConfirmed,
		CategoryID:  &category.ID,
		Source:      domain.SourceEmail,
	})
	if err != nil {
		return nil, err
	}
	tx := result.Transaction

	s.logger.Info("transaction ingested from email",
		zap.String("user_id", user.ID),
		zap.String("transaction_id", tx.ID),
		zap.String("pattern", parsed.Pattern),
		zap.String("amount", tx.Amount.String()),
	)

	return &domain.WebhookResult{
		Success: true,
		Message: fmt.Sprintf("✅ **Transação Registrada!**\n\n📝 %s\n💰 R$ %s\n🏷️ %s\n📅 %s",
			tx.Description, tx.Amount, category.Name, tx.Date.Format("02/01/2006")),
		Extracted: domain.WebhookExtraction{
			Amount:        parsed.Amount,
			Establishment: parsed.Establishment,
			Date:          parsed.Date,
			Category:      category.Name,
			Confidence:    parsed.Confidence,
		},
		Transaction: tx,
	}, nil
}

// category resolves the suggested name, creating the category when the
// family has none matching.
func (s *WebhookService) category(ctx context.Context, familyID, name string) (*domain.Category, error) {
	c, err := s.ledger.ResolveCategory(ctx, familyID, name, domain.TransactionExpense)
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return s.ledger.CreateCategoryNamed(ctx, familyID, name, domain.TransactionExpense)
	}
	return c, err
}
