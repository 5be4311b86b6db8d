package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/emailparser"
	"github.com/boddenberg/family-finance-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockLedger struct {
	categories []domain.Category
	created    []domain.Category
	requests   []domain.CreateTransactionRequest
	sessions   []domain.Session
	createErr  error
}

func (m *mockLedger) CreateTransaction(_ context.Context, session domain.Session, req *domain.CreateTransactionRequest) (*domain.CreateTransactionResult, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.requests = append(m.requests, *req)
	m.sessions = append(m.sessions, session)
	date, _ := domain.ParseDate("date", req.Date)
	return &domain.CreateTransactionResult{Transaction: &domain.Transaction{
		ID:          "tx-1",
		FamilyID:    session.FamilyID,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
		Type:        req.Type,
		Status:      req.Status,
		Source:      req.Source,
		CategoryID:  req.CategoryID,
	}}, nil
}

func (m *mockLedger) ResolveCategory(_ context.Context, _, name string, t domain.TransactionType) (*domain.Category, error) {
	for i := range m.categories {
		if m.categories[i].Name == name && m.categories[i].Type == t {
			return &m.categories[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "category", ID: name}
}

func (m *mockLedger) CreateCategoryNamed(_ context.Context, familyID, name string, t domain.TransactionType) (*domain.Category, error) {
	c := domain.Category{ID: "cat-new", FamilyID: familyID, Name: name, Type: t}
	m.created = append(m.created, c)
	return &c, nil
}

type mockUsers struct {
	users map[string]domain.User
}

func (m *mockUsers) GetUser(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}
	return &u, nil
}

func newWebhookService(ledger *mockLedger, secret string) *service.WebhookService {
	users := &mockUsers{users: map[string]domain.User{
		"u1": {ID: "u1", FamilyID: "f1", Name: "Ana", Role: domain.RoleAdmin},
	}}
	parser := emailparser.NewWithClock(func() time.Time { return fixedNow })
	return service.NewWebhookService(ledger, users, parser, secret, zap.NewNop())
}

// --- Tests ---

func TestWebhookAuthorize(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		sent       string
		ok         bool
	}{
		{"matching secret", "s3cret", "s3cret", true},
		{"wrong secret", "s3cret", "guess", false},
		{"missing header", "s3cret", "", false},
		{"unconfigured rejects everything", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newWebhookService(&mockLedger{}, tt.configured).Authorize(tt.sent)
			if tt.ok && err != nil {
				t.Errorf("expected authorized, got %v", err)
			}
			var unauth *domain.ErrUnauthorized
			if !tt.ok && !errors.As(err, &unauth) {
				t.Errorf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestWebhookIngest_KnownCategory(t *testing.T) {
	ledger := &mockLedger{categories: []domain.Category{
		{ID: "cat-food", Name: "Alimentação", Type: domain.TransactionExpense},
	}}
	svc := newWebhookService(ledger, "s3cret")

	result, err := svc.Ingest(context.Background(), &domain.WebhookRequest{
		UserID:  "u1",
		Content: "Compra aprovada de R$ 45,90 em iFood - Restaurante Sabor Caseiro em 12/10/2026.",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !result.Success || result.Extracted.Category != "Alimentação" || result.Extracted.Amount != 4590 {
		t.Errorf("unexpected result %+v", result.Extracted)
	}
	if len(ledger.requests) != 1 {
		t.Fatalf("expected one transaction, got %d", len(ledger.requests))
	}
	req := ledger.requests[0]
	if req.Source != domain.SourceEmail || req.Status != domain.StatusConfirmed || req.Type != domain.TransactionExpense {
		t.Errorf("unexpected request %+v", req)
	}
	if req.CategoryID == nil || *req.CategoryID != "cat-food" || req.Date != "2026-10-12" {
		t.Errorf("unexpected category or date in %+v", req)
	}
	if ledger.sessions[0].FamilyID != "f1" || ledger.sessions[0].UserID != "u1" {
		t.Errorf("expected the e-mail owner's session, got %+v", ledger.sessions[0])
	}
	want := "✅ **Transação Registrada!**\n\n📝 iFood - Restaurante Sabor Caseiro\n💰 R$ 45.90\n🏷️ Alimentação\n📅 12/10/2026"
	if result.Message != want {
		t.Errorf("unexpected message %q", result.Message)
	}
	if len(ledger.created) != 0 {
		t.Errorf("no category should be created, got %+v", ledger.created)
	}
}

func TestWebhookIngest_CreatesFallbackCategory(t *testing.T) {
	ledger := &mockLedger{}
	svc := newWebhookService(ledger, "s3cret")

	result, err := svc.Ingest(context.Background(), &domain.WebhookRequest{
		UserID:  "u1",
		Content: "Compra aprovada de R$ 120,00 em Pet Amigo em 10/10/2026.",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(ledger.created) != 1 || ledger.created[0].Name != emailparser.FallbackCategory {
		t.Fatalf("expected the fallback category to be created, got %+v", ledger.created)
	}
	if result.Extracted.Category != emailparser.FallbackCategory {
		t.Errorf("unexpected category %q", result.Extracted.Category)
	}
	if *ledger.requests[0].CategoryID != "cat-new" {
		t.Errorf("expected the new category to be used, got %s", *ledger.requests[0].CategoryID)
	}
}

func TestWebhookIngest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		req    domain.WebhookRequest
		ledger *mockLedger
		check  func(t *testing.T, err error)
	}{
		{
			name:   "missing content",
			req:    domain.WebhookRequest{UserID: "u1"},
			ledger: &mockLedger{},
			check: func(t *testing.T, err error) {
				var ve *domain.ErrValidation
				if !errors.As(err, &ve) || ve.Message != "Missing content or userId" {
					t.Errorf("expected missing field error, got %v", err)
				}
			},
		},
		{
			name:   "unknown user",
			req:    domain.WebhookRequest{UserID: "ghost", Content: "Compra aprovada de R$ 10,00 em Padaria"},
			ledger: &mockLedger{},
			check: func(t *testing.T, err error) {
				var nf *domain.ErrNotFound
				if !errors.As(err, &nf) {
					t.Errorf("expected not found, got %v", err)
				}
			},
		},
		{
			name:   "nothing recognised",
			req:    domain.WebhookRequest{UserID: "u1", Content: "Sua fatura está disponível"},
			ledger: &mockLedger{},
			check: func(t *testing.T, err error) {
				var ve *domain.ErrValidation
				if !errors.As(err, &ve) {
					t.Errorf("expected validation error, got %v", err)
				}
			},
		},
		{
			name:   "ledger failure",
			req:    domain.WebhookRequest{UserID: "u1", Content: "Compra aprovada de R$ 10,00 em Padaria"},
			ledger: &mockLedger{createErr: &domain.ErrStore{Op: "create_transactions", Err: errors.New("locked")}},
			check: func(t *testing.T, err error) {
				var se *domain.ErrStore
				if !errors.As(err, &se) {
					t.Errorf("expected store error, got %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newWebhookService(tt.ledger, "s3cret").Ingest(context.Background(), &tt.req)
			tt.check(t, err)
		})
	}
}
