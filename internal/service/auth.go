// Package service: AuthService handles family registration, login and
// session tokens.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	bcryptCost        = 12
	minPasswordLength = 6
)

// AuthService orchestrates authentication flows.
type AuthService struct {
	users      port.UserStore
	points     *GamificationService
	jwtSecret  []byte
	sessionTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new auth service. points may be nil.
func NewAuthService(users port.UserStore, points *GamificationService, jwtSecret string, sessionTTL time.Duration, logger *zap.Logger, opts ...Option) *AuthService {
	o := applyOptions(opts)
	return &AuthService{
		users:      users,
		points:     points,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        o.now,
	}
}

// SessionTTL is the lifetime of issued session tokens.
func (s *AuthService) SessionTTL() time.Duration { return s.sessionTTL }

// ============================================================
// Register: POST /api/auth/register
// ============================================================

// Register creates a family with its first ADMIN and the default categories.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)
	req.FamilyName = strings.TrimSpace(req.FamilyName)
	req.Email = normalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.FamilyName == "" {
		return nil, &domain.ErrValidation{Field: "body", Message: "Todos os campos são obrigatórios"}
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	if err := emailFree(ctx, s.users, req.Email, "Email já cadastrado"); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	family := &domain.Family{Name: req.FamilyName}
	admin := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
	}
	if err := s.users.CreateFamily(ctx, family, admin, domain.DefaultCategories()); err != nil {
		return nil, err
	}

	s.logger.Info("family registered",
		zap.String("family_id", family.ID),
		zap.String("user_id", admin.ID),
	)

	return s.authResponse("Família criada com sucesso!", admin, family)
}

// ============================================================
// Login: POST /api/auth/login
// ============================================================

// Login checks the credentials, advances the login streak and awards the
// daily login points before issuing a token.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "body", Message: "Email e senha são obrigatórios"}
	}
	span.SetAttributes(attribute.String("user.email", email))

	user, err := s.users.GetUserByEmail(ctx, email)
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login: wrong password", zap.String("user_id", user.ID))
		return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	}

	if s.points != nil {
		if _, err := s.points.UpdateStreak(ctx, user.ID); err != nil {
			s.logger.Warn("login: streak update failed", zap.String("user_id", user.ID), zap.Error(err))
		}
		s.points.RecordActivity(ctx, user.ID, domain.ActionDailyLogin)
	}

	family, err := s.users.GetFamily(ctx, user.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("family_id", user.FamilyID))
	return s.authResponse("Login bem-sucedido!", user, family)
}

// ============================================================
// Session: GET /api/auth/session
// ============================================================

// SessionView is returned by the session endpoint.
type SessionView struct {
	Authenticated bool         `json:"authenticated"`
	User          *SessionUser `json:"user,omitempty"`
}

type SessionUser struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	FamilyID string      `json:"familyId"`
}

// Session describes the caller decoded from the session token.
func (s *AuthService) Session(session domain.Session) *SessionView {
	return &SessionView{
		Authenticated: true,
		User: &SessionUser{
			ID:       session.UserID,
			Name:     session.Name,
			Email:    session.Email,
			Role:     session.Role,
			FamilyID: session.FamilyID,
		},
	}
}

// ============================================================
// Internal helpers
// ============================================================

func (s *AuthService) authResponse(message string, user *domain.User, family *domain.Family) (*domain.AuthResponse, error) {
	token, err := s.SignSession(domain.Session{
		UserID:   user.ID,
		FamilyID: family.ID,
		Role:     user.Role,
		Name:     user.Name,
		Email:    user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &domain.AuthResponse{
		Message: message,
		User:    domain.UserSummary{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role},
		Family:  domain.FamilyRef{ID: family.ID, Name: family.Name},
		Token:   token,
	}, nil
}

// emailFree returns a conflict carrying message when email is taken.
func emailFree(ctx context.Context, users port.UserStore, email, message string) error {
	_, err := users.GetUserByEmail(ctx, email)
	var nf *domain.ErrNotFound
	switch {
	case errors.As(err, &nf):
		return nil
	case err != nil:
		return fmt.Errorf("check existing user: %w", err)
	}
	return &domain.ErrConflict{Message: message}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return &domain.ErrValidation{
			Field:   "password",
			Message: fmt.Sprintf("A senha deve ter pelo menos %d caracteres", minPasswordLength),
		}
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
