package service

import (
	"context"
	"strings"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var familyTracer = otel.Tracer("service/family")

// FamilyService manages the members of a family. Every mutation is
// restricted to admins.
type FamilyService struct {
	users  port.UserStore
	logger *zap.Logger
}

func NewFamilyService(users port.UserStore, logger *zap.Logger) *FamilyService {
	return &FamilyService{users: users, logger: logger}
}

// GetFamily returns the caller's family with its members.
func (s *FamilyService) GetFamily(ctx context.Context, session domain.Session) (*domain.Family, error) {
	ctx, span := familyTracer.Start(ctx, "FamilyService.GetFamily")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", session.FamilyID))

	return s.users.GetFamily(ctx, session.FamilyID)
}

// AddMember creates a member in the caller's family. Role defaults to MEMBER.
func (s *FamilyService) AddMember(ctx context.Context, session domain.Session, req *domain.MemberRequest) (*domain.UserSummary, error) {
	ctx, span := familyTracer.Start(ctx, "FamilyService.AddMember")
	defer span.End()

	if !session.IsAdmin() {
		return nil, &domain.ErrForbidden{Action: "Apenas administradores podem adicionar membros"}
	}

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "body", Message: "Nome, email e senha são obrigatórios"}
	}
	role := req.Role
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return nil, &domain.ErrValidation{Field: "role", Message: "Cargo deve ser ADMIN ou MEMBER"}
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := emailFree(ctx, s.users, email, "Email já está em uso"); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		FamilyID:     session.FamilyID,
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("family member added",
		zap.String("family_id", session.FamilyID),
		zap.String("user_id", u.ID),
		zap.String("role", string(u.Role)),
	)
	return &domain.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}, nil
}

// UpdateMember changes another member's name or role.
func (s *FamilyService) UpdateMember(ctx context.Context, session domain.Session, req *domain.MemberRequest) (*domain.UserSummary, error) {
	ctx, span := familyTracer.Start(ctx, "FamilyService.UpdateMember")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	if !session.IsAdmin() {
		return nil, &domain.ErrForbidden{Action: "Apenas administradores podem alterar membros"}
	}
	u, err := s.member(ctx, session, req.UserID)
	if err != nil {
		return nil, err
	}
	if u.ID == session.UserID {
		return nil, &domain.ErrValidation{Field: "userId", Message: "Você não pode alterar seu próprio cargo"}
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		u.Name = name
	}
	if req.Role != "" {
		if !req.Role.Valid() {
			return nil, &domain.ErrValidation{Field: "role", Message: "Cargo deve ser ADMIN ou MEMBER"}
		}
		u.Role = req.Role
	}
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return &domain.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}, nil
}

// RemoveMember deletes another member with their history.
func (s *FamilyService) RemoveMember(ctx context.Context, session domain.Session, userID string) (*domain.MessageResponse, error) {
	ctx, span := familyTracer.Start(ctx, "FamilyService.RemoveMember")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if !session.IsAdmin() {
		return nil, &domain.ErrForbidden{Action: "Apenas administradores podem remover membros"}
	}
	u, err := s.member(ctx, session, userID)
	if err != nil {
		return nil, err
	}
	if u.ID == session.UserID {
		return nil, &domain.ErrValidation{Field: "userId", Message: "Você não pode remover a si mesmo"}
	}

	if err := s.users.DeleteUser(ctx, session.FamilyID, u.ID); err != nil {
		return nil, err
	}
	s.logger.Info("family member removed", zap.String("family_id", session.FamilyID), zap.String("user_id", u.ID))
	return &domain.MessageResponse{Message: "Membro removido com sucesso"}, nil
}

// member loads a user of the caller's family; other families read as not found.
func (s *FamilyService) member(ctx context.Context, session domain.Session, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, &domain.ErrValidation{Field: "userId", Message: "ID do usuário obrigatório"}
	}
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.FamilyID != session.FamilyID {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return u, nil
}
