package service

import (
	"fmt"

	"github.com/boddenberg/family-finance-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// ============================================================
// Session tokens: HS256 JWT sent in the auth-token cookie
// ============================================================

const tokenIssuer = "family-finance"

// SessionClaims are the custom claims of a session token.
type SessionClaims struct {
	UserID   string      `json:"userId"`
	FamilyID string      `json:"familyId"`
	Role     domain.Role `json:"role"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	jwt.RegisteredClaims
}

// SignSession issues a session token valid for the configured TTL.
func (s *AuthService) SignSession(session domain.Session) (string, error) {
	now := s.now()
	claims := SessionClaims{
		UserID:   session.UserID,
		FamilyID: session.FamilyID,
		Role:     session.Role,
		Name:     session.Name,
		Email:    session.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken decodes a session token. Used by the session middleware.
func (s *AuthService) ValidateToken(tokenString string) (*domain.Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Não autorizado"}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.UserID == "" || claims.FamilyID == "" {
		return nil, &domain.ErrUnauthorized{Message: "Não autorizado"}
	}

	return &domain.Session{
		UserID:   claims.UserID,
		FamilyID: claims.FamilyID,
		Role:     claims.Role,
		Name:     claims.Name,
		Email:    claims.Email,
	}, nil
}
