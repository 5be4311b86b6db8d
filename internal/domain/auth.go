package domain

import (
	"context"
	"time"
)

// ============================================================
// Families, members and sessions
// ============================================================

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleMember }

type Family struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Users     []User    `json:"users,omitempty"`
}

// User is a family member. PasswordHash never leaves the service layer.
type User struct {
	ID            string    `json:"id"`
	FamilyID      string    `json:"familyId"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	PasswordHash  string    `json:"-"`
	Points        int       `json:"points"`
	Streak        int       `json:"streak"`
	LastLoginDate string    `json:"lastLoginDate,omitempty"` // YYYY-MM-DD
	CreatedAt     time.Time `json:"createdAt"`
}

// Session is the authenticated caller, decoded from the session token and
// passed explicitly into every family-scoped operation.
type Session struct {
	UserID   string `json:"userId"`
	FamilyID string `json:"familyId"`
	Role     Role   `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

type sessionKey struct{}

// ContextWithSession stores the authenticated caller in ctx.
func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the caller stored by the session middleware.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FamilyName string `json:"familyName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login; Token is sent as a cookie.
type AuthResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
	Family  FamilyRef   `json:"family"`
	Token   string      `json:"-"`
}

type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type FamilyRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MemberRequest is the body of POST and PUT /api/family.
type MemberRequest struct {
	UserID   string `json:"userId,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}
