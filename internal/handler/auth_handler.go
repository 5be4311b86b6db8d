package handler

import (
	"net/http"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Autenticação
// ============================================================

func authRegisterHandler(authSvc *service.AuthService, cookies CookieConfig, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/register")
		defer span.End()

		var req domain.RegisterRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, err := authSvc.Register(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		cookies.set(w, resp.Token)
		writeJSON(w, http.StatusCreated, resp)
	}
}

func authLoginHandler(authSvc *service.AuthService, cookies CookieConfig, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, err := authSvc.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		cookies.set(w, resp.Token)
		writeJSON(w, http.StatusOK, resp)
	}
}

func authLogoutHandler(cookies CookieConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookies.clear(w)
		writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Logout realizado"})
	}
}

// authSessionHandler reports the caller without requiring a session:
// a missing or invalid token answers 401 {"authenticated": false}.
func authSessionHandler(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, service.SessionView{Authenticated: false})
			return
		}
		session, err := authSvc.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, service.SessionView{Authenticated: false})
			return
		}
		writeJSON(w, http.StatusOK, authSvc.Session(*session))
	}
}
