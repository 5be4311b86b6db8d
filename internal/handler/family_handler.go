package handler

import (
	"net/http"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Família: /api/family
// ============================================================

func getFamilyHandler(svc *service.FamilyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/family")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		family, err := svc.GetFamily(ctx, session)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, family)
	}
}

func addMemberHandler(svc *service.FamilyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/family")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		var req domain.MemberRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		member, err := svc.AddMember(ctx, session, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, member)
	}
}

func updateMemberHandler(svc *service.FamilyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/family")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		var req domain.MemberRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		member, err := svc.UpdateMember(ctx, session, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, member)
	}
}

func removeMemberHandler(svc *service.FamilyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/family")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		resp, err := svc.RemoveMember(ctx, session, r.URL.Query().Get("userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
