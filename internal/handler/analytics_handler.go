package handler

import (
	"net/http"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard, CFO insights and gamification
// ============================================================

func dashboardHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/dashboard")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		dashboard, err := svc.Dashboard(ctx, session)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dashboard)
	}
}

func cfoHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/cfo")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		insights, err := svc.Insights(ctx, session)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if insights == nil {
			insights = []domain.Insight{}
		}
		writeJSON(w, http.StatusOK, insights)
	}
}

func gamificationHandler(svc *service.GamificationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/gamification")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		view, err := svc.View(ctx, session)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
