package handler

import (
	"net/http"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Categories & Budgets Handlers
// ============================================================

func listCategoriesHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/categories")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		categories, err := svc.ListCategories(ctx, session)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

func createCategoryHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/categories")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		var req domain.CategoryRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		category, err := svc.CreateCategory(ctx, session, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, category)
	}
}

func updateCategoryHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/categories")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		var req domain.CategoryRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		category, err := svc.UpdateCategory(ctx, session, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, category)
	}
}

func deleteCategoryHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/categories")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		resp, err := svc.DeleteCategory(ctx, session, r.URL.Query().Get("id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listBudgetsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/budgets")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		budgets, err := svc.ListBudgets(ctx, session, r.URL.Query().Get("month"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, budgets)
	}
}

func createBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/budgets")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		var req domain.BudgetRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		budget, err := svc.CreateBudget(ctx, session, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, budget)
	}
}

func updateBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/budgets")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		var req domain.BudgetRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		budget, err := svc.UpdateBudget(ctx, session, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, budget)
	}
}

func deleteBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/budgets")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		resp, err := svc.DeleteBudget(ctx, session, r.URL.Query().Get("id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
