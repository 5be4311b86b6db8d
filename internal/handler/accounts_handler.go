package handler

import (
	"net/http"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Accounts Handlers
// ============================================================

func listAccountsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/accounts")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		accounts, err := svc.ListAccounts(ctx, session)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, accounts)
	}
}

func createAccountHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/accounts")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		var req domain.AccountRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		account, err := svc.CreateAccount(ctx, session, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, account)
	}
}

func updateAccountHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/accounts")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		var req domain.AccountRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		account, err := svc.UpdateAccount(ctx, session, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

func deleteAccountHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/accounts")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		resp, err := svc.DeleteAccount(ctx, session, r.URL.Query().Get("id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Credit card bill: /api/accounts/{id}/bill
// ============================================================

func getBillHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/accounts/{id}/bill")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		accountID := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("account.id", accountID))

		bill, err := svc.GetBill(ctx, session, accountID, r.URL.Query().Get("month"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func payBillHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/accounts/{id}/bill")
		defer span.End()
		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}
		accountID := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("account.id", accountID))

		var req domain.PayBillRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		result, err := svc.PayBill(ctx, session, accountID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
