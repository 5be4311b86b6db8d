package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Transações: /api/transactions
// ============================================================

func listTransactionsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/transactions")
		defer span.End()

		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}

		f, err := parseTransactionFilter(r.URL.Query())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		txs, err := svc.ListTransactions(ctx, session, f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

// parseTransactionFilter reads the list query. endDate is inclusive.
func parseTransactionFilter(q url.Values) (domain.TransactionFilter, error) {
	f := domain.TransactionFilter{
		Type:               domain.TransactionType(q.Get("type")),
		Status:             domain.TransactionStatus(q.Get("status")),
		CategoryID:         q.Get("categoryId"),
		AccountID:          q.Get("accountId"),
		UserID:             q.Get("userId"),
		InstallmentGroupID: q.Get("installmentGroupId"),
	}
	if v := q.Get("startDate"); v != "" {
		d, err := domain.ParseDate("startDate", v)
		if err != nil {
			return f, err
		}
		f.From = d
	}
	if v := q.Get("endDate"); v != "" {
		d, err := domain.ParseDate("endDate", v)
		if err != nil {
			return f, err
		}
		f.To = d.AddDate(0, 0, 1)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, &domain.ErrValidation{Field: "limit", Message: "limit inválido"}
		}
		f.Limit = n
	}
	return f, nil
}

func createTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/transactions")
		defer span.End()

		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}

		var req domain.CreateTransactionRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, err := svc.CreateTransaction(ctx, session, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		// Uma transação simples volta sozinha; parcelamento volta com a mensagem
		if result.Transaction != nil {
			writeJSON(w, http.StatusCreated, result.Transaction)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func updateTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/transactions")
		defer span.End()

		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}

		req, err := decodeUpdateTransaction(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("transaction.id", req.ID))

		tx, err := svc.UpdateTransaction(ctx, session, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

// decodeUpdateTransaction decodes a PUT body. "categoryId": null or ""
// clears the category; an absent key leaves it untouched.
func decodeUpdateTransaction(body io.Reader) (*domain.UpdateTransactionRequest, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	var req domain.UpdateTransactionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}

	var probe struct {
		CategoryID json.RawMessage `json:"categoryId"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	if c := bytes.TrimSpace(probe.CategoryID); bytes.Equal(c, []byte("null")) || bytes.Equal(c, []byte(`""`)) {
		req.CategoryID = nil
		req.ClearCategory = true
	}
	return &req, nil
}

func deleteTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/transactions")
		defer span.End()

		session, ok := sessionFrom(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		var (
			resp *domain.MessageResponse
			err  error
		)
		if groupID := q.Get("installmentGroupId"); groupID != "" {
			from := 1
			if v := q.Get("cancelFrom"); v != "" {
				if from, err = strconv.Atoi(v); err != nil {
					writeError(w, http.StatusBadRequest, "cancelFrom inválido")
					return
				}
			}
			resp, err = svc.CancelInstallmentGroup(ctx, session, groupID, from)
		} else {
			resp, err = svc.DeleteTransaction(ctx, session, q.Get("id"))
		}
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
