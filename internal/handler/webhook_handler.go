package handler

import (
	"net/http"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/service"

	"go.uber.org/zap"
)

// WebhookSecretHeader carries the shared secret of the e-mail webhook.
const WebhookSecretHeader = "x-webhook-secret"

// ============================================================
// Webhook de e-mail: POST /api/webhooks/transactions
// ============================================================

func webhookTransactionsHandler(svc *service.WebhookService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/webhooks/transactions")
		defer span.End()

		if err := svc.Authorize(r.Header.Get(WebhookSecretHeader)); err != nil {
			logger.Warn("webhook: rejected secret", zap.String("remote_addr", r.RemoteAddr))
			handleServiceError(w, err, logger)
			return
		}

		var req domain.WebhookRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, err := svc.Ingest(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
