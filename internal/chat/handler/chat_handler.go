// Package handler: chat_handler.go implementa os handlers das rotas
// GET /api/chat e POST /api/chat.
//
// ============================================================
// ROTAS DO CHAT
// ============================================================
//
// GET  /api/chat  →  histórico do usuário (últimas 50, mais antiga primeiro)
// POST /api/chat  →  pergunta nova
//   - Recebe body JSON: {"content": "..."}
//   - Responde com a mensagem gravada (pergunta + resposta), 201
//
// As duas rotas exigem sessão: o middleware de sessão do router
// coloca o domain.Session no contexto antes de chegar aqui.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boddenberg/family-finance-go/internal/chat/domain"
	"github.com/boddenberg/family-finance-go/internal/chat/service"
	maindomain "github.com/boddenberg/family-finance-go/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// tracer é o tracer OpenTelemetry para o módulo chat/handler.
var tracer = otel.Tracer("chat/handler")

// ============================================================
// ChatHandler: POST /api/chat
// ============================================================

// ChatHandler retorna o http.HandlerFunc para a rota POST /api/chat.
//
// Request:
//
//	Content-Type: application/json
//	Body: {"content": "Quanto gastamos com alimentação este mês?"}
//
// Response (201 Created):
//
//	{"id": "...", "content": "...", "response": "💰 Este mês, ...", ...}
//
// O handler é fino: valida o body e delega pro ChatService.
func ChatHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/chat")
		defer span.End()

		session, ok := maindomain.SessionFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Não autorizado")
			return
		}
		span.SetAttributes(attribute.String("user.id", session.UserID))

		// Decodifica o body: esperamos {"content": "..."}
		var req domain.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		msg, err := chatSvc.SendMessage(ctx, session, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, msg)
	}
}

// ============================================================
// HistoryHandler: GET /api/chat
// ============================================================

// HistoryHandler retorna o histórico de mensagens do usuário logado.
func HistoryHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/chat")
		defer span.End()

		session, ok := maindomain.SessionFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Não autorizado")
			return
		}

		messages, err := chatSvc.History(ctx, session)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, messages)
	}
}

// ============================================================
// Helpers: funções utilitárias do chat handler
// ============================================================

// writeJSON serializa data como JSON e escreve na response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError escreve uma resposta de erro padronizada.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleServiceError mapeia erros de domínio para HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var (
		validationErr *maindomain.ErrValidation
		notFoundErr   *maindomain.ErrNotFound
		circuitErr    *maindomain.ErrCircuitOpen
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, notFoundErr.Message())
	case errors.As(err, &circuitErr):
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		logger.Error("unexpected error in chat handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Erro ao processar mensagem")
	}
}
