// Package domain: chat.go define os tipos usados pelas rotas GET e POST /api/chat.
//
// O chat é um assistente por regras: NÃO chama nenhum modelo de IA.
// O fluxo completo:
//  1. Usuário manda {"content": "..."} → handler recebe
//  2. ChatService normaliza a mensagem e testa as regras em ordem
//  3. A primeira regra que casa consulta as transações do mês da família
//  4. A resposta é gravada junto com a pergunta (histórico)
//  5. O handler devolve a mensagem persistida (201)
package domain

import "time"

// ============================================================
// Chat: Request/Response entre o chamador e a API
// ============================================================

// ChatRequest é o body do POST /api/chat.
type ChatRequest struct {
	Content string `json:"content"`
}

// Message é uma pergunta do usuário com a resposta do assistente.
// É o que fica no histórico e o que o POST devolve.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FamilyID  string    `json:"familyId"`
	Content   string    `json:"content"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryLimit é o número de mensagens devolvidas pelo GET /api/chat.
const HistoryLimit = 50

// ============================================================
// Intents: nomes das regras, usados em logs e métricas
// ============================================================

const (
	IntentCategorySpend  = "category_spend"
	IntentBiggestExpense = "biggest_expense"
	IntentBalance        = "balance"
	IntentCount          = "transaction_count"
	IntentSummary        = "monthly_summary"
	IntentGreeting       = "greeting"
	IntentHelp           = "help"
	IntentFallback       = "fallback"
)

// ============================================================
// ChatContext: o que cada regra recebe para responder
// ============================================================

// ChatContext carrega a pergunta já normalizada e a janela do mês corrente.
// Match guarda os grupos capturados pela regex da regra que casou.
type ChatContext struct {
	UserID   string
	FamilyID string
	Query    string
	Intent   string
	Match    []string

	// MonthStart é inclusivo, MonthEnd é exclusivo (dia 1 do próximo mês).
	MonthStart time.Time
	MonthEnd   time.Time
}
