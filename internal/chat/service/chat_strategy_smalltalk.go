// Package service: chat_strategy_smalltalk.go implementa as regras de
// conversa: saudação, ajuda e a resposta padrão.
//
// Essas regras não consultam o banco; vêm depois das de finanças,
// então "oi, qual a maior despesa?" responde a despesa e não a saudação.
package service

import (
	"context"
	"strings"

	"github.com/boddenberg/family-finance-go/internal/chat/domain"
)

// ============================================================
// Saudação: a pergunta COMEÇA com um cumprimento
// ============================================================

var greetings = []string{"oi", "olá", "ola", "bom dia", "boa tarde", "boa noite", "hey", "hi"}

const greetingAnswer = "👋 Olá! Sou o assistente financeiro da sua família. Pergunte-me sobre gastos, saldo, resumo do mês, ou qual a maior despesa!"

type greetingStrategy struct{}

func (greetingStrategy) Intent() string { return domain.IntentGreeting }

func (greetingStrategy) Match(query string) []string {
	for _, g := range greetings {
		if strings.HasPrefix(query, g) {
			return []string{g}
		}
	}
	return nil
}

func (greetingStrategy) Handle(context.Context, *domain.ChatContext) (string, error) {
	return greetingAnswer, nil
}

// ============================================================
// Ajuda: a pergunta CONTÉM uma palavra-chave
// ============================================================

var helpKeywords = []string{"ajuda", "help", "o que você faz", "o que voce faz", "comandos"}

const helpAnswer = "🤖 **O que posso fazer:**\n\n" +
	"• \"Quanto gastamos com [categoria] este mês?\"\n" +
	"• \"Qual a maior despesa?\"\n" +
	"• \"Saldo atual\"\n" +
	"• \"Quantas transações este mês?\"\n" +
	"• \"Resumo do mês\"\n\n" +
	"Em breve terei IA avançada para respostas mais inteligentes! 🚀"

type helpStrategy struct{}

func (helpStrategy) Intent() string { return domain.IntentHelp }

func (helpStrategy) Match(query string) []string {
	for _, k := range helpKeywords {
		if strings.Contains(query, k) {
			return []string{k}
		}
	}
	return nil
}

func (helpStrategy) Handle(context.Context, *domain.ChatContext) (string, error) {
	return helpAnswer, nil
}

// ============================================================
// Fallback: nenhuma regra casou
// ============================================================

const fallbackAnswer = "🤔 Desculpe, não entendi sua pergunta. Tente perguntar:\n\n" +
	"• \"Quanto gastamos com alimentação?\"\n" +
	"• \"Qual a maior despesa?\"\n" +
	"• \"Saldo geral\"\n" +
	"• \"Resumo mensal\""
