package emailparser

import "strings"

// FallbackCategory receives purchases no keyword rule recognises.
const FallbackCategory = "Outros"

type keywordRule struct {
	category string
	keywords []string
}

// Rules are checked in order; the first keyword contained in the
// establishment wins.
var keywordRules = []keywordRule{
	{"Alimentação", []string{"restaurante", "ifood", "uber eats", "rappi", "mercado", "supermercado", "padaria", "lanchonete", "pizza", "burger"}},
	{"Transporte", []string{"uber", "99", "posto", "combustível", "estacionamento", "pedágio", "metro", "ônibus"}},
	{"Saúde", []string{"farmácia", "drogaria", "médico", "hospital", "lab", "clínica", "dentista"}},
	{"Educação", []string{"escola", "curso", "livro", "udemy", "coursera"}},
	{"Lazer", []string{"cinema", "teatro", "netflix", "spotify", "game", "bar"}},
	{"Moradia", []string{"aluguel", "condomínio", "luz", "água", "gás", "internet", "energia"}},
	{"Vestuário", []string{"roupa", "calçado", "sapato", "loja", "shopping", "renner", "zara"}},
}

// Suggestion is a category proposed for an establishment.
type Suggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// SuggestCategory matches the establishment against the keyword rules.
func SuggestCategory(establishment string) (Suggestion, bool) {
	lower := strings.ToLower(establishment)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return Suggestion{Category: rule.category, Confidence: 0.85}, true
			}
		}
	}
	return Suggestion{}, false
}
