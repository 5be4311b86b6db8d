package domain

import "time"

// Category groups transactions; unique per (family, name, type).
type Category struct {
	ID        string          `json:"id"`
	FamilyID  string          `json:"familyId,omitempty"`
	Name      string          `json:"name"`
	Type      TransactionType `json:"type"`
	Icon      string          `json:"icon"`
	Color     string          `json:"color"`
	Rules     []string        `json:"rules"`
	CreatedAt time.Time       `json:"createdAt"`
}

type CategoryRequest struct {
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name"`
	Type  TransactionType `json:"type"`
	Icon  string          `json:"icon"`
	Color string          `json:"color"`
	Rules []string        `json:"rules"`
}

const (
	DefaultCategoryIcon  = "📦"
	DefaultCategoryColor = "#6366f1"
)

// DefaultCategories is the set created for every new family.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Alimentação", Type: TransactionExpense, Icon: "🍔", Color: "#ef4444", Rules: []string{"restaurante", "ifood", "mercado", "supermercado", "padaria"}},
		{Name: "Transporte", Type: TransactionExpense, Icon: "🚗", Color: "#f59e0b", Rules: []string{"uber", "99", "posto", "combustível", "estacionamento"}},
		{Name: "Moradia", Type: TransactionExpense, Icon: "🏠", Color: "#3b82f6", Rules: []string{"aluguel", "condomínio", "luz", "água", "gás", "internet"}},
		{Name: "Saúde", Type: TransactionExpense, Icon: "💊", Color: "#10b981", Rules: []string{"farmácia", "médico", "hospital", "clínica"}},
		{Name: "Educação", Type: TransactionExpense, Icon: "📚", Color: "#8b5cf6", Rules: []string{"escola", "curso", "livro", "universidade"}},
		{Name: "Lazer", Type: TransactionExpense, Icon: "🎮", Color: "#ec4899", Rules: []string{"cinema", "netflix", "spotify", "teatro", "bar"}},
		{Name: "Vestuário", Type: TransactionExpense, Icon: "👕", Color: "#14b8a6", Rules: []string{"roupa", "calçado", "loja", "shopping"}},
		{Name: "Salário", Type: TransactionIncome, Icon: "💰", Color: "#22c55e", Rules: []string{"salário", "pagamento", "freelance"}},
		{Name: "Outros", Type: TransactionExpense, Icon: DefaultCategoryIcon, Color: DefaultCategoryColor, Rules: []string{}},
	}
}
