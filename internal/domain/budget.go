package domain

import "time"

// Budget is a monthly spending limit for one category.
type Budget struct {
	ID         string    `json:"id"`
	FamilyID   string    `json:"familyId"`
	CategoryID string    `json:"categoryId"`
	Category   *Category `json:"category,omitempty"`
	Month      string    `json:"month"` // YYYY-MM
	Limit      Money     `json:"limit"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CategoryName returns the budget's category name, falling back to its id.
func (b *Budget) CategoryName() string {
	if b.Category != nil && b.Category.Name != "" {
		return b.Category.Name
	}
	return b.CategoryID
}

type BudgetRequest struct {
	ID         string `json:"id,omitempty"`
	CategoryID string `json:"categoryId"`
	Month      string `json:"month"`
	Limit      Money  `json:"limit"`
}

// BudgetStatus reports consumption of a budget in the current month.
type BudgetStatus struct {
	Budget
	Spent      Money   `json:"spent"`
	Remaining  Money   `json:"remaining"`
	Percentage float64 `json:"percentage"`
}
