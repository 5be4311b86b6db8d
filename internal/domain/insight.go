package domain

// InsightType classifies an advisory message.
type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightSuccess InsightType = "success"
	InsightInfo    InsightType = "info"
	InsightDanger  InsightType = "danger"
)

// Insight is an advisory record computed per request and never persisted.
type Insight struct {
	ID         string      `json:"id"`
	Type       InsightType `json:"type"`
	Icon       string      `json:"icon"`
	Title      string      `json:"title"`
	Message    string      `json:"message"`
	Percentage *float64    `json:"percentage,omitempty"`
	Value      *float64    `json:"value,omitempty"`
}
