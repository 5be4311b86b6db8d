package domain

// WebhookRequest is the body of POST /api/webhooks/transactions.
type WebhookRequest struct {
	Content string `json:"content"`
	UserID  string `json:"userId"`
}

// WebhookExtraction is what was read from the e-mail body.
type WebhookExtraction struct {
	Amount        Money   `json:"amount"`
	Establishment string  `json:"establishment"`
	Date          string  `json:"date"`
	Category      string  `json:"category"`
	Confidence    float64 `json:"confidence"`
}

type WebhookResult struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	Extracted   WebhookExtraction `json:"extracted"`
	Transaction *Transaction      `json:"transaction,omitempty"`
}
