package models

// --- PaymentRequest & PaymentIntent ---
type PaymentRequest struct {
	AmountCents   int64
	Currency      string
	Description   string
	ReceiptEmail  string
	CustomerName  string
	InstructorID  string
	PaymentMethod string
	Metadata      map[string]string
}

type PaymentIntent struct {
	ID           string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status,omitempty"`
}
