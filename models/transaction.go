package models

import "time"

// Transaction types.
const (
	TxRefund          = "refund"
	TxPackagePurchase = "package_purchase"
	TxSalesReceipt    = "sales_receipt"
	TxCreditReturn    = "credit_return"
)

// Transaction is an append-only audit record of money or credit movement.
// AmountCents is negative for refunds.
type Transaction struct {
	ID          string    `bson:"id" json:"id"`
	BookingID   string    `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	UserID      string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	AmountCents int64     `bson:"amount_cents" json:"amount_cents"`
	Currency    string    `bson:"currency" json:"currency"`
	Type        string    `bson:"type" json:"type"`
	Processor   string    `bson:"processor" json:"processor"`
	ProcessorID string    `bson:"processor_id,omitempty" json:"processor_id,omitempty"`
	Status      string    `bson:"status" json:"status"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
