package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses. The only allowed transition is Completed to
// Refunded; Failed and Refunded are terminal.
const (
	PaymentCompleted = "Completed"
	PaymentFailed    = "Failed"
	PaymentRefunded  = "Refunded"
)

type Payment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	SubscriptionID uuid.UUID `json:"subscription_id" db:"subscription_id"`
	Amount         float64   `json:"amount" db:"amount"`
	PaymentDate    time.Time `json:"payment_date" db:"payment_date"`
	PaymentMethod  string    `json:"payment_method" db:"payment_method"`
	TransactionID  string    `json:"transaction_id" db:"transaction_id"`
	Status         string    `json:"status" db:"status"`
	Notes          *string   `json:"notes" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// PaymentRecord is the flat read-only projection of a payment joined
// with its subscription, exposed to the presentation layer for tabular
// display.
type PaymentRecord struct {
	Payment
	PlanName string    `json:"plan_name" db:"plan_name"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
}

// RecordablePaymentStatus reports whether s may be supplied when a
// payment is first recorded. Refunded is only reachable through the
// refund operation.
func RecordablePaymentStatus(s string) bool {
	return s == PaymentCompleted || s == PaymentFailed
}
