package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a payment record
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Payment represents a settled payment for a booking. TransactionID is the
// processor's identifier and the idempotency key for settlement events: the
// unique constraint on it makes duplicate webhook deliveries no-ops.
type Payment struct {
	ID            string          `json:"id" db:"id"`
	BookingID     string          `json:"booking_id" db:"booking_id"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Status        PaymentStatus   `json:"payment_status" db:"payment_status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// CreateOrderRequest represents the request to open a payment authorization
type CreateOrderRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}
