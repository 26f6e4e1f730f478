package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// PaymentRepository handles database operations for the payments table.
// transaction_id carries a unique constraint; it is the idempotency key for
// settlement events.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateTx inserts a payment row inside an existing transaction
func (r *PaymentRepository) CreateTx(tx *sqlx.Tx, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, transaction_id, amount, payment_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}

	err := tx.QueryRow(
		query,
		payment.ID, payment.BookingID, payment.TransactionID,
		payment.Amount, payment.Status,
	).Scan(&payment.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err, "payments_transaction_id_key") {
			return fmt.Errorf("%w: transaction %s already recorded", models.ErrDuplicateKey, payment.TransactionID)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves a payment by the processor's transaction id.
// Returns (nil, nil) when no payment exists for the id.
func (r *PaymentRepository) GetByTransactionID(transactionID string) (*models.Payment, error) {
	query := `
		SELECT id, booking_id, transaction_id, amount, payment_status, created_at
		FROM payments
		WHERE transaction_id = $1
	`

	var payment models.Payment
	if err := r.db.Get(&payment, query, transactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment by transaction id: %w", err)
	}

	return &payment, nil
}

// GetByBookingID retrieves the payment for a booking, if any
func (r *PaymentRepository) GetByBookingID(bookingID string) (*models.Payment, error) {
	query := `
		SELECT id, booking_id, transaction_id, amount, payment_status, created_at
		FROM payments
		WHERE booking_id = $1
	`

	var payment models.Payment
	if err := r.db.Get(&payment, query, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment by booking id: %w", err)
	}

	return &payment, nil
}
