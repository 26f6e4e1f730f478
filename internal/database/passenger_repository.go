package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// PassengerRepository handles database operations for the passengers table.
// Inserts are transaction-scoped so the booking transaction manager can
// compose them with the booking insert in one atomic unit.
type PassengerRepository struct {
	db *sqlx.DB
}

// NewPassengerRepository creates a new PassengerRepository
func NewPassengerRepository(db *sqlx.DB) *PassengerRepository {
	return &PassengerRepository{db: db}
}

// CreateTx inserts a passenger row inside an existing transaction
func (r *PassengerRepository) CreateTx(tx *sqlx.Tx, passenger *models.Passenger) error {
	query := `
		INSERT INTO passengers (
			id, booking_id, passenger_name, age, gender, seat_class, seat_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	if passenger.ID == "" {
		passenger.ID = uuid.New().String()
	}

	err := tx.QueryRow(
		query,
		passenger.ID, passenger.BookingID, passenger.Name,
		passenger.Age, passenger.Gender, passenger.SeatClass, passenger.SeatNumber,
	).Scan(&passenger.CreatedAt, &passenger.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create passenger: %w", err)
	}

	return nil
}

// GetByBookingID retrieves all passengers on a booking
func (r *PassengerRepository) GetByBookingID(bookingID string) ([]models.Passenger, error) {
	query := `
		SELECT id, booking_id, passenger_name, age, gender, seat_class, seat_number,
			   created_at, updated_at
		FROM passengers
		WHERE booking_id = $1
		ORDER BY created_at
	`

	passengers := []models.Passenger{}
	if err := r.db.Select(&passengers, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to get passengers: %w", err)
	}

	return passengers, nil
}
