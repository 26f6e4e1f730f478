package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// BookingRepository handles database operations for the bookings table,
// including the atomic create-booking transaction and the compare-and-swap
// status transitions.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	id, user_id, train_id, pnr, travel_date, booking_status,
	total_fare, expires_at, cancelled_at, created_at, updated_at
`

// A booking counts against capacity while CONFIRMED, or while PENDING with
// an unexpired hold. Expired PENDING holds release their seats immediately;
// the expiration sweeper tidies the rows afterwards.
const activeHoldCondition = `
	(b.booking_status = 'CONFIRMED'
	 OR (b.booking_status = 'PENDING' AND b.expires_at > NOW()))
`

// seatCounts mirrors the per-class aggregate query result
type seatCounts struct {
	Sleeper int `db:"sleeper"`
	AC      int `db:"ac"`
}

// countActiveSeats counts seats held per class for a train and date. It runs
// against either the pool (advisory availability reads) or a transaction that
// holds the train row lock (the create-booking capacity check).
func countActiveSeats(q sqlx.Queryer, trainID string, travelDate time.Time) (seatCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE p.seat_class = 'SLEEPER') AS sleeper,
			COUNT(*) FILTER (WHERE p.seat_class = 'AC') AS ac
		FROM passengers p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.train_id = $1
		  AND b.travel_date = $2
		  AND ` + activeHoldCondition

	var counts seatCounts
	if err := sqlx.Get(q, &counts, query, trainID, travelDate); err != nil {
		return counts, fmt.Errorf("failed to count held seats: %w", err)
	}

	return counts, nil
}

// CountActiveSeats returns the number of seats currently held per class for
// a train and travel date. This read is advisory; it takes no lock.
func (r *BookingRepository) CountActiveSeats(trainID string, travelDate time.Time) (sleeper, ac int, err error) {
	counts, err := countActiveSeats(r.db, trainID, travelDate)
	if err != nil {
		return 0, 0, err
	}
	return counts.Sleeper, counts.AC, nil
}

// CreateBooking atomically creates a booking and its passenger manifest.
//
// The train row is locked FOR UPDATE for the duration of the transaction, so
// concurrent creates for the same train serialize and each one recounts held
// seats before reserving. Any failure rolls the whole unit back: no booking
// without passengers, no passengers without a booking.
//
// Returns models.ErrTrainNotFound, models.ErrCapacityExceeded,
// models.ErrDuplicateKey (PNR collision, caller may retry with a fresh code)
// or models.ErrTransaction.
func (r *BookingRepository) CreateBooking(
	booking *models.Booking,
	passengers []models.Passenger,
	passengerRepo *PassengerRepository,
) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("%w: failed to begin: %v", models.ErrTransaction, err)
	}
	defer tx.Rollback()

	// 1. Lock the train row. This serializes the check-then-reserve sequence
	// per train across concurrent callers.
	var train struct {
		TotalSeatsSleeper int `db:"total_seats_sleeper"`
		TotalSeatsAC      int `db:"total_seats_ac"`
	}
	err = tx.Get(&train, `
		SELECT total_seats_sleeper, total_seats_ac
		FROM trains
		WHERE id = $1
		FOR UPDATE
	`, booking.TrainID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrTrainNotFound
		}
		return fmt.Errorf("%w: failed to lock train: %v", models.ErrTransaction, err)
	}

	// 2. Recount held seats under the lock and check the manifest fits.
	held, err := countActiveSeats(tx, booking.TrainID, booking.TravelDate)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrTransaction, err)
	}

	var requestedSleeper, requestedAC int
	for i := range passengers {
		if passengers[i].SeatClass == models.SeatClassSleeper {
			requestedSleeper++
		} else {
			requestedAC++
		}
	}

	if held.Sleeper+requestedSleeper > train.TotalSeatsSleeper {
		return fmt.Errorf("%w: %d SLEEPER seats requested, %d available",
			models.ErrCapacityExceeded, requestedSleeper, train.TotalSeatsSleeper-held.Sleeper)
	}
	if held.AC+requestedAC > train.TotalSeatsAC {
		return fmt.Errorf("%w: %d AC seats requested, %d available",
			models.ErrCapacityExceeded, requestedAC, train.TotalSeatsAC-held.AC)
	}

	// 3. Insert the booking.
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	err = tx.QueryRow(`
		INSERT INTO bookings (
			id, user_id, train_id, pnr, travel_date,
			booking_status, total_fare, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`,
		booking.ID, booking.UserID, booking.TrainID, booking.PNR,
		booking.TravelDate, booking.Status, booking.TotalFare, booking.ExpiresAt,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err, "bookings_pnr_key") {
			return fmt.Errorf("%w: pnr %s already assigned", models.ErrDuplicateKey, booking.PNR)
		}
		return fmt.Errorf("%w: failed to insert booking: %v", models.ErrTransaction, err)
	}

	// 4. Insert the passenger manifest.
	for i := range passengers {
		passengers[i].BookingID = booking.ID
		if err := passengerRepo.CreateTx(tx, &passengers[i]); err != nil {
			return fmt.Errorf("%w: %v", models.ErrTransaction, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %v", models.ErrTransaction, err)
	}

	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking models.Booking
	if err := r.db.Get(&booking, query, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

// GetByPNR retrieves a booking by its reservation code
func (r *BookingRepository) GetByPNR(pnr string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE pnr = $1`

	var booking models.Booking
	if err := r.db.Get(&booking, query, pnr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking by pnr: %w", err)
	}

	return &booking, nil
}

// GetByUserID retrieves all bookings for a user, most recent travel date first
func (r *BookingRepository) GetByUserID(userID string) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY travel_date DESC, created_at DESC
	`

	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get bookings for user: %w", err)
	}

	return bookings, nil
}

// ConfirmIfPending moves a booking from PENDING to CONFIRMED. The status
// guard lives in the UPDATE itself, so a concurrent cancel or a second
// settlement delivery loses the race cleanly instead of corrupting state.
// An expired hold is not confirmable: its seats may have been resold.
//
// Returns false when the booking was not in a confirmable state.
func (r *BookingRepository) ConfirmIfPending(bookingID string) (bool, error) {
	return confirmIfPending(r.db, bookingID)
}

// The expiry guard compares against clock_timestamp(), not NOW():
// NOW() is frozen at transaction start, so a settlement transaction opened
// just before the expiry instant could confirm a hold that a booking
// transaction starting just after the instant already counted as released.
func confirmIfPending(e sqlx.Execer, bookingID string) (bool, error) {
	result, err := e.Exec(`
		UPDATE bookings
		SET booking_status = 'CONFIRMED', expires_at = NULL, updated_at = NOW()
		WHERE id = $1
		  AND booking_status = 'PENDING'
		  AND (expires_at IS NULL OR expires_at > clock_timestamp())
	`, bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to confirm booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read confirm result: %w", err)
	}

	return rows == 1, nil
}

// CancelIfActive moves a PENDING or CONFIRMED booking to CANCELLED.
// Returns models.ErrAlreadyCancelled when the booking is already terminal.
func (r *BookingRepository) CancelIfActive(bookingID string) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET booking_status = 'CANCELLED', cancelled_at = NOW(),
			expires_at = NULL, updated_at = NOW()
		WHERE id = $1
		  AND booking_status IN ('PENDING', 'CONFIRMED')
		RETURNING ` + bookingColumns

	var booking models.Booking
	if err := r.db.Get(&booking, query, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrAlreadyCancelled
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	return &booking, nil
}

// ApplySettlement records a settled payment and confirms its booking in one
// transaction. The payment row is written even when the confirm guard fails
// (e.g. the booking was cancelled between authorization and settlement):
// funds were collected and the record must exist for reconciliation. The
// caller decides how to log the unconfirmed case.
func (r *BookingRepository) ApplySettlement(
	payment *models.Payment,
	paymentRepo *PaymentRepository,
) (confirmed bool, err error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, fmt.Errorf("%w: failed to begin: %v", models.ErrTransaction, err)
	}
	defer tx.Rollback()

	confirmed, err = confirmIfPending(tx, payment.BookingID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", models.ErrTransaction, err)
	}

	if err := paymentRepo.CreateTx(tx, payment); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return false, err
		}
		return false, fmt.Errorf("%w: %v", models.ErrTransaction, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: failed to commit: %v", models.ErrTransaction, err)
	}

	return confirmed, nil
}

// ExpireOverdueHolds cancels PENDING bookings whose hold has lapsed and
// returns how many rows were updated. Run periodically by the hold
// expiration service; correctness does not depend on it because expired
// holds already stop counting against capacity.
func (r *BookingRepository) ExpireOverdueHolds() (int64, error) {
	result, err := r.db.Exec(`
		UPDATE bookings
		SET booking_status = 'CANCELLED', cancelled_at = NOW(),
			expires_at = NULL, updated_at = NOW()
		WHERE booking_status = 'PENDING'
		  AND expires_at <= NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue holds: %w", err)
	}

	return result.RowsAffected()
}

// PNRExists reports whether a PNR is already assigned to any booking
func (r *BookingRepository) PNRExists(pnr string) (bool, error) {
	var count int
	if err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE pnr = $1`, pnr); err != nil {
		return false, fmt.Errorf("failed to check pnr uniqueness: %w", err)
	}
	return count > 0, nil
}
