package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftrail/reservation-backend/internal/database"
	"github.com/swiftrail/reservation-backend/internal/models"
)

func newBookingService(t *testing.T) (*BookingService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	pnrGenerator := NewPNRGenerator(database.NewBookingRepository(db), 5, testLogger())
	pnrGenerator.randomCode = func() (string, error) { return "A1B2C3", nil }

	service := NewBookingService(
		database.NewTrainRepository(db),
		database.NewBookingRepository(db),
		database.NewPassengerRepository(db),
		database.NewRouteRepository(db),
		database.NewUserRepository(db),
		pnrGenerator,
		15*time.Minute,
		testLogger(),
	)
	return service, mock
}

func validRequest(trainID string) *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		TrainID:    trainID,
		TravelDate: "2026-09-15",
		Passengers: []models.PassengerRequest{
			{Name: "Ravi Kumar", Age: 34, Gender: models.GenderMale, SeatClass: models.SeatClassSleeper},
			{Name: "Anita Kumar", Age: 31, Gender: models.GenderFemale, SeatClass: models.SeatClassSleeper},
		},
	}
}

func TestServiceCreateBooking(t *testing.T) {
	t.Run("Pending Booking With Computed Fare", func(t *testing.T) {
		service, mock := newBookingService(t)
		trainID := uuid.New().String()
		userID := uuid.New().String()
		req := validRequest(trainID)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(trainID).
			WillReturnRows(trainRows(trainID, 72, 48))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE pnr`).
			WithArgs("A1B2C3").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT total_seats_sleeper, total_seats_ac FROM trains`).
			WithArgs(trainID).
			WillReturnRows(sqlmock.NewRows([]string{"total_seats_sleeper", "total_seats_ac"}).AddRow(72, 48))
		mock.ExpectQuery(`COUNT\(\*\) FILTER`).
			WillReturnRows(sqlmock.NewRows([]string{"sleeper", "ac"}).AddRow(0, 0))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
		mock.ExpectQuery(`INSERT INTO passengers`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
		mock.ExpectQuery(`INSERT INTO passengers`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
		mock.ExpectCommit()

		booking, err := service.CreateBooking(userID, req)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
		assert.Equal(t, "A1B2C3", booking.PNR)
		// Two sleeper passengers at 750.00 each
		assert.Equal(t, "1500.00", booking.TotalFare.StringFixed(2))
		require.NotNil(t, booking.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), *booking.ExpiresAt, 5*time.Second)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Validation Failure", func(t *testing.T) {
		service, mock := newBookingService(t)
		req := validRequest(uuid.New().String())
		req.TravelDate = "15-09-2026"

		booking, err := service.CreateBooking(uuid.New().String(), req)
		assert.ErrorIs(t, err, models.ErrValidation)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Zero Passengers", func(t *testing.T) {
		service, mock := newBookingService(t)
		req := validRequest(uuid.New().String())
		req.Passengers = nil

		booking, err := service.CreateBooking(uuid.New().String(), req)
		assert.ErrorIs(t, err, models.ErrValidation)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Train Not Found", func(t *testing.T) {
		service, mock := newBookingService(t)
		trainID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(trainID).
			WillReturnError(sql.ErrNoRows)

		booking, err := service.CreateBooking(uuid.New().String(), validRequest(trainID))
		assert.ErrorIs(t, err, models.ErrTrainNotFound)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Class Not Offered", func(t *testing.T) {
		service, mock := newBookingService(t)
		trainID := uuid.New().String()
		req := validRequest(trainID)
		req.Passengers[0].SeatClass = models.SeatClassAC

		// Train has no AC coaches
		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(trainID).
			WillReturnRows(trainRows(trainID, 72, 0))

		booking, err := service.CreateBooking(uuid.New().String(), req)
		assert.ErrorIs(t, err, models.ErrValidation)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Capacity Exceeded", func(t *testing.T) {
		service, mock := newBookingService(t)
		trainID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(trainID).
			WillReturnRows(trainRows(trainID, 72, 48))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE pnr`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT total_seats_sleeper, total_seats_ac FROM trains`).
			WithArgs(trainID).
			WillReturnRows(sqlmock.NewRows([]string{"total_seats_sleeper", "total_seats_ac"}).AddRow(72, 48))
		mock.ExpectQuery(`COUNT\(\*\) FILTER`).
			WillReturnRows(sqlmock.NewRows([]string{"sleeper", "ac"}).AddRow(71, 0))
		mock.ExpectRollback()

		booking, err := service.CreateBooking(uuid.New().String(), validRequest(trainID))
		assert.ErrorIs(t, err, models.ErrCapacityExceeded)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("PNR Insert Collision Retried", func(t *testing.T) {
		service, mock := newBookingService(t)
		trainID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(trainID).
			WillReturnRows(trainRows(trainID, 72, 48))

		// First attempt loses the pre-check-to-insert race
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE pnr`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT total_seats_sleeper, total_seats_ac FROM trains`).
			WillReturnRows(sqlmock.NewRows([]string{"total_seats_sleeper", "total_seats_ac"}).AddRow(72, 48))
		mock.ExpectQuery(`COUNT\(\*\) FILTER`).
			WillReturnRows(sqlmock.NewRows([]string{"sleeper", "ac"}).AddRow(0, 0))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "bookings_pnr_key"})
		mock.ExpectRollback()

		// Second attempt succeeds
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE pnr`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT total_seats_sleeper, total_seats_ac FROM trains`).
			WillReturnRows(sqlmock.NewRows([]string{"total_seats_sleeper", "total_seats_ac"}).AddRow(72, 48))
		mock.ExpectQuery(`COUNT\(\*\) FILTER`).
			WillReturnRows(sqlmock.NewRows([]string{"sleeper", "ac"}).AddRow(0, 0))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
		mock.ExpectQuery(`INSERT INTO passengers`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
		mock.ExpectQuery(`INSERT INTO passengers`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
		mock.ExpectCommit()

		booking, err := service.CreateBooking(uuid.New().String(), validRequest(trainID))
		require.NoError(t, err)
		assert.NotEmpty(t, booking.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestServiceConfirm(t *testing.T) {
	t.Run("Pending Booking Confirmed", func(t *testing.T) {
		service, mock := newBookingService(t)
		bookingID := uuid.New().String()

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		confirmed, err := service.Confirm(bookingID)
		require.NoError(t, err)
		assert.True(t, confirmed)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Confirmable Is A NoOp", func(t *testing.T) {
		service, mock := newBookingService(t)
		bookingID := uuid.New().String()

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		// The status lookup only feeds the log line
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(storedBookingRows(bookingID, uuid.New().String(), models.BookingStatusCancelled))

		confirmed, err := service.Confirm(bookingID)
		require.NoError(t, err)
		assert.False(t, confirmed)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestServiceCancel(t *testing.T) {
	t.Run("Owner Cancels Active Booking", func(t *testing.T) {
		service, mock := newBookingService(t)
		bookingID := uuid.New().String()
		userID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(storedBookingRows(bookingID, userID, models.BookingStatusConfirmed))
		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs(bookingID).
			WillReturnRows(storedBookingRows(bookingID, userID, models.BookingStatusCancelled))

		cancelled, err := service.Cancel(bookingID, userID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not The Owner", func(t *testing.T) {
		service, mock := newBookingService(t)
		bookingID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(storedBookingRows(bookingID, uuid.New().String(), models.BookingStatusPending))

		cancelled, err := service.Cancel(bookingID, uuid.New().String())
		assert.ErrorIs(t, err, models.ErrNotAuthorized)
		assert.Nil(t, cancelled)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Cancelled", func(t *testing.T) {
		service, mock := newBookingService(t)
		bookingID := uuid.New().String()
		userID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(storedBookingRows(bookingID, userID, models.BookingStatusCancelled))
		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs(bookingID).
			WillReturnError(sql.ErrNoRows)

		cancelled, err := service.Cancel(bookingID, userID)
		assert.ErrorIs(t, err, models.ErrAlreadyCancelled)
		assert.Nil(t, cancelled)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Booking Not Found", func(t *testing.T) {
		service, mock := newBookingService(t)
		bookingID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnError(sql.ErrNoRows)

		cancelled, err := service.Cancel(bookingID, uuid.New().String())
		assert.ErrorIs(t, err, models.ErrBookingNotFound)
		assert.Nil(t, cancelled)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestServiceGetByPNR(t *testing.T) {
	t.Run("Assembles Full Detail", func(t *testing.T) {
		service, mock := newBookingService(t)
		bookingID := uuid.New().String()
		userID := uuid.New().String()
		trainID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE pnr`).
			WithArgs("A1B2C3").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "train_id", "pnr", "travel_date", "booking_status",
				"total_fare", "expires_at", "cancelled_at", "created_at", "updated_at",
			}).AddRow(
				bookingID, userID, trainID, "A1B2C3",
				time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), "CONFIRMED",
				"1500.00", nil, nil, now, now,
			))
		mock.ExpectQuery(`SELECT (.+) FROM passengers WHERE booking_id`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "booking_id", "passenger_name", "age", "gender", "seat_class",
				"seat_number", "created_at", "updated_at",
			}).AddRow(uuid.New().String(), bookingID, "Ravi Kumar", 34, "MALE", "SLEEPER", "S1-23", now, now))
		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(trainID).
			WillReturnRows(trainRows(trainID, 72, 48))
		mock.ExpectQuery(`FROM routes r`).
			WithArgs(trainID).
			WillReturnRows(sqlmock.NewRows([]string{
				"stop_number", "arrival_time", "departure_time", "station_name", "station_code",
			}).
				AddRow(1, nil, "16:55:00", "New Delhi", "NDLS").
				AddRow(2, "08:30:00", nil, "Mumbai Central", "MMCT"))
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "email", "password_hash", "is_admin", "created_at", "updated_at",
			}).AddRow(userID, "Ravi Kumar", "ravi@example.com", "hash", false, now, now))

		detail, err := service.GetByPNR("A1B2C3")
		require.NoError(t, err)
		assert.Equal(t, "A1B2C3", detail.PNR)
		assert.Len(t, detail.Passengers, 1)
		assert.Equal(t, "Rajdhani Express", detail.Train.TrainName)
		require.Len(t, detail.Route, 2)
		assert.Equal(t, "NDLS", detail.Route[0].StationCode)
		require.NotNil(t, detail.User)
		assert.Equal(t, "ravi@example.com", detail.User.Email)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown PNR", func(t *testing.T) {
		service, mock := newBookingService(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE pnr`).
			WithArgs("NOPE99").
			WillReturnError(sql.ErrNoRows)

		detail, err := service.GetByPNR("NOPE99")
		assert.ErrorIs(t, err, models.ErrBookingNotFound)
		assert.Nil(t, detail)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestServiceGetByUser(t *testing.T) {
	t.Run("Empty History", func(t *testing.T) {
		service, mock := newBookingService(t)
		userID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE user_id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "train_id", "pnr", "travel_date", "booking_status",
				"total_fare", "expires_at", "cancelled_at", "created_at", "updated_at",
			}))

		details, err := service.GetByUser(userID)
		require.NoError(t, err)
		assert.Empty(t, details)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
