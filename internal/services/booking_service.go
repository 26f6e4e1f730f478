package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/swiftrail/reservation-backend/internal/database"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// BookingService owns booking creation, the status state machine and the
// lookup projections.
type BookingService struct {
	trainRepo     *database.TrainRepository
	bookingRepo   *database.BookingRepository
	passengerRepo *database.PassengerRepository
	routeRepo     *database.RouteRepository
	userRepo      *database.UserRepository
	pnrGenerator  *PNRGenerator
	holdTTL       time.Duration
	logger        *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	trainRepo *database.TrainRepository,
	bookingRepo *database.BookingRepository,
	passengerRepo *database.PassengerRepository,
	routeRepo *database.RouteRepository,
	userRepo *database.UserRepository,
	pnrGenerator *PNRGenerator,
	holdTTL time.Duration,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		trainRepo:     trainRepo,
		bookingRepo:   bookingRepo,
		passengerRepo: passengerRepo,
		routeRepo:     routeRepo,
		userRepo:      userRepo,
		pnrGenerator:  pnrGenerator,
		holdTTL:       holdTTL,
		logger:        logger,
	}
}

// pnrInsertRetries bounds retries when the pre-checked PNR loses the race to
// the unique constraint at insert time.
const pnrInsertRetries = 5

// CreateBooking creates a PENDING booking with its passenger manifest as one
// atomic unit. The total fare is computed from the train's per-class fares.
// The returned booking carries the assigned PNR and a seat hold that lapses
// after the configured TTL unless the booking is confirmed.
func (s *BookingService) CreateBooking(userID string, req *models.CreateBookingRequest) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	train, err := s.trainRepo.GetByID(req.TrainID)
	if err != nil {
		return nil, err
	}

	for class := range req.SeatsByClass() {
		if train.Capacity(class) == 0 {
			return nil, fmt.Errorf("%w: train %d does not offer %s class",
				models.ErrValidation, train.TrainNumber, class)
		}
	}

	totalFare := decimal.Zero
	for class, count := range req.SeatsByClass() {
		totalFare = totalFare.Add(train.Fare(class).Mul(decimal.NewFromInt(int64(count))))
	}

	for attempt := 1; attempt <= pnrInsertRetries; attempt++ {
		pnr, err := s.pnrGenerator.Generate()
		if err != nil {
			return nil, err
		}

		expiresAt := time.Now().Add(s.holdTTL)
		booking := &models.Booking{
			UserID:     userID,
			TrainID:    train.ID,
			PNR:        pnr,
			TravelDate: req.ParsedTravelDate(),
			Status:     models.BookingStatusPending,
			TotalFare:  totalFare,
			ExpiresAt:  &expiresAt,
		}

		passengers := make([]models.Passenger, len(req.Passengers))
		for i, p := range req.Passengers {
			passengers[i] = models.Passenger{
				Name:      p.Name,
				Age:       p.Age,
				Gender:    p.Gender,
				SeatClass: p.SeatClass,
			}
		}

		err = s.bookingRepo.CreateBooking(booking, passengers, s.passengerRepo)
		if errors.Is(err, models.ErrDuplicateKey) {
			// Another booking claimed this PNR between pre-check and insert.
			s.logger.WithFields(logrus.Fields{
				"pnr":     pnr,
				"attempt": attempt,
			}).Warn("PNR insert collision, retrying with a fresh code")
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.WithFields(logrus.Fields{
			"booking_id":  booking.ID,
			"pnr":         booking.PNR,
			"train_id":    booking.TrainID,
			"travel_date": req.TravelDate,
			"passengers":  len(passengers),
			"total_fare":  totalFare.StringFixed(2),
		}).Info("booking created")

		return booking, nil
	}

	return nil, fmt.Errorf("failed to assign a unique pnr after %d attempts", pnrInsertRetries)
}

// Confirm moves a booking from PENDING to CONFIRMED. A booking that is not
// confirmable (already confirmed, cancelled, or its hold expired) is a
// logged no-op, not an error: settlement notifications can be delivered
// more than once and must not bounce back to the processor.
func (s *BookingService) Confirm(bookingID string) (bool, error) {
	confirmed, err := s.bookingRepo.ConfirmIfPending(bookingID)
	if err != nil {
		return false, err
	}

	if !confirmed {
		entry := s.logger.WithField("booking_id", bookingID)
		if booking, lookupErr := s.bookingRepo.GetByID(bookingID); lookupErr == nil {
			entry = entry.WithField("booking_status", booking.Status)
		}
		entry.Warn("confirm ignored: booking not in a confirmable state")
		return false, nil
	}

	s.logger.WithField("booking_id", bookingID).Info("booking confirmed")
	return true, nil
}

// Cancel moves a PENDING or CONFIRMED booking to CANCELLED. Only the owner
// may cancel. Cancelling frees the booking's seats because cancelled
// bookings stop counting against capacity.
func (s *BookingService) Cancel(bookingID, requestingUserID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != requestingUserID {
		return nil, models.ErrNotAuthorized
	}

	cancelled, err := s.bookingRepo.CancelIfActive(bookingID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":      cancelled.ID,
		"pnr":             cancelled.PNR,
		"previous_status": booking.Status,
	}).Info("booking cancelled")

	return cancelled, nil
}

// GetByPNR assembles the public PNR lookup: booking, passenger manifest,
// train, ordered route stops and the owner's name and email.
func (s *BookingService) GetByPNR(pnr string) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByPNR(pnr)
	if err != nil {
		return nil, err
	}

	detail := &models.BookingDetail{Booking: *booking}

	if detail.Passengers, err = s.passengerRepo.GetByBookingID(booking.ID); err != nil {
		return nil, err
	}

	if detail.Train, err = s.trainRepo.GetByID(booking.TrainID); err != nil {
		return nil, err
	}

	if detail.Route, err = s.routeRepo.GetStopsByTrainID(booking.TrainID); err != nil {
		return nil, err
	}

	owner, err := s.userRepo.GetByID(booking.UserID)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}
	if owner != nil {
		detail.User = &models.PublicProfile{Name: owner.Name, Email: owner.Email}
	}

	return detail, nil
}

// GetByUser returns a user's bookings, newest travel date first, each with
// its passenger manifest and train. A user with no bookings gets an empty
// slice, not an error.
func (s *BookingService) GetByUser(userID string) ([]models.BookingDetail, error) {
	bookings, err := s.bookingRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	details := make([]models.BookingDetail, len(bookings))
	for i, booking := range bookings {
		details[i] = models.BookingDetail{Booking: booking}

		if details[i].Passengers, err = s.passengerRepo.GetByBookingID(booking.ID); err != nil {
			return nil, err
		}
		if details[i].Train, err = s.trainRepo.GetByID(booking.TrainID); err != nil {
			return nil, err
		}
	}

	return details, nil
}
