package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swiftrail/reservation-backend/internal/database"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// InventoryService computes remaining seats per train, date and class.
type InventoryService struct {
	trainRepo   *database.TrainRepository
	bookingRepo *database.BookingRepository
	logger      *logrus.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	trainRepo *database.TrainRepository,
	bookingRepo *database.BookingRepository,
	logger *logrus.Logger,
) *InventoryService {
	return &InventoryService{
		trainRepo:   trainRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// Availability returns remaining seats per class for a train and travel
// date. The read is advisory: it takes no lock, and the binding capacity
// check happens again inside the create-booking transaction.
//
// A negative remainder means the seat ledger violated its capacity
// invariant; that is reported as an error, never clamped to zero.
func (s *InventoryService) Availability(trainID string, travelDate time.Time) (*models.SeatAvailability, error) {
	train, err := s.trainRepo.GetByID(trainID)
	if err != nil {
		return nil, err
	}

	heldSleeper, heldAC, err := s.bookingRepo.CountActiveSeats(train.ID, travelDate)
	if err != nil {
		return nil, fmt.Errorf("failed to compute availability: %w", err)
	}

	availableSleeper := train.TotalSeatsSleeper - heldSleeper
	availableAC := train.TotalSeatsAC - heldAC

	if availableSleeper < 0 || availableAC < 0 {
		s.logger.WithFields(logrus.Fields{
			"train_id":          train.ID,
			"travel_date":       travelDate.Format("2006-01-02"),
			"available_sleeper": availableSleeper,
			"available_ac":      availableAC,
		}).Error("seat ledger exceeds train capacity")
		return nil, fmt.Errorf("seat ledger inconsistency for train %s on %s",
			train.ID, travelDate.Format("2006-01-02"))
	}

	return &models.SeatAvailability{
		TrainID:          train.ID,
		TrainName:        train.TrainName,
		TravelDate:       travelDate.Format("2006-01-02"),
		AvailableSleeper: availableSleeper,
		AvailableAC:      availableAC,
	}, nil
}
