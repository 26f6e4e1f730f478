package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swiftrail/reservation-backend/internal/database"
)

// HoldExpirationService cancels PENDING bookings whose seat hold has lapsed.
// Expired holds already stop counting against capacity the moment they
// lapse; this sweeper just moves the rows to their terminal status so
// lookups and settlement reconciliation see CANCELLED instead of a stale
// PENDING.
type HoldExpirationService struct {
	bookingRepo *database.BookingRepository
	interval    time.Duration
	logger      *logrus.Logger
	stopCh      chan struct{}
}

// NewHoldExpirationService creates a new HoldExpirationService
func NewHoldExpirationService(
	bookingRepo *database.BookingRepository,
	interval time.Duration,
	logger *logrus.Logger,
) *HoldExpirationService {
	return &HoldExpirationService{
		bookingRepo: bookingRepo,
		interval:    interval,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the background sweep
func (s *HoldExpirationService) Start() {
	s.logger.WithField("interval", s.interval.String()).Info("starting hold expiration service")
	go s.run()
}

// Stop stops the background sweep
func (s *HoldExpirationService) Stop() {
	close(s.stopCh)
}

func (s *HoldExpirationService) run() {
	// Sweep once on start to clear anything left over from downtime
	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			s.logger.Info("hold expiration service stopped")
			return
		}
	}
}

func (s *HoldExpirationService) sweep() {
	expired, err := s.bookingRepo.ExpireOverdueHolds()
	if err != nil {
		s.logger.WithError(err).Error("failed to expire overdue holds")
		return
	}

	if expired > 0 {
		s.logger.WithField("count", expired).Info("expired overdue booking holds")
	}
}
