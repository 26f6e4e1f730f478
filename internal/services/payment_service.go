package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/swiftrail/reservation-backend/internal/database"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// PaymentService reconciles bookings with the external payment processor:
// it opens authorizations and idempotently applies settlement events.
type PaymentService struct {
	bookingRepo *database.BookingRepository
	paymentRepo *database.PaymentRepository
	gateway     *StripeService
	logger      *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	bookingRepo *database.BookingRepository,
	paymentRepo *database.PaymentRepository,
	gateway *StripeService,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		logger:      logger,
	}
}

// CreateOrder opens a payment authorization for a PENDING booking and
// returns the client secret the caller completes payment with out-of-band.
// Booking state is untouched; a gateway failure leaves the booking PENDING.
func (s *PaymentService) CreateOrder(bookingID, requestingUserID string) (string, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return "", err
	}

	if booking.UserID != requestingUserID {
		return "", models.ErrNotAuthorized
	}

	if booking.Status != models.BookingStatusPending {
		return "", fmt.Errorf("%w: booking is already %s", models.ErrBookingNotPending, booking.Status)
	}

	// A lapsed hold may not have been swept yet; its seats are already
	// released, so opening an authorization for it would collect money the
	// confirm guard will refuse.
	if booking.ExpiresAt != nil && !booking.ExpiresAt.After(time.Now()) {
		return "", fmt.Errorf("%w: booking hold has expired", models.ErrBookingNotPending)
	}

	// Stripe expects the amount in the smallest currency unit.
	amount := booking.TotalFare.Shift(2).IntPart()

	intent, err := s.gateway.CreatePaymentIntent(amount, booking.ID, booking.PNR)
	if err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"pnr":        booking.PNR,
		"intent_id":  intent.ID,
	}).Info("payment authorization created")

	return intent.ClientSecret, nil
}

// HandleSettlementEvent verifies and applies one webhook delivery.
//
// Succeeded events confirm the booking and record the payment, keyed by the
// processor's transaction id: a redelivered event finds the existing payment
// row and becomes a no-op. A missing booking is logged and swallowed so the
// processor stops redelivering. Failure events are logged only; the booking
// stays PENDING so the user may retry.
//
// Returns models.ErrInvalidSignature for unverifiable deliveries (reject,
// never process) and models.ErrTransaction for storage faults (the caller
// should not acknowledge; redelivery is safe because application is
// idempotent).
func (s *PaymentService) HandleSettlementEvent(payload []byte, sigHeader string) error {
	event, err := s.gateway.ConstructEvent(payload, sigHeader)
	if err != nil {
		return err
	}

	switch event.Type {
	case "payment_intent.succeeded":
		return s.applySucceededIntent(event)

	case "payment_intent.payment_failed", "payment_intent.canceled":
		s.logger.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Warn("payment did not complete; booking left pending")
		return nil

	default:
		s.logger.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Debug("ignoring unhandled event type")
		return nil
	}
}

func (s *PaymentService) applySucceededIntent(event *WebhookEvent) error {
	var intent PaymentIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return fmt.Errorf("failed to parse payment intent from event %s: %w", event.ID, err)
	}

	bookingID := intent.Metadata["booking_id"]
	if bookingID == "" {
		s.logger.WithField("intent_id", intent.ID).Error("settlement event has no booking_id metadata")
		return nil
	}

	// Duplicate delivery: the transaction id is already recorded.
	existing, err := s.paymentRepo.GetByTransactionID(intent.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrTransaction, err)
	}
	if existing != nil {
		s.logger.WithFields(logrus.Fields{
			"intent_id":  intent.ID,
			"booking_id": existing.BookingID,
		}).Info("duplicate settlement delivery, already recorded")
		return nil
	}

	if _, err := s.bookingRepo.GetByID(bookingID); err != nil {
		if errors.Is(err, models.ErrBookingNotFound) {
			s.logger.WithFields(logrus.Fields{
				"intent_id":  intent.ID,
				"booking_id": bookingID,
			}).Error("settlement references unknown booking; acknowledging without action")
			return nil
		}
		return fmt.Errorf("%w: %v", models.ErrTransaction, err)
	}

	payment := &models.Payment{
		BookingID:     bookingID,
		TransactionID: intent.ID,
		Amount:        decimal.NewFromInt(intent.Amount).Shift(-2),
		Status:        models.PaymentStatusSuccess,
	}

	confirmed, err := s.bookingRepo.ApplySettlement(payment, s.paymentRepo)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			// Lost a race with a concurrent delivery of the same event.
			s.logger.WithField("intent_id", intent.ID).Info("duplicate settlement delivery, already recorded")
			return nil
		}
		return err
	}

	entry := s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"intent_id":  intent.ID,
		"amount":     payment.Amount.StringFixed(2),
	})
	if confirmed {
		entry.Info("settlement applied, booking confirmed")
	} else {
		// Booking was cancelled or its hold expired before settlement
		// landed. Funds are recorded; refund handling is an operational
		// follow-up outside this flow.
		entry.Warn("settlement recorded but booking was not confirmable")
	}

	return nil
}
