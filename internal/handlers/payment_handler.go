package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/swiftrail/reservation-backend/internal/middleware"
	"github.com/swiftrail/reservation-backend/internal/models"
	"github.com/swiftrail/reservation-backend/internal/services"
)

// PaymentHandler handles payment HTTP operations
type PaymentHandler struct {
	paymentService *services.PaymentService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// CreateOrder handles POST /api/payments/order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing booking_id"})
		return
	}

	clientSecret, err := h.paymentService.CreateOrder(req.BookingID, userCtx.UserID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Booking not found"})
		case errors.Is(err, models.ErrNotAuthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		case errors.Is(err, models.ErrBookingNotPending):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			// Gateway and storage faults are logged with context and
			// surfaced as a generic failure.
			h.logger.WithError(err).Error("payment order creation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error in payment controller"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"clientSecret": clientSecret})
}

// HandleWebhook handles POST /api/payments/webhook
//
// The raw body is needed for signature verification, so the payload is read
// before any JSON binding. Signature failures are the only rejections; a
// storage fault returns 500 so the processor redelivers (application is
// idempotent), and everything else acknowledges.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read payload"})
		return
	}

	err = h.paymentService.HandleSettlementEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, models.ErrInvalidSignature) {
			h.logger.WithError(err).Warn("webhook rejected")
			c.JSON(http.StatusBadRequest, gin.H{"message": "Webhook signature verification failed"})
			return
		}
		h.logger.WithError(err).Error("webhook processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
