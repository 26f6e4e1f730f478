package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/swiftrail/reservation-backend/internal/middleware"
	"github.com/swiftrail/reservation-backend/internal/models"
	"github.com/swiftrail/reservation-backend/internal/services"
)

// BookingHandler handles booking HTTP operations
type BookingHandler struct {
	bookingService   *services.BookingService
	inventoryService *services.InventoryService
	logger           *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	bookingService *services.BookingService,
	inventoryService *services.InventoryService,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		bookingService:   bookingService,
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// CheckAvailability handles GET /api/bookings/availability?trainId=...&date=...
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	trainID := c.Query("trainId")
	date := c.Query("date")

	if trainID == "" || date == "" {
		c.JSON(http.StatusNotFound, gin.H{"message": "Missing train Id or date"})
		return
	}

	travelDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	availability, err := h.inventoryService.Availability(trainID, travelDate)
	if err != nil {
		if errors.Is(err, models.ErrTrainNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Train Not Found"})
			return
		}
		h.logger.WithError(err).Error("availability query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to check availability"})
		return
	}

	c.JSON(http.StatusOK, availability)
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required booking data"})
		return
	}

	booking, err := h.bookingService.CreateBooking(userCtx.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		case errors.Is(err, models.ErrTrainNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Train Not Found"})
		case errors.Is(err, models.ErrCapacityExceeded):
			c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		default:
			h.logger.WithError(err).Error("booking creation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Booking Failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// GetMyBookings handles GET /api/bookings/mybookings
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	bookings, err := h.bookingService.GetByUser(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// GetBookingByPNR handles GET /api/bookings/pnr/:pnr
func (h *BookingHandler) GetBookingByPNR(c *gin.Context) {
	detail, err := h.bookingService.GetByPNR(c.Param("pnr"))
	if err != nil {
		if errors.Is(err, models.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Booking not found for this PNR"})
			return
		}
		h.logger.WithError(err).Error("pnr lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get booking"})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// CancelBooking handles PUT /api/bookings/cancel/:id
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	booking, err := h.bookingService.Cancel(c.Param("id"), userCtx.UserID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Booking not found"})
		case errors.Is(err, models.ErrNotAuthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Not Authorized"})
		case errors.Is(err, models.ErrAlreadyCancelled):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Booking is already cancelled"})
		default:
			h.logger.WithError(err).Error("booking cancellation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to cancel booking"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled successfully",
		"booking": booking,
	})
}
