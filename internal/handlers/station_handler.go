package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/swiftrail/reservation-backend/internal/database"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// StationHandler handles station catalogue endpoints
type StationHandler struct {
	stationRepo *database.StationRepository
	logger      *logrus.Logger
}

// NewStationHandler creates a new StationHandler
func NewStationHandler(stationRepo *database.StationRepository, logger *logrus.Logger) *StationHandler {
	return &StationHandler{stationRepo: stationRepo, logger: logger}
}

// CreateStation handles POST /api/stations (admin)
func (h *StationHandler) CreateStation(c *gin.Context) {
	var req models.CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required station data"})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	station := &models.Station{
		StationName: req.StationName,
		StationCode: req.StationCode,
	}
	if err := h.stationRepo.Create(station); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Station code already exists"})
			return
		}
		h.logger.WithError(err).Error("failed to create station")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create station"})
		return
	}

	c.JSON(http.StatusCreated, station)
}
