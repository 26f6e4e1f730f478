package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/swiftrail/reservation-backend/internal/database"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// RouteHandler handles train schedule endpoints
type RouteHandler struct {
	routeRepo   *database.RouteRepository
	trainRepo   *database.TrainRepository
	stationRepo *database.StationRepository
	logger      *logrus.Logger
}

// NewRouteHandler creates a new RouteHandler
func NewRouteHandler(routeRepo *database.RouteRepository, trainRepo *database.TrainRepository, stationRepo *database.StationRepository, logger *logrus.Logger) *RouteHandler {
	return &RouteHandler{
		routeRepo:   routeRepo,
		trainRepo:   trainRepo,
		stationRepo: stationRepo,
		logger:      logger,
	}
}

// CreateRoute handles POST /api/routes (admin)
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var req models.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required route data"})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if _, err := h.trainRepo.GetByID(req.TrainID); err != nil {
		if errors.Is(err, models.ErrTrainNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Train Not Found"})
			return
		}
		h.logger.WithError(err).Error("failed to verify train")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create route"})
		return
	}
	if _, err := h.stationRepo.GetByID(req.StationID); err != nil {
		if errors.Is(err, models.ErrStationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Station Not Found"})
			return
		}
		h.logger.WithError(err).Error("failed to verify station")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create route"})
		return
	}

	route := &models.Route{
		TrainID:       req.TrainID,
		StationID:     req.StationID,
		ArrivalTime:   req.ArrivalTime,
		DepartureTime: req.DepartureTime,
		StopNumber:    req.StopNumber,
	}
	if err := h.routeRepo.Create(route); err != nil {
		h.logger.WithError(err).Error("failed to create route")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create route"})
		return
	}

	c.JSON(http.StatusCreated, route)
}

// GetTrainSchedule handles GET /api/routes/train/:trainId
func (h *RouteHandler) GetTrainSchedule(c *gin.Context) {
	trainID := c.Param("trainId")
	if _, err := h.trainRepo.GetByID(trainID); err != nil {
		if errors.Is(err, models.ErrTrainNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Train Not Found"})
			return
		}
		h.logger.WithError(err).Error("failed to verify train")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get schedule"})
		return
	}

	stops, err := h.routeRepo.GetStopsByTrainID(trainID)
	if err != nil {
		h.logger.WithError(err).Error("failed to get route stops")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get schedule"})
		return
	}

	c.JSON(http.StatusOK, stops)
}
