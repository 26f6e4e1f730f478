package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/swiftrail/reservation-backend/internal/database"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// TrainHandler handles train catalogue endpoints
type TrainHandler struct {
	trainRepo *database.TrainRepository
	logger    *logrus.Logger
}

// NewTrainHandler creates a new TrainHandler
func NewTrainHandler(trainRepo *database.TrainRepository, logger *logrus.Logger) *TrainHandler {
	return &TrainHandler{trainRepo: trainRepo, logger: logger}
}

// CreateTrain handles POST /api/trains (admin)
func (h *TrainHandler) CreateTrain(c *gin.Context) {
	var req models.CreateTrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required train data"})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	fareSleeper, _ := decimal.NewFromString(req.FareSleeper)
	fareAC, _ := decimal.NewFromString(req.FareAC)

	train := &models.Train{
		TrainNumber:       req.TrainNumber,
		TrainName:         req.TrainName,
		TotalSeatsSleeper: req.TotalSeatsSleeper,
		TotalSeatsAC:      req.TotalSeatsAC,
		FareSleeper:       fareSleeper,
		FareAC:            fareAC,
	}
	if err := h.trainRepo.Create(train); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Train number already exists"})
			return
		}
		h.logger.WithError(err).Error("failed to create train")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create train"})
		return
	}

	c.JSON(http.StatusCreated, train)
}

// GetTrain handles GET /api/trains/:id
func (h *TrainHandler) GetTrain(c *gin.Context) {
	train, err := h.trainRepo.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrTrainNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Train Not Found"})
			return
		}
		h.logger.WithError(err).Error("failed to get train")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get train"})
		return
	}

	c.JSON(http.StatusOK, train)
}

// ListTrains handles GET /api/trains
func (h *TrainHandler) ListTrains(c *gin.Context) {
	trains, err := h.trainRepo.List()
	if err != nil {
		h.logger.WithError(err).Error("failed to list trains")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list trains"})
		return
	}

	c.JSON(http.StatusOK, trains)
}
