package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Train represents a train with per-class seat capacity and per-class fare.
// Owned by the admin surface; the reservation core only reads it.
type Train struct {
	ID                string          `json:"id" db:"id"`
	TrainName         string          `json:"train_name" db:"train_name"`
	TrainNumber       int             `json:"train_number" db:"train_number"`
	TotalSeatsSleeper int             `json:"total_seats_sleeper" db:"total_seats_sleeper"`
	TotalSeatsAC      int             `json:"total_seats_ac" db:"total_seats_ac"`
	FareSleeper       decimal.Decimal `json:"fare_sleeper" db:"fare_sleeper"`
	FareAC            decimal.Decimal `json:"fare_ac" db:"fare_ac"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Capacity returns the total seat count for the given class.
func (t *Train) Capacity(class SeatClass) int {
	if class == SeatClassSleeper {
		return t.TotalSeatsSleeper
	}
	return t.TotalSeatsAC
}

// Fare returns the per-passenger fare for the given class.
func (t *Train) Fare(class SeatClass) decimal.Decimal {
	if class == SeatClassSleeper {
		return t.FareSleeper
	}
	return t.FareAC
}

// CreateTrainRequest represents the admin request to add a train
type CreateTrainRequest struct {
	TrainName         string `json:"train_name" binding:"required"`
	TrainNumber       int    `json:"train_number" binding:"required"`
	TotalSeatsSleeper int    `json:"total_seats_sleeper"`
	TotalSeatsAC      int    `json:"total_seats_ac"`
	FareSleeper       string `json:"fare_sleeper" binding:"required"`
	FareAC            string `json:"fare_ac" binding:"required"`
}

// Validate validates the create train request
func (r *CreateTrainRequest) Validate() error {
	if strings.TrimSpace(r.TrainName) == "" {
		return fmt.Errorf("%w: train_name is required", ErrValidation)
	}
	if r.TrainNumber <= 0 {
		return fmt.Errorf("%w: train_number must be positive", ErrValidation)
	}
	if r.TotalSeatsSleeper < 0 || r.TotalSeatsAC < 0 {
		return fmt.Errorf("%w: seat counts cannot be negative", ErrValidation)
	}
	for field, raw := range map[string]string{"fare_sleeper": r.FareSleeper, "fare_ac": r.FareAC} {
		fare, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%w: %s is not a valid amount", ErrValidation, field)
		}
		if fare.IsNegative() {
			return fmt.Errorf("%w: %s cannot be negative", ErrValidation, field)
		}
	}
	return nil
}
