package models

import (
	"fmt"
	"strings"
	"time"
)

// Station represents a railway station. Station codes are short uppercase
// identifiers, e.g. NDLS for New Delhi.
type Station struct {
	ID          string    `json:"id" db:"id"`
	StationName string    `json:"station_name" db:"station_name"`
	StationCode string    `json:"station_code" db:"station_code"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateStationRequest represents the admin request to add a station
type CreateStationRequest struct {
	StationName string `json:"station_name" binding:"required"`
	StationCode string `json:"station_code" binding:"required"`
}

// Validate validates the create station request
func (r *CreateStationRequest) Validate() error {
	if strings.TrimSpace(r.StationName) == "" {
		return fmt.Errorf("%w: station_name is required", ErrValidation)
	}
	code := strings.TrimSpace(r.StationCode)
	if code == "" || len(code) > 10 {
		return fmt.Errorf("%w: station_code must be 1-10 characters", ErrValidation)
	}
	return nil
}
