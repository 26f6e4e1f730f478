package models

import (
	"fmt"
	"time"
)

// Route represents one stop in a train's schedule. stop_number orders the
// stops: 1 is the origin, 2 the next stop, and so on. Times are stored as
// HH:MM:SS; the origin has no arrival time and the terminus no departure.
type Route struct {
	ID            string    `json:"id" db:"id"`
	TrainID       string    `json:"train_id" db:"train_id"`
	StationID     string    `json:"station_id" db:"station_id"`
	ArrivalTime   *string   `json:"arrival_time,omitempty" db:"arrival_time"`
	DepartureTime *string   `json:"departure_time,omitempty" db:"departure_time"`
	StopNumber    int       `json:"stop_number" db:"stop_number"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// RouteStop is a route row joined with its station, as returned by booking
// lookups. Stops are always ordered by stop_number ascending.
type RouteStop struct {
	StopNumber    int     `json:"stop_number" db:"stop_number"`
	ArrivalTime   *string `json:"arrival_time,omitempty" db:"arrival_time"`
	DepartureTime *string `json:"departure_time,omitempty" db:"departure_time"`
	StationName   string  `json:"station_name" db:"station_name"`
	StationCode   string  `json:"station_code" db:"station_code"`
}

// CreateRouteRequest represents the admin request to add a route stop
type CreateRouteRequest struct {
	TrainID       string  `json:"train_id" binding:"required"`
	StationID     string  `json:"station_id" binding:"required"`
	ArrivalTime   *string `json:"arrival_time,omitempty"`
	DepartureTime *string `json:"departure_time,omitempty"`
	StopNumber    int     `json:"stop_number" binding:"required"`
}

// Validate validates the create route request
func (r *CreateRouteRequest) Validate() error {
	if r.TrainID == "" || r.StationID == "" {
		return fmt.Errorf("%w: train_id and station_id are required", ErrValidation)
	}
	if r.StopNumber <= 0 {
		return fmt.Errorf("%w: stop_number must be positive", ErrValidation)
	}
	for field, val := range map[string]*string{"arrival_time": r.ArrivalTime, "departure_time": r.DepartureTime} {
		if val == nil {
			continue
		}
		if _, err := time.Parse("15:04:05", *val); err != nil {
			return fmt.Errorf("%w: %s must be HH:MM:SS", ErrValidation, field)
		}
	}
	return nil
}
