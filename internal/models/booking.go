package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking represents a reservation for one or more passengers on a train.
// Bookings are never deleted; cancellation is a status change.
//
// A PENDING booking holds its seats until ExpiresAt. The hold is released
// either by confirmation (settlement), cancellation, or expiry.
type Booking struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"user_id" db:"user_id"`
	TrainID     string          `json:"train_id" db:"train_id"`
	PNR         string          `json:"pnr" db:"pnr"`
	TravelDate  time.Time       `json:"travel_date" db:"travel_date"`
	Status      BookingStatus   `json:"booking_status" db:"booking_status"`
	TotalFare   decimal.Decimal `json:"total_fare" db:"total_fare"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty" db:"expires_at"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// BookingDetail is a booking joined with everything a lookup needs:
// passenger manifest, train, ordered route stops and (for PNR lookups)
// the owner's public profile.
type BookingDetail struct {
	Booking
	Passengers []Passenger    `json:"passengers"`
	Train      *Train         `json:"train,omitempty"`
	Route      []RouteStop    `json:"route,omitempty"`
	User       *PublicProfile `json:"user,omitempty"`
}

// SeatAvailability is the availability query result for one train and date.
// TravelDate is the calendar date as YYYY-MM-DD.
type SeatAvailability struct {
	TrainID          string `json:"trainId"`
	TrainName        string `json:"trainName"`
	TravelDate       string `json:"travelDate"`
	AvailableSleeper int    `json:"availableSleeper"`
	AvailableAC      int    `json:"availableAC"`
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	TrainID    string             `json:"train_id" binding:"required"`
	TravelDate string             `json:"travel_date" binding:"required"`
	Passengers []PassengerRequest `json:"passengers" binding:"required"`
}

// Validate validates the create booking request. Dates are calendar dates
// with no time component.
func (r *CreateBookingRequest) Validate() error {
	if r.TrainID == "" {
		return fmt.Errorf("%w: train_id is required", ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", r.TravelDate); err != nil {
		return fmt.Errorf("%w: travel_date must be YYYY-MM-DD", ErrValidation)
	}
	if len(r.Passengers) == 0 {
		return fmt.Errorf("%w: at least one passenger is required", ErrValidation)
	}
	for i := range r.Passengers {
		if err := r.Passengers[i].Validate(); err != nil {
			return fmt.Errorf("passenger %d: %w", i+1, err)
		}
	}
	return nil
}

// ParsedTravelDate returns the travel date as a time.Time. Call Validate first.
func (r *CreateBookingRequest) ParsedTravelDate() time.Time {
	d, _ := time.Parse("2006-01-02", r.TravelDate)
	return d
}

// SeatsByClass returns the number of requested passengers per seat class.
func (r *CreateBookingRequest) SeatsByClass() map[SeatClass]int {
	counts := make(map[SeatClass]int, 2)
	for _, p := range r.Passengers {
		counts[p.SeatClass]++
	}
	return counts
}
