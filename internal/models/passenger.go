package models

import (
	"fmt"
	"strings"
	"time"
)

// Gender enumeration for passengers
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// SeatClass represents a fare/comfort tier with its own capacity pool
type SeatClass string

const (
	SeatClassSleeper SeatClass = "SLEEPER"
	SeatClassAC      SeatClass = "AC"
)

// Passenger represents one traveller on a booking. The manifest is fixed at
// booking creation; there is no passenger amendment flow. SeatNumber is a
// label assigned lazily (e.g. at charting) and may be absent.
type Passenger struct {
	ID         string     `json:"id" db:"id"`
	BookingID  string     `json:"booking_id" db:"booking_id"`
	Name       string     `json:"passenger_name" db:"passenger_name"`
	Age        int        `json:"age" db:"age"`
	Gender     Gender     `json:"gender" db:"gender"`
	SeatClass  SeatClass  `json:"seat_class" db:"seat_class"`
	SeatNumber *string    `json:"seat_number,omitempty" db:"seat_number"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// PassengerRequest represents one passenger in a booking request
type PassengerRequest struct {
	Name      string    `json:"passenger_name" binding:"required"`
	Age       int       `json:"age" binding:"required"`
	Gender    Gender    `json:"gender" binding:"required"`
	SeatClass SeatClass `json:"seat_class" binding:"required"`
}

// Validate validates a passenger entry
func (p *PassengerRequest) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: passenger_name is required", ErrValidation)
	}
	if p.Age <= 0 {
		return fmt.Errorf("%w: age must be positive", ErrValidation)
	}
	switch p.Gender {
	case GenderMale, GenderFemale, GenderOther:
	default:
		return fmt.Errorf("%w: gender must be MALE, FEMALE or OTHER", ErrValidation)
	}
	switch p.SeatClass {
	case SeatClassSleeper, SeatClassAC:
	default:
		return fmt.Errorf("%w: seat_class must be SLEEPER or AC", ErrValidation)
	}
	return nil
}
