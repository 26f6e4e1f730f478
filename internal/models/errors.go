package models

import "errors"

// Sentinel errors shared across the repository, service and handler layers.
// Handlers match these with errors.Is to select HTTP status codes; lower
// layers wrap them with fmt.Errorf("...: %w", ...) to add context.
var (
	// Validation
	ErrValidation = errors.New("validation failed")

	// Not found
	ErrTrainNotFound   = errors.New("train not found")
	ErrStationNotFound = errors.New("station not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrUserNotFound    = errors.New("user not found")

	// Authorization
	ErrNotAuthorized = errors.New("not authorized")

	// Conflicts
	ErrCapacityExceeded  = errors.New("requested seats exceed available capacity")
	ErrAlreadyCancelled  = errors.New("booking is already cancelled")
	ErrBookingNotPending = errors.New("booking is not in pending status")
	ErrDuplicateKey      = errors.New("duplicate unique key")

	// Security
	ErrInvalidSignature = errors.New("webhook signature verification failed")

	// Infrastructure
	ErrTransaction     = errors.New("transaction failed")
	ErrExternalService = errors.New("external service call failed")
)
