package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("booking is invalid")
	// ErrConflict matches every *ConflictError.
	ErrConflict = errors.New("time slot is already booked")
)

// ValidationError is a booking rejected by Validate. It is never retried.
type ValidationError struct {
	// Reason is the rule that was violated.
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid booking: " + e.Reason
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError is a store-side uniqueness or overlap violation: another
// writer booked the slot between the caller's read and its insert.
type ConflictError struct {
	// RoomID is the contested room.
	RoomID string
	// StartTime is the start of the rejected booking.
	StartTime time.Time
	// Err is the underlying store error, if any.
	Err error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room %s: slot starting %s is already booked", e.RoomID, e.StartTime.Format(time.RFC3339))
}

// Is makes errors.Is(err, ErrConflict) succeed.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Unwrap exposes the store error.
func (e *ConflictError) Unwrap() error {
	return e.Err
}
