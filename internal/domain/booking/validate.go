package booking

import (
	"fmt"
	"time"
)

// ReasonEndBeforeStart is reported when a candidate does not end after it starts.
const ReasonEndBeforeStart = "end time must be after start time"

// Result is the outcome of Validate.
type Result struct {
	// Valid is true when the candidate may be stored.
	Valid bool
	// Reason explains why the candidate is invalid.
	Reason string
}

// Err converts an invalid result into a *ValidationError and a valid one into nil.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}

	return &ValidationError{Reason: r.Reason}
}

// Validate decides whether candidate may be booked next to existing.
//
// Rules, in order: the candidate must end after it starts; it must not
// overlap any existing interval (touching boundaries are allowed). The first
// conflicting interval is reported with its bounds.
func Validate(existing []Interval, candidate Interval) Result {
	if !candidate.EndTime.After(candidate.StartTime) {
		return Result{Reason: ReasonEndBeforeStart}
	}

	for _, e := range existing {
		if candidate.Overlaps(e) {
			return Result{
				Reason: fmt.Sprintf(
					"time slot conflicts with an existing booking from %s to %s",
					e.StartTime.Format(time.RFC3339),
					e.EndTime.Format(time.RFC3339),
				),
			}
		}
	}

	return Result{Valid: true}
}
