package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/room-automation/internal/domain/booking"
)

// ErrInvalidEvent is returned for messages that are not a usable PrepareRoomEvent.
var ErrInvalidEvent = errors.New("invalid prepare room event")

// PrepareRoomEvent announces that a booked lecture is about to start.
// It travels as JSON with an RFC 3339 startTime.
type PrepareRoomEvent struct {
	// BookingID identifies the announced booking.
	BookingID string `json:"bookingId"`
	// RoomID identifies the room to prepare.
	RoomID string `json:"roomId"`
	// StartTime is when the lecture starts.
	StartTime time.Time `json:"startTime"`
}

// NewPrepareRoomEvent builds the announcement for b.
func NewPrepareRoomEvent(b booking.Booking) PrepareRoomEvent {
	return PrepareRoomEvent{
		BookingID: b.ID,
		RoomID:    b.RoomID,
		StartTime: b.StartTime,
	}
}

// Encode serializes the event for the queue.
func (e PrepareRoomEvent) Encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return body, nil
}

// Validate checks that every field is present.
func (e PrepareRoomEvent) Validate() error {
	switch {
	case e.BookingID == "":
		return fmt.Errorf("%w: bookingId is empty", ErrInvalidEvent)
	case e.RoomID == "":
		return fmt.Errorf("%w: roomId is empty", ErrInvalidEvent)
	case e.StartTime.IsZero():
		return fmt.Errorf("%w: startTime is empty", ErrInvalidEvent)
	}

	return nil
}

// DecodePrepareRoomEvent parses and validates a queue message body.
func DecodePrepareRoomEvent(body []byte) (PrepareRoomEvent, error) {
	var e PrepareRoomEvent

	if err := json.Unmarshal(body, &e); err != nil {
		return PrepareRoomEvent{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	if err := e.Validate(); err != nil {
		return PrepareRoomEvent{}, err
	}

	return e, nil
}
