package booking

import (
	"time"
)

// Booking is a persisted reservation of a room for a lecture.
// Bookings are immutable once created.
type Booking struct {
	// ID is the opaque identifier assigned by the store.
	ID string
	// RoomID identifies the booked room.
	RoomID string
	// LecturerID identifies who booked the room.
	LecturerID string
	// CourseTitle is the lecture shown in schedules.
	CourseTitle string
	// StartTime is when the lecture starts.
	StartTime time.Time
	// EndTime is when the lecture ends; always after StartTime.
	EndTime time.Time
}

// Interval returns the booked time range.
func (b Booking) Interval() Interval {
	return Interval{
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
	}
}

// Details are the caller-supplied fields of a booking to create.
type Details struct {
	// RoomID identifies the room to book.
	RoomID string `validate:"required"`
	// LecturerID identifies the lecturer making the booking.
	LecturerID string `validate:"required"`
	// CourseTitle is the lecture title.
	CourseTitle string `validate:"required"`
	// StartTime is when the lecture starts.
	StartTime time.Time `validate:"required"`
	// EndTime is when the lecture ends.
	EndTime time.Time `validate:"required"`
}

// Interval returns the requested time range.
func (d Details) Interval() Interval {
	return Interval{
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
	}
}

// Interval is a half-open time range [StartTime, EndTime).
type Interval struct {
	StartTime time.Time
	EndTime   time.Time
}

// Overlaps reports whether the two open intervals strictly overlap.
// Intervals that only touch at a boundary do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.StartTime.Before(other.EndTime) && i.EndTime.After(other.StartTime)
}

// Intervals extracts the time ranges of bookings.
func Intervals(bookings []Booking) []Interval {
	out := make([]Interval, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Interval())
	}

	return out
}
