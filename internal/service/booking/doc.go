// Package booking creates bookings and lists room schedules.
//
// Service checks a request twice: once against the bookings it read for the
// room's day, and again inside the store's write transaction. Callers tell the
// two outcomes apart with errors.Is against booking.ErrValidation and
// booking.ErrConflict.
package booking
