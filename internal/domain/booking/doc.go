// Package booking contains the booking model and the conflict rules that gate
// every write into the booking store.
//
// Validate is pure: it compares a candidate interval against the bookings
// already read for the room and returns a tagged Result. Because that read and
// the insert are not linked, stores must re-check for conflicts and report
// them as ConflictError, which is the authoritative answer for concurrent writers.
package booking
