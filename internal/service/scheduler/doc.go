// Package scheduler announces upcoming bookings.
//
// The Poller looks for bookings that start soon and have not been announced,
// publishes a PrepareRoomEvent for each and records the announcement in the
// ledger. A failed ledger write leaves the booking eligible for the next tick,
// so an event may be delivered more than once.
package scheduler
