// Package booking persists bookings and the announcement ledger.
//
// Two implementations share the Store contract: SQLiteStore keeps everything
// in an embedded database file and is the default, PostgresStore uses gorm for
// deployments where several service instances share one database. Both
// enforce a unique (room_id, start_time) index and re-check overlaps inside
// the insert transaction, reporting losses as *booking.ConflictError.
package booking
