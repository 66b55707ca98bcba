// Package common holds helpers shared by the daemons and the booking tool.
//
// Start performs the boot sequence every daemon shares: configuration,
// log level, tracing and the optional health server. DetectLecturer supplies
// the default lecturer id for bookings made from a terminal.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
