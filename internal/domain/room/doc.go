// Package room describes what happens to a physical room around a lecture:
// the PrepareRoomEvent announcing it, the device commands that prepare and
// secure it, and the phases an activation moves through.
package room
