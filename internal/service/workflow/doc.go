// Package workflow drives the lifecycle of a room around a lecture.
//
// Every PrepareRoomEvent starts an independent activation: the room is
// prepared immediately, monitoring begins when the lecture ends, and the room
// is secured after the first empty occupancy reading. Activations live only in
// memory; a restart abandons the ones in flight.
package workflow
