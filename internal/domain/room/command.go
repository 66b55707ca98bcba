package room

import (
	"time"
)

// Device is a controllable piece of room equipment.
type Device string

// Known devices.
const (
	DeviceDoor      Device = "door"
	DeviceLights    Device = "lights"
	DeviceProjector Device = "projector"
)

// Action is what a device is told to do.
type Action string

// Known actions.
const (
	ActionLock   Action = "lock"
	ActionUnlock Action = "unlock"
	ActionOn     Action = "on"
	ActionOff    Action = "off"
)

// Command is a single instruction for one device in one room.
type Command struct {
	RoomID string `json:"roomId"`
	Device Device `json:"device"`
	Action Action `json:"action"`
}

// PrepareCommands readies a room for a lecture, in issue order:
// unlock the door, lights on, projector on.
func PrepareCommands(roomID string) []Command {
	return []Command{
		{RoomID: roomID, Device: DeviceDoor, Action: ActionUnlock},
		{RoomID: roomID, Device: DeviceLights, Action: ActionOn},
		{RoomID: roomID, Device: DeviceProjector, Action: ActionOn},
	}
}

// SecureCommands shuts a room down, in issue order:
// lights off, projector off, lock the door.
func SecureCommands(roomID string) []Command {
	return []Command{
		{RoomID: roomID, Device: DeviceLights, Action: ActionOff},
		{RoomID: roomID, Device: DeviceProjector, Action: ActionOff},
		{RoomID: roomID, Device: DeviceDoor, Action: ActionLock},
	}
}

// OccupancySample is one answer from the occupancy sensor.
type OccupancySample struct {
	RoomID     string
	HumanCount int
	ObservedAt time.Time
}

// Empty reports whether nobody was detected.
func (s OccupancySample) Empty() bool {
	return s.HumanCount == 0
}
