package joystick

import (
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/slots"
)

// Capacity of a Snapshot. Device reported counts are clamped to these values.
const (
	MaxAxes    = 64
	MaxButtons = 64
	MaxHats    = 4
)

// Device is an opened joystick as provided by a backend.
type Device interface {
	// InstanceID is the handle used by every event for this connection of
	// the device.
	InstanceID() slots.InstanceID

	Name() string
	GUID() mapping.GUID
	NumAxes() int
	NumButtons() int
	NumHats() int

	Close() error
}

// Opener opens the n-th currently enumerable device. The device id is only
// meaningful at the moment of the call.
type Opener interface {
	Open(deviceID int) (Device, error)
}
