package gamepad

import (
	"fmt"

	"github.com/soar/padinput/backend/internal/joystick"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/slots"
)

// Controller is a gamepad handle opened by a backend. It is separate from
// the joystick handle for the same physical device and has its own instance
// id namespace.
type Controller interface {
	InstanceID() slots.InstanceID
	Name() string
	GUID() mapping.GUID
	Close() error
}

// ControllerOpener opens the n-th currently enumerable gamepad.
type ControllerOpener interface {
	OpenController(deviceID int) (Controller, error)
}

// ControllerSlot is the persistent record of one gamepad handle.
type ControllerSlot struct {
	Controller Controller
	Name       string
	GUID       mapping.GUID
	InstanceID slots.InstanceID
	Connected  bool
}

// ControllerRegistry owns the gamepad slot table. It works like the joystick
// registry but is entirely independent of it: slot indices and instance ids
// of one registry mean nothing to the other.
type ControllerRegistry struct {
	opener ControllerOpener
	table  *slots.Table[ControllerSlot]
}

// NewControllerRegistry creates an empty registry that opens gamepads with
// opener.
func NewControllerRegistry(opener ControllerOpener) *ControllerRegistry {
	return &ControllerRegistry{
		opener: opener,
		table:  slots.New[ControllerSlot](),
	}
}

// Added opens the gamepad at deviceID and places it in a slot.
func (r *ControllerRegistry) Added(deviceID int) (int, error) {
	c, err := r.opener.OpenController(deviceID)
	if err != nil {
		return 0, fmt.Errorf("gamepad: open device %d: %w", deviceID, err)
	}

	s := ControllerSlot{
		Controller: c,
		Name:       c.Name(),
		GUID:       c.GUID(),
		InstanceID: c.InstanceID(),
		Connected:  true,
	}
	return r.table.Place(deviceID, s.InstanceID, s), nil
}

// Removed marks the slot for the instance id as disconnected. Unknown ids are
// ignored.
func (r *ControllerRegistry) Removed(id slots.InstanceID) (int, bool) {
	idx, ok := r.table.Release(id)
	if !ok {
		return 0, false
	}
	s := r.table.Get(idx)
	s.Connected = false
	if s.Controller != nil {
		_ = s.Controller.Close()
	}
	return idx, true
}

// Resolve returns the slot index for a connected instance id.
func (r *ControllerRegistry) Resolve(id slots.InstanceID) (int, bool) {
	return r.table.Resolve(id)
}

// Slot returns a copy of the slot at index.
func (r *ControllerRegistry) Slot(index int) (ControllerSlot, error) {
	s := r.table.Get(index)
	if s == nil {
		return ControllerSlot{}, fmt.Errorf("gamepad: slot %d: %w", index, joystick.ErrInvalidArgument)
	}
	return *s, nil
}

// Len is the number of slots ever assigned.
func (r *ControllerRegistry) Len() int {
	return r.table.Len()
}

// Close closes every connected gamepad handle.
func (r *ControllerRegistry) Close() {
	for i := 0; i < r.table.Len(); i++ {
		s := r.table.Get(i)
		if s.Connected && s.Controller != nil {
			_ = s.Controller.Close()
		}
		s.Connected = false
	}
}
