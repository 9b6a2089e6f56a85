// Package joystick tracks raw joystick devices and their state.
//
// Devices live in a slot table (see the slots package). Events address a
// device by instance id, queries address it by slot index. Every change to a
// slot's state increments its packet number so that two snapshots of the same
// slot can be ordered.
package joystick

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/slots"
)

// ErrInvalidArgument is returned for out of range slot, axis, button or hat
// indices.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrUnknownInstance is returned when an event names an instance id that is
// not currently connected.
var ErrUnknownInstance = errors.New("unknown instance id")

// Slot is the persistent record of one joystick.
type Slot struct {
	Device     Device
	Name       string
	GUID       mapping.GUID
	InstanceID slots.InstanceID

	NumAxes    int
	NumButtons int
	NumHats    int

	state Snapshot
}

// Registry owns the joystick slot table and the live state of every slot.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	opener Opener
	table  *slots.Table[Slot]
}

// NewRegistry creates an empty registry that opens devices with opener.
func NewRegistry(opener Opener) *Registry {
	return &Registry{
		opener: opener,
		table:  slots.New[Slot](),
	}
}

// Added opens the device at deviceID and places it in a slot. Returns the
// slot index.
//
// A device that can't be opened is not an error for the caller to deal with
// beyond logging: no slot is created and the device does not appear.
func (r *Registry) Added(deviceID int) (int, error) {
	dev, err := r.opener.Open(deviceID)
	if err != nil {
		return 0, fmt.Errorf("joystick: open device %d: %w", deviceID, err)
	}

	s := Slot{
		Device:     dev,
		Name:       dev.Name(),
		GUID:       dev.GUID(),
		InstanceID: dev.InstanceID(),
		NumAxes:    clamp(dev.NumAxes(), MaxAxes),
		NumButtons: clamp(dev.NumButtons(), MaxButtons),
		NumHats:    clamp(dev.NumHats(), MaxHats),
	}

	// a reused slot keeps counting packets from where it left off
	if r.table.Reusable(deviceID, s.InstanceID) {
		s.state.PacketNumber = r.table.Get(deviceID).state.PacketNumber
	}
	s.state.Connected = true
	s.state.PacketNumber = nextPacket(s.state.PacketNumber)

	idx := r.table.Place(deviceID, s.InstanceID, s)
	return idx, nil
}

// Removed marks the slot for instance id as disconnected. Unknown instance
// ids are ignored. Returns the slot index and whether anything changed.
func (r *Registry) Removed(id slots.InstanceID) (int, bool) {
	idx, ok := r.table.Release(id)
	if !ok {
		return 0, false
	}

	s := r.table.Get(idx)
	s.state.Connected = false
	s.state.PacketNumber = nextPacket(s.state.PacketNumber)
	if s.Device != nil {
		if err := s.Device.Close(); err != nil {
			log.Printf("Joystick %d close: %v", id, err)
		}
	}
	return idx, true
}

// Resolve returns the slot index for a connected instance id.
func (r *Registry) Resolve(id slots.InstanceID) (int, bool) {
	return r.table.Resolve(id)
}

// Slot returns a copy of the slot at index.
func (r *Registry) Slot(index int) (Slot, error) {
	s := r.table.Get(index)
	if s == nil {
		return Slot{}, fmt.Errorf("joystick: slot %d: %w", index, ErrInvalidArgument)
	}
	return *s, nil
}

// Len is the number of slots ever assigned.
func (r *Registry) Len() int {
	return r.table.Len()
}

// Connected is the number of currently connected devices.
func (r *Registry) Connected() int {
	return r.table.Active()
}

func (r *Registry) slot(index int) (*Slot, error) {
	s := r.table.Get(index)
	if s == nil {
		return nil, fmt.Errorf("joystick: slot %d: %w", index, ErrInvalidArgument)
	}
	return s, nil
}

// Close closes every connected device.
func (r *Registry) Close() {
	for i := 0; i < r.table.Len(); i++ {
		s := r.table.Get(i)
		if s.state.Connected && s.Device != nil {
			_ = s.Device.Close()
		}
		s.state.Connected = false
	}
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

// nextPacket increments a packet number. An overflow does not wrap to the
// most negative value but restarts at zero.
func nextPacket(p int32) int32 {
	if p == math.MaxInt32 {
		return 0
	}
	return p + 1
}
