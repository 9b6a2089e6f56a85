package joystick

import (
	"fmt"
	"math"

	"github.com/soar/padinput/backend/internal/mapping"
)

// Raw axis range reported by backends.
const (
	AxisMin = math.MinInt16
	AxisMax = math.MaxInt16
)

// Snapshot is a copy of the raw state of one joystick. Entries beyond the
// device's reported counts are always neutral.
type Snapshot struct {
	Axes         [MaxAxes]int16
	Buttons      uint64
	Hats         [MaxHats]uint8
	Connected    bool
	PacketNumber int32
}

// Button returns the pressed state of button i. Out of range indices are
// released.
func (s *Snapshot) Button(i int) bool {
	if i < 0 || i >= MaxButtons {
		return false
	}
	return s.Buttons&(1<<uint(i)) != 0
}

// Axis returns the raw value of axis i. Out of range indices are centred.
func (s *Snapshot) Axis(i int) int16 {
	if i < 0 || i >= MaxAxes {
		return 0
	}
	return s.Axes[i]
}

// Hat returns the location of hat i. Out of range indices are centred.
func (s *Snapshot) Hat(i int) mapping.HatLocation {
	if i < 0 || i >= MaxHats {
		return mapping.HatCentered
	}
	return mapping.HatLocationFromCode(int(s.Hats[i]))
}

// SetAxis records the raw value of an axis.
func (r *Registry) SetAxis(index int, axis int, value int16) error {
	s, err := r.slot(index)
	if err != nil {
		return err
	}
	if axis < 0 || axis >= s.NumAxes {
		return fmt.Errorf("joystick: slot %d axis %d of %d: %w", index, axis, s.NumAxes, ErrInvalidArgument)
	}
	s.state.Axes[axis] = value
	s.state.PacketNumber = nextPacket(s.state.PacketNumber)
	return nil
}

// SetButton records the pressed state of a button.
func (r *Registry) SetButton(index int, button int, pressed bool) error {
	s, err := r.slot(index)
	if err != nil {
		return err
	}
	if button < 0 || button >= s.NumButtons {
		return fmt.Errorf("joystick: slot %d button %d of %d: %w", index, button, s.NumButtons, ErrInvalidArgument)
	}
	if pressed {
		s.state.Buttons |= 1 << uint(button)
	} else {
		s.state.Buttons &^= 1 << uint(button)
	}
	s.state.PacketNumber = nextPacket(s.state.PacketNumber)
	return nil
}

// SetHat records the position bitmask of a hat.
func (r *Registry) SetHat(index int, hat int, position uint8) error {
	s, err := r.slot(index)
	if err != nil {
		return err
	}
	if hat < 0 || hat >= s.NumHats {
		return fmt.Errorf("joystick: slot %d hat %d of %d: %w", index, hat, s.NumHats, ErrInvalidArgument)
	}
	s.state.Hats[hat] = position
	s.state.PacketNumber = nextPacket(s.state.PacketNumber)
	return nil
}

// Snapshot returns a copy of the current state of a slot.
func (r *Registry) Snapshot(index int) (Snapshot, error) {
	s, err := r.slot(index)
	if err != nil {
		return Snapshot{}, err
	}
	return s.state, nil
}

// GetAxis returns the value of an axis scaled to the range -1.0 to 1.0.
func (r *Registry) GetAxis(index int, axis int) (float64, error) {
	s, err := r.slot(index)
	if err != nil {
		return 0, err
	}
	if axis < 0 || axis >= s.NumAxes {
		return 0, fmt.Errorf("joystick: slot %d axis %d of %d: %w", index, axis, s.NumAxes, ErrInvalidArgument)
	}
	v := float64(s.state.Axes[axis]) / AxisMax
	if v < -1.0 {
		v = -1.0
	}
	return v, nil
}

// GetButton returns the pressed state of a button.
func (r *Registry) GetButton(index int, button int) (bool, error) {
	s, err := r.slot(index)
	if err != nil {
		return false, err
	}
	if button < 0 || button >= s.NumButtons {
		return false, fmt.Errorf("joystick: slot %d button %d of %d: %w", index, button, s.NumButtons, ErrInvalidArgument)
	}
	return s.state.Button(button), nil
}

// GetHat returns the location of a hat.
func (r *Registry) GetHat(index int, hat int) (mapping.HatLocation, error) {
	s, err := r.slot(index)
	if err != nil {
		return mapping.HatCentered, err
	}
	if hat < 0 || hat >= s.NumHats {
		return mapping.HatCentered, fmt.Errorf("joystick: slot %d hat %d of %d: %w", index, hat, s.NumHats, ErrInvalidArgument)
	}
	return s.state.Hat(hat), nil
}
