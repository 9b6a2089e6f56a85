package gamepad

import (
	"github.com/soar/padinput/backend/internal/mapping"
)

// ButtonState of a single button.
type ButtonState bool

// List of valid ButtonState values.
const (
	Released ButtonState = false
	Pressed  ButtonState = true
)

func (b ButtonState) String() string {
	if b {
		return "Pressed"
	}
	return "Released"
}

// Vector2 is a thumbstick position. Both components are in -1.0..1.0.
type Vector2 struct {
	X float64
	Y float64
}

// ThumbSticks holds both thumbstick positions.
type ThumbSticks struct {
	Left  Vector2
	Right Vector2
}

// Triggers holds both trigger magnitudes in 0.0..1.0.
type Triggers struct {
	Left  float64
	Right float64
}

// Buttons is the set of pressed buttons.
type Buttons mapping.Button

// State returns the state of a single button.
func (b Buttons) State(button mapping.Button) ButtonState {
	return ButtonState(mapping.Button(b).Has(button))
}

func (b Buttons) A() ButtonState             { return b.State(mapping.ButtonA) }
func (b Buttons) B() ButtonState             { return b.State(mapping.ButtonB) }
func (b Buttons) X() ButtonState             { return b.State(mapping.ButtonX) }
func (b Buttons) Y() ButtonState             { return b.State(mapping.ButtonY) }
func (b Buttons) Back() ButtonState          { return b.State(mapping.ButtonBack) }
func (b Buttons) Guide() ButtonState         { return b.State(mapping.ButtonGuide) }
func (b Buttons) Start() ButtonState         { return b.State(mapping.ButtonStart) }
func (b Buttons) LeftStick() ButtonState     { return b.State(mapping.ButtonLeftStick) }
func (b Buttons) RightStick() ButtonState    { return b.State(mapping.ButtonRightStick) }
func (b Buttons) LeftShoulder() ButtonState  { return b.State(mapping.ButtonLeftShoulder) }
func (b Buttons) RightShoulder() ButtonState { return b.State(mapping.ButtonRightShoulder) }

func (b Buttons) String() string {
	return mapping.Button(b).String()
}

// DPad is the directional pad view of the dpad buttons.
type DPad struct {
	Up    ButtonState
	Down  ButtonState
	Left  ButtonState
	Right ButtonState
}

// State is the normalized state of a gamepad.
type State struct {
	ThumbSticks  ThumbSticks
	Buttons      Buttons
	Triggers     Triggers
	IsConnected  bool
	PacketNumber int32
}

// DPad derives the directional pad from the button set.
func (s State) DPad() DPad {
	return DPad{
		Up:    s.Buttons.State(mapping.ButtonDPadUp),
		Down:  s.Buttons.State(mapping.ButtonDPadDown),
		Left:  s.Buttons.State(mapping.ButtonDPadLeft),
		Right: s.Buttons.State(mapping.ButtonDPadRight),
	}
}

// DeviceType of a gamepad.
type DeviceType int

// List of valid DeviceType values.
const (
	DeviceUnknown DeviceType = iota
	DeviceGamepad
)

func (d DeviceType) String() string {
	switch d {
	case DeviceGamepad:
		return "gamepad"
	}
	return "unknown"
}

// Capabilities describes what a gamepad's mapping provides.
type Capabilities struct {
	Axes        mapping.Axis
	Buttons     mapping.Button
	DeviceType  DeviceType
	IsConnected bool

	// HasMapping is true when the device has a record of its own rather than
	// the fallback record
	HasMapping bool
}

// HasAxis is true if the mapping provides the axis.
func (c Capabilities) HasAxis(a mapping.Axis) bool {
	return a != 0 && c.Axes&a == a
}

// HasButton is true if the mapping provides the button.
func (c Capabilities) HasButton(b mapping.Button) bool {
	return c.Buttons.Has(b)
}
