package gamepad

import (
	"github.com/soar/padinput/backend/internal/joystick"
	"github.com/soar/padinput/backend/internal/mapping"
)

// axisPressThreshold is half of the raw axis magnitude. An axis mapped to a
// button presses it at or beyond this value in either direction.
const axisPressThreshold = 16384

// raw is the intermediate result of Apply, before scaling.
type raw struct {
	axes    [6]int16
	buttons mapping.Button
}

func axisSlot(a mapping.Axis) int {
	switch a {
	case mapping.AxisLeftX:
		return 0
	case mapping.AxisLeftY:
		return 1
	case mapping.AxisRightX:
		return 2
	case mapping.AxisRightY:
		return 3
	case mapping.AxisLeftTrigger:
		return 4
	case mapping.AxisRightTrigger:
		return 5
	}
	return -1
}

// Apply translates a raw joystick snapshot into gamepad state using the items
// of cfg, in order. Later items overwrite earlier ones for the same target.
//
// Apply has no side effects: the same snapshot and configuration always give
// the same State.
func Apply(snap joystick.Snapshot, cfg *mapping.Configuration) State {
	var r raw

	// triggers rest at fully released
	r.axes[axisSlot(mapping.AxisLeftTrigger)] = joystick.AxisMin
	r.axes[axisSlot(mapping.AxisRightTrigger)] = joystick.AxisMin

	if cfg != nil {
		for _, it := range cfg.Items {
			r.apply(&snap, it)
		}
	}

	return State{
		ThumbSticks: ThumbSticks{
			Left:  Vector2{X: NormalizeAxis(r.axes[0]), Y: NormalizeAxis(r.axes[1])},
			Right: Vector2{X: NormalizeAxis(r.axes[2]), Y: NormalizeAxis(r.axes[3])},
		},
		Triggers: Triggers{
			Left:  NormalizeTrigger(r.axes[4], joystick.AxisMin, joystick.AxisMax),
			Right: NormalizeTrigger(r.axes[5], joystick.AxisMin, joystick.AxisMax),
		},
		Buttons:      Buttons(r.buttons),
		IsConnected:  snap.Connected,
		PacketNumber: snap.PacketNumber,
	}
}

func (r *raw) apply(snap *joystick.Snapshot, it mapping.Item) {
	switch src := it.Source.(type) {
	case mapping.AxisSource:
		v := snap.Axis(src.Index)
		switch t := it.Target.(type) {
		case mapping.AxisTarget:
			r.setAxis(t.Axis, v)
		case mapping.ButtonTarget:
			r.setButton(t.Button, abs(v) >= axisPressThreshold)
		}

	case mapping.ButtonSource:
		r.digital(it.Target, snap.Button(src.Index))

	case mapping.HatSource:
		r.digital(it.Target, snap.Hat(src.Hat).Contains(src.Position()))
	}
}

// digital applies a pressed/released source to a target.
func (r *raw) digital(target mapping.Target, pressed bool) {
	switch t := target.(type) {
	case mapping.AxisTarget:
		switch {
		case pressed:
			r.setAxis(t.Axis, joystick.AxisMax)
		case t.Axis.IsTrigger():
			r.setAxis(t.Axis, joystick.AxisMin)
		default:
			r.setAxis(t.Axis, 0)
		}
	case mapping.ButtonTarget:
		r.setButton(t.Button, pressed)
	}
}

func (r *raw) setAxis(a mapping.Axis, v int16) {
	if i := axisSlot(a); i >= 0 {
		r.axes[i] = v
	}
}

func (r *raw) setButton(b mapping.Button, pressed bool) {
	if pressed {
		r.buttons |= b
	} else {
		r.buttons &^= b
	}
}

func abs(v int16) int32 {
	if v < 0 {
		return -int32(v)
	}
	return int32(v)
}

// CapabilitiesOf describes what cfg provides for a device.
func CapabilitiesOf(cfg *mapping.Configuration, connected bool) Capabilities {
	c := Capabilities{
		IsConnected: connected,
		DeviceType:  DeviceUnknown,
	}
	if cfg == nil {
		return c
	}
	c.Axes = cfg.Axes()
	c.Buttons = cfg.Buttons()
	c.HasMapping = !cfg.IsDefault()
	if c.Axes != 0 || c.Buttons != 0 {
		c.DeviceType = DeviceGamepad
	}
	return c
}
