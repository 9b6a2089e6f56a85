package gamepad_test

import (
	"testing"

	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/joystick"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/test"
)

func mustParse(t *testing.T, record string) *mapping.Configuration {
	t.Helper()
	cfg, err := mapping.Parse(record)
	test.DemandSuccess(t, err)
	return cfg
}

const testGUID = "03000000aaaa0000bbbb000000000000"

func TestApplyDefaultMapping(t *testing.T) {
	db := mapping.NewDatabase()
	cfg := db.Lookup(mapping.ZeroGUID)

	var snap joystick.Snapshot
	snap.Connected = true
	snap.PacketNumber = 42
	snap.Buttons = 1 << 0

	st := gamepad.Apply(snap, cfg)
	test.ExpectEquality(t, st.Buttons.A(), gamepad.Pressed)
	test.ExpectEquality(t, st.Buttons.B(), gamepad.Released)
	test.ExpectEquality(t, st.Buttons.Start(), gamepad.Released)
	test.ExpectEquality(t, st.IsConnected, true)
	test.ExpectEquality(t, st.PacketNumber, int32(42))

	snap.Buttons = 0
	snap.Hats[0] = mapping.HatBitUp
	st = gamepad.Apply(snap, cfg)
	test.ExpectEquality(t, st.DPad(), gamepad.DPad{Up: gamepad.Pressed})

	snap.Hats[0] = mapping.HatBitUp | mapping.HatBitRight
	st = gamepad.Apply(snap, cfg)
	test.ExpectEquality(t, st.DPad(), gamepad.DPad{Up: gamepad.Pressed, Right: gamepad.Pressed})

	// codes outside the table are centred
	snap.Hats[0] = mapping.HatBitUp | mapping.HatBitDown
	st = gamepad.Apply(snap, cfg)
	test.ExpectEquality(t, st.DPad(), gamepad.DPad{})
}

func TestApplyIdempotent(t *testing.T) {
	cfg := mapping.NewDatabase().Lookup(mapping.ZeroGUID)

	var snap joystick.Snapshot
	snap.Axes[0] = 1000
	snap.Axes[2] = -20000
	snap.Axes[5] = 32767
	snap.Buttons = 0b1010_0101
	snap.Hats[0] = 9

	a := gamepad.Apply(snap, cfg)
	b := gamepad.Apply(snap, cfg)
	test.ExpectEquality(t, a, b)
}

func TestAxisToButtonThreshold(t *testing.T) {
	cfg := mustParse(t, testGUID+",Threshold,a:a0,dpleft:a1")

	tests := []struct {
		value   int16
		pressed gamepad.ButtonState
	}{
		{0, gamepad.Released},
		{16383, gamepad.Released},
		{16384, gamepad.Pressed},
		{32767, gamepad.Pressed},
		{-16383, gamepad.Released},
		{-16384, gamepad.Pressed},
		{-32768, gamepad.Pressed},
	}

	for _, tt := range tests {
		var snap joystick.Snapshot
		snap.Axes[0] = tt.value
		snap.Axes[1] = tt.value
		st := gamepad.Apply(snap, cfg)
		test.ExpectEquality(t, st.Buttons.A(), tt.pressed, tt.value)
		test.ExpectEquality(t, st.DPad().Left, tt.pressed, tt.value)
	}
}

func TestDigitalToAxis(t *testing.T) {
	cfg := mustParse(t, testGUID+",Digital,lefttrigger:b0,righttrigger:h0.4,leftx:b1,righty:h0.1")

	var snap joystick.Snapshot
	st := gamepad.Apply(snap, cfg)
	test.ExpectEquality(t, st.Triggers.Left, 0.0)
	test.ExpectEquality(t, st.Triggers.Right, 0.0)
	test.ExpectEquality(t, st.ThumbSticks.Left.X, 0.0)
	test.ExpectEquality(t, st.ThumbSticks.Right.Y, 0.0)

	snap.Buttons = 0b11
	snap.Hats[0] = mapping.HatBitDown | mapping.HatBitRight
	st = gamepad.Apply(snap, cfg)
	test.ExpectEquality(t, st.Triggers.Left, 1.0)
	test.ExpectEquality(t, st.Triggers.Right, 1.0)
	test.ExpectEquality(t, st.ThumbSticks.Left.X, 1.0)
	test.ExpectEquality(t, st.ThumbSticks.Right.Y, 0.0)
}

func TestAxisPassthrough(t *testing.T) {
	cfg := mustParse(t, testGUID+",Axes,leftx:a3,lefty:a2,rightx:a1,righty:a0,lefttrigger:a4,righttrigger:a5")

	var snap joystick.Snapshot
	snap.Axes = [joystick.MaxAxes]int16{32767, -32768, 0, 16384, -32768, 32767}

	st := gamepad.Apply(snap, cfg)
	test.ExpectEquality(t, st.ThumbSticks.Left.X, gamepad.NormalizeAxis(16384))
	test.ExpectEquality(t, st.ThumbSticks.Left.Y, 0.0)
	test.ExpectEquality(t, st.ThumbSticks.Right.X, -1.0)
	test.ExpectEquality(t, st.ThumbSticks.Right.Y, 1.0)
	test.ExpectEquality(t, st.Triggers.Left, 0.0)
	test.ExpectEquality(t, st.Triggers.Right, 1.0)
}

func TestUnmappedTargetsSkipped(t *testing.T) {
	cfg := mustParse(t, testGUID+",Extras,a:b0,misc1:b1,paddle1:b2,touchpad:b3")

	var snap joystick.Snapshot
	snap.Buttons = 0b1110
	st := gamepad.Apply(snap, cfg)
	test.ExpectEquality(t, st.Buttons, gamepad.Buttons(mapping.ButtonNone))

	caps := gamepad.CapabilitiesOf(cfg, true)
	test.ExpectEquality(t, caps.Buttons, mapping.ButtonA)
	test.ExpectEquality(t, caps.DeviceType, gamepad.DeviceGamepad)
	test.ExpectSuccess(t, caps.HasMapping)
}

func TestLaterItemsWin(t *testing.T) {
	cfg := mustParse(t, testGUID+",Twice,a:b0,a:b1")

	var snap joystick.Snapshot
	snap.Buttons = 0b01
	st := gamepad.Apply(snap, cfg)
	test.ExpectEquality(t, st.Buttons.A(), gamepad.Released)

	snap.Buttons = 0b10
	st = gamepad.Apply(snap, cfg)
	test.ExpectEquality(t, st.Buttons.A(), gamepad.Pressed)
}

func TestCapabilities(t *testing.T) {
	db := mapping.NewDatabase()

	caps := gamepad.CapabilitiesOf(db.Lookup(mapping.ZeroGUID), false)
	test.ExpectFailure(t, caps.HasMapping)
	test.ExpectFailure(t, caps.IsConnected)
	test.ExpectEquality(t, caps.DeviceType, gamepad.DeviceGamepad)
	test.ExpectSuccess(t, caps.HasAxis(mapping.AxisLeftX|mapping.AxisRightTrigger))
	test.ExpectSuccess(t, caps.HasButton(mapping.ButtonGuide))

	caps = gamepad.CapabilitiesOf(nil, true)
	test.ExpectEquality(t, caps.DeviceType, gamepad.DeviceUnknown)
	test.ExpectFailure(t, caps.HasAxis(mapping.AxisNone))
}
