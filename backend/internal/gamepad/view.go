package gamepad

import (
	"math"

	"github.com/soar/padinput/backend/internal/mapping"
)

// The View types are the JSON form of a gamepad sent to viewers.

type VectorView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type StickView struct {
	Position VectorView `json:"position"`
	Pressed  bool       `json:"pressed"`
}

type TriggerView struct {
	Value float64 `json:"value"`
}

type ButtonsView struct {
	A      bool `json:"a"`
	B      bool `json:"b"`
	X      bool `json:"x"`
	Y      bool `json:"y"`
	LB     bool `json:"lb"`
	RB     bool `json:"rb"`
	Select bool `json:"select"`
	Start  bool `json:"start"`
	Home   bool `json:"home"`
}

type DPadView struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

type SticksView struct {
	Left  StickView `json:"left"`
	Right StickView `json:"right"`
}

type TriggersView struct {
	LT TriggerView `json:"lt"`
	RT TriggerView `json:"rt"`
}

// View is the state of one gamepad as shown to viewers.
type View struct {
	PlayerIndex    int          `json:"playerIndex"`
	Connected      bool         `json:"connected"`
	ControllerType string       `json:"controllerType"`
	Name           string       `json:"name"`
	GUID           string       `json:"guid"`
	Packet         int32        `json:"packet"`
	Buttons        ButtonsView  `json:"buttons"`
	Dpad           DPadView     `json:"dpad"`
	Sticks         SticksView   `json:"sticks"`
	Triggers       TriggersView `json:"triggers"`
}

// NewView builds a View. The deadzone is applied to sticks and triggers.
func NewView(playerIndex int, name string, guid mapping.GUID, st State, caps Capabilities, deadzone float64) View {
	ctype := "generic"
	if caps.HasMapping {
		ctype = "mapped"
	}

	b := st.Buttons
	dp := st.DPad()

	return View{
		PlayerIndex:    playerIndex,
		Connected:      st.IsConnected,
		ControllerType: ctype,
		Name:           name,
		GUID:           guid.String(),
		Packet:         st.PacketNumber,
		Buttons: ButtonsView{
			A:      bool(b.A()),
			B:      bool(b.B()),
			X:      bool(b.X()),
			Y:      bool(b.Y()),
			LB:     bool(b.LeftShoulder()),
			RB:     bool(b.RightShoulder()),
			Select: bool(b.Back()),
			Start:  bool(b.Start()),
			Home:   bool(b.Guide()),
		},
		Dpad: DPadView{
			Up:    bool(dp.Up),
			Down:  bool(dp.Down),
			Left:  bool(dp.Left),
			Right: bool(dp.Right),
		},
		Sticks: SticksView{
			Left: StickView{
				Position: VectorView{
					X: ApplyDeadzone(st.ThumbSticks.Left.X, deadzone),
					Y: ApplyDeadzone(st.ThumbSticks.Left.Y, deadzone),
				},
				Pressed: bool(b.LeftStick()),
			},
			Right: StickView{
				Position: VectorView{
					X: ApplyDeadzone(st.ThumbSticks.Right.X, deadzone),
					Y: ApplyDeadzone(st.ThumbSticks.Right.Y, deadzone),
				},
				Pressed: bool(b.RightStick()),
			},
		},
		Triggers: TriggersView{
			LT: TriggerView{Value: ApplyDeadzone(st.Triggers.Left, deadzone)},
			RT: TriggerView{Value: ApplyDeadzone(st.Triggers.Right, deadzone)},
		},
	}
}

// DeltaChanges holds the parts of a View that changed. Unchanged parts are nil.
type DeltaChanges struct {
	Connected      *bool         `json:"connected,omitempty"`
	ControllerType *string       `json:"controllerType,omitempty"`
	Name           *string       `json:"name,omitempty"`
	Buttons        *ButtonsView  `json:"buttons,omitempty"`
	Dpad           *DPadView     `json:"dpad,omitempty"`
	Sticks         *SticksView   `json:"sticks,omitempty"`
	Triggers       *TriggersView `json:"triggers,omitempty"`
}

func (d *DeltaChanges) IsEmpty() bool {
	return d.Connected == nil &&
		d.ControllerType == nil &&
		d.Name == nil &&
		d.Buttons == nil &&
		d.Dpad == nil &&
		d.Sticks == nil &&
		d.Triggers == nil
}

const analogThreshold = 0.01

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

func ComputeDelta(old, new_ View) *DeltaChanges {
	d := &DeltaChanges{}

	if old.Connected != new_.Connected {
		d.Connected = &new_.Connected
	}
	if old.ControllerType != new_.ControllerType {
		d.ControllerType = &new_.ControllerType
	}
	if old.Name != new_.Name {
		d.Name = &new_.Name
	}
	if old.Buttons != new_.Buttons {
		d.Buttons = &new_.Buttons
	}
	if old.Dpad != new_.Dpad {
		d.Dpad = &new_.Dpad
	}

	if !floatEqual(old.Sticks.Left.Position.X, new_.Sticks.Left.Position.X) ||
		!floatEqual(old.Sticks.Left.Position.Y, new_.Sticks.Left.Position.Y) ||
		old.Sticks.Left.Pressed != new_.Sticks.Left.Pressed ||
		!floatEqual(old.Sticks.Right.Position.X, new_.Sticks.Right.Position.X) ||
		!floatEqual(old.Sticks.Right.Position.Y, new_.Sticks.Right.Position.Y) ||
		old.Sticks.Right.Pressed != new_.Sticks.Right.Pressed {
		d.Sticks = &new_.Sticks
	}

	if !floatEqual(old.Triggers.LT.Value, new_.Triggers.LT.Value) ||
		!floatEqual(old.Triggers.RT.Value, new_.Triggers.RT.Value) {
		d.Triggers = &new_.Triggers
	}

	return d
}
