package mapping

import (
	"math/bits"
	"strings"
)

// Button is a bit flag naming one of the abstract gamepad buttons. A set of
// buttons is held as the bitwise OR of the flags.
type Button uint32

// List of valid Button values.
const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonX
	ButtonY
	ButtonBack
	ButtonGuide
	ButtonStart
	ButtonLeftStick
	ButtonRightStick
	ButtonLeftShoulder
	ButtonRightShoulder
	ButtonDPadUp
	ButtonDPadDown
	ButtonDPadLeft
	ButtonDPadRight

	ButtonNone Button = 0
)

// Has is true if every flag in b is also set in set.
func (set Button) Has(b Button) bool {
	return b != 0 && set&b == b
}

func (set Button) String() string {
	return flagString(uint32(set), buttonNames)
}

// Axis is a bit flag naming one of the abstract gamepad axes.
type Axis uint32

// List of valid Axis values.
const (
	AxisLeftX Axis = 1 << iota
	AxisLeftY
	AxisRightX
	AxisRightY
	AxisLeftTrigger
	AxisRightTrigger

	AxisNone Axis = 0
)

// IsTrigger is true for the two trigger axes. Triggers rest at the minimum of
// the raw range rather than at the centre.
func (a Axis) IsTrigger() bool {
	return a == AxisLeftTrigger || a == AxisRightTrigger
}

func (a Axis) String() string {
	return flagString(uint32(a), axisNames)
}

// HatLocation is the position of a hat switch.
type HatLocation int

// List of valid HatLocation values.
const (
	HatCentered HatLocation = iota
	HatUp
	HatRight
	HatDown
	HatLeft
	HatUpRight
	HatDownRight
	HatDownLeft
	HatUpLeft
)

// Hat position bits as reported by the backend.
const (
	HatBitUp    uint8 = 0x01
	HatBitRight uint8 = 0x02
	HatBitDown  uint8 = 0x04
	HatBitLeft  uint8 = 0x08
)

// HatLocationFromCode converts a hat position code into a HatLocation. The
// same table is used for position bitmasks reported by the backend and for
// the position code of a hN.M source in a mapping record.
//
// Only the codes in the table are recognised. Every other value, including
// the bit patterns 5, 7, 10, 11, 13, 14 and 15, is HatCentered.
func HatLocationFromCode(code int) HatLocation {
	switch code {
	case 1:
		return HatUp
	case 2:
		return HatRight
	case 3:
		return HatUpRight
	case 4:
		return HatDown
	case 6:
		return HatDownRight
	case 8:
		return HatLeft
	case 9:
		return HatUpLeft
	case 12:
		return HatDownLeft
	}
	return HatCentered
}

// Bits returns the position bitmask for the location.
func (h HatLocation) Bits() uint8 {
	switch h {
	case HatUp:
		return HatBitUp
	case HatRight:
		return HatBitRight
	case HatDown:
		return HatBitDown
	case HatLeft:
		return HatBitLeft
	case HatUpRight:
		return HatBitUp | HatBitRight
	case HatDownRight:
		return HatBitDown | HatBitRight
	case HatDownLeft:
		return HatBitDown | HatBitLeft
	case HatUpLeft:
		return HatBitUp | HatBitLeft
	}
	return 0
}

// Contains is true if the location includes every direction of other. A
// centred location contains nothing and is contained by nothing.
func (h HatLocation) Contains(other HatLocation) bool {
	ob := other.Bits()
	return ob != 0 && h.Bits()&ob == ob
}

func (h HatLocation) String() string {
	switch h {
	case HatUp:
		return "Up"
	case HatRight:
		return "Right"
	case HatDown:
		return "Down"
	case HatLeft:
		return "Left"
	case HatUpRight:
		return "UpRight"
	case HatDownRight:
		return "DownRight"
	case HatDownLeft:
		return "DownLeft"
	case HatUpLeft:
		return "UpLeft"
	}
	return "Centered"
}

var buttonNames = []string{
	"A", "B", "X", "Y", "Back", "Guide", "Start", "LeftStick", "RightStick",
	"LeftShoulder", "RightShoulder", "DPadUp", "DPadDown", "DPadLeft", "DPadRight",
}

var axisNames = []string{
	"LeftX", "LeftY", "RightX", "RightY", "LeftTrigger", "RightTrigger",
}

func flagString(v uint32, names []string) string {
	if v == 0 {
		return "None"
	}
	var s strings.Builder
	for v != 0 {
		i := bits.TrailingZeros32(v)
		v &^= 1 << i
		if s.Len() > 0 {
			s.WriteString("|")
		}
		if i < len(names) {
			s.WriteString(names[i])
		} else {
			s.WriteString("?")
		}
	}
	return s.String()
}
