package mapping

import (
	"fmt"
	"strings"
)

// Source is where a configuration item reads its raw value from. It is one of
// AxisSource, ButtonSource, HatSource or NoSource.
type Source interface {
	isSource()
	String() string
}

// AxisSource reads the raw axis at Index.
type AxisSource struct {
	Index int
}

// ButtonSource reads the raw button at Index.
type ButtonSource struct {
	Index int
}

// HatSource reads hat number Hat and is pressed whenever the hat is at a
// location containing the location named by the position Code.
type HatSource struct {
	Hat  int
	Code int
}

// Position is the hat location the source triggers on.
func (s HatSource) Position() HatLocation {
	return HatLocationFromCode(s.Code)
}

// NoSource is used for items whose source could not be read. It only
// ever appears together with an Unmapped target.
type NoSource struct {
	Text string
}

func (AxisSource) isSource()   {}
func (ButtonSource) isSource() {}
func (HatSource) isSource()    {}
func (NoSource) isSource()     {}

func (s AxisSource) String() string   { return fmt.Sprintf("a%d", s.Index) }
func (s ButtonSource) String() string { return fmt.Sprintf("b%d", s.Index) }
func (s NoSource) String() string     { return s.Text }

func (s HatSource) String() string {
	return fmt.Sprintf("h%d.%d", s.Hat, s.Code)
}

// Target is what a configuration item writes to. It is one of AxisTarget,
// ButtonTarget or Unmapped.
type Target interface {
	isTarget()
	String() string
}

// AxisTarget writes an abstract axis.
type AxisTarget struct {
	Axis Axis
}

// ButtonTarget writes an abstract button.
type ButtonTarget struct {
	Button Button
}

// Unmapped is the target for any name outside the known vocabulary. Items
// with an Unmapped target are kept so the record can be written back out but
// they have no effect on state.
type Unmapped struct {
	Name string
}

func (AxisTarget) isTarget()   {}
func (ButtonTarget) isTarget() {}
func (Unmapped) isTarget()     {}

func (t AxisTarget) String() string   { return axisTargetNames[t.Axis] }
func (t ButtonTarget) String() string { return buttonTargetNames[t.Button] }
func (t Unmapped) String() string     { return t.Name }

// Item is one (source, target) rule of a configuration.
type Item struct {
	Source Source
	Target Target
}

func (it Item) String() string {
	return fmt.Sprintf("%s:%s", it.Target, it.Source)
}

// Configuration is a parsed mapping record.
type Configuration struct {
	GUID  GUID
	Name  string
	Items []Item
}

// IsDefault is true for the fallback "Unmapped Controller" configuration.
func (c *Configuration) IsDefault() bool {
	return c.GUID.IsZero()
}

// Axes returns the set of axes written by the configuration.
func (c *Configuration) Axes() Axis {
	var a Axis
	for _, it := range c.Items {
		if t, ok := it.Target.(AxisTarget); ok {
			a |= t.Axis
		}
	}
	return a
}

// Buttons returns the set of buttons written by the configuration.
func (c *Configuration) Buttons() Button {
	var b Button
	for _, it := range c.Items {
		if t, ok := it.Target.(ButtonTarget); ok {
			b |= t.Button
		}
	}
	return b
}

// String returns the configuration in mapping record form.
func (c *Configuration) String() string {
	var s strings.Builder
	s.WriteString(c.GUID.String())
	s.WriteString(",")
	s.WriteString(c.Name)
	for _, it := range c.Items {
		s.WriteString(",")
		s.WriteString(it.String())
	}
	return s.String()
}

var axisTargets = map[string]Axis{
	"leftx":        AxisLeftX,
	"lefty":        AxisLeftY,
	"rightx":       AxisRightX,
	"righty":       AxisRightY,
	"lefttrigger":  AxisLeftTrigger,
	"righttrigger": AxisRightTrigger,
}

var buttonTargets = map[string]Button{
	"a":             ButtonA,
	"b":             ButtonB,
	"x":             ButtonX,
	"y":             ButtonY,
	"start":         ButtonStart,
	"back":          ButtonBack,
	"guide":         ButtonGuide,
	"leftshoulder":  ButtonLeftShoulder,
	"rightshoulder": ButtonRightShoulder,
	"leftstick":     ButtonLeftStick,
	"rightstick":    ButtonRightStick,
	"dpup":          ButtonDPadUp,
	"dpdown":        ButtonDPadDown,
	"dpleft":        ButtonDPadLeft,
	"dpright":       ButtonDPadRight,
}

var axisTargetNames = invert(axisTargets)
var buttonTargetNames = invert(buttonTargets)

func invert[K comparable](m map[string]K) map[K]string {
	r := make(map[K]string, len(m))
	for k, v := range m {
		r[v] = k
	}
	return r
}

// targetFromName returns the Target for a name in a mapping record.
func targetFromName(name string) Target {
	if a, ok := axisTargets[name]; ok {
		return AxisTarget{Axis: a}
	}
	if b, ok := buttonTargets[name]; ok {
		return ButtonTarget{Button: b}
	}
	return Unmapped{Name: name}
}
