package input

import (
	"fmt"
	"log"

	"github.com/soar/padinput/backend/internal/rawevent"
	"github.com/soar/padinput/backend/internal/slots"
)

// Change tells the caller of Dispatch what an event did.
type Change struct {
	Kind rawevent.Kind

	// Slot is the joystick slot for joystick events and the gamepad slot
	// for controller events
	Slot int
}

// OnDeviceEvent handles a joystick added or removed event. For added events
// id is the device id, for removed events it is the instance id.
//
// A device that fails to open is skipped and a removal of an unknown instance
// id is ignored. In both cases false is returned.
func (s *Subsystem) OnDeviceEvent(kind rawevent.Kind, id int32) (int, bool) {
	switch kind {
	case rawevent.KindDeviceAdded:
		idx, err := s.joysticks.Added(int(id))
		if err != nil {
			log.Printf("Joystick add skipped: %v", err)
			return 0, false
		}
		slot, _ := s.joysticks.Slot(idx)
		cfg := s.db.Lookup(slot.GUID)
		log.Printf("Joystick connected: %s (slot=%d instance=%d guid=%s) mapping=%s axes=%d buttons=%d hats=%d",
			slot.Name, idx, slot.InstanceID, slot.GUID, cfg.Name, slot.NumAxes, slot.NumButtons, slot.NumHats)
		return idx, true

	case rawevent.KindDeviceRemoved:
		idx, ok := s.joysticks.Removed(slots.InstanceID(id))
		if !ok {
			s.debugf("Joystick removal ignored: unknown instance %d", id)
			return 0, false
		}
		name, _ := s.GetName(idx)
		log.Printf("Joystick disconnected: %s (slot=%d)", name, idx)
		return idx, true
	}
	return 0, false
}

// OnControllerEvent handles a gamepad added or removed event. The id follows
// the same rules as OnDeviceEvent, in the gamepad namespace.
func (s *Subsystem) OnControllerEvent(kind rawevent.Kind, id int32) (int, bool) {
	switch kind {
	case rawevent.KindControllerAdded:
		idx, err := s.controllers.Added(int(id))
		if err != nil {
			log.Printf("Gamepad add skipped: %v", err)
			return 0, false
		}
		slot, _ := s.controllers.Slot(idx)
		log.Printf("Gamepad connected: %s (slot=%d instance=%d)", slot.Name, idx, slot.InstanceID)
		return idx, true

	case rawevent.KindControllerRemoved:
		idx, ok := s.controllers.Removed(slots.InstanceID(id))
		if !ok {
			s.debugf("Gamepad removal ignored: unknown instance %d", id)
			return 0, false
		}
		log.Printf("Gamepad disconnected (slot=%d)", idx)
		return idx, true
	}
	return 0, false
}

// OnAxisEvent records an axis value. Events for unknown instances or out of
// range axes are discarded.
func (s *Subsystem) OnAxisEvent(id slots.InstanceID, axis int, value int16) (int, bool) {
	idx, ok := s.resolve(id)
	if !ok {
		return 0, false
	}
	if err := s.joysticks.SetAxis(idx, axis, value); err != nil {
		s.debugf("Axis event discarded: %v", err)
		return 0, false
	}
	return idx, true
}

// OnButtonEvent records a button state. Events for unknown instances or out
// of range buttons are discarded.
func (s *Subsystem) OnButtonEvent(id slots.InstanceID, button int, pressed bool) (int, bool) {
	idx, ok := s.resolve(id)
	if !ok {
		return 0, false
	}
	if err := s.joysticks.SetButton(idx, button, pressed); err != nil {
		s.debugf("Button event discarded: %v", err)
		return 0, false
	}
	return idx, true
}

// OnHatEvent records a hat position bitmask. Events for unknown instances or
// out of range hats are discarded.
func (s *Subsystem) OnHatEvent(id slots.InstanceID, hat int, position uint8) (int, bool) {
	idx, ok := s.resolve(id)
	if !ok {
		return 0, false
	}
	if err := s.joysticks.SetHat(idx, hat, position); err != nil {
		s.debugf("Hat event discarded: %v", err)
		return 0, false
	}
	return idx, true
}

func (s *Subsystem) resolve(id slots.InstanceID) (int, bool) {
	idx, ok := s.joysticks.Resolve(id)
	if !ok {
		s.debugf("Event discarded: unknown instance %d", id)
	}
	return idx, ok
}

// Dispatch routes one raw event to the joystick or gamepad path. Returns
// what changed, if anything.
func (s *Subsystem) Dispatch(ev rawevent.Event) (Change, bool) {
	s.debugf("%s", ev)

	var idx int
	var ok bool

	switch ev.Kind {
	case rawevent.KindDeviceAdded, rawevent.KindDeviceRemoved:
		idx, ok = s.OnDeviceEvent(ev.Kind, int32(ev.Which))
	case rawevent.KindControllerAdded, rawevent.KindControllerRemoved:
		idx, ok = s.OnControllerEvent(ev.Kind, int32(ev.Which))
	case rawevent.KindAxis:
		idx, ok = s.OnAxisEvent(ev.Instance(), int(ev.Index), ev.Value)
	case rawevent.KindButton:
		idx, ok = s.OnButtonEvent(ev.Instance(), int(ev.Index), ev.Pressed())
	case rawevent.KindHat:
		idx, ok = s.OnHatEvent(ev.Instance(), int(ev.Index), uint8(ev.Value))
	}

	return Change{Kind: ev.Kind, Slot: idx}, ok
}

// HandleRaw decodes and dispatches every record in buf. Returns the number of
// records dispatched. Decoding stops at the first bad record.
func (s *Subsystem) HandleRaw(buf []byte) (int, error) {
	n := 0
	for len(buf) > 0 {
		ev, err := rawevent.Decode(buf)
		if err != nil {
			return n, fmt.Errorf("input: record %d: %w", n, err)
		}
		s.Dispatch(ev)
		buf = buf[rawevent.RecordSize:]
		n++
	}
	return n, nil
}

func (s *Subsystem) debugf(format string, args ...any) {
	if s.Verbose {
		log.Printf("[DEBUG] "+format, args...)
	}
}
