package linuxjs

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/rawevent"
	"github.com/soar/padinput/backend/internal/slots"
)

// js_event from linux/joystick.h
const (
	eventSize = 8

	typeButton = 0x01
	typeAxis   = 0x02
	typeInit   = 0x80
)

// ABS_HAT0X to ABS_HAT3Y from linux/input-event-codes.h
const (
	absHat0X = 0x10
	absHat3Y = 0x17
)

type jsEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

func decodeEvent(b []byte) jsEvent {
	return jsEvent{
		Time:   binary.LittleEndian.Uint32(b[0:]),
		Value:  int16(binary.LittleEndian.Uint16(b[4:])),
		Type:   b[6],
		Number: b[7],
	}
}

// route tells where a driver axis ends up.
type route struct {
	hat   bool
	index uint8
	y     bool // vertical half of a hat
}

// layout splits the driver's axes into axes and hats. The joystick driver
// reports hats as pairs of axes, the axis map says which ones.
type layout struct {
	routes []route
	axes   int
	hats   int
}

func newLayout(axmap []byte) layout {
	var l layout
	for _, code := range axmap {
		if code >= absHat0X && code <= absHat3Y {
			n := int(code-absHat0X) / 2
			l.routes = append(l.routes, route{hat: true, index: uint8(n), y: (code-absHat0X)%2 == 1})
			if n+1 > l.hats {
				l.hats = n + 1
			}
			continue
		}
		l.routes = append(l.routes, route{index: uint8(l.axes)})
		l.axes++
	}
	return l
}

// translator turns the events of one device into raw events.
type translator struct {
	id     slots.InstanceID
	layout layout
	hats   []uint8
}

func newTranslator(id slots.InstanceID, l layout) *translator {
	return &translator{id: id, layout: l, hats: make([]uint8, l.hats)}
}

func (t *translator) translate(e jsEvent) (rawevent.Event, bool) {
	ev := rawevent.Event{Which: uint32(t.id)}

	switch e.Type &^ typeInit {
	case typeButton:
		ev.Kind = rawevent.KindButton
		ev.Index = e.Number
		if e.Value != 0 {
			ev.Value = 1
		}
		return ev, true

	case typeAxis:
		if int(e.Number) >= len(t.layout.routes) {
			return ev, false
		}
		r := t.layout.routes[e.Number]
		if !r.hat {
			ev.Kind = rawevent.KindAxis
			ev.Index = r.index
			ev.Value = e.Value
			return ev, true
		}

		bits := t.hats[r.index]
		if r.y {
			bits &^= mapping.HatBitUp | mapping.HatBitDown
			switch {
			case e.Value < 0:
				bits |= mapping.HatBitUp
			case e.Value > 0:
				bits |= mapping.HatBitDown
			}
		} else {
			bits &^= mapping.HatBitLeft | mapping.HatBitRight
			switch {
			case e.Value < 0:
				bits |= mapping.HatBitLeft
			case e.Value > 0:
				bits |= mapping.HatBitRight
			}
		}
		if bits == t.hats[r.index] && e.Type&typeInit == 0 {
			return ev, false
		}
		t.hats[r.index] = bits
		ev.Kind = rawevent.KindHat
		ev.Index = r.index
		ev.Value = int16(bits)
		return ev, true
	}
	return ev, false
}

// joystickIndex returns N for a path ending in jsN.
func joystickIndex(path string) (int, bool) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "js") {
		return 0, false
	}
	n, err := strconv.Atoi(base[2:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// sortJoysticks keeps the joystick nodes of paths, ordered by number.
func sortJoysticks(paths []string) []string {
	out := paths[:0]
	for _, p := range paths {
		if _, ok := joystickIndex(p); ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := joystickIndex(out[i])
		b, _ := joystickIndex(out[j])
		return a < b
	})
	return out
}

// sysfsInfo reads the name and GUID of a joystick node from sysfs.
func sysfsInfo(sysDir, path string) (string, mapping.GUID) {
	dir := filepath.Join(sysDir, filepath.Base(path), "device")
	readHex := func(name string) uint16 {
		b, err := os.ReadFile(filepath.Join(dir, "id", name))
		if err != nil {
			return 0
		}
		v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 16, 16)
		if err != nil {
			return 0
		}
		return uint16(v)
	}

	var name string
	if b, err := os.ReadFile(filepath.Join(dir, "name")); err == nil {
		name = strings.TrimSpace(string(b))
	}
	return name, mapping.MakeGUID(readHex("bustype"), readHex("vendor"), readHex("product"), readHex("version"))
}
