// Package rawevent defines the raw events delivered by an input backend and
// their little endian byte form.
//
// A record is 12 bytes:
//
//	offset  size  field
//	0       4     kind     (uint32)
//	4       4     which    (uint32, device id for added events, instance id otherwise)
//	8       1     index    (axis, button or hat number)
//	9       1     reserved
//	10      2     value    (int16: axis value, 0/1 for buttons, hat bitmask)
//
// In a capture stream every device added record is followed by a descriptor
// block:
//
//	offset  size  field
//	0       16    guid
//	16      4     instance id (uint32)
//	20      1     number of axes
//	21      1     number of buttons
//	22      1     number of hats
//	23      1     length of name
//	24      n     name
package rawevent

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/slots"
)

// RecordSize is the size of an encoded Event.
const RecordSize = 12

const descriptorHeaderSize = 24

// Kind of raw event.
type Kind uint32

// List of valid Kind values.
const (
	KindNone Kind = iota
	KindDeviceAdded
	KindDeviceRemoved
	KindAxis
	KindButton
	KindHat
	KindControllerAdded
	KindControllerRemoved
)

func (k Kind) String() string {
	switch k {
	case KindDeviceAdded:
		return "device added"
	case KindDeviceRemoved:
		return "device removed"
	case KindAxis:
		return "axis"
	case KindButton:
		return "button"
	case KindHat:
		return "hat"
	case KindControllerAdded:
		return "controller added"
	case KindControllerRemoved:
		return "controller removed"
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// ErrShortBuffer is returned when a buffer is too small for a record.
var ErrShortBuffer = errors.New("rawevent: short buffer")

// ErrUnknownKind is returned when a record has a kind outside the list of
// valid kinds.
var ErrUnknownKind = errors.New("rawevent: unknown kind")

// Event is a decoded raw event.
type Event struct {
	Kind Kind

	// device id for KindDeviceAdded and KindControllerAdded, instance id for
	// everything else
	Which uint32

	Index uint8
	Value int16
}

// Instance returns Which as an instance id.
func (ev Event) Instance() slots.InstanceID {
	return slots.InstanceID(int32(ev.Which))
}

// Pressed is the button state of a KindButton event.
func (ev Event) Pressed() bool {
	return ev.Value != 0
}

func (ev Event) String() string {
	switch ev.Kind {
	case KindDeviceAdded, KindControllerAdded:
		return fmt.Sprintf("%s: device=%d", ev.Kind, ev.Which)
	case KindDeviceRemoved, KindControllerRemoved:
		return fmt.Sprintf("%s: instance=%d", ev.Kind, ev.Which)
	case KindHat:
		return fmt.Sprintf("%s: instance=%d index=%d value=0x%02X", ev.Kind, ev.Which, ev.Index, uint8(ev.Value))
	}
	return fmt.Sprintf("%s: instance=%d index=%d value=%d", ev.Kind, ev.Which, ev.Index, ev.Value)
}

// Decode reads one record from the start of buf.
func Decode(buf []byte) (Event, error) {
	if len(buf) < RecordSize {
		return Event{}, ErrShortBuffer
	}
	ev := Event{
		Kind:  Kind(binary.LittleEndian.Uint32(buf[0:])),
		Which: binary.LittleEndian.Uint32(buf[4:]),
		Index: buf[8],
		Value: int16(binary.LittleEndian.Uint16(buf[10:])),
	}
	if ev.Kind == KindNone || ev.Kind > KindControllerRemoved {
		return ev, fmt.Errorf("%w: %d", ErrUnknownKind, uint32(ev.Kind))
	}
	return ev, nil
}

// Append encodes ev and appends it to buf.
func Append(buf []byte, ev Event) []byte {
	var b [RecordSize]byte
	binary.LittleEndian.PutUint32(b[0:], uint32(ev.Kind))
	binary.LittleEndian.PutUint32(b[4:], ev.Which)
	b[8] = ev.Index
	binary.LittleEndian.PutUint16(b[10:], uint16(ev.Value))
	return append(buf, b[:]...)
}

// Descriptor describes a device in a capture stream.
type Descriptor struct {
	GUID       mapping.GUID
	InstanceID slots.InstanceID
	Name       string
	NumAxes    int
	NumButtons int
	NumHats    int
}

// decodeDescriptorHeader reads the fixed part of a descriptor. Returns the
// length of the name that follows.
func decodeDescriptorHeader(buf []byte, d *Descriptor) (int, error) {
	if len(buf) < descriptorHeaderSize {
		return 0, ErrShortBuffer
	}
	copy(d.GUID[:], buf[0:16])
	d.InstanceID = slots.InstanceID(int32(binary.LittleEndian.Uint32(buf[16:])))
	d.NumAxes = int(buf[20])
	d.NumButtons = int(buf[21])
	d.NumHats = int(buf[22])
	return int(buf[23]), nil
}

// AppendDescriptor encodes d and appends it to buf. Names longer than 255
// bytes are truncated.
func AppendDescriptor(buf []byte, d Descriptor) []byte {
	name := d.Name
	if len(name) > 255 {
		name = name[:255]
	}
	var b [descriptorHeaderSize]byte
	copy(b[0:16], d.GUID[:])
	binary.LittleEndian.PutUint32(b[16:], uint32(d.InstanceID))
	b[20] = byteCount(d.NumAxes)
	b[21] = byteCount(d.NumButtons)
	b[22] = byteCount(d.NumHats)
	b[23] = uint8(len(name))
	buf = append(buf, b[:]...)
	return append(buf, name...)
}

func byteCount(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}
