// Package virtual is an in-memory input backend. Devices are attached and
// driven from code, which makes it useful for tests and for replaying
// captured streams.
package virtual

import (
	"errors"
	"fmt"
	"sync"

	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/joystick"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/rawevent"
	"github.com/soar/padinput/backend/internal/slots"
)

// ErrNoDevice is returned when opening a device id that is not attached.
var ErrNoDevice = errors.New("virtual: no such device")

// Pad describes a device to attach.
type Pad struct {
	Name       string
	GUID       mapping.GUID
	NumAxes    int
	NumButtons int
	NumHats    int

	// Gamepad devices also produce controller added/removed events
	Gamepad bool
}

// Device is an attached virtual device. It serves as both the joystick and
// the gamepad handle.
type Device struct {
	pad      Pad
	id       slots.InstanceID
	ctrlID   slots.InstanceID
	closed   bool
	backend  *Backend
	attached bool
}

func (d *Device) InstanceID() slots.InstanceID { return d.id }
func (d *Device) Name() string                 { return d.pad.Name }
func (d *Device) GUID() mapping.GUID           { return d.pad.GUID }
func (d *Device) NumAxes() int                 { return d.pad.NumAxes }
func (d *Device) NumButtons() int              { return d.pad.NumButtons }
func (d *Device) NumHats() int                 { return d.pad.NumHats }

// Close marks the handle as closed.
func (d *Device) Close() error {
	d.backend.mu.Lock()
	defer d.backend.mu.Unlock()
	d.closed = true
	return nil
}

// Closed is true once the handle has been closed.
func (d *Device) Closed() bool {
	d.backend.mu.Lock()
	defer d.backend.mu.Unlock()
	return d.closed
}

// Attached is false once the device has been detached.
func (d *Device) Attached() bool {
	d.backend.mu.Lock()
	defer d.backend.mu.Unlock()
	return d.attached
}

type controller struct {
	*Device
}

func (c controller) InstanceID() slots.InstanceID { return c.ctrlID }

// Backend holds the attached devices and the queue of pending events.
type Backend struct {
	mu       sync.Mutex
	attached []*Device
	queue    []rawevent.Event

	nextInstance   slots.InstanceID
	nextController slots.InstanceID

	// FailOpen makes every Open and OpenController call fail
	FailOpen bool
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		nextInstance:   1,
		nextController: 1,
	}
}

// Attach connects a device and queues its added events. Returns the device.
func (b *Backend) Attach(p Pad) *Device {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := &Device{
		pad:      p,
		id:       b.nextInstance,
		backend:  b,
		attached: true,
	}
	b.nextInstance++

	deviceID := len(b.attached)
	b.attached = append(b.attached, d)
	b.queue = append(b.queue, rawevent.Event{Kind: rawevent.KindDeviceAdded, Which: uint32(deviceID)})

	if p.Gamepad {
		d.ctrlID = b.nextController
		b.nextController++
		b.queue = append(b.queue, rawevent.Event{Kind: rawevent.KindControllerAdded, Which: uint32(deviceID)})
	}
	return d
}

// Detach disconnects a device and queues its removed events.
func (b *Backend) Detach(d *Device) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, a := range b.attached {
		if a == d {
			b.attached = append(b.attached[:i], b.attached[i+1:]...)
			break
		}
	}
	d.attached = false

	if d.pad.Gamepad {
		b.queue = append(b.queue, rawevent.Event{Kind: rawevent.KindControllerRemoved, Which: uint32(d.ctrlID)})
	}
	b.queue = append(b.queue, rawevent.Event{Kind: rawevent.KindDeviceRemoved, Which: uint32(d.id)})
}

// Axis queues an axis motion event.
func (b *Backend) Axis(d *Device, axis int, value int16) {
	b.push(rawevent.Event{Kind: rawevent.KindAxis, Which: uint32(d.id), Index: uint8(axis), Value: value})
}

// Button queues a button event.
func (b *Backend) Button(d *Device, button int, pressed bool) {
	var v int16
	if pressed {
		v = 1
	}
	b.push(rawevent.Event{Kind: rawevent.KindButton, Which: uint32(d.id), Index: uint8(button), Value: v})
}

// Hat queues a hat event with a position bitmask.
func (b *Backend) Hat(d *Device, hat int, position uint8) {
	b.push(rawevent.Event{Kind: rawevent.KindHat, Which: uint32(d.id), Index: uint8(hat), Value: int16(position)})
}

// Push queues an arbitrary event.
func (b *Backend) Push(ev rawevent.Event) {
	b.push(ev)
}

func (b *Backend) push(ev rawevent.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = append(b.queue, ev)
}

// Start is a no-op, the backend is ready once created.
func (b *Backend) Start() error {
	return nil
}

// Poll returns the next pending event.
func (b *Backend) Poll() (rawevent.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return rawevent.Event{}, false
	}
	ev := b.queue[0]
	b.queue = b.queue[1:]
	return ev, true
}

// Pending is the number of queued events.
func (b *Backend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func (b *Backend) device(deviceID int) (*Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailOpen {
		return nil, fmt.Errorf("%w: %d (open refused)", ErrNoDevice, deviceID)
	}
	if deviceID < 0 || deviceID >= len(b.attached) {
		return nil, fmt.Errorf("%w: %d", ErrNoDevice, deviceID)
	}
	d := b.attached[deviceID]
	d.closed = false
	return d, nil
}

// Open implements joystick.Opener.
func (b *Backend) Open(deviceID int) (joystick.Device, error) {
	d, err := b.device(deviceID)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// OpenController implements gamepad.ControllerOpener.
func (b *Backend) OpenController(deviceID int) (gamepad.Controller, error) {
	d, err := b.device(deviceID)
	if err != nil {
		return nil, err
	}
	if !d.pad.Gamepad {
		return nil, fmt.Errorf("virtual: device %d is not a gamepad", deviceID)
	}
	return controller{d}, nil
}

// Close drops every pending event.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = nil
	return nil
}
