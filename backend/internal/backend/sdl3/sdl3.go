// Package sdl3 is an input backend using the SDL3 joystick API through
// purego-sdl3. No cgo is required, the SDL3 shared library is loaded at run
// time.
package sdl3

import (
	"errors"
	"fmt"
	"log"

	"github.com/jupiterrider/purego-sdl3/sdl"

	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/joystick"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/rawevent"
	"github.com/soar/padinput/backend/internal/slots"
)

// device is an opened SDL joystick.
type device struct {
	js      *sdl.Joystick
	id      sdl.JoystickID
	name    string
	guid    mapping.GUID
	axes    int
	buttons int
	hats    int
	closed  bool
}

func (d *device) InstanceID() slots.InstanceID { return slots.InstanceID(d.id) }
func (d *device) Name() string                 { return d.name }
func (d *device) GUID() mapping.GUID           { return d.guid }
func (d *device) NumAxes() int                 { return d.axes }
func (d *device) NumButtons() int              { return d.buttons }
func (d *device) NumHats() int                 { return d.hats }

func (d *device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	sdl.CloseJoystick(d.js)
	return nil
}

// controller is the gamepad view of an SDL joystick. It does not own the SDL
// handle.
type controller struct {
	id   slots.InstanceID
	name string
	guid mapping.GUID
}

func (c *controller) InstanceID() slots.InstanceID { return c.id }
func (c *controller) Name() string                 { return c.name }
func (c *controller) GUID() mapping.GUID           { return c.guid }
func (c *controller) Close() error                 { return nil }

// Backend reads joysticks through SDL3.
//
// SDL reports joysticks by instance id only. The device id of an added event
// is the position of the joystick in the list of joysticks at the time the
// event is polled.
type Backend struct {
	// IsGamepad decides which joysticks also get gamepad events. May be nil,
	// in which case no gamepad events are produced.
	IsGamepad func(mapping.GUID) bool

	// AfterInit is called once SDL is initialized
	AfterInit func()

	started bool
	queue   []rawevent.Event

	// joystick ids by device id, recorded when the added event was queued
	pending map[int]sdl.JoystickID
	known   map[sdl.JoystickID]bool

	// gamepad instance ids by SDL joystick id
	controllers    map[sdl.JoystickID]slots.InstanceID
	nextController slots.InstanceID
}

// New creates a Backend. SDL is initialized by Start.
func New() *Backend {
	return &Backend{
		pending:        make(map[int]sdl.JoystickID),
		known:          make(map[sdl.JoystickID]bool),
		controllers:    make(map[sdl.JoystickID]slots.InstanceID),
		nextController: 1,
	}
}

// Start initializes the SDL joystick subsystem and queues an added event for
// every joystick already connected.
func (b *Backend) Start() error {
	if !sdl.Init(sdl.InitJoystick) {
		return fmt.Errorf("sdl3: init: %s", sdl.GetError())
	}
	b.started = true
	log.Println("SDL3 Joystick subsystem initialized")

	if b.AfterInit != nil {
		b.AfterInit()
	}

	for _, id := range sdl.GetJoysticks() {
		b.added(id)
	}
	return nil
}

// Poll returns the next event, draining SDL's queue first if necessary.
func (b *Backend) Poll() (rawevent.Event, bool) {
	if len(b.queue) == 0 && b.started {
		b.pump()
	}
	if len(b.queue) == 0 {
		return rawevent.Event{}, false
	}
	ev := b.queue[0]
	b.queue = b.queue[1:]
	return ev, true
}

func (b *Backend) pump() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			b.added(event.JDevice().Which)

		case sdl.EventJoystickRemoved:
			b.removed(event.JDevice().Which)

		case sdl.EventJoystickButtonDown:
			be := event.JButton()
			b.push(rawevent.KindButton, be.Which, be.Button, 1)

		case sdl.EventJoystickButtonUp:
			be := event.JButton()
			b.push(rawevent.KindButton, be.Which, be.Button, 0)

		case sdl.EventJoystickAxisMotion:
			ae := event.JAxis()
			b.push(rawevent.KindAxis, ae.Which, ae.Axis, ae.Value)

		case sdl.EventJoystickHatMotion:
			he := event.JHat()
			b.push(rawevent.KindHat, he.Which, he.Hat, int16(he.Value))
		}
	}
}

func (b *Backend) push(kind rawevent.Kind, id sdl.JoystickID, index uint8, value int16) {
	b.queue = append(b.queue, rawevent.Event{Kind: kind, Which: uint32(id), Index: index, Value: value})
}

// added queues the added events for a joystick. SDL sends an added event for
// joysticks present at init, those were already queued by Start.
func (b *Backend) added(id sdl.JoystickID) {
	if b.known[id] {
		return
	}

	deviceID := -1
	for i, j := range sdl.GetJoysticks() {
		if j == id {
			deviceID = i
			break
		}
	}
	if deviceID < 0 {
		return
	}

	b.known[id] = true
	b.pending[deviceID] = id
	b.queue = append(b.queue, rawevent.Event{Kind: rawevent.KindDeviceAdded, Which: uint32(deviceID)})
	if b.isGamepad(id) {
		b.queue = append(b.queue, rawevent.Event{Kind: rawevent.KindControllerAdded, Which: uint32(deviceID)})
	}
}

func (b *Backend) isGamepad(id sdl.JoystickID) bool {
	if b.IsGamepad == nil {
		return false
	}
	js := sdl.OpenJoystick(id)
	if js == nil {
		return false
	}
	defer sdl.CloseJoystick(js)
	return b.IsGamepad(guidOf(js))
}

func (b *Backend) removed(id sdl.JoystickID) {
	delete(b.known, id)
	if cid, ok := b.controllers[id]; ok {
		delete(b.controllers, id)
		b.queue = append(b.queue, rawevent.Event{Kind: rawevent.KindControllerRemoved, Which: uint32(cid)})
	}
	b.queue = append(b.queue, rawevent.Event{Kind: rawevent.KindDeviceRemoved, Which: uint32(id)})
}

func (b *Backend) joystickID(deviceID int) (sdl.JoystickID, error) {
	if id, ok := b.pending[deviceID]; ok {
		return id, nil
	}
	ids := sdl.GetJoysticks()
	if deviceID < 0 || deviceID >= len(ids) {
		return 0, fmt.Errorf("sdl3: no joystick at %d", deviceID)
	}
	return ids[deviceID], nil
}

// Open implements joystick.Opener.
func (b *Backend) Open(deviceID int) (joystick.Device, error) {
	id, err := b.joystickID(deviceID)
	if err != nil {
		return nil, err
	}

	js := sdl.OpenJoystick(id)
	if js == nil {
		return nil, fmt.Errorf("sdl3: open joystick %d: %s", id, sdl.GetError())
	}

	return &device{
		js:      js,
		id:      sdl.GetJoystickID(js),
		name:    sdl.GetJoystickName(js),
		guid:    guidOf(js),
		axes:    int(sdl.GetNumJoystickAxes(js)),
		buttons: int(sdl.GetNumJoystickButtons(js)),
		hats:    int(sdl.GetNumJoystickHats(js)),
	}, nil
}

// ErrNotGamepad is returned by OpenController for joysticks without a
// gamepad mapping.
var ErrNotGamepad = errors.New("sdl3: not a gamepad")

// OpenController implements gamepad.ControllerOpener.
func (b *Backend) OpenController(deviceID int) (gamepad.Controller, error) {
	id, err := b.joystickID(deviceID)
	if err != nil {
		return nil, err
	}

	js := sdl.OpenJoystick(id)
	if js == nil {
		return nil, fmt.Errorf("sdl3: open joystick %d: %s", id, sdl.GetError())
	}
	// SDL counts opens, this releases only our reference
	defer sdl.CloseJoystick(js)

	guid := guidOf(js)
	if b.IsGamepad == nil || !b.IsGamepad(guid) {
		return nil, fmt.Errorf("%w: %s", ErrNotGamepad, guid)
	}

	cid, ok := b.controllers[id]
	if !ok {
		cid = b.nextController
		b.nextController++
		b.controllers[id] = cid
	}
	return &controller{id: cid, name: sdl.GetJoystickName(js), guid: guid}, nil
}

// Close shuts SDL down. Devices must be closed before.
func (b *Backend) Close() error {
	if b.started {
		sdl.Quit()
		b.started = false
	}
	return nil
}

// guidOf builds the GUID from the vendor and product ids. SDL's name checksum
// and version are not available, the database matches them loosely.
func guidOf(js *sdl.Joystick) mapping.GUID {
	return mapping.MakeGUID(mapping.BusUSB, sdl.GetJoystickVendor(js), sdl.GetJoystickProduct(js), 0)
}
