// Package replay is an input backend that plays back a captured rawevent
// stream.
package replay

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/joystick"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/rawevent"
	"github.com/soar/padinput/backend/internal/slots"
)

// DefaultBatch is the number of events Poll hands out before reporting an
// empty queue, which spreads a capture over several pump iterations.
const DefaultBatch = 8

type device struct {
	desc rawevent.Descriptor
}

func (d *device) InstanceID() slots.InstanceID { return d.desc.InstanceID }
func (d *device) Name() string                 { return d.desc.Name }
func (d *device) GUID() mapping.GUID           { return d.desc.GUID }
func (d *device) NumAxes() int                 { return d.desc.NumAxes }
func (d *device) NumButtons() int              { return d.desc.NumButtons }
func (d *device) NumHats() int                 { return d.desc.NumHats }
func (d *device) Close() error                 { return nil }

// Backend replays a capture.
type Backend struct {
	path   string
	closer io.Closer
	rd     *rawevent.Reader

	// descriptors of the most recent device added event per device id
	devices map[int]*device

	// instance ids handed to controllers, assigned in order of appearance
	nextController slots.InstanceID
	controllers    map[int]slots.InstanceID

	batch int
	count int
	done  bool

	// Loop restarts the capture at its end. Only possible for files.
	Loop bool
}

// New creates a Backend reading from r. Start is a no-op for a Backend made
// this way.
func New(r io.Reader) *Backend {
	b := newBackend()
	b.rd = rawevent.NewReader(r)
	return b
}

// Open creates a Backend for a capture file. The file is opened by Start.
func Open(path string) *Backend {
	b := newBackend()
	b.path = path
	return b
}

func newBackend() *Backend {
	return &Backend{
		devices:        make(map[int]*device),
		controllers:    make(map[int]slots.InstanceID),
		nextController: 1,
		batch:          DefaultBatch,
	}
}

// SetBatch changes the number of events per pump iteration. Zero or less
// means no limit.
func (b *Backend) SetBatch(n int) {
	b.batch = n
}

// Start opens the capture file.
func (b *Backend) Start() error {
	if b.path == "" {
		return nil
	}
	f, err := os.Open(b.path)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	b.closer = f
	b.rd = rawevent.NewReader(f)
	log.Printf("Replaying %s", b.path)
	return nil
}

// Poll returns the next event of the capture.
func (b *Backend) Poll() (rawevent.Event, bool) {
	if b.rd == nil || b.done {
		return rawevent.Event{}, false
	}
	if b.batch > 0 && b.count >= b.batch {
		b.count = 0
		return rawevent.Event{}, false
	}

	ev, desc, err := b.rd.Next()
	if err != nil {
		if errors.Is(err, io.EOF) && b.Loop && b.rewind() {
			return b.Poll()
		}
		if !errors.Is(err, io.EOF) {
			log.Printf("Replay stopped: %v", err)
		} else {
			log.Println("Replay finished")
		}
		b.done = true
		return rawevent.Event{}, false
	}
	b.count++

	switch ev.Kind {
	case rawevent.KindDeviceAdded:
		b.devices[int(ev.Which)] = &device{desc: *desc}
	case rawevent.KindControllerAdded:
		b.controllers[int(ev.Which)] = b.nextController
		b.nextController++
	}
	return ev, true
}

func (b *Backend) rewind() bool {
	s, ok := b.closer.(io.Seeker)
	if !ok {
		return false
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return false
	}
	b.rd = rawevent.NewReader(b.closer.(io.Reader))
	return true
}

// Open implements joystick.Opener. Opening a device id is only possible
// right after its added event was polled.
func (b *Backend) Open(deviceID int) (joystick.Device, error) {
	d, ok := b.devices[deviceID]
	if !ok {
		return nil, fmt.Errorf("replay: no device %d in capture", deviceID)
	}
	return d, nil
}

type controller struct {
	*device
	id slots.InstanceID
}

func (c controller) InstanceID() slots.InstanceID { return c.id }

// OpenController implements gamepad.ControllerOpener.
func (b *Backend) OpenController(deviceID int) (gamepad.Controller, error) {
	d, ok := b.devices[deviceID]
	if !ok {
		return nil, fmt.Errorf("replay: no device %d in capture", deviceID)
	}
	id, ok := b.controllers[deviceID]
	if !ok {
		return nil, fmt.Errorf("replay: device %d is not a gamepad", deviceID)
	}
	return controller{device: d, id: id}, nil
}

// Close closes the capture file.
func (b *Backend) Close() error {
	b.done = true
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}
