//go:build linux

// Package linuxjs is an input backend for the Linux joystick interface,
// the /dev/input/jsN device nodes. Hotplug is followed with inotify.
package linuxjs

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"unsafe"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"

	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/joystick"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/rawevent"
	"github.com/soar/padinput/backend/internal/slots"
)

// ioctl requests from linux/joystick.h
const (
	jsiocgaxes    = 0x80016a11
	jsiocgbuttons = 0x80016a12
	jsiocgname    = 0x80006a13 // length goes in bits 16-29
	jsiocgaxmap   = 0x80406a32
)

const (
	DefaultDir    = "/dev/input"
	DefaultSysDir = "/sys/class/input"
)

// ErrNotGamepad is returned by OpenController for joysticks without a
// gamepad mapping.
var ErrNotGamepad = errors.New("linuxjs: not a gamepad")

type device struct {
	b       *Backend
	fd      int
	path    string
	id      slots.InstanceID
	name    string
	guid    mapping.GUID
	buttons int
	tr      *translator
}

func (d *device) InstanceID() slots.InstanceID { return d.id }
func (d *device) Name() string                 { return d.name }
func (d *device) GUID() mapping.GUID           { return d.guid }
func (d *device) NumAxes() int                 { return d.tr.layout.axes }
func (d *device) NumButtons() int              { return d.buttons }
func (d *device) NumHats() int                 { return d.tr.layout.hats }

func (d *device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	delete(d.b.open, d.id)
	return err
}

type controller struct {
	id   slots.InstanceID
	name string
	guid mapping.GUID
}

func (c *controller) InstanceID() slots.InstanceID { return c.id }
func (c *controller) Name() string                 { return c.name }
func (c *controller) GUID() mapping.GUID           { return c.guid }
func (c *controller) Close() error                 { return nil }

// Backend reads joysticks from the jsN device nodes.
//
// The device id of an added event is the position of the node in the list of
// nodes, ordered by number, at the time the event was queued.
type Backend struct {
	Dir    string
	SysDir string

	// IsGamepad decides which joysticks also get gamepad events. May be nil.
	IsGamepad func(mapping.GUID) bool

	watcher *fsnotify.Watcher
	queue   []rawevent.Event
	buf     [eventSize * 64]byte

	pending map[int]string
	known   map[string]slots.InstanceID
	open    map[slots.InstanceID]*device

	controllers    map[string]slots.InstanceID
	nextInstance   slots.InstanceID
	nextController slots.InstanceID
}

// New creates a Backend for the default directories.
func New() *Backend {
	return &Backend{
		Dir:            DefaultDir,
		SysDir:         DefaultSysDir,
		pending:        make(map[int]string),
		known:          make(map[string]slots.InstanceID),
		open:           make(map[slots.InstanceID]*device),
		controllers:    make(map[string]slots.InstanceID),
		nextInstance:   1,
		nextController: 1,
	}
}

// Start watches the device directory and queues an added event for every
// joystick node present.
func (b *Backend) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("linuxjs: %w", err)
	}
	if err := w.Add(b.Dir); err != nil {
		w.Close()
		return fmt.Errorf("linuxjs: watch %s: %w", b.Dir, err)
	}
	b.watcher = w
	log.Printf("Watching %s for joysticks", b.Dir)

	for _, path := range b.list() {
		b.added(path)
	}
	return nil
}

func (b *Backend) list() []string {
	paths, _ := filepath.Glob(filepath.Join(b.Dir, "js*"))
	return sortJoysticks(paths)
}

// Poll returns the next event. When the queue is empty, hotplug
// notifications and every open device are read first.
func (b *Backend) Poll() (rawevent.Event, bool) {
	if len(b.queue) == 0 {
		b.watch()
		b.read()
	}
	if len(b.queue) == 0 {
		return rawevent.Event{}, false
	}
	ev := b.queue[0]
	b.queue = b.queue[1:]
	return ev, true
}

func (b *Backend) watch() {
	if b.watcher == nil {
		return
	}
	for {
		select {
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if _, ok := joystickIndex(ev.Name); !ok {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				b.removed(ev.Name)
			// udev fixes the permissions after the node is created
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Chmod):
				b.added(ev.Name)
			}
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Joystick watch: %v", err)
		default:
			return
		}
	}
}

func (b *Backend) read() {
	ids := make([]slots.InstanceID, 0, len(b.open))
	for id := range b.open {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		d := b.open[id]
		for {
			n, err := unix.Read(d.fd, b.buf[:])
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				break
			}
			if err != nil {
				// ENODEV once unplugged, the watcher may not have told yet
				b.removed(d.path)
				break
			}
			if n < eventSize {
				break
			}
			for off := 0; off+eventSize <= n; off += eventSize {
				if ev, ok := d.tr.translate(decodeEvent(b.buf[off:])); ok {
					b.queue = append(b.queue, ev)
				}
			}
		}
	}
}

func (b *Backend) added(path string) {
	if _, ok := b.known[path]; ok {
		return
	}
	if unix.Access(path, unix.R_OK) != nil {
		return
	}

	deviceID := -1
	for i, p := range b.list() {
		if p == path {
			deviceID = i
			break
		}
	}
	if deviceID < 0 {
		return
	}

	b.known[path] = b.nextInstance
	b.nextInstance++
	b.pending[deviceID] = path
	b.queue = append(b.queue, rawevent.Event{Kind: rawevent.KindDeviceAdded, Which: uint32(deviceID)})

	if b.IsGamepad != nil {
		if _, guid := sysfsInfo(b.SysDir, path); b.IsGamepad(guid) {
			b.queue = append(b.queue, rawevent.Event{Kind: rawevent.KindControllerAdded, Which: uint32(deviceID)})
		}
	}
}

func (b *Backend) removed(path string) {
	id, ok := b.known[path]
	if !ok {
		return
	}
	delete(b.known, path)
	if cid, ok := b.controllers[path]; ok {
		delete(b.controllers, path)
		b.queue = append(b.queue, rawevent.Event{Kind: rawevent.KindControllerRemoved, Which: uint32(cid)})
	}
	b.queue = append(b.queue, rawevent.Event{Kind: rawevent.KindDeviceRemoved, Which: uint32(id)})
}

func (b *Backend) path(deviceID int) (string, error) {
	if p, ok := b.pending[deviceID]; ok {
		return p, nil
	}
	paths := b.list()
	if deviceID < 0 || deviceID >= len(paths) {
		return "", fmt.Errorf("linuxjs: no joystick at %d", deviceID)
	}
	return paths[deviceID], nil
}

// Open implements joystick.Opener.
func (b *Backend) Open(deviceID int) (joystick.Device, error) {
	path, err := b.path(deviceID)
	if err != nil {
		return nil, err
	}
	id, ok := b.known[path]
	if !ok {
		return nil, fmt.Errorf("linuxjs: %s is gone", path)
	}

	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("linuxjs: open %s: %w", path, err)
	}

	var axes, buttons [1]byte
	axmap := make([]byte, 64)
	nameBuf := make([]byte, 128)
	for _, q := range []struct {
		req uint
		buf []byte
	}{
		{jsiocgaxes, axes[:]},
		{jsiocgbuttons, buttons[:]},
		{jsiocgaxmap, axmap},
		{jsiocgname | uint(len(nameBuf))<<16, nameBuf},
	} {
		if err := ioctl(fd, q.req, q.buf); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("linuxjs: query %s: %w", path, err)
		}
	}

	name, guid := sysfsInfo(b.SysDir, path)
	if n := cString(nameBuf); n != "" {
		name = n
	}

	d := &device{
		b:       b,
		fd:      fd,
		path:    path,
		id:      id,
		name:    name,
		guid:    guid,
		buttons: int(buttons[0]),
		tr:      newTranslator(id, newLayout(axmap[:min(int(axes[0]), len(axmap))])),
	}
	b.open[id] = d
	return d, nil
}

// OpenController implements gamepad.ControllerOpener.
func (b *Backend) OpenController(deviceID int) (gamepad.Controller, error) {
	path, err := b.path(deviceID)
	if err != nil {
		return nil, err
	}
	name, guid := sysfsInfo(b.SysDir, path)
	if b.IsGamepad == nil || !b.IsGamepad(guid) {
		return nil, fmt.Errorf("%w: %s", ErrNotGamepad, guid)
	}

	cid, ok := b.controllers[path]
	if !ok {
		cid = b.nextController
		b.nextController++
		b.controllers[path] = cid
	}
	return &controller{id: cid, name: name, guid: guid}, nil
}

// Close stops watching. Devices must be closed before.
func (b *Backend) Close() error {
	if b.watcher == nil {
		return nil
	}
	err := b.watcher.Close()
	b.watcher = nil
	return err
}

func ioctl(fd int, req uint, buf []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return errno
	}
	return nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
