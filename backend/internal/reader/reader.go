// Package reader runs the input pump. It owns the input Subsystem, feeds it
// the events of a backend and publishes the state of the active gamepad.
package reader

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/input"
	"github.com/soar/padinput/backend/internal/joystick"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/rawevent"
)

const (
	DefaultDeadzone     = 0.05
	DefaultPollInterval = 16 * time.Millisecond // ~60Hz
)

// Backend is a source of devices and raw events.
type Backend interface {
	input.Opener

	// Start is called once on the pump goroutine before the first Poll. The
	// goroutine is locked to its OS thread for the life of the pump.
	Start() error

	// Poll returns the next pending event without blocking.
	Poll() (rawevent.Event, bool)

	Close() error
}

// Options for a Reader.
type Options struct {
	Deadzone     float64
	PollInterval time.Duration
	Verbose      bool

	// Record receives every event read from the backend when not nil
	Record *rawevent.Writer
}

// SlotInfo summarises one joystick slot.
type SlotInfo struct {
	Index       int    `json:"index"`
	PlayerIndex int    `json:"playerIndex"`
	Name        string `json:"name"`
	GUID        string `json:"guid"`
	Mapping     string `json:"mapping"`
	Connected   bool   `json:"connected"`
	Active      bool   `json:"active"`
}

// Reader pumps a backend into an input Subsystem and emits the view of the
// active gamepad whenever it changes.
//
// Every access to the Subsystem happens with mu held, so the query methods
// may be called from any goroutine.
type Reader struct {
	backend Backend
	opts    Options

	mu        sync.Mutex
	sub       *input.Subsystem
	active    int // slot index of the active gamepad
	hasActive bool
	state     gamepad.View

	changes chan gamepad.View
}

// New creates a Reader. The database may be nil.
func New(backend Backend, db *mapping.Database, opts Options) *Reader {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	sub := input.New(backend, db)
	sub.Verbose = opts.Verbose
	return &Reader{
		backend: backend,
		opts:    opts,
		sub:     sub,
		changes: make(chan gamepad.View, 64),
	}
}

// Changes returns the channel on which view changes are sent.
func (r *Reader) Changes() <-chan gamepad.View {
	return r.changes
}

// CurrentState returns the last view of the active gamepad.
func (r *Reader) CurrentState() gamepad.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Run starts the backend and runs the event loop until ctx is done.
func (r *Reader) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// backends consult the mapping database while starting
	r.mu.Lock()
	err := r.backend.Start()
	r.mu.Unlock()
	if err != nil {
		return err
	}
	defer func() {
		r.mu.Lock()
		r.sub.Close()
		r.mu.Unlock()
		if err := r.backend.Close(); err != nil {
			log.Printf("Backend close: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		r.Step()
		time.Sleep(r.opts.PollInterval)
	}
}

// Step dispatches every pending backend event and publishes the view of the
// active gamepad if it changed.
func (r *Reader) Step() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		ev, ok := r.backend.Poll()
		if !ok {
			break
		}
		change, ok := r.sub.Dispatch(ev)
		r.record(ev, change, ok)
		if !ok {
			continue
		}
		switch change.Kind {
		case rawevent.KindDeviceAdded:
			r.deviceAdded(change.Slot)
		case rawevent.KindDeviceRemoved:
			r.deviceRemoved(change.Slot)
		}
	}

	r.refresh()
}

func (r *Reader) record(ev rawevent.Event, change input.Change, ok bool) {
	if r.opts.Record == nil {
		return
	}

	var desc *rawevent.Descriptor
	if ev.Kind == rawevent.KindDeviceAdded {
		// nothing to replay for a device that never opened
		if !ok {
			return
		}
		slot, err := r.sub.Joysticks().Slot(change.Slot)
		if err != nil {
			return
		}
		desc = &rawevent.Descriptor{
			GUID:       slot.GUID,
			InstanceID: slot.InstanceID,
			Name:       slot.Name,
			NumAxes:    slot.NumAxes,
			NumButtons: slot.NumButtons,
			NumHats:    slot.NumHats,
		}
	}

	if err := r.opts.Record.Write(ev, desc); err != nil {
		log.Printf("Recording stopped: %v", err)
		r.opts.Record = nil
	}
}

// deviceAdded makes the first connected device the active one.
func (r *Reader) deviceAdded(index int) {
	if r.hasActive {
		return
	}
	r.setActive(index)
}

// deviceRemoved promotes the next connected device when the active one goes
// away.
func (r *Reader) deviceRemoved(index int) {
	if !r.hasActive || r.active != index {
		return
	}
	r.hasActive = false

	for i := 0; i < r.sub.NumSlots(); i++ {
		caps, err := r.sub.GetCapabilities(i)
		if err == nil && caps.IsConnected {
			r.setActive(i)
			return
		}
	}
	r.state = gamepad.View{PlayerIndex: index + 1}
	r.emit()
}

func (r *Reader) setActive(index int) {
	r.active = index
	r.hasActive = true
	name, _ := r.sub.GetName(index)
	log.Printf("Active joystick set: %s (player %d)", name, index+1)
	r.state = r.view(index)
	r.emit()
}

// SetActiveByPlayerIndex makes the connected device for a 1-based player
// index the active one.
func (r *Reader) SetActiveByPlayerIndex(playerIndex int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := playerIndex - 1
	caps, err := r.sub.GetCapabilities(index)
	if err != nil || !caps.IsConnected {
		return false
	}
	if r.hasActive && r.active == index {
		return true
	}
	r.setActive(index)
	return true
}

// refresh recomputes the view of the active gamepad and emits it when it
// differs from the last one.
func (r *Reader) refresh() {
	if !r.hasActive {
		return
	}
	v := r.view(r.active)
	delta := gamepad.ComputeDelta(r.state, v)
	if delta.IsEmpty() {
		return
	}
	r.state = v
	r.emit()
}

func (r *Reader) view(index int) gamepad.View {
	st, err := r.sub.GetState(index)
	if err != nil {
		return gamepad.View{PlayerIndex: index + 1}
	}
	caps, _ := r.sub.GetCapabilities(index)
	name, _ := r.sub.GetName(index)
	guid, _ := r.sub.GetGUID(index)
	return gamepad.NewView(index+1, name, guid, st, caps, r.opts.Deadzone)
}

func (r *Reader) emit() {
	select {
	case r.changes <- r.state:
	default:
		// drop rather than stall the pump
	}
}

// Slots lists every joystick slot.
func (r *Reader) Slots() []SlotInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]SlotInfo, 0, r.sub.NumSlots())
	for i := 0; i < r.sub.NumSlots(); i++ {
		slot, err := r.sub.Joysticks().Slot(i)
		if err != nil {
			continue
		}
		caps, _ := r.sub.GetCapabilities(i)
		cfg := r.sub.Database().Lookup(slot.GUID)
		infos = append(infos, SlotInfo{
			Index:       i,
			PlayerIndex: i + 1,
			Name:        slot.Name,
			GUID:        slot.GUID.String(),
			Mapping:     cfg.Name,
			Connected:   caps.IsConnected,
			Active:      r.hasActive && r.active == i,
		})
	}
	return infos
}

// View returns the current view of any slot.
func (r *Reader) View(index int) (gamepad.View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= r.sub.NumSlots() {
		return gamepad.View{}, joystick.ErrInvalidArgument
	}
	return r.view(index), nil
}

// Capabilities returns the capabilities of a slot.
func (r *Reader) Capabilities(index int) (gamepad.Capabilities, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sub.GetCapabilities(index)
}

// AddMapping adds a mapping record to the database.
func (r *Reader) AddMapping(record string) (*mapping.Configuration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, err := r.sub.AddMapping(record)
	if err != nil {
		return nil, err
	}
	// the active view may change with the new mapping
	r.refresh()
	return cfg, nil
}

// AddMappingsFromFile adds every record of a mapping file.
func (r *Reader) AddMappingsFromFile(path string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sub.AddMappingsFromFile(path)
}

// ErrNoRecord is returned by Mapping for GUIDs without a record.
var ErrNoRecord = errors.New("no mapping record")

// Mapping returns the record stored for a GUID.
func (r *Reader) Mapping(guid mapping.GUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sub.Database().Record(guid)
	if !ok {
		return "", ErrNoRecord
	}
	return rec, nil
}
