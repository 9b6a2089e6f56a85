package reader_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/soar/padinput/backend/internal/backend/virtual"
	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/rawevent"
	"github.com/soar/padinput/backend/internal/reader"
	"github.com/soar/padinput/backend/internal/test"
)

var pad = virtual.Pad{
	Name:       "Test Pad",
	GUID:       mapping.MakeGUID(mapping.BusUSB, 0x0001, 0x0002, 0),
	NumAxes:    6,
	NumButtons: 11,
	NumHats:    1,
	Gamepad:    true,
}

// drain returns every view waiting on the channel
func drain(r *reader.Reader) []gamepad.View {
	var views []gamepad.View
	for {
		select {
		case v := <-r.Changes():
			views = append(views, v)
		default:
			return views
		}
	}
}

func TestActiveGamepad(t *testing.T) {
	b := virtual.New()
	r := reader.New(b, nil, reader.Options{Deadzone: reader.DefaultDeadzone})

	d1 := b.Attach(pad)
	r.Step()

	views := drain(r)
	test.DemandEquality(t, len(views), 1)
	test.ExpectEquality(t, views[0].PlayerIndex, 1)
	test.ExpectEquality(t, views[0].Connected, true)
	test.ExpectEquality(t, views[0].Name, "Test Pad")
	test.ExpectEquality(t, views[0].ControllerType, "generic")

	// no change, no view
	r.Step()
	test.ExpectEquality(t, len(drain(r)), 0)

	b.Button(d1, 0, true)
	r.Step()
	views = drain(r)
	test.DemandEquality(t, len(views), 1)
	test.ExpectSuccess(t, views[0].Buttons.A)
	test.ExpectSuccess(t, r.CurrentState().Buttons.A)

	// a second device does not take over
	d2 := b.Attach(virtual.Pad{Name: "Second", NumAxes: 2, NumButtons: 2})
	r.Step()
	drain(r)
	test.ExpectEquality(t, r.CurrentState().PlayerIndex, 1)

	slots := r.Slots()
	test.DemandEquality(t, len(slots), 2)
	test.ExpectSuccess(t, slots[0].Active)
	test.ExpectFailure(t, slots[1].Active)
	test.ExpectEquality(t, slots[0].Mapping, "Unmapped Controller")

	// until the first one goes away
	b.Detach(d1)
	r.Step()
	test.ExpectEquality(t, r.CurrentState().PlayerIndex, 2)
	test.ExpectEquality(t, r.CurrentState().Name, "Second")

	b.Detach(d2)
	r.Step()
	test.ExpectFailure(t, r.CurrentState().Connected)
}

func TestSetActiveByPlayerIndex(t *testing.T) {
	b := virtual.New()
	r := reader.New(b, nil, reader.Options{})
	b.Attach(pad)
	d2 := b.Attach(pad)
	r.Step()

	test.ExpectFailure(t, r.SetActiveByPlayerIndex(0))
	test.ExpectFailure(t, r.SetActiveByPlayerIndex(3))
	test.ExpectSuccess(t, r.SetActiveByPlayerIndex(2))
	test.ExpectEquality(t, r.CurrentState().PlayerIndex, 2)

	b.Detach(d2)
	r.Step()
	test.ExpectFailure(t, r.SetActiveByPlayerIndex(2))
	test.ExpectEquality(t, r.CurrentState().PlayerIndex, 1)
}

func TestAddMappingChangesView(t *testing.T) {
	b := virtual.New()
	r := reader.New(b, nil, reader.Options{})
	d := b.Attach(pad)
	b.Button(d, 1, true)
	r.Step()

	test.ExpectFailure(t, r.CurrentState().Buttons.A)
	_, err := r.Mapping(pad.GUID)
	test.ExpectError(t, err, reader.ErrNoRecord)

	rec := pad.GUID.String() + ",Test Pad,a:b1,b:b0"
	cfg, err := r.AddMapping(rec)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, cfg.Name, "Test Pad")
	test.ExpectSuccess(t, r.CurrentState().Buttons.A)
	test.ExpectEquality(t, r.CurrentState().ControllerType, "mapped")

	got, err := r.Mapping(pad.GUID)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, got, rec)

	_, err = r.AddMapping("not a record")
	test.ExpectError(t, err, mapping.ErrFormat)
}

func TestRecord(t *testing.T) {
	var buf bytes.Buffer
	b := virtual.New()
	r := reader.New(b, nil, reader.Options{Record: rawevent.NewWriter(&buf)})

	d := b.Attach(pad)
	b.Axis(d, 0, 1234)
	r.Step()

	rd := rawevent.NewReader(&buf)
	var kinds []rawevent.Kind
	for {
		ev, desc, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		test.DemandSuccess(t, err)
		if ev.Kind == rawevent.KindDeviceAdded {
			test.DemandSuccess(t, desc != nil)
			test.ExpectEquality(t, desc.Name, pad.Name)
			test.ExpectEquality(t, desc.GUID, pad.GUID)
			test.ExpectEquality(t, desc.InstanceID, d.InstanceID())
		}
		kinds = append(kinds, ev.Kind)
	}
	test.DemandEquality(t, len(kinds), 3)
	test.ExpectEquality(t, kinds[0], rawevent.KindDeviceAdded)
	test.ExpectEquality(t, kinds[1], rawevent.KindControllerAdded)
	test.ExpectEquality(t, kinds[2], rawevent.KindAxis)
}

func TestRunStopsWithContext(t *testing.T) {
	b := virtual.New()
	r := reader.New(b, nil, reader.Options{PollInterval: time.Millisecond})
	b.Attach(pad)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx)
	}()

	select {
	case v := <-r.Changes():
		test.ExpectEquality(t, v.Connected, true)
	case <-time.After(5 * time.Second):
		t.Fatal("no view from the pump")
	}

	cancel()
	select {
	case err := <-done:
		test.ExpectSuccess(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pump did not stop")
	}
}

// slowStart lets the test call into the reader while Start is running
type slowStart struct {
	*virtual.Backend
	starting chan struct{}
	queried  chan struct{}
	overlap  bool
}

func (b *slowStart) Start() error {
	close(b.starting)
	select {
	case <-b.queried:
		b.overlap = true
	case <-time.After(50 * time.Millisecond):
	}
	return b.Backend.Start()
}

func TestStartExcludesQueries(t *testing.T) {
	b := &slowStart{
		Backend:  virtual.New(),
		starting: make(chan struct{}),
		queried:  make(chan struct{}),
	}
	r := reader.New(b, nil, reader.Options{PollInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx)
	}()

	<-b.starting
	_, err := r.AddMapping("03000000010000000200000000000000,Test Pad,a:b0,")
	test.ExpectSuccess(t, err)
	close(b.queried)

	cancel()
	test.ExpectSuccess(t, <-done)
	test.ExpectFailure(t, b.overlap)
}
