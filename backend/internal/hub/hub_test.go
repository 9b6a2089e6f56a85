package hub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/reader"
	"github.com/soar/padinput/backend/internal/test"
)

func newTestClient(h *Hub, playerIndex int) *Client {
	c := &Client{hub: h, send: make(chan []byte, 16)}
	c.SetPlayerIndex(playerIndex)
	h.Register(c)
	return c
}

func next(t *testing.T, c *Client) WSMessage {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		var msg WSMessage
		test.DemandSuccess(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no message")
	}
	return WSMessage{}
}

func expectNone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Errorf("unexpected message %s", data)
	default:
	}
}

func TestBroadcastToPlayer(t *testing.T) {
	h := NewHub()
	c1 := newTestClient(h, 1)
	c2 := newTestClient(h, 2)
	test.ExpectEquality(t, h.Len(), 2)

	h.BroadcastToPlayer([]byte(`{"type":"full"}`), 2)
	expectNone(t, c1)
	test.ExpectEquality(t, next(t, c2).Type, TypeFull)

	h.Broadcast([]byte(`{"type":"slots"}`))
	test.ExpectEquality(t, next(t, c1).Type, TypeSlots)
	test.ExpectEquality(t, next(t, c2).Type, TypeSlots)

	h.Unregister(c1)
	_, ok := <-c1.send
	test.ExpectFailure(t, ok)
	test.ExpectEquality(t, h.Len(), 1)

	// twice is harmless
	h.Unregister(c1)
}

func TestHubRunDropsClients(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	_, ok := <-c.send
	test.ExpectFailure(t, ok)

	late := &Client{hub: h, send: make(chan []byte, 1)}
	h.Register(late)
	_, ok = <-late.send
	test.ExpectFailure(t, ok)
	test.ExpectEquality(t, h.Len(), 0)
}

func TestBroadcaster(t *testing.T) {
	h := NewHub()
	c1 := newTestClient(h, 1)
	c2 := newTestClient(h, 2)

	changes := make(chan gamepad.View)
	b := NewBroadcaster(h, changes)
	b.Slots = func() []reader.SlotInfo {
		return []reader.SlotInfo{{Index: 0, PlayerIndex: 1, Name: "Pad", Connected: true}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	view := gamepad.View{PlayerIndex: 1, Connected: true, Name: "Pad"}
	changes <- view

	msg := next(t, c1)
	test.ExpectEquality(t, msg.Type, TypeEvent)
	test.ExpectEquality(t, msg.Event, EventConnected)
	msg = next(t, c1)
	test.ExpectEquality(t, msg.Type, TypeFull)
	test.ExpectEquality(t, msg.Data.Name, "Pad")
	msg = next(t, c1)
	test.ExpectEquality(t, msg.Type, TypeSlots)
	test.DemandEquality(t, len(msg.Slots), 1)

	// player 2 only sees the slot list
	test.ExpectEquality(t, next(t, c2).Type, TypeSlots)

	view.Buttons.A = true
	changes <- view
	msg = next(t, c1)
	test.ExpectEquality(t, msg.Type, TypeDelta)
	test.DemandSuccess(t, msg.Changes.Buttons != nil)
	test.ExpectSuccess(t, msg.Changes.Buttons.A)
	test.ExpectSuccess(t, msg.Changes.Name == nil)

	// unchanged view, nothing sent
	changes <- view

	view.Connected = false
	changes <- view
	msg = next(t, c1)
	test.ExpectEquality(t, msg.Type, TypeEvent)
	test.ExpectEquality(t, msg.Event, EventDisconnected)
	test.ExpectEquality(t, next(t, c1).Type, TypeFull)
	test.ExpectEquality(t, next(t, c1).Type, TypeSlots)
	test.ExpectEquality(t, next(t, c2).Type, TypeSlots)
}

type fakeSession struct {
	players int
	added   []string
}

func (s *fakeSession) SetActiveByPlayerIndex(i int) bool { return i >= 1 && i <= s.players }

func (s *fakeSession) Slots() []reader.SlotInfo {
	return []reader.SlotInfo{{Index: 0, PlayerIndex: 1}}
}

func (s *fakeSession) AddMapping(record string) (*mapping.Configuration, error) {
	if record == "" {
		return nil, errors.New("empty record")
	}
	s.added = append(s.added, record)
	return &mapping.Configuration{GUID: mapping.MakeGUID(mapping.BusUSB, 1, 2, 0)}, nil
}

func TestClientCommands(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, 1)
	s := &fakeSession{players: 2}

	c.handle(s, ClientMessage{Type: CommandSelectPlayer, PlayerIndex: 2})
	msg := next(t, c)
	test.ExpectEquality(t, msg.Type, TypePlayerSelected)
	test.ExpectEquality(t, msg.PlayerIndex, 2)
	test.ExpectEquality(t, c.PlayerIndex(), 2)

	c.handle(s, ClientMessage{Type: CommandSelectPlayer, PlayerIndex: 5})
	expectNone(t, c)
	test.ExpectEquality(t, c.PlayerIndex(), 2)

	c.handle(s, ClientMessage{Type: CommandListSlots})
	test.ExpectEquality(t, len(next(t, c).Slots), 1)

	c.handle(s, ClientMessage{Type: CommandAddMapping, Mapping: "x"})
	msg = next(t, c)
	test.ExpectEquality(t, msg.Type, TypeMappingAdded)
	test.ExpectEquality(t, msg.GUID, "03000000010000000200000000000000")
	test.DemandEquality(t, len(s.added), 1)

	c.handle(s, ClientMessage{Type: CommandAddMapping})
	msg = next(t, c)
	test.ExpectEquality(t, msg.Type, TypeError)
	test.ExpectEquality(t, msg.Error, "empty record")
}
