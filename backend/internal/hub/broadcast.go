package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/reader"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Broadcaster listens for view changes of the active gamepad and broadcasts
// them to the hub.
type Broadcaster struct {
	hub     *Hub
	changes <-chan gamepad.View

	mu        sync.Mutex
	lastState gamepad.View
	seq       int64

	// Slots, when set, is sent to every client whenever a gamepad connects or
	// disconnects.
	Slots func() []reader.SlotInfo
}

func NewBroadcaster(h *Hub, changes <-chan gamepad.View) *Broadcaster {
	return &Broadcaster{
		hub:     h,
		changes: changes,
	}
}

// Run starts the broadcaster loop until ctx is done or the change channel is
// closed. Should be run in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	var deltaCount int

	for {
		select {
		case <-ctx.Done():
			return

		case state, ok := <-b.changes:
			if !ok {
				return
			}
			b.mu.Lock()
			b.handle(state, &deltaCount)
			b.mu.Unlock()

		case <-ticker.C:
			b.mu.Lock()
			if b.lastState.Connected {
				b.seq++
				b.sendFull(b.lastState)
			}
			b.mu.Unlock()
		}
	}
}

func (b *Broadcaster) handle(state gamepad.View, deltaCount *int) {
	last := b.lastState
	b.lastState = state

	// another player or a connection change: clients of that player need the
	// whole picture
	if state.PlayerIndex != last.PlayerIndex || state.Connected != last.Connected {
		b.sendConnection(state)
		*deltaCount = 0
		return
	}

	delta := gamepad.ComputeDelta(last, state)
	if delta.IsEmpty() {
		return
	}

	b.seq++
	*deltaCount++
	if *deltaCount >= deltaCountSync {
		b.sendFull(state)
		*deltaCount = 0
	} else {
		b.sendDelta(delta, state.PlayerIndex)
	}
}

// SendInitialState sends the current full state to a newly connected client.
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	state := b.lastState
	b.marshalTo(NewFullMessage(b.seq, &state), func(data []byte) {
		b.hub.SendTo(c, data)
	})
}

func (b *Broadcaster) sendConnection(state gamepad.View) {
	event := EventDisconnected
	if state.Connected {
		event = EventConnected
	}
	b.seq++
	b.marshalTo(NewEventMessage(b.seq, event, &state), func(data []byte) {
		b.hub.BroadcastToPlayer(data, state.PlayerIndex)
	})
	b.seq++
	b.sendFull(state)

	if b.Slots != nil {
		b.marshalTo(NewSlotsMessage(b.Slots()), b.hub.Broadcast)
	}
}

func (b *Broadcaster) sendFull(state gamepad.View) {
	b.marshalTo(NewFullMessage(b.seq, &state), func(data []byte) {
		b.hub.BroadcastToPlayer(data, state.PlayerIndex)
	})
}

func (b *Broadcaster) sendDelta(delta *gamepad.DeltaChanges, playerIndex int) {
	b.marshalTo(NewDeltaMessage(b.seq, delta), func(data []byte) {
		b.hub.BroadcastToPlayer(data, playerIndex)
	})
}

func (b *Broadcaster) marshalTo(msg *WSMessage, send func([]byte)) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", msg.Type, err)
		return
	}
	send(data)
}
