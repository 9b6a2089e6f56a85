package hub

import (
	"time"

	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/reader"
)

// Server to client message types.
const (
	TypeFull           = "full"
	TypeDelta          = "delta"
	TypeEvent          = "event"
	TypePlayerSelected = "player_selected"
	TypeSlots          = "slots"
	TypeMappingAdded   = "mapping_added"
	TypeError          = "error"
)

// Names used by TypeEvent messages.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
)

// WSMessage is a message sent from the server to a client.
type WSMessage struct {
	Type        string                `json:"type"`
	Seq         int64                 `json:"seq"`
	Timestamp   int64                 `json:"timestamp"` // unix milliseconds
	Event       string                `json:"event,omitempty"`
	Data        *gamepad.View         `json:"data,omitempty"`
	Changes     *gamepad.DeltaChanges `json:"changes,omitempty"`
	PlayerIndex int                   `json:"playerIndex,omitempty"`
	Slots       []reader.SlotInfo     `json:"slots,omitempty"`
	GUID        string                `json:"guid,omitempty"`
	Error       string                `json:"error,omitempty"`
}

func newMessage(typ string, seq int64) *WSMessage {
	return &WSMessage{Type: typ, Seq: seq, Timestamp: time.Now().UnixMilli()}
}

// NewFullMessage creates a message with the complete view of a gamepad.
func NewFullMessage(seq int64, view *gamepad.View) *WSMessage {
	m := newMessage(TypeFull, seq)
	m.Data = view
	return m
}

// NewDeltaMessage creates a message with only the changed parts of a view.
func NewDeltaMessage(seq int64, changes *gamepad.DeltaChanges) *WSMessage {
	m := newMessage(TypeDelta, seq)
	m.Changes = changes
	return m
}

// NewEventMessage creates a message for a connection change.
func NewEventMessage(seq int64, event string, view *gamepad.View) *WSMessage {
	m := newMessage(TypeEvent, seq)
	m.Event = event
	m.Data = view
	return m
}

func NewPlayerSelectedMessage(playerIndex int) *WSMessage {
	m := newMessage(TypePlayerSelected, 0)
	m.PlayerIndex = playerIndex
	return m
}

func NewSlotsMessage(slots []reader.SlotInfo) *WSMessage {
	m := newMessage(TypeSlots, 0)
	m.Slots = slots
	return m
}

func NewMappingAddedMessage(guid string) *WSMessage {
	m := newMessage(TypeMappingAdded, 0)
	m.GUID = guid
	return m
}

func NewErrorMessage(err error) *WSMessage {
	m := newMessage(TypeError, 0)
	m.Error = err.Error()
	return m
}

// Client to server message types.
const (
	CommandSelectPlayer = "select_player"
	CommandListSlots    = "list_slots"
	CommandAddMapping   = "add_mapping"
)

// ClientMessage is a message sent from a client to the server.
type ClientMessage struct {
	Type        string `json:"type"`
	PlayerIndex int    `json:"playerIndex,omitempty"`
	Mapping     string `json:"mapping,omitempty"`
}
