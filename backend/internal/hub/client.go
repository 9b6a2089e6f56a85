package hub

import (
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/reader"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Session is what clients may ask of the input side.
type Session interface {
	SetActiveByPlayerIndex(int) bool
	Slots() []reader.SlotInfo
	AddMapping(record string) (*mapping.Configuration, error)
}

// Client represents a connected WebSocket client.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// 1-based player index this client is listening to
	playerIndex atomic.Int32
}

// NewClient creates a new Client attached to the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	c.playerIndex.Store(1)
	return c
}

func (c *Client) PlayerIndex() int {
	return int(c.playerIndex.Load())
}

func (c *Client) SetPlayerIndex(index int) {
	c.playerIndex.Store(int32(index))
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// ReadPump reads commands from the WebSocket until the connection closes.
func (c *Client) ReadPump(s Session) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Client read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error parsing client message: %v", err)
			continue
		}
		c.handle(s, msg)
	}
}

func (c *Client) handle(s Session, msg ClientMessage) {
	switch msg.Type {
	case CommandSelectPlayer:
		if !s.SetActiveByPlayerIndex(msg.PlayerIndex) {
			log.Printf("Failed to switch to player %d: invalid index", msg.PlayerIndex)
			return
		}
		c.SetPlayerIndex(msg.PlayerIndex)
		c.reply(NewPlayerSelectedMessage(msg.PlayerIndex))
		log.Printf("Client switched to player %d", msg.PlayerIndex)

	case CommandListSlots:
		c.reply(NewSlotsMessage(s.Slots()))

	case CommandAddMapping:
		cfg, err := s.AddMapping(msg.Mapping)
		if err != nil {
			c.reply(NewErrorMessage(err))
			return
		}
		c.reply(NewMappingAddedMessage(cfg.GUID.String()))

	default:
		log.Printf("Unknown client message %q", msg.Type)
	}
}

func (c *Client) reply(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling reply: %v", err)
		return
	}
	c.hub.SendTo(c, data)
}
