package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent: three missed 30s
	// heartbeats.
	pongWait = 90 * time.Second

	// maxMessageSize caps inbound frames; payloads travel over HTTP.
	maxMessageSize = 4096

	// sendBufferSize is the per-client outbound queue. A full queue means a
	// stuck client, which is dropped.
	sendBufferSize = 256
)

// Client is one authenticated socket connection.
//
// Two goroutines serve it: ReadPump decodes frames and dispatches them to
// the namespace handlers, WritePump drains send into the connection.
// gorilla/websocket allows one concurrent reader and one concurrent writer.
type Client struct {
	ns       *Namespace
	conn     *websocket.Conn
	identity Identity
	send     chan []byte
	mu       sync.Mutex // serializes conn writes

	// rooms is guarded by ns.mu.
	rooms map[string]struct{}
}

func newClient(ns *Namespace, conn *websocket.Conn, id Identity) *Client {
	return &Client{
		ns:       ns,
		conn:     conn,
		identity: id,
		send:     make(chan []byte, sendBufferSize),
		rooms:    make(map[string]struct{}),
	}
}

// UserID is the authenticated user of the connection.
func (c *Client) UserID() string { return c.identity.UserID }

// Identity returns the handshake identity.
func (c *Client) Identity() Identity { return c.identity }

// Emit sends event to this connection only.
func (c *Client) Emit(event Event) {
	c.ns.emitTo(c, event)
}

// EmitError sends an error event to this connection.
func (c *Client) EmitError(message string) {
	c.Emit(Event{Op: OpError, Data: ErrorData{Message: message}})
}

// ReadPump reads frames until the connection fails, then unregisters the
// client. It blocks; the upgrade handler runs it on the request goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.ns.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.refreshDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.refreshDeadline()
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.ns.logger.Info("unexpected close", "user_id", c.identity.UserID, "error", err)
			}
			return
		}

		var ev inboundEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Op == "" {
			c.ns.logger.Debug("invalid frame", "user_id", c.identity.UserID, "error", err)
			c.EmitError("invalid frame")
			continue
		}

		c.ns.dispatch(c, ev)
	}
}

func (c *Client) refreshDeadline() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.ns.logger.Debug("failed to set read deadline", "user_id", c.identity.UserID, "error", err)
	}
}

// WritePump writes queued frames until send is closed by the namespace.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.writeMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
