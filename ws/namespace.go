package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

// RoomBroadcaster is the room capability both socket protocols build on.
type RoomBroadcaster interface {
	Join(c *Client, room string)
	Leave(c *Client, room string)
	EmitToRoom(room string, event Event)
	IsRoomOccupied(room string) bool
}

// UserRoom is the personal room every connection joins on connect.
func UserRoom(userID string) string { return "user:" + userID }

// ConversationRoom is the broadcast room of one conversation.
func ConversationRoom(conversationID string) string { return "conversation:" + conversationID }

// HandlerFunc handles one client op. It runs on the client's read
// goroutine, so events of one connection are handled in order.
type HandlerFunc func(c *Client, data json.RawMessage)

// Namespace is a set of authenticated clients grouped into rooms.
//
// Membership is guarded by one RWMutex: joins, leaves and disconnects take
// the write lock, emits take the read lock. Sends never block; a client
// whose buffer is full is dropped.
type Namespace struct {
	name   string
	auth   Authenticator
	logger *slog.Logger
	seq    *atomic.Int64

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	handlers  map[string]HandlerFunc
	onConnect func(c *Client)
}

var _ RoomBroadcaster = (*Namespace)(nil)

func newNamespace(name string, auth Authenticator, seq *atomic.Int64, logger *slog.Logger) *Namespace {
	return &Namespace{
		name:     name,
		auth:     auth,
		logger:   logger.With("namespace", name),
		seq:      seq,
		clients:  make(map[*Client]struct{}),
		rooms:    make(map[string]map[*Client]struct{}),
		handlers: make(map[string]HandlerFunc),
	}
}

// Name is the path segment of the namespace ("messaging", "dashboard").
func (ns *Namespace) Name() string { return ns.name }

// On registers the handler of a client op. Register before serving.
func (ns *Namespace) On(op string, fn HandlerFunc) {
	ns.handlers[op] = fn
}

// OnConnect sets the hook run after the personal room join and before the
// client's first event is read. Register before serving.
func (ns *Namespace) OnConnect(fn func(c *Client)) {
	ns.onConnect = fn
}

// ─── Membership ───

func (ns *Namespace) add(c *Client) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.clients[c] = struct{}{}
	ns.logger.Debug("client connected", "user_id", c.identity.UserID, "connections", len(ns.clients))
}

// remove drops c from every room and closes its send channel. Safe to call
// more than once.
func (ns *Namespace) remove(c *Client) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, ok := ns.clients[c]; !ok {
		return
	}
	delete(ns.clients, c)

	for room := range c.rooms {
		ns.leaveLocked(c, room)
	}
	close(c.send)

	ns.logger.Debug("client disconnected", "user_id", c.identity.UserID, "connections", len(ns.clients))
}

// Join adds c to room. Disconnected clients are ignored.
func (ns *Namespace) Join(c *Client, room string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, ok := ns.clients[c]; !ok {
		return
	}

	members, ok := ns.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		ns.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Leave removes c from room.
func (ns *Namespace) Leave(c *Client, room string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.leaveLocked(c, room)
}

func (ns *Namespace) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	if members, ok := ns.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(ns.rooms, room)
		}
	}
}

// InRoom reports whether c is currently a member of room.
func (ns *Namespace) InRoom(c *Client, room string) bool {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

// ClientsInRoom returns a snapshot of the members of room.
func (ns *Namespace) ClientsInRoom(room string) []*Client {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	clients := make([]*Client, 0, len(ns.rooms[room]))
	for c := range ns.rooms[room] {
		clients = append(clients, c)
	}
	return clients
}

// IsRoomOccupied reports whether room has at least one client.
func (ns *Namespace) IsRoomOccupied(room string) bool {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return len(ns.rooms[room]) > 0
}

// ─── Emit ───

// EmitToRoom sends event to every client in room.
func (ns *Namespace) EmitToRoom(room string, event Event) {
	ns.emit(room, nil, event)
}

// EmitToRoomExcept sends event to every client in room except one socket.
func (ns *Namespace) EmitToRoomExcept(room string, except *Client, event Event) {
	ns.emit(room, except, event)
}

func (ns *Namespace) emit(room string, except *Client, event Event) {
	data, ok := ns.encode(event)
	if !ok {
		return
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	for c := range ns.rooms[room] {
		if c == except {
			continue
		}
		ns.sendLocked(c, data)
	}
}

// emitTo sends event to a single client.
func (ns *Namespace) emitTo(c *Client, event Event) {
	data, ok := ns.encode(event)
	if !ok {
		return
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	if _, registered := ns.clients[c]; registered {
		ns.sendLocked(c, data)
	}
}

func (ns *Namespace) encode(event Event) ([]byte, bool) {
	event.Seq = ns.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		ns.logger.Error("failed to marshal event", "op", event.Op, "error", err)
		return nil, false
	}
	return data, true
}

// sendLocked must run under ns.mu (read or write); remove closes send under
// the write lock, so the channel is open here.
func (ns *Namespace) sendLocked(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		ns.logger.Warn("send buffer full, dropping connection", "user_id", c.identity.UserID)
		go ns.remove(c)
	}
}

// ─── Dispatch ───

func (ns *Namespace) dispatch(c *Client, ev inboundEvent) {
	if ev.Op == OpPing {
		c.refreshDeadline()
		c.Emit(Event{Op: OpPong})
		return
	}

	fn, ok := ns.handlers[ev.Op]
	if !ok {
		ns.logger.Debug("unknown op", "user_id", c.identity.UserID, "op", ev.Op)
		c.EmitError("unknown event " + ev.Op)
		return
	}
	fn(c, ev.Data)
}

// ConnectionCount is the number of live clients.
func (ns *Namespace) ConnectionCount() int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return len(ns.clients)
}

// closeAll disconnects every client; their write pumps send a close frame.
func (ns *Namespace) closeAll() {
	ns.mu.RLock()
	clients := make([]*Client, 0, len(ns.clients))
	for c := range ns.clients {
		clients = append(clients, c)
	}
	ns.mu.RUnlock()

	for _, c := range clients {
		ns.remove(c)
	}
}
