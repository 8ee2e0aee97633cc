// Package ws is the socket transport shared by the messaging and dashboard
// protocols.
//
// Layout:
//   - Server: one upgrader for every namespace, routed by GET /ws/{namespace}
//   - Namespace: authenticated clients grouped into rooms (RoomBroadcaster)
//   - Client: one connection with its read and write pumps
//   - Event: the {op, d, seq} frame exchanged in both directions
//
// Protocol packages (realtime) register op handlers on a namespace and emit
// into rooms; ws itself knows nothing about conversations or KPIs.
package ws

import "encoding/json"

// Event is a frame sent to clients.
//
// Seq comes from one counter shared by every client of a Server. A client sees
// it strictly increase but not contiguously, so it orders frames and says
// nothing about frames addressed to someone else.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// inboundEvent is a frame read from a client; d is decoded by the handler.
type inboundEvent struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
}

// Transport ops, valid on every namespace.
const (
	OpPing  = "ping"  // client heartbeat, refreshes the read deadline
	OpPong  = "pong"  // heartbeat ack
	OpReady = "ready" // sent once the connect hook finished its room joins
	OpError = "error" // rejected client event
)

// ReadyData is the payload of OpReady.
type ReadyData struct {
	UserID    string `json:"userId"`
	Namespace string `json:"namespace"`
}

// ErrorData is the payload of OpError.
type ErrorData struct {
	Message string `json:"message"`
}
