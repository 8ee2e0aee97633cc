package ws

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Server owns the upgrader and the namespaces. Both socket protocols share
// one Server, so frames carry one seq sequence.
type Server struct {
	upgrader   websocket.Upgrader
	logger     *slog.Logger
	seq        atomic.Int64
	namespaces map[string]*Namespace
}

// NewServer builds the transport. allowedOrigins restricts the Origin
// header of upgrade requests; empty allows any origin.
func NewServer(allowedOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		logger:     logger.With("component", "ws"),
		namespaces: make(map[string]*Namespace),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return s
}

// Namespace registers a namespace served at /ws/{name}. Call during startup,
// before the HTTP server starts.
func (s *Server) Namespace(name string, auth Authenticator) *Namespace {
	ns := newNamespace(name, auth, &s.seq, s.logger)
	s.namespaces[name] = ns
	return ns
}

// HandleConnection serves GET /ws/{namespace}.
//
// Flow:
//  1. resolve the namespace (404 if unknown)
//  2. authenticate (401 before upgrade, no event is ever sent)
//  3. upgrade, register, start WritePump
//  4. join the personal room, run the connect hook, send ready
//  5. ReadPump blocks until the connection ends
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ns, ok := s.namespaces[r.PathValue("namespace")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	identity, err := ns.auth(r)
	if err != nil || identity.UserID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		ns.logger.Info("upgrade failed", "user_id", identity.UserID, "error", err)
		return
	}

	client := newClient(ns, conn, identity)
	ns.add(client)

	go client.WritePump()

	ns.Join(client, UserRoom(identity.UserID))
	if ns.onConnect != nil {
		ns.onConnect(client)
	}
	client.Emit(Event{Op: OpReady, Data: ReadyData{UserID: identity.UserID, Namespace: ns.name}})

	client.ReadPump()
}

// ConnectionCounts reports live clients per namespace.
func (s *Server) ConnectionCounts() map[string]int {
	counts := make(map[string]int, len(s.namespaces))
	for name, ns := range s.namespaces {
		counts[name] = ns.ConnectionCount()
	}
	return counts
}

// Shutdown disconnects every client of every namespace.
func (s *Server) Shutdown() {
	for _, ns := range s.namespaces {
		ns.closeAll()
	}
	s.logger.Info("socket server shut down")
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		if slices.Contains(allowed, origin) {
			return true
		}
		// same host is always fine
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
