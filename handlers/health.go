package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/akinalp/leasehub/pkg"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ConnectionCounter is satisfied by *ws.Server.
type ConnectionCounter interface {
	ConnectionCounts() map[string]int
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status      string         `json:"status"`
	Database    string         `json:"database"`
	Connections map[string]int `json:"connections"`
}

// HealthHandler reports liveness. No auth.
type HealthHandler struct {
	db      Pinger
	sockets ConnectionCounter
}

// NewHealthHandler creates the handler.
func NewHealthHandler(db Pinger, sockets ConnectionCounter) *HealthHandler {
	return &HealthHandler{db: db, sockets: sockets}
}

// Check godoc
// GET /api/health
// 503 when the database does not answer within two seconds.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok", Connections: h.sockets.ConnectionCounts()}
	if err := h.db.PingContext(ctx); err != nil {
		resp.Status, resp.Database = "degraded", "unreachable"
		pkg.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}
