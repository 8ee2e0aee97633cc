package realtime

import (
	"log/slog"

	"github.com/akinalp/leasehub/ws"
)

// DashboardSocket serves /ws/dashboard. Clients send nothing but
// heartbeats; every event is a unicast to a personal room.
type DashboardSocket struct {
	ns     *ws.Namespace
	logger *slog.Logger
}

// NewDashboardSocket registers the dashboard namespace on server.
func NewDashboardSocket(server *ws.Server, auth ws.Authenticator, logger *slog.Logger) *DashboardSocket {
	return &DashboardSocket{
		ns:     server.Namespace(DashboardNamespace, auth),
		logger: logger.With("component", "dashboard_socket"),
	}
}

// EmitToUser sends op with payload to every dashboard socket of userID.
func (s *DashboardSocket) EmitToUser(userID, op string, payload any) {
	s.ns.EmitToRoom(ws.UserRoom(userID), ws.Event{Op: op, Data: payload})
}

// EmitKPIUpdate sends freshly computed KPIs.
func (s *DashboardSocket) EmitKPIUpdate(userID string, kpis any) {
	s.EmitToUser(userID, OpKPIUpdate, KPIUpdateData{KPIs: kpis, Timestamp: now()})
}

// IsUserConnected reports whether the user has a dashboard open.
func (s *DashboardSocket) IsUserConnected(userID string) bool {
	return s.ns.IsRoomOccupied(ws.UserRoom(userID))
}
