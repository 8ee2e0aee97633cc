package handlers

import (
	"net/http"

	"github.com/akinalp/leasehub/pkg"
	"github.com/akinalp/leasehub/services"
)

// DashboardHandler serves the KPI snapshot the dashboard loads before its
// socket takes over.
type DashboardHandler struct {
	kpiService services.KPIService
}

// NewDashboardHandler creates the handler.
func NewDashboardHandler(kpiService services.KPIService) *DashboardHandler {
	return &DashboardHandler{kpiService: kpiService}
}

// KPIs godoc
// GET /api/dashboard/kpis
func (h *DashboardHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	kpis, err := h.kpiService.GetKPIs(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, kpis)
}
