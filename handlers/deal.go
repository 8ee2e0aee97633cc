package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
	"github.com/akinalp/leasehub/services"
)

// DealHandler serves a broker's deals.
type DealHandler struct {
	dealService services.DealService
}

// NewDealHandler creates the handler.
func NewDealHandler(dealService services.DealService) *DealHandler {
	return &DealHandler{dealService: dealService}
}

// List godoc
// GET /api/deals
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	deals, err := h.dealService.List(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	if deals == nil {
		deals = []models.Deal{}
	}
	pkg.JSON(w, http.StatusOK, deals)
}

// Create godoc
// POST /api/deals
func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.dealService.Create(r.Context(), user.ID, user.Role, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, d)
}

// Get godoc
// GET /api/deals/{id}
func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	d, err := h.dealService.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, d)
}

// Update godoc
// PATCH /api/deals/{id}
func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.dealService.Update(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, d)
}
