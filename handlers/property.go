package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
	"github.com/akinalp/leasehub/services"
)

// PropertyHandler serves a landlord's listings.
type PropertyHandler struct {
	propertyService services.PropertyService
}

// NewPropertyHandler creates the handler.
func NewPropertyHandler(propertyService services.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// List godoc
// GET /api/properties
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	props, err := h.propertyService.List(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	if props == nil {
		props = []models.Property{}
	}
	pkg.JSON(w, http.StatusOK, props)
}

// Create godoc
// POST /api/properties
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.propertyService.Create(r.Context(), user.ID, user.Role, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, p)
}

// Get godoc
// GET /api/properties/{id}
func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	p, err := h.propertyService.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, p)
}

// Update godoc
// PATCH /api/properties/{id}
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.propertyService.Update(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, p)
}

// ChangeStatus godoc
// PATCH /api/properties/{id}/status
// Body: { "status": "active" }
func (h *PropertyHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.PropertyStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.propertyService.ChangeStatus(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, p)
}

// Delete godoc
// DELETE /api/properties/{id}
func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.propertyService.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "property deleted"})
}
