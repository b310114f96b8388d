package handlers

import (
	"encoding/json"
	"net/http"

	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/pkg/utils"
)

type OwnerHandler struct {
	Service *services.OwnerService
}

func NewOwnerHandler(s *services.OwnerService) *OwnerHandler {
	return &OwnerHandler{Service: s}
}

func (h *OwnerHandler) CreateOwner(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	owner, err := h.Service.CreateOwner(r.Context(), &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, owner)
}

func (h *OwnerHandler) UpdateOwner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid owner ID")
		return
	}

	var req models.CreateOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	owner, err := h.Service.UpdateOwner(r.Context(), id, &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, owner)
}

func (h *OwnerHandler) GetOwner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid owner ID")
		return
	}

	owner, err := h.Service.GetOwner(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, owner)
}

// ListOwners returns owners; ?search= filters by name, phone or email
func (h *OwnerHandler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.Service.ListOwners(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, owners)
}

func (h *OwnerHandler) DeleteOwner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid owner ID")
		return
	}

	if err := h.Service.DeleteOwner(r.Context(), id); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "owner deleted"})
}
