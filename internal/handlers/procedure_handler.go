package handlers

import (
	"encoding/json"
	"net/http"

	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/pkg/utils"
)

type ProcedureHandler struct {
	Service *services.ProcedureService
}

func NewProcedureHandler(s *services.ProcedureService) *ProcedureHandler {
	return &ProcedureHandler{Service: s}
}

func (h *ProcedureHandler) CreateProcedure(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProcedureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	procedure, err := h.Service.CreateProcedure(r.Context(), &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, procedure)
}

func (h *ProcedureHandler) UpdateProcedure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid procedure ID")
		return
	}

	var req models.CreateProcedureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	procedure, err := h.Service.UpdateProcedure(r.Context(), id, &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, procedure)
}

func (h *ProcedureHandler) GetProcedure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid procedure ID")
		return
	}

	procedure, err := h.Service.GetProcedure(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, procedure)
}

// ListProcedures returns the catalog; ?active=true hides retired entries
func (h *ProcedureHandler) ListProcedures(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	procedures, err := h.Service.ListProcedures(r.Context(), activeOnly)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, procedures)
}

// SetActive retires a procedure or brings it back
func (h *ProcedureHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid procedure ID")
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.SetActive(r.Context(), id, req.Active); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}
