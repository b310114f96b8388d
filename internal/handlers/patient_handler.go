package handlers

import (
	"encoding/json"
	"net/http"

	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/pkg/utils"
)

type PatientHandler struct {
	Service *services.PatientService
}

func NewPatientHandler(s *services.PatientService) *PatientHandler {
	return &PatientHandler{Service: s}
}

func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patient, err := h.Service.CreatePatient(r.Context(), &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, patient)
}

func (h *PatientHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid patient ID")
		return
	}

	var req models.CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patient, err := h.Service.UpdatePatient(r.Context(), id, &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, patient)
}

func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid patient ID")
		return
	}

	patient, err := h.Service.GetPatient(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, patient)
}

// ListPatients returns patients; ?search= matches patient or owner name
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.Service.ListPatients(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, patients)
}

// ListOwnerPatients returns all animals of one owner
func (h *PatientHandler) ListOwnerPatients(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "owner_id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid owner ID")
		return
	}

	patients, err := h.Service.ListByOwner(r.Context(), ownerID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, patients)
}

// SetDeceased flags a patient as deceased or reverses the flag
func (h *PatientHandler) SetDeceased(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid patient ID")
		return
	}

	var req struct {
		Deceased bool `json:"deceased"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.SetDeceased(r.Context(), id, req.Deceased); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]bool{"deceased": req.Deceased})
}
