package handlers

import (
	"encoding/json"
	"net/http"

	"vet-backend/internal/middleware"
	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/pkg/utils"
)

type ClinicalRecordHandler struct {
	Service *services.ClinicalRecordService
}

func NewClinicalRecordHandler(s *services.ClinicalRecordService) *ClinicalRecordHandler {
	return &ClinicalRecordHandler{Service: s}
}

// CreateRecord writes a visit entry and consumes its product items
func (h *ClinicalRecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req models.CreateClinicalRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	record, err := h.Service.CreateRecord(r.Context(), &req, userID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, record)
}

// UpdateRecord edits a visit; stock consumption is reversed and reapplied
func (h *ClinicalRecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid record ID")
		return
	}

	var req models.CreateClinicalRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	record, err := h.Service.UpdateRecord(r.Context(), id, &req, userID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, record)
}

func (h *ClinicalRecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid record ID")
		return
	}

	record, err := h.Service.GetRecord(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, record)
}

// ListPatientRecords returns the clinical history of one patient
func (h *ClinicalRecordHandler) ListPatientRecords(w http.ResponseWriter, r *http.Request) {
	patientID, err := pathID(r, "patient_id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid patient ID")
		return
	}

	records, err := h.Service.ListByPatient(r.Context(), patientID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, records)
}

// DeleteRecord removes an uninvoiced visit and restores consumed stock
func (h *ClinicalRecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid record ID")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	if err := h.Service.DeleteRecord(r.Context(), id, userID); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "record deleted"})
}

// GenerateInvoice creates an HCL invoice from the record's billable items
func (h *ClinicalRecordHandler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid record ID")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	invoice, err := h.Service.GenerateInvoice(r.Context(), id, userID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, invoice)
}
