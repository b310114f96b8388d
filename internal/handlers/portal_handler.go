package handlers

import (
	"encoding/json"
	"net/http"

	"vet-backend/internal/middleware"
	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/pkg/utils"
)

type PortalHandler struct {
	Service *services.PortalService
}

func NewPortalHandler(s *services.PortalService) *PortalHandler {
	return &PortalHandler{Service: s}
}

// RequestLoginCode sends an SMS login code to a registered owner
func (h *PortalHandler) RequestLoginCode(w http.ResponseWriter, r *http.Request) {
	var req models.OwnerLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.RequestLoginCode(r.Context(), &req); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "code sent"})
}

// VerifyLoginCode exchanges the SMS code for a portal session token
func (h *PortalHandler) VerifyLoginCode(w http.ResponseWriter, r *http.Request) {
	var req models.OwnerVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.Service.VerifyLoginCode(r.Context(), &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, resp)
}

func (h *PortalHandler) ownerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	ownerID, ok := middleware.GetOwnerIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}
	return ownerID, true
}

// MyPatients lists the logged-in owner's animals
func (h *PortalHandler) MyPatients(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	patients, err := h.Service.MyPatients(r.Context(), ownerID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, patients)
}

// MyInvoices lists the logged-in owner's invoices
func (h *PortalHandler) MyInvoices(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	invoices, err := h.Service.MyInvoices(r.Context(), ownerID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, invoices)
}

// MyInvoice returns one of the owner's invoices with its lines
func (h *PortalHandler) MyInvoice(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	invoiceID, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	invoice, err := h.Service.MyInvoice(r.Context(), ownerID, invoiceID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, invoice)
}

// MyAppointments lists the owner's upcoming appointments
func (h *PortalHandler) MyAppointments(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	appointments, err := h.Service.MyAppointments(r.Context(), ownerID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, appointments)
}

// MyTransactions lists the owner's online payment attempts
func (h *PortalHandler) MyTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	transactions, err := h.Service.MyTransactions(r.Context(), ownerID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, transactions)
}
