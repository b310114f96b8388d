package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"vet-backend/internal/middleware"
	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type InvoiceHandler struct {
	Service *services.InvoiceService
}

func NewInvoiceHandler(s *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{Service: s}
}

// CreateInvoice creates a new draft invoice
func (h *InvoiceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	invoice, err := h.Service.CreateInvoice(r.Context(), &req, userID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, invoice)
}

// GetInvoice retrieves an invoice with lines and paid amount
func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	invoice, err := h.Service.GetInvoice(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, invoice)
}

// ListInvoices returns invoices, optionally filtered with ?status=
func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Service.ListInvoices(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, invoices)
}

// ListOwnerInvoices returns all invoices of one owner
func (h *InvoiceHandler) ListOwnerInvoices(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "owner_id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid owner ID")
		return
	}

	invoices, err := h.Service.ListInvoicesByOwner(r.Context(), ownerID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, invoices)
}

// UpdateInvoice rewrites a draft invoice
func (h *InvoiceHandler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	var req models.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	invoice, err := h.Service.UpdateInvoice(r.Context(), id, &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, invoice)
}

// DeleteInvoice removes a draft invoice
func (h *InvoiceHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	if err := h.Service.DeleteInvoice(r.Context(), id); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "invoice deleted"})
}

// IssueInvoice moves a draft to pending
func (h *InvoiceHandler) IssueInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	invoice, err := h.Service.IssueInvoice(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, invoice)
}

// VoidInvoice cancels an issued invoice
func (h *InvoiceHandler) VoidInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	invoice, err := h.Service.VoidInvoice(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, invoice)
}

// RegisterPayment records a payment against an invoice
func (h *InvoiceHandler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	var req models.RegisterPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	payment, status, err := h.Service.RegisterPayment(r.Context(), invoiceID, &req, userID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, map[string]interface{}{
		"payment":        payment,
		"invoice_status": status,
	})
}

// ListPayments returns the payments of an invoice
func (h *InvoiceHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	payments, err := h.Service.ListPayments(r.Context(), invoiceID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, payments)
}

// UpdatePayment corrects a recorded payment
func (h *InvoiceHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := pathID(r, "payment_id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	var req models.RegisterPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payment, status, err := h.Service.UpdatePayment(r.Context(), paymentID, &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"payment":        payment,
		"invoice_status": status,
	})
}

// DeletePayment removes a recorded payment
func (h *InvoiceHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := pathID(r, "payment_id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	status, err := h.Service.DeletePayment(r.Context(), paymentID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message":        "payment deleted",
		"invoice_status": status,
	})
}

// pathID parses an integer path variable
func pathID(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}
