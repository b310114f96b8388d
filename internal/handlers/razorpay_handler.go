package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"vet-backend/internal/middleware"
	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/pkg/utils"
)

type RazorpayHandler struct {
	Service *services.RazorpayService
}

func NewRazorpayHandler(s *services.RazorpayService) *RazorpayHandler {
	return &RazorpayHandler{Service: s}
}

// PaymentStatus tells the portal whether online payment is available
func (h *RazorpayHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Service.GetPaymentStatus(r.Context()))
}

// CreateOrder starts an online payment for one of the owner's invoices
func (h *RazorpayHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetOwnerIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateOnlinePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.Service.CreateOrder(r.Context(), ownerID, &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, order)
}

// VerifyPayment settles an order from the checkout callback
func (h *RazorpayHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.Service.VerifyPayment(r.Context(), &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, tx)
}

// Webhook handles asynchronous payment events from Razorpay
func (h *RazorpayHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.Service.VerifyWebhookSignature(r.Context(), body, signature) {
		utils.Error(w, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	var event struct {
		Event   string                 `json:"event"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid webhook body")
		return
	}

	if err := h.Service.ProcessWebhook(r.Context(), event.Event, event.Payload); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
