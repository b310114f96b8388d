package handlers

import (
	"encoding/json"
	"net/http"

	"vet-backend/internal/middleware"
	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/pkg/utils"
)

type InventoryHandler struct {
	Service *services.InventoryService
}

func NewInventoryHandler(s *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{Service: s}
}

// RecordMovement applies one ledger movement to stock
func (h *InventoryHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req models.RecordMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	movement, err := h.Service.RecordMovement(r.Context(), &req, userID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, movement)
}

// MovementHistory returns the ledger for one variant
func (h *InventoryHandler) MovementHistory(w http.ResponseWriter, r *http.Request) {
	variantID, err := pathID(r, "variant_id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid variant ID")
		return
	}

	movements, err := h.Service.MovementHistory(r.Context(), variantID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, movements)
}

// AvailableStock returns the sellable quantity of one variant
func (h *InventoryHandler) AvailableStock(w http.ResponseWriter, r *http.Request) {
	variantID, err := pathID(r, "variant_id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid variant ID")
		return
	}

	quantity, err := h.Service.AvailableStock(r.Context(), variantID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]int{"available": quantity})
}

// RegisterLot creates a new lot with its purchase movement
func (h *InventoryHandler) RegisterLot(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	lot, err := h.Service.RegisterLot(r.Context(), &req, userID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, lot)
}

// AddStock books a purchase onto an existing or new lot
func (h *InventoryHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req models.AddStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	if err := h.Service.AddStock(r.Context(), &req, userID); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "stock added"})
}

// ListLots returns the lots of a variant; ?include_inactive=true adds retired ones
func (h *InventoryHandler) ListLots(w http.ResponseWriter, r *http.Request) {
	variantID, err := pathID(r, "variant_id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid variant ID")
		return
	}

	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	lots, err := h.Service.ListLots(r.Context(), variantID, includeInactive)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, lots)
}

// EditLot corrects a lot's number, dates or quantity
func (h *InventoryHandler) EditLot(w http.ResponseWriter, r *http.Request) {
	lotID, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid lot ID")
		return
	}

	var req models.EditLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	lot, err := h.Service.EditLot(r.Context(), lotID, &req, userID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, lot)
}

// DeactivateLot retires a lot from outbound selection
func (h *InventoryHandler) DeactivateLot(w http.ResponseWriter, r *http.Request) {
	h.setLotActive(w, r, false)
}

// ReactivateLot brings a retired lot back
func (h *InventoryHandler) ReactivateLot(w http.ResponseWriter, r *http.Request) {
	h.setLotActive(w, r, true)
}

func (h *InventoryHandler) setLotActive(w http.ResponseWriter, r *http.Request, active bool) {
	lotID, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid lot ID")
		return
	}

	if active {
		err = h.Service.ReactivateLot(r.Context(), lotID)
	} else {
		err = h.Service.DeactivateLot(r.Context(), lotID)
	}
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]bool{"active": active})
}

// LotMovementHistory returns the ledger entries of one lot
func (h *InventoryHandler) LotMovementHistory(w http.ResponseWriter, r *http.Request) {
	lotID, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid lot ID")
		return
	}

	movements, err := h.Service.LotMovementHistory(r.Context(), lotID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, movements)
}
