package handlers

import (
	"encoding/json"
	"net/http"

	"vet-backend/internal/middleware"
	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/pkg/utils"
)

type TOTPHandler struct {
	Service     *services.TOTPService
	UserService *services.UserService
}

func NewTOTPHandler(totpService *services.TOTPService, userService *services.UserService) *TOTPHandler {
	return &TOTPHandler{
		Service:     totpService,
		UserService: userService,
	}
}

// Setup provisions a new TOTP secret and QR code for the logged-in user
func (h *TOTPHandler) Setup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.UserService.GetUser(r.Context(), userID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	setup, err := h.Service.GenerateSetup(r.Context(), user)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, setup)
}

// VerifyAndEnable confirms the pending secret with a first valid code
func (h *TOTPHandler) VerifyAndEnable(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.TOTPVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.VerifyAndEnable(r.Context(), userID, req.Code); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "2FA enabled"})
}

// Disable turns 2FA off after verifying the password and a current code
func (h *TOTPHandler) Disable(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.Disable(r.Context(), userID, req.Password, req.Code); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "2FA disabled"})
}
