package handlers

import (
	"encoding/json"
	"net/http"

	"vet-backend/internal/auth"
	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/pkg/utils"
)

type AuthHandler struct {
	UserService *services.UserService
	TOTPService *services.TOTPService
	JWTManager  *auth.JWTManager
}

func NewAuthHandler(userService *services.UserService, totpService *services.TOTPService, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{
		UserService: userService,
		TOTPService: totpService,
		JWTManager:  jwtManager,
	}
}

// Signup creates a staff account (admin only, enforced by the router)
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.UserService.Signup(r.Context(), &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, user)
}

// Login authenticates with email and password. Accounts with 2FA get a
// pending token and must call VerifyLoginTOTP to finish.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.UserService.Login(r.Context(), &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, resp)
}

// VerifyLoginTOTP exchanges a pending token plus a valid TOTP code for a
// full session token
func (h *AuthHandler) VerifyLoginTOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	claims, err := h.JWTManager.ValidateTempToken(req.Token)
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, "Invalid or expired pending token")
		return
	}

	if err := h.TOTPService.Verify(r.Context(), claims.UserID, req.Code); err != nil {
		utils.ServiceError(w, err)
		return
	}

	user, err := h.UserService.GetUser(r.Context(), claims.UserID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	token, err := h.JWTManager.GenerateToken(user)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	utils.JSON(w, http.StatusOK, &models.LoginResponse{Token: token, User: user})
}
