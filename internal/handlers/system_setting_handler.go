package handlers

import (
	"encoding/json"
	"net/http"

	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type SystemSettingHandler struct {
	Service *services.SystemSettingService
}

func NewSystemSettingHandler(s *services.SystemSettingService) *SystemSettingHandler {
	return &SystemSettingHandler{Service: s}
}

func (h *SystemSettingHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.ListSettings(r.Context())
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, settings)
}

func (h *SystemSettingHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	setting, err := h.Service.GetSetting(r.Context(), key)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, setting)
}

func (h *SystemSettingHandler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req models.UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.UpdateSetting(r.Context(), key, req.SettingValue); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "setting updated"})
}
