package handlers

import (
	"net/http"

	"vet-backend/internal/health"
	"vet-backend/pkg/utils"
)

type HealthHandler struct {
	Checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{Checker: checker}
}

// Health reports service, database and cache status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.Checker.CheckBasic()

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	utils.JSON(w, code, status)
}
