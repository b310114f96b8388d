package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"vet-backend/internal/services"
)

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[Response] Failed to encode response: %v", err)
	}
}

// Error writes a JSON error body
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ValidationFailed writes the field→messages map of a validation error
func ValidationFailed(w http.ResponseWriter, fields map[string][]string) {
	JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error":  "validation failed",
		"fields": fields,
	})
}

// ServiceError maps the service error taxonomy onto HTTP status codes
func ServiceError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		ValidationFailed(w, verr.Fields)
		return
	}

	var serr *services.StateError
	if errors.As(err, &serr) {
		Error(w, http.StatusConflict, serr.Error())
		return
	}

	if errors.Is(err, services.ErrNotFound) {
		Error(w, http.StatusNotFound, "not found")
		return
	}

	log.Printf("[Response] Internal error: %v", err)
	Error(w, http.StatusInternalServerError, "Internal server error")
}
