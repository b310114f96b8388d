package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vet-backend/internal/services"
)

func TestServiceError_StatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", services.NewFieldError("phone", "is required"), http.StatusUnprocessableEntity},
		{"state conflict", services.NewStateError("invoice is already void"), http.StatusConflict},
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", errors.Join(errors.New("ctx"), services.ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		ServiceError(rec, tc.err)
		if rec.Code != tc.expected {
			t.Errorf("%s: expected status %d, got %d", tc.name, tc.expected, rec.Code)
		}
	}
}

func TestServiceError_ValidationBody(t *testing.T) {
	rec := httptest.NewRecorder()
	ServiceError(rec, services.NewFieldError("code", "is incorrect"))

	var body struct {
		Error  string              `json:"error"`
		Fields map[string][]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Error == "" {
		t.Error("expected an error message")
	}
	if msgs := body.Fields["code"]; len(msgs) != 1 || msgs[0] != "is incorrect" {
		t.Errorf("expected field message, got %v", body.Fields)
	}
}

func TestErrorWritesJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "Invalid request body")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["error"] != "Invalid request body" {
		t.Errorf("expected error message, got %v", body)
	}
}
