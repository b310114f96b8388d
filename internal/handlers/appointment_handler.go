package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/internal/timeutil"
	"vet-backend/pkg/utils"
)

type AppointmentHandler struct {
	Service *services.AppointmentService
}

func NewAppointmentHandler(s *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{Service: s}
}

func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	appointment, err := h.Service.BookAppointment(r.Context(), &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, appointment)
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid appointment ID")
		return
	}

	var req models.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	appointment, err := h.Service.Reschedule(r.Context(), id, &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, appointment)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid appointment ID")
		return
	}

	appointment, err := h.Service.GetAppointment(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, appointment)
}

// ListCalendar returns appointments for ?date=YYYY-MM-DD, or for the
// ?from=/&to= range when both are present. Defaults to today.
func (h *AppointmentHandler) ListCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if fromStr, toStr := q.Get("from"), q.Get("to"); fromStr != "" && toStr != "" {
		from, err := timeutil.ParseDate(fromStr)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid from date")
			return
		}
		to, err := timeutil.ParseDate(toStr)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid to date")
			return
		}

		appointments, err := h.Service.ListRange(r.Context(), from, timeutil.EndOfDay(to))
		if err != nil {
			utils.ServiceError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, appointments)
		return
	}

	day := timeutil.Now()
	if dateStr := q.Get("date"); dateStr != "" {
		parsed, err := timeutil.ParseDate(dateStr)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid date")
			return
		}
		day = parsed
	}

	appointments, err := h.Service.ListDay(r.Context(), day)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, appointments)
}

// ListPatientAppointments returns the visit history of one patient
func (h *AppointmentHandler) ListPatientAppointments(w http.ResponseWriter, r *http.Request) {
	patientID, err := pathID(r, "patient_id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid patient ID")
		return
	}

	appointments, err := h.Service.ListByPatient(r.Context(), patientID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, appointments)
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Complete, "completed")
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Cancel, "cancelled")
}

func (h *AppointmentHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, int) error, status string) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid appointment ID")
		return
	}

	if err := fn(r.Context(), id); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"status": status})
}
