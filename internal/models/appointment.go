package models

import "time"

// AppointmentStatus is the scheduling state of a calendar slot
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment is a calendar entry binding patient, vet and time range
type Appointment struct {
	ID        int               `json:"id"`
	PatientID int               `json:"patient_id"`
	OwnerID   int               `json:"owner_id"`
	VetUserID int               `json:"vet_user_id"`
	StartsAt  time.Time         `json:"starts_at"`
	EndsAt    time.Time         `json:"ends_at"`
	Reason    string            `json:"reason"`
	Status    AppointmentStatus `json:"status"`
	Notes     string            `json:"notes"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// AppointmentWithNames includes display names for calendar views
type AppointmentWithNames struct {
	Appointment
	PatientName string `json:"patient_name"`
	OwnerName   string `json:"owner_name"`
	VetName     string `json:"vet_name"`
}

// CreateAppointmentRequest is the form payload for booking/rescheduling
type CreateAppointmentRequest struct {
	PatientID int    `json:"patient_id" validate:"required"`
	VetUserID int    `json:"vet_user_id" validate:"required"`
	StartsAt  string `json:"starts_at" validate:"required"`
	EndsAt    string `json:"ends_at" validate:"required"`
	Reason    string `json:"reason"`
	Notes     string `json:"notes"`
}
