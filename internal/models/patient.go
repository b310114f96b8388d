package models

import "time"

// Patient is an animal treated by the clinic
type Patient struct {
	ID        int        `json:"id"`
	OwnerID   int        `json:"owner_id"`
	Name      string     `json:"name"`
	Species   string     `json:"species"`
	Breed     string     `json:"breed"`
	Sex       string     `json:"sex"`
	BirthDate *time.Time `json:"birth_date"`
	Microchip string     `json:"microchip"`
	Notes     string     `json:"notes"`
	Deceased  bool       `json:"deceased"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PatientWithOwner includes the owner name for list views
type PatientWithOwner struct {
	Patient
	OwnerName string `json:"owner_name"`
}

// CreatePatientRequest is the form payload for creating/updating a patient
type CreatePatientRequest struct {
	OwnerID   int    `json:"owner_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Species   string `json:"species" validate:"required"`
	Breed     string `json:"breed"`
	Sex       string `json:"sex" validate:"omitempty,oneof=male female unknown"`
	BirthDate string `json:"birth_date"`
	Microchip string `json:"microchip"`
	Notes     string `json:"notes"`
}
