package models

import "time"

// ClinicalRecord is one visit/treatment entry in a patient's history.
// Its consumed items drive internal-use stock movements; billable items
// can generate an HCL invoice linked back onto the record.
type ClinicalRecord struct {
	ID        int       `json:"id"`
	PatientID int       `json:"patient_id"`
	VetUserID int       `json:"vet_user_id"`
	VisitDate time.Time `json:"visit_date"`
	Diagnosis string    `json:"diagnosis"`
	Treatment string    `json:"treatment"`
	Notes     string    `json:"notes"`
	InvoiceID *int      `json:"invoice_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClinicalRecordItem is one product consumption of a visit
type ClinicalRecordItem struct {
	ID        int `json:"id"`
	RecordID  int `json:"record_id"`
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// ClinicalRecordItemInput is a consumed-product line as submitted
type ClinicalRecordItemInput struct {
	ProductID int `json:"product_id" validate:"required"`
	Quantity  int `json:"quantity" validate:"gt=0"`
}

// CreateClinicalRecordRequest is the form payload for a visit entry
type CreateClinicalRecordRequest struct {
	PatientID int                       `json:"patient_id" validate:"required"`
	VisitDate string                    `json:"visit_date"`
	Diagnosis string                    `json:"diagnosis"`
	Treatment string                    `json:"treatment"`
	Notes     string                    `json:"notes"`
	Items     []ClinicalRecordItemInput `json:"items" validate:"dive"`
}

// ClinicalRecordWithItems bundles a record with its consumption lines
type ClinicalRecordWithItems struct {
	ClinicalRecord
	Items []ClinicalRecordItem `json:"items"`
}
