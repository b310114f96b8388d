package services

import (
	"context"
	"errors"
	"log"
	"time"

	"vet-backend/internal/models"
	"vet-backend/internal/repositories"
	"vet-backend/internal/timeutil"
	"vet-backend/internal/validation"

	"github.com/jackc/pgx/v5"
)

type PatientService struct {
	Repo      *repositories.PatientRepository
	OwnerRepo *repositories.OwnerRepository
}

func NewPatientService(repo *repositories.PatientRepository, ownerRepo *repositories.OwnerRepository) *PatientService {
	return &PatientService{
		Repo:      repo,
		OwnerRepo: ownerRepo,
	}
}

// CreatePatient registers an animal under an existing owner
func (s *PatientService) CreatePatient(ctx context.Context, req *models.CreatePatientRequest) (*models.Patient, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.OwnerRepo.Get(ctx, req.OwnerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewFieldError("owner_id", "owner does not exist")
		}
		return nil, err
	}

	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	if req.Microchip != "" {
		taken, err := s.Repo.ExistsMicrochip(ctx, req.Microchip, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, NewFieldError("microchip", "another patient already has this microchip")
		}
	}

	patient := &models.Patient{
		OwnerID:   req.OwnerID,
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		Sex:       req.Sex,
		BirthDate: birthDate,
		Microchip: req.Microchip,
		Notes:     req.Notes,
	}
	if err := s.Repo.Create(ctx, patient); err != nil {
		return nil, err
	}

	log.Printf("[Patient] Created patient %d (%s, owner %d)", patient.ID, patient.Name, patient.OwnerID)
	return patient, nil
}

func (s *PatientService) UpdatePatient(ctx context.Context, id int, req *models.CreatePatientRequest) (*models.Patient, error) {
	patient, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}

	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.OwnerRepo.Get(ctx, req.OwnerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewFieldError("owner_id", "owner does not exist")
		}
		return nil, err
	}

	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	if req.Microchip != "" {
		taken, err := s.Repo.ExistsMicrochip(ctx, req.Microchip, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, NewFieldError("microchip", "another patient already has this microchip")
		}
	}

	patient.OwnerID = req.OwnerID
	patient.Name = req.Name
	patient.Species = req.Species
	patient.Breed = req.Breed
	patient.Sex = req.Sex
	patient.BirthDate = birthDate
	patient.Microchip = req.Microchip
	patient.Notes = req.Notes

	if err := s.Repo.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id int) (*models.Patient, error) {
	patient, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return patient, nil
}

func (s *PatientService) ListPatients(ctx context.Context, search string) ([]*models.PatientWithOwner, error) {
	return s.Repo.List(ctx, search)
}

func (s *PatientService) ListByOwner(ctx context.Context, ownerID int) ([]*models.Patient, error) {
	return s.Repo.ListByOwner(ctx, ownerID)
}

// SetDeceased marks a patient as deceased (or back alive when corrected).
// The history stays; deceased patients only drop out of booking pickers.
func (s *PatientService) SetDeceased(ctx context.Context, id int, deceased bool) error {
	if err := s.Repo.SetDeceased(ctx, id, deceased); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func parseBirthDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := timeutil.ParseDate(value)
	if err != nil {
		return nil, NewFieldError("birth_date", "must be a date in YYYY-MM-DD format")
	}
	if t.After(timeutil.Now()) {
		return nil, NewFieldError("birth_date", "cannot be in the future")
	}
	return &t, nil
}
