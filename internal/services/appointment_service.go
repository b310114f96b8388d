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

type AppointmentService struct {
	Repo        *repositories.AppointmentRepository
	PatientRepo *repositories.PatientRepository
	UserRepo    *repositories.UserRepository
}

func NewAppointmentService(repo *repositories.AppointmentRepository, patientRepo *repositories.PatientRepository, userRepo *repositories.UserRepository) *AppointmentService {
	return &AppointmentService{
		Repo:        repo,
		PatientRepo: patientRepo,
		UserRepo:    userRepo,
	}
}

// BookAppointment creates a calendar slot after checking the vet is free
func (s *AppointmentService) BookAppointment(ctx context.Context, req *models.CreateAppointmentRequest) (*models.Appointment, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	patient, startsAt, endsAt, err := s.resolveBooking(ctx, req, 0)
	if err != nil {
		return nil, err
	}

	appointment := &models.Appointment{
		PatientID: req.PatientID,
		OwnerID:   patient.OwnerID,
		VetUserID: req.VetUserID,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Reason:    req.Reason,
		Status:    models.AppointmentScheduled,
		Notes:     req.Notes,
	}
	if err := s.Repo.Create(ctx, appointment); err != nil {
		return nil, err
	}

	log.Printf("[Appointment] Booked %d for patient %d with vet %d at %s",
		appointment.ID, appointment.PatientID, appointment.VetUserID,
		startsAt.Format(timeutil.DateTimeLayout))
	return appointment, nil
}

// Reschedule edits a scheduled appointment. Completed and cancelled slots
// are historical and stay as booked.
func (s *AppointmentService) Reschedule(ctx context.Context, id int, req *models.CreateAppointmentRequest) (*models.Appointment, error) {
	appointment, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status != models.AppointmentScheduled {
		return nil, NewStateError("only scheduled appointments can be edited")
	}

	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	patient, startsAt, endsAt, err := s.resolveBooking(ctx, req, id)
	if err != nil {
		return nil, err
	}

	appointment.PatientID = req.PatientID
	appointment.OwnerID = patient.OwnerID
	appointment.VetUserID = req.VetUserID
	appointment.StartsAt = startsAt
	appointment.EndsAt = endsAt
	appointment.Reason = req.Reason
	appointment.Notes = req.Notes

	if err := s.Repo.Update(ctx, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// resolveBooking validates the patient, vet and time range shared by
// booking and rescheduling. excludeID skips the slot itself on overlap.
func (s *AppointmentService) resolveBooking(ctx context.Context, req *models.CreateAppointmentRequest, excludeID int) (*models.Patient, time.Time, time.Time, error) {
	var zero time.Time

	patient, err := s.PatientRepo.Get(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, zero, zero, NewFieldError("patient_id", "patient does not exist")
		}
		return nil, zero, zero, err
	}
	if patient.Deceased {
		return nil, zero, zero, NewFieldError("patient_id", "patient is marked deceased")
	}

	vet, err := s.UserRepo.Get(ctx, req.VetUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, zero, zero, NewFieldError("vet_user_id", "vet does not exist")
		}
		return nil, zero, zero, err
	}
	if vet.Role != models.RoleVet || !vet.IsActive {
		return nil, zero, zero, NewFieldError("vet_user_id", "user is not an active vet")
	}

	startsAt, err := parseAppointmentTime("starts_at", req.StartsAt)
	if err != nil {
		return nil, zero, zero, err
	}
	endsAt, err := parseAppointmentTime("ends_at", req.EndsAt)
	if err != nil {
		return nil, zero, zero, err
	}
	if !endsAt.After(startsAt) {
		return nil, zero, zero, NewFieldError("ends_at", "must be after starts_at")
	}

	overlap, err := s.Repo.HasOverlap(ctx, req.VetUserID, startsAt, endsAt, excludeID)
	if err != nil {
		return nil, zero, zero, err
	}
	if overlap {
		return nil, zero, zero, NewFieldError("starts_at", "the vet already has an appointment in this time range")
	}

	return patient, startsAt, endsAt, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id int) (*models.Appointment, error) {
	appointment, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return appointment, nil
}

// ListDay returns the calendar for one clinic day
func (s *AppointmentService) ListDay(ctx context.Context, day time.Time) ([]*models.AppointmentWithNames, error) {
	return s.Repo.ListRange(ctx, timeutil.StartOfDay(day), timeutil.EndOfDay(day))
}

func (s *AppointmentService) ListRange(ctx context.Context, from, to time.Time) ([]*models.AppointmentWithNames, error) {
	if !to.After(from) {
		return nil, NewFieldError("to", "must be after from")
	}
	return s.Repo.ListRange(ctx, from, to)
}

func (s *AppointmentService) ListByPatient(ctx context.Context, patientID int) ([]*models.AppointmentWithNames, error) {
	return s.Repo.ListByPatient(ctx, patientID)
}

// Complete marks a scheduled appointment as done
func (s *AppointmentService) Complete(ctx context.Context, id int) error {
	return s.transition(ctx, id, models.AppointmentCompleted)
}

// Cancel marks a scheduled appointment as cancelled, freeing the slot
func (s *AppointmentService) Cancel(ctx context.Context, id int) error {
	return s.transition(ctx, id, models.AppointmentCancelled)
}

func (s *AppointmentService) transition(ctx context.Context, id int, status models.AppointmentStatus) error {
	appointment, err := s.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if appointment.Status != models.AppointmentScheduled {
		return NewStateError("appointment is already " + string(appointment.Status))
	}
	return s.Repo.UpdateStatus(ctx, id, status)
}

func parseAppointmentTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t.In(timeutil.ClinicTZ), nil
	}
	// Accept a local clinic-time form as well
	t, err = time.ParseInLocation(timeutil.DateTimeLayout, value, timeutil.ClinicTZ)
	if err != nil {
		return time.Time{}, NewFieldError(field, "must be an RFC3339 or YYYY-MM-DD HH:MM:SS timestamp")
	}
	return t, nil
}
