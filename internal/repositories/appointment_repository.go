package repositories

import (
	"context"
	"time"

	"vet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppointmentRepository struct {
	DB *pgxpool.Pool
}

func NewAppointmentRepository(db *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{DB: db}
}

// Create inserts an appointment
func (r *AppointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO appointments(patient_id, owner_id, vet_user_id, starts_at, ends_at, reason, status, notes)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		a.PatientID, a.OwnerID, a.VetUserID, a.StartsAt, a.EndsAt, a.Reason, a.Status, a.Notes,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Update rewrites an appointment
func (r *AppointmentRepository) Update(ctx context.Context, a *models.Appointment) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE appointments SET patient_id = $1, owner_id = $2, vet_user_id = $3,
		        starts_at = $4, ends_at = $5, reason = $6, status = $7, notes = $8,
		        updated_at = NOW()
		 WHERE id = $9`,
		a.PatientID, a.OwnerID, a.VetUserID, a.StartsAt, a.EndsAt, a.Reason,
		a.Status, a.Notes, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Get retrieves an appointment by ID
func (r *AppointmentRepository) Get(ctx context.Context, id int) (*models.Appointment, error) {
	var a models.Appointment
	err := r.DB.QueryRow(ctx,
		`SELECT id, patient_id, owner_id, vet_user_id, starts_at, ends_at, reason, status,
		        notes, created_at, updated_at
		 FROM appointments WHERE id = $1`, id,
	).Scan(&a.ID, &a.PatientID, &a.OwnerID, &a.VetUserID, &a.StartsAt, &a.EndsAt,
		&a.Reason, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// HasOverlap reports whether the vet already has a non-cancelled
// appointment intersecting [startsAt, endsAt).
func (r *AppointmentRepository) HasOverlap(ctx context.Context, vetUserID int, startsAt, endsAt time.Time, excludeID int) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM appointments
		   WHERE vet_user_id = $1 AND status <> $2 AND id <> $3
		     AND starts_at < $5 AND ends_at > $4
		 )`,
		vetUserID, models.AppointmentCancelled, excludeID, startsAt, endsAt).Scan(&exists)
	return exists, err
}

// ListRange returns the calendar entries intersecting [from, to), with
// display names joined in.
func (r *AppointmentRepository) ListRange(ctx context.Context, from, to time.Time) ([]*models.AppointmentWithNames, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT a.id, a.patient_id, a.owner_id, a.vet_user_id, a.starts_at, a.ends_at,
		        a.reason, a.status, a.notes, a.created_at, a.updated_at,
		        p.name, o.name, u.name
		 FROM appointments a
		 JOIN patients p ON p.id = a.patient_id
		 JOIN owners o ON o.id = a.owner_id
		 JOIN users u ON u.id = a.vet_user_id
		 WHERE a.starts_at < $2 AND a.ends_at > $1
		 ORDER BY a.starts_at`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAppointmentsWithNames(rows)
}

// ListByPatient returns a patient's appointment history, newest first
func (r *AppointmentRepository) ListByPatient(ctx context.Context, patientID int) ([]*models.AppointmentWithNames, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT a.id, a.patient_id, a.owner_id, a.vet_user_id, a.starts_at, a.ends_at,
		        a.reason, a.status, a.notes, a.created_at, a.updated_at,
		        p.name, o.name, u.name
		 FROM appointments a
		 JOIN patients p ON p.id = a.patient_id
		 JOIN owners o ON o.id = a.owner_id
		 JOIN users u ON u.id = a.vet_user_id
		 WHERE a.patient_id = $1
		 ORDER BY a.starts_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAppointmentsWithNames(rows)
}

// ListByOwner returns an owner's upcoming appointments for the portal
func (r *AppointmentRepository) ListByOwner(ctx context.Context, ownerID int, from time.Time) ([]*models.AppointmentWithNames, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT a.id, a.patient_id, a.owner_id, a.vet_user_id, a.starts_at, a.ends_at,
		        a.reason, a.status, a.notes, a.created_at, a.updated_at,
		        p.name, o.name, u.name
		 FROM appointments a
		 JOIN patients p ON p.id = a.patient_id
		 JOIN owners o ON o.id = a.owner_id
		 JOIN users u ON u.id = a.vet_user_id
		 WHERE a.owner_id = $1 AND a.ends_at >= $2 AND a.status = $3
		 ORDER BY a.starts_at`, ownerID, from, models.AppointmentScheduled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAppointmentsWithNames(rows)
}

// UpdateStatus transitions an appointment's scheduling state
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int, status models.AppointmentStatus) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAppointmentsWithNames(rows pgx.Rows) ([]*models.AppointmentWithNames, error) {
	var appointments []*models.AppointmentWithNames
	for rows.Next() {
		var a models.AppointmentWithNames
		err := rows.Scan(&a.ID, &a.PatientID, &a.OwnerID, &a.VetUserID, &a.StartsAt,
			&a.EndsAt, &a.Reason, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
			&a.PatientName, &a.OwnerName, &a.VetName)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, &a)
	}
	return appointments, rows.Err()
}
