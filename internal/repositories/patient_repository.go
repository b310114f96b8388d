package repositories

import (
	"context"

	"vet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PatientRepository struct {
	DB *pgxpool.Pool
}

func NewPatientRepository(db *pgxpool.Pool) *PatientRepository {
	return &PatientRepository{DB: db}
}

// Create inserts a patient
func (r *PatientRepository) Create(ctx context.Context, p *models.Patient) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO patients(owner_id, name, species, breed, sex, birth_date, microchip, notes, deceased)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, false)
		 RETURNING id, created_at, updated_at`,
		p.OwnerID, p.Name, p.Species, p.Breed, p.Sex, p.BirthDate, p.Microchip, p.Notes,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// Update rewrites a patient
func (r *PatientRepository) Update(ctx context.Context, p *models.Patient) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE patients SET owner_id = $1, name = $2, species = $3, breed = $4, sex = $5,
		        birth_date = $6, microchip = $7, notes = $8, deceased = $9, updated_at = NOW()
		 WHERE id = $10`,
		p.OwnerID, p.Name, p.Species, p.Breed, p.Sex, p.BirthDate, p.Microchip,
		p.Notes, p.Deceased, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Get retrieves a patient by ID
func (r *PatientRepository) Get(ctx context.Context, id int) (*models.Patient, error) {
	var p models.Patient
	err := r.DB.QueryRow(ctx,
		`SELECT id, owner_id, name, species, breed, sex, birth_date, microchip, notes,
		        deceased, created_at, updated_at
		 FROM patients WHERE id = $1`, id,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.Breed, &p.Sex, &p.BirthDate,
		&p.Microchip, &p.Notes, &p.Deceased, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ExistsMicrochip reports whether a microchip is registered to another patient
func (r *PatientRepository) ExistsMicrochip(ctx context.Context, microchip string, excludeID int) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM patients WHERE microchip = $1 AND microchip <> '' AND id <> $2)`,
		microchip, excludeID).Scan(&exists)
	return exists, err
}

// List returns patients with their owner name, filtered by search term
// across patient name, owner name and microchip.
func (r *PatientRepository) List(ctx context.Context, search string) ([]*models.PatientWithOwner, error) {
	query := `SELECT p.id, p.owner_id, p.name, p.species, p.breed, p.sex, p.birth_date,
	                 p.microchip, p.notes, p.deceased, p.created_at, p.updated_at, o.name
	          FROM patients p
	          JOIN owners o ON o.id = p.owner_id`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE p.name ILIKE '%' || $1 || '%' OR o.name ILIKE '%' || $1 || '%' OR p.microchip ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY p.name`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*models.PatientWithOwner
	for rows.Next() {
		var p models.PatientWithOwner
		err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.Breed, &p.Sex,
			&p.BirthDate, &p.Microchip, &p.Notes, &p.Deceased, &p.CreatedAt,
			&p.UpdatedAt, &p.OwnerName)
		if err != nil {
			return nil, err
		}
		patients = append(patients, &p)
	}
	return patients, nil
}

// ListByOwner returns an owner's patients
func (r *PatientRepository) ListByOwner(ctx context.Context, ownerID int) ([]*models.Patient, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, owner_id, name, species, breed, sex, birth_date, microchip, notes,
		        deceased, created_at, updated_at
		 FROM patients WHERE owner_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*models.Patient
	for rows.Next() {
		var p models.Patient
		err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.Breed, &p.Sex,
			&p.BirthDate, &p.Microchip, &p.Notes, &p.Deceased, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		patients = append(patients, &p)
	}
	return patients, nil
}

// SetDeceased marks a patient deceased without removing its history
func (r *PatientRepository) SetDeceased(ctx context.Context, id int, deceased bool) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE patients SET deceased = $1, updated_at = NOW() WHERE id = $2`, deceased, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
