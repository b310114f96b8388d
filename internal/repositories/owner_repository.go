package repositories

import (
	"context"

	"vet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OwnerRepository struct {
	DB *pgxpool.Pool
}

func NewOwnerRepository(db *pgxpool.Pool) *OwnerRepository {
	return &OwnerRepository{DB: db}
}

// Create inserts an owner
func (r *OwnerRepository) Create(ctx context.Context, o *models.Owner) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO owners(name, phone, email, address, notes)
		 VALUES($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		o.Name, o.Phone, o.Email, o.Address, o.Notes,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

// Update rewrites an owner
func (r *OwnerRepository) Update(ctx context.Context, o *models.Owner) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE owners SET name = $1, phone = $2, email = $3, address = $4, notes = $5,
		        updated_at = NOW()
		 WHERE id = $6`,
		o.Name, o.Phone, o.Email, o.Address, o.Notes, o.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Get retrieves an owner by ID
func (r *OwnerRepository) Get(ctx context.Context, id int) (*models.Owner, error) {
	var o models.Owner
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, phone, email, address, notes, created_at, updated_at
		 FROM owners WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.Phone, &o.Email, &o.Address, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByPhone retrieves an owner by phone, used by the portal login
func (r *OwnerRepository) GetByPhone(ctx context.Context, phone string) (*models.Owner, error) {
	var o models.Owner
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, phone, email, address, notes, created_at, updated_at
		 FROM owners WHERE phone = $1`, phone,
	).Scan(&o.ID, &o.Name, &o.Phone, &o.Email, &o.Address, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ExistsPhone reports whether a phone number belongs to another owner
func (r *OwnerRepository) ExistsPhone(ctx context.Context, phone string, excludeID int) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM owners WHERE phone = $1 AND id <> $2)`,
		phone, excludeID).Scan(&exists)
	return exists, err
}

// List returns owners matching the search term (name, phone or email),
// or all owners when the term is empty.
func (r *OwnerRepository) List(ctx context.Context, search string) ([]*models.Owner, error) {
	query := `SELECT id, name, phone, email, address, notes, created_at, updated_at FROM owners`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY name`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []*models.Owner
	for rows.Next() {
		var o models.Owner
		err := rows.Scan(&o.ID, &o.Name, &o.Phone, &o.Email, &o.Address, &o.Notes,
			&o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, err
		}
		owners = append(owners, &o)
	}
	return owners, nil
}

// Delete removes an owner. Fails on the foreign keys if the owner still
// has patients or invoices; the service surfaces that as a state error.
func (r *OwnerRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM owners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
