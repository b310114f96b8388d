package repositories

import (
	"context"

	"vet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

// Create inserts a staff account
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO users(name, email, password_hash, role, has_billing_access, is_active)
		 VALUES($1, $2, $3, $4, $5, true)
		 RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.HasBillingAccess,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	return r.scanOne(ctx,
		`SELECT id, name, email, password_hash, role, has_billing_access, is_active,
		        totp_enabled, created_at, updated_at
		 FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by email, used by login
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanOne(ctx,
		`SELECT id, name, email, password_hash, role, has_billing_access, is_active,
		        totp_enabled, created_at, updated_at
		 FROM users WHERE email = $1`, email)
}

func (r *UserRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.HasBillingAccess,
		&u.IsActive, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ExistsEmail reports whether an email belongs to another account
func (r *UserRepository) ExistsEmail(ctx context.Context, email string, excludeID int) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`,
		email, excludeID).Scan(&exists)
	return exists, err
}

// List returns all staff accounts
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, email, password_hash, role, has_billing_access, is_active,
		        totp_enabled, created_at, updated_at
		 FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
			&u.HasBillingAccess, &u.IsActive, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, nil
}

// ListByRole returns active users with the given role, used for the vet
// picker on the appointment form.
func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, email, password_hash, role, has_billing_access, is_active,
		        totp_enabled, created_at, updated_at
		 FROM users WHERE role = $1 AND is_active = true ORDER BY name`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
			&u.HasBillingAccess, &u.IsActive, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, nil
}

// Update rewrites the admin-editable fields of an account
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE users SET name = $1, role = $2, has_billing_access = $3, is_active = $4,
		        updated_at = NOW()
		 WHERE id = $5`,
		u.Name, u.Role, u.HasBillingAccess, u.IsActive, u.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdatePassword replaces the stored hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetActive enables or disables an account
func (r *UserRepository) SetActive(ctx context.Context, id int, active bool) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
