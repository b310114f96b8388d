package repositories

import (
	"context"

	"vet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProcedureRepository struct {
	DB *pgxpool.Pool
}

func NewProcedureRepository(db *pgxpool.Pool) *ProcedureRepository {
	return &ProcedureRepository{DB: db}
}

// Create inserts a procedure into the billable services catalog
func (r *ProcedureRepository) Create(ctx context.Context, p *models.Procedure) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO procedures(name, price, tax_rate, active)
		 VALUES($1, $2, $3, true)
		 RETURNING id, created_at`,
		p.Name, p.Price, p.TaxRate,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return err
	}
	p.Active = true
	return nil
}

// Update rewrites a procedure
func (r *ProcedureRepository) Update(ctx context.Context, p *models.Procedure) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE procedures SET name = $1, price = $2, tax_rate = $3, active = $4 WHERE id = $5`,
		p.Name, p.Price, p.TaxRate, p.Active, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Get retrieves a procedure by ID
func (r *ProcedureRepository) Get(ctx context.Context, id int) (*models.Procedure, error) {
	var p models.Procedure
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, price, tax_rate, active, created_at FROM procedures WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.TaxRate, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the catalog, optionally active-only
func (r *ProcedureRepository) List(ctx context.Context, activeOnly bool) ([]*models.Procedure, error) {
	query := `SELECT id, name, price, tax_rate, active, created_at FROM procedures`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY name`

	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var procedures []*models.Procedure
	for rows.Next() {
		var p models.Procedure
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.TaxRate, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		procedures = append(procedures, &p)
	}
	return procedures, nil
}
