package repositories

import (
	"context"
	"errors"
	"fmt"

	"vet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DuplicateLotNumberError reports a lot number already used by another
// lot of the same variant. The database enforces the uniqueness, so
// concurrent registrations cannot slip a duplicate through.
type DuplicateLotNumberError struct {
	LotNumber string
}

func (e *DuplicateLotNumberError) Error() string {
	return fmt.Sprintf("lot number %q already exists for this variant", e.LotNumber)
}

// mapLotConstraint converts a unique violation on (variant_id,
// lot_number) into the typed duplicate error.
func mapLotConstraint(err error, lotNumber string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &DuplicateLotNumberError{LotNumber: lotNumber}
	}
	return err
}

type LotRepository struct {
	DB *pgxpool.Pool
}

func NewLotRepository(db *pgxpool.Pool) *LotRepository {
	return &LotRepository{DB: db}
}

// CreateWithMovement inserts a lot and its opening purchase movement in
// one transaction. The lot never exists without the ledger entry that
// explains its quantity.
func (r *LotRepository) CreateWithMovement(ctx context.Context, lot *models.Lot, userID int) (*models.Movement, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO lots(variant_id, lot_number, quantity, entry_date, expiry_date, active)
		 VALUES($1, $2, $3, $4, $5, true)
		 RETURNING id, created_at`,
		lot.VariantID, lot.LotNumber, lot.Quantity, lot.EntryDate, lot.ExpiryDate,
	).Scan(&lot.ID, &lot.CreatedAt)
	if err != nil {
		return nil, mapLotConstraint(err, lot.LotNumber)
	}
	lot.Active = true

	m := &models.Movement{
		VariantID:       lot.VariantID,
		LotID:           &lot.ID,
		Type:            models.MovementPurchaseIn,
		Quantity:        lot.Quantity,
		CreatedByUserID: userID,
	}
	if err := insertMovementInTx(ctx, tx, m); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// AddStock tops up an existing lot of the variant by lot number, or
// creates a new lot when no match exists. The increment and the
// purchase movement commit together.
func (r *LotRepository) AddStock(ctx context.Context, lot *models.Lot, userID int) (*models.Movement, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Match by number regardless of the active flag, so topping up a
	// deactivated lot's number increments it instead of duplicating it
	quantity := lot.Quantity
	err = tx.QueryRow(ctx,
		`SELECT id FROM lots WHERE variant_id = $1 AND lot_number = $2`,
		lot.VariantID, lot.LotNumber,
	).Scan(&lot.ID)
	switch err {
	case nil:
		_, err = tx.Exec(ctx,
			`UPDATE lots SET quantity = quantity + $1 WHERE id = $2`, quantity, lot.ID)
		if err != nil {
			return nil, err
		}
	case pgx.ErrNoRows:
		err = tx.QueryRow(ctx,
			`INSERT INTO lots(variant_id, lot_number, quantity, entry_date, expiry_date, active)
			 VALUES($1, $2, $3, $4, $5, true)
			 RETURNING id, created_at`,
			lot.VariantID, lot.LotNumber, quantity, lot.EntryDate, lot.ExpiryDate,
		).Scan(&lot.ID, &lot.CreatedAt)
		if err != nil {
			return nil, mapLotConstraint(err, lot.LotNumber)
		}
		lot.Active = true
	default:
		return nil, err
	}

	m := &models.Movement{
		VariantID:       lot.VariantID,
		LotID:           &lot.ID,
		Type:            models.MovementPurchaseIn,
		Quantity:        quantity,
		CreatedByUserID: userID,
	}
	if err := insertMovementInTx(ctx, tx, m); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateWithAdjustment rewrites a lot's fields. A quantity change is not
// applied silently: the delta lands in the ledger as an adjustment
// movement committed with the update.
func (r *LotRepository) UpdateWithAdjustment(ctx context.Context, lot *models.Lot, userID int) (*models.Movement, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var oldQty int
	err = tx.QueryRow(ctx,
		`SELECT quantity FROM lots WHERE id = $1 FOR UPDATE`, lot.ID).Scan(&oldQty)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE lots SET lot_number = $1, quantity = $2, entry_date = $3, expiry_date = $4
		 WHERE id = $5`,
		lot.LotNumber, lot.Quantity, lot.EntryDate, lot.ExpiryDate, lot.ID)
	if err != nil {
		return nil, mapLotConstraint(err, lot.LotNumber)
	}

	var movement *models.Movement
	if mtype, delta, changed := models.AdjustmentForEdit(oldQty, lot.Quantity); changed {
		movement = &models.Movement{
			VariantID:       lot.VariantID,
			LotID:           &lot.ID,
			Type:            mtype,
			Quantity:        delta,
			Notes:           "lot correction",
			CreatedByUserID: userID,
		}
		if err := insertMovementInTx(ctx, tx, movement); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return movement, nil
}

// SetActive deactivates or reactivates a lot. An inactive lot keeps its
// quantity and history but is excluded from available-stock sums and
// from lot consumption.
func (r *LotRepository) SetActive(ctx context.Context, id int, active bool) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE lots SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Get retrieves a lot by ID
func (r *LotRepository) Get(ctx context.Context, id int) (*models.Lot, error) {
	var l models.Lot
	err := r.DB.QueryRow(ctx,
		`SELECT id, variant_id, lot_number, quantity, entry_date, expiry_date, active, created_at
		 FROM lots WHERE id = $1`, id,
	).Scan(&l.ID, &l.VariantID, &l.LotNumber, &l.Quantity, &l.EntryDate,
		&l.ExpiryDate, &l.Active, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListByVariant returns a variant's lots, oldest entry first (the order
// consumption drains them).
func (r *LotRepository) ListByVariant(ctx context.Context, variantID int, includeInactive bool) ([]*models.Lot, error) {
	query := `SELECT id, variant_id, lot_number, quantity, entry_date, expiry_date, active, created_at
	          FROM lots WHERE variant_id = $1`
	if !includeInactive {
		query += ` AND active = true`
	}
	query += ` ORDER BY entry_date, id`

	rows, err := r.DB.Query(ctx, query, variantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []*models.Lot
	for rows.Next() {
		var l models.Lot
		err := rows.Scan(&l.ID, &l.VariantID, &l.LotNumber, &l.Quantity, &l.EntryDate,
			&l.ExpiryDate, &l.Active, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		lots = append(lots, &l)
	}
	return lots, nil
}

// AvailableQuantity sums the active lots of a variant
func (r *LotRepository) AvailableQuantity(ctx context.Context, variantID int) (int, error) {
	var total int
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM lots WHERE variant_id = $1 AND active = true`,
		variantID).Scan(&total)
	return total, err
}
