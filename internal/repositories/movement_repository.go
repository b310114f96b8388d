package repositories

import (
	"context"
	"fmt"

	"vet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InsufficientStockError reports a movement that would drive a quantity
// negative. Available carries the quantity at the moment of the check so
// the caller can show it; nothing is written when this is returned.
type InsufficientStockError struct {
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

type MovementRepository struct {
	DB *pgxpool.Pool
}

func NewMovementRepository(db *pgxpool.Pool) *MovementRepository {
	return &MovementRepository{DB: db}
}

// Apply records a movement and mutates the target quantity in one
// transaction. The quantity update is conditional; an outbound movement
// against insufficient stock writes nothing and returns
// InsufficientStockError.
func (r *MovementRepository) Apply(ctx context.Context, m *models.Movement) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := applyMovementInTx(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func applyMovementInTx(ctx context.Context, tx pgx.Tx, m *models.Movement) error {
	qty := m.Quantity
	if m.LotID != nil {
		if m.Type.IsInbound() {
			tag, err := tx.Exec(ctx,
				`UPDATE lots SET quantity = quantity + $1 WHERE id = $2`, qty, *m.LotID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return pgx.ErrNoRows
			}
		} else {
			tag, err := tx.Exec(ctx,
				`UPDATE lots SET quantity = quantity - $1 WHERE id = $2 AND quantity >= $1`,
				qty, *m.LotID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				var available int
				err := tx.QueryRow(ctx,
					`SELECT quantity FROM lots WHERE id = $1`, *m.LotID).Scan(&available)
				if err != nil {
					return err
				}
				return &InsufficientStockError{Requested: qty, Available: available}
			}
		}
	} else {
		if m.Type.IsInbound() {
			tag, err := tx.Exec(ctx,
				`UPDATE variants SET quantity = quantity + $1 WHERE id = $2`, qty, m.VariantID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return pgx.ErrNoRows
			}
		} else {
			tag, err := tx.Exec(ctx,
				`UPDATE variants SET quantity = quantity - $1 WHERE id = $2 AND quantity >= $1`,
				qty, m.VariantID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				var available int
				err := tx.QueryRow(ctx,
					`SELECT quantity FROM variants WHERE id = $1`, m.VariantID).Scan(&available)
				if err != nil {
					return err
				}
				return &InsufficientStockError{Requested: qty, Available: available}
			}
		}
	}

	return tx.QueryRow(ctx,
		`INSERT INTO stock_movements(variant_id, lot_id, type, quantity, clinical_record_id, notes, created_by_user_id)
		 VALUES($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		m.VariantID, m.LotID, m.Type, m.Quantity, m.ClinicalRecordID, m.Notes, m.CreatedByUserID,
	).Scan(&m.ID, &m.CreatedAt)
}

// insertMovementInTx writes a ledger row without touching quantities,
// for callers that already adjusted stock in the same transaction.
func insertMovementInTx(ctx context.Context, tx pgx.Tx, m *models.Movement) error {
	return tx.QueryRow(ctx,
		`INSERT INTO stock_movements(variant_id, lot_id, type, quantity, clinical_record_id, notes, created_by_user_id)
		 VALUES($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		m.VariantID, m.LotID, m.Type, m.Quantity, m.ClinicalRecordID, m.Notes, m.CreatedByUserID,
	).Scan(&m.ID, &m.CreatedAt)
}

// ConsumptionItem is one variant+quantity pair to consume for a clinical
// record or a sale.
type ConsumptionItem struct {
	VariantID int
	Quantity  int
}

// Consume draws stock for one variant, choosing the lot strategy by the
// parent product: lot-tracked variants drain active lots oldest entry
// first, possibly splitting across lots; plain variants take a single
// conditional decrement. All in one transaction.
func (r *MovementRepository) Consume(ctx context.Context, item ConsumptionItem, mtype models.MovementType, recordID *int, notes string, userID int) ([]*models.Movement, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	movements, err := consumeInTx(ctx, tx, item, mtype, recordID, notes, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return movements, nil
}

func consumeInTx(ctx context.Context, tx pgx.Tx, item ConsumptionItem, mtype models.MovementType, recordID *int, notes string, userID int) ([]*models.Movement, error) {
	var lotTracked bool
	err := tx.QueryRow(ctx,
		`SELECT p.lot_tracked FROM variants v JOIN products p ON p.id = v.product_id WHERE v.id = $1`,
		item.VariantID).Scan(&lotTracked)
	if err != nil {
		return nil, err
	}

	if !lotTracked {
		m := &models.Movement{
			VariantID:        item.VariantID,
			Type:             mtype,
			Quantity:         item.Quantity,
			ClinicalRecordID: recordID,
			Notes:            notes,
			CreatedByUserID:  userID,
		}
		if err := applyMovementInTx(ctx, tx, m); err != nil {
			return nil, err
		}
		return []*models.Movement{m}, nil
	}

	return consumeLotsInTx(ctx, tx, item, mtype, recordID, notes, userID)
}

// consumeLotsInTx drains active lots oldest first, locking the candidate
// rows so two concurrent consumptions cannot pick the same units.
func consumeLotsInTx(ctx context.Context, tx pgx.Tx, item ConsumptionItem, mtype models.MovementType, recordID *int, notes string, userID int) ([]*models.Movement, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, quantity FROM lots
		 WHERE variant_id = $1 AND active = true AND quantity > 0
		 ORDER BY entry_date, id
		 FOR UPDATE`, item.VariantID)
	if err != nil {
		return nil, err
	}

	type lotSlice struct {
		id  int
		qty int
	}
	var lots []lotSlice
	available := 0
	for rows.Next() {
		var l lotSlice
		if err := rows.Scan(&l.id, &l.qty); err != nil {
			rows.Close()
			return nil, err
		}
		lots = append(lots, l)
		available += l.qty
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if available < item.Quantity {
		return nil, &InsufficientStockError{Requested: item.Quantity, Available: available}
	}

	var movements []*models.Movement
	remaining := item.Quantity
	for _, l := range lots {
		if remaining == 0 {
			break
		}
		take := remaining
		if take > l.qty {
			take = l.qty
		}
		_, err := tx.Exec(ctx,
			`UPDATE lots SET quantity = quantity - $1 WHERE id = $2`, take, l.id)
		if err != nil {
			return nil, err
		}
		lotID := l.id
		m := &models.Movement{
			VariantID:        item.VariantID,
			LotID:            &lotID,
			Type:             mtype,
			Quantity:         take,
			ClinicalRecordID: recordID,
			Notes:            notes,
			CreatedByUserID:  userID,
		}
		if err := insertMovementInTx(ctx, tx, m); err != nil {
			return nil, err
		}
		movements = append(movements, m)
		remaining -= take
	}
	return movements, nil
}

// ReplaceClinicalConsumption reverses every movement linked to a clinical
// record with compensating entries, then applies the new consumption list.
// One transaction end to end: an insufficient-stock failure on reapply
// rolls the reversal back too, leaving the record's stock untouched.
func (r *MovementRepository) ReplaceClinicalConsumption(ctx context.Context, recordID int, items []ConsumptionItem, userID int) ([]*models.Movement, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := reverseClinicalInTx(ctx, tx, recordID, userID); err != nil {
		return nil, err
	}

	var all []*models.Movement
	rid := recordID
	for _, item := range items {
		movements, err := consumeInTx(ctx, tx, item, models.MovementInternalUseOut, &rid, "", userID)
		if err != nil {
			return nil, err
		}
		all = append(all, movements...)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return all, nil
}

// ReverseClinicalConsumption restores the stock a clinical record consumed,
// used when the record is deleted.
func (r *MovementRepository) ReverseClinicalConsumption(ctx context.Context, recordID, userID int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := reverseClinicalInTx(ctx, tx, recordID, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// reverseClinicalInTx compensates every non-compensating movement of the
// record. A reversal targets the same lot the original drew from, so the
// stock goes back where it came from.
func reverseClinicalInTx(ctx context.Context, tx pgx.Tx, recordID, userID int) error {
	rows, err := tx.Query(ctx,
		`SELECT variant_id, lot_id, type, quantity FROM stock_movements
		 WHERE clinical_record_id = $1
		 ORDER BY id`, recordID)
	if err != nil {
		return err
	}

	var pending []*models.Movement
	net := make(map[string]int) // variant/lot key -> net outbound units
	for rows.Next() {
		var m models.Movement
		if err := rows.Scan(&m.VariantID, &m.LotID, &m.Type, &m.Quantity); err != nil {
			rows.Close()
			return err
		}
		key := movementKey(m.VariantID, m.LotID)
		net[key] -= m.Type.Delta(m.Quantity)
		pending = append(pending, &m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, orig := range pending {
		key := movementKey(orig.VariantID, orig.LotID)
		outstanding := net[key]
		if outstanding == 0 {
			continue
		}
		qty := outstanding
		mtype := models.MovementAdjustmentIn
		if qty < 0 {
			qty = -qty
			mtype = models.MovementAdjustmentOut
		}
		net[key] = 0

		rid := recordID
		m := &models.Movement{
			VariantID:        orig.VariantID,
			LotID:            orig.LotID,
			Type:             mtype,
			Quantity:         qty,
			ClinicalRecordID: &rid,
			Notes:            "reversal",
			CreatedByUserID:  userID,
		}
		if err := applyMovementInTx(ctx, tx, m); err != nil {
			return err
		}
	}
	return nil
}

func movementKey(variantID int, lotID *int) string {
	if lotID == nil {
		return fmt.Sprintf("v%d", variantID)
	}
	return fmt.Sprintf("v%d-l%d", variantID, *lotID)
}

// ListByVariant returns the movement history of a variant, newest first
func (r *MovementRepository) ListByVariant(ctx context.Context, variantID int) ([]*models.Movement, error) {
	return r.list(ctx,
		`SELECT id, variant_id, lot_id, type, quantity, clinical_record_id, notes, created_by_user_id, created_at
		 FROM stock_movements WHERE variant_id = $1 ORDER BY created_at DESC, id DESC`, variantID)
}

// ListByLot returns the movement history of a lot, newest first
func (r *MovementRepository) ListByLot(ctx context.Context, lotID int) ([]*models.Movement, error) {
	return r.list(ctx,
		`SELECT id, variant_id, lot_id, type, quantity, clinical_record_id, notes, created_by_user_id, created_at
		 FROM stock_movements WHERE lot_id = $1 ORDER BY created_at DESC, id DESC`, lotID)
}

// ListByClinicalRecord returns the movements a clinical record produced
func (r *MovementRepository) ListByClinicalRecord(ctx context.Context, recordID int) ([]*models.Movement, error) {
	return r.list(ctx,
		`SELECT id, variant_id, lot_id, type, quantity, clinical_record_id, notes, created_by_user_id, created_at
		 FROM stock_movements WHERE clinical_record_id = $1 ORDER BY id`, recordID)
}

func (r *MovementRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Movement, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []*models.Movement
	for rows.Next() {
		var m models.Movement
		err := rows.Scan(&m.ID, &m.VariantID, &m.LotID, &m.Type, &m.Quantity,
			&m.ClinicalRecordID, &m.Notes, &m.CreatedByUserID, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		movements = append(movements, &m)
	}
	return movements, nil
}
