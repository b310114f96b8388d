package repositories

import (
	"context"

	"vet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClinicalRecordRepository struct {
	DB *pgxpool.Pool
}

func NewClinicalRecordRepository(db *pgxpool.Pool) *ClinicalRecordRepository {
	return &ClinicalRecordRepository{DB: db}
}

// CreateWithItems inserts a record and its consumption lines in one
// transaction. Stock is drawn separately by the movement layer.
func (r *ClinicalRecordRepository) CreateWithItems(ctx context.Context, record *models.ClinicalRecord, items []models.ClinicalRecordItem) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO clinical_records(patient_id, vet_user_id, visit_date, diagnosis, treatment, notes)
		 VALUES($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		record.PatientID, record.VetUserID, record.VisitDate, record.Diagnosis,
		record.Treatment, record.Notes,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return err
	}

	if err := insertRecordItems(ctx, tx, record.ID, items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReplaceItems rewrites the record fields and its consumption lines
func (r *ClinicalRecordRepository) ReplaceItems(ctx context.Context, record *models.ClinicalRecord, items []models.ClinicalRecordItem) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE clinical_records SET visit_date = $1, diagnosis = $2, treatment = $3,
		        notes = $4, updated_at = NOW()
		 WHERE id = $5`,
		record.VisitDate, record.Diagnosis, record.Treatment, record.Notes, record.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	_, err = tx.Exec(ctx, `DELETE FROM clinical_record_items WHERE record_id = $1`, record.ID)
	if err != nil {
		return err
	}
	if err := insertRecordItems(ctx, tx, record.ID, items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertRecordItems(ctx context.Context, tx pgx.Tx, recordID int, items []models.ClinicalRecordItem) error {
	for i := range items {
		item := &items[i]
		item.RecordID = recordID
		err := tx.QueryRow(ctx,
			`INSERT INTO clinical_record_items(record_id, product_id, quantity)
			 VALUES($1, $2, $3) RETURNING id`,
			item.RecordID, item.ProductID, item.Quantity,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a record with its consumption lines
func (r *ClinicalRecordRepository) Get(ctx context.Context, id int) (*models.ClinicalRecordWithItems, error) {
	var rec models.ClinicalRecordWithItems
	err := r.DB.QueryRow(ctx,
		`SELECT id, patient_id, vet_user_id, visit_date, diagnosis, treatment, notes,
		        invoice_id, created_at, updated_at
		 FROM clinical_records WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.PatientID, &rec.VetUserID, &rec.VisitDate, &rec.Diagnosis,
		&rec.Treatment, &rec.Notes, &rec.InvoiceID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx,
		`SELECT id, record_id, product_id, quantity
		 FROM clinical_record_items WHERE record_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.ClinicalRecordItem
		if err := rows.Scan(&item.ID, &item.RecordID, &item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		rec.Items = append(rec.Items, item)
	}
	return &rec, rows.Err()
}

// ListByPatient returns a patient's clinical history, newest visit first
func (r *ClinicalRecordRepository) ListByPatient(ctx context.Context, patientID int) ([]*models.ClinicalRecord, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, patient_id, vet_user_id, visit_date, diagnosis, treatment, notes,
		        invoice_id, created_at, updated_at
		 FROM clinical_records WHERE patient_id = $1
		 ORDER BY visit_date DESC, id DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ClinicalRecord
	for rows.Next() {
		var rec models.ClinicalRecord
		err := rows.Scan(&rec.ID, &rec.PatientID, &rec.VetUserID, &rec.VisitDate,
			&rec.Diagnosis, &rec.Treatment, &rec.Notes, &rec.InvoiceID,
			&rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, nil
}

// SetInvoiceID stores the back-reference to a generated invoice
func (r *ClinicalRecordRepository) SetInvoiceID(ctx context.Context, recordID int, invoiceID *int) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE clinical_records SET invoice_id = $1, updated_at = NOW() WHERE id = $2`,
		invoiceID, recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a record and its lines, nulling the record reference on
// its historical movements. The caller reverses the stock consumption
// before calling this.
func (r *ClinicalRecordRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `UPDATE stock_movements SET clinical_record_id = NULL WHERE clinical_record_id = $1`, id)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `DELETE FROM clinical_record_items WHERE record_id = $1`, id)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM clinical_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}
