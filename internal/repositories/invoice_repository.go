package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vet-backend/internal/models"
	"vet-backend/internal/timeutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InvoiceRepository struct {
	DB *pgxpool.Pool
}

func NewInvoiceRepository(db *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{DB: db}
}

// nextInvoiceNumber allocates the next sequential number for a year+prefix
// inside the given transaction. Numbers look like "FAC-2026-0001"; the
// numeric suffix restarts every year per prefix.
func nextInvoiceNumber(ctx context.Context, tx pgx.Tx, origin models.InvoiceOrigin, year int) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", models.OriginPrefix(origin), year)

	var last *string
	err := tx.QueryRow(ctx,
		`SELECT MAX(invoice_number) FROM invoices WHERE invoice_number LIKE $1`,
		prefix+"%",
	).Scan(&last)
	if err != nil {
		return "", fmt.Errorf("failed to query last invoice number: %w", err)
	}

	seq := 1
	if last != nil {
		suffix := strings.TrimPrefix(*last, prefix)
		if n, err := strconv.Atoi(suffix); err == nil {
			seq = n + 1
		}
	}

	return models.FormatInvoiceNumber(origin, year, seq), nil
}

// CreateWithItems inserts the header and all lines in one transaction,
// allocating the invoice number inside it so a failed line insert leaves
// no orphaned header behind.
func (r *InvoiceRepository) CreateWithItems(ctx context.Context, invoice *models.Invoice, items []models.InvoiceItem) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if invoice.InvoiceNumber == "" {
		number, err := nextInvoiceNumber(ctx, tx, invoice.Origin, invoice.IssueDate.Year())
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number
	}

	breakdown, err := json.Marshal(invoice.TaxBreakdown)
	if err != nil {
		return fmt.Errorf("failed to encode tax breakdown: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO invoices(invoice_number, origin, owner_id, patient_id, clinical_record_id,
		        issue_date, due_date, status, subtotal, tax_amount, total, tax_breakdown,
		        notes, internal_notes, created_by_user_id)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id, created_at, updated_at`,
		invoice.InvoiceNumber, invoice.Origin, invoice.OwnerID, invoice.PatientID,
		invoice.ClinicalRecordID, invoice.IssueDate, invoice.DueDate, invoice.Status,
		invoice.Subtotal, invoice.TaxAmount, invoice.Total, breakdown,
		invoice.Notes, invoice.InternalNotes, invoice.CreatedByUserID,
	).Scan(&invoice.ID, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return err
	}

	if err := insertItems(ctx, tx, invoice.ID, items); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertItems(ctx context.Context, tx pgx.Tx, invoiceID int, items []models.InvoiceItem) error {
	for _, item := range items {
		_, err := tx.Exec(ctx,
			`INSERT INTO invoice_items(invoice_id, description, quantity, unit_price, tax_rate,
			        net_amount, tax_amount, total, procedure_id, product_id)
			 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			invoiceID, item.Description, item.Quantity, item.UnitPrice, item.TaxRate,
			item.NetAmount, item.TaxAmount, item.Total, item.ProcedureID, item.ProductID,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReplaceItems rewrites the header aggregates and swaps out the full line
// set in one transaction (draft-only full replace, not a diff).
func (r *InvoiceRepository) ReplaceItems(ctx context.Context, invoice *models.Invoice, items []models.InvoiceItem) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	breakdown, err := json.Marshal(invoice.TaxBreakdown)
	if err != nil {
		return fmt.Errorf("failed to encode tax breakdown: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE invoices
		 SET invoice_number = $1, owner_id = $2, patient_id = $3, issue_date = $4, due_date = $5,
		     subtotal = $6, tax_amount = $7, total = $8, tax_breakdown = $9,
		     notes = $10, internal_notes = $11, updated_at = NOW()
		 WHERE id = $12`,
		invoice.InvoiceNumber, invoice.OwnerID, invoice.PatientID, invoice.IssueDate,
		invoice.DueDate, invoice.Subtotal, invoice.TaxAmount, invoice.Total, breakdown,
		invoice.Notes, invoice.InternalNotes, invoice.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoice.ID); err != nil {
		return err
	}

	if err := insertItems(ctx, tx, invoice.ID, items); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteCascade removes lines, payments and the header (draft-only path)
func (r *InvoiceRepository) DeleteCascade(ctx context.Context, id int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
		return err
	}
	// Draft invoices should not have payments; delete defensively anyway
	if _, err := tx.Exec(ctx, `DELETE FROM payments WHERE invoice_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

// Get retrieves an invoice header by ID
func (r *InvoiceRepository) Get(ctx context.Context, id int) (*models.Invoice, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, invoice_number, origin, owner_id, patient_id, clinical_record_id,
		        issue_date, due_date, status, subtotal, tax_amount, total, tax_breakdown,
		        notes, internal_notes, created_by_user_id, created_at, updated_at
		 FROM invoices WHERE id = $1`, id,
	)
	return scanInvoice(row)
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var inv models.Invoice
	var breakdown []byte
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.Origin, &inv.OwnerID, &inv.PatientID,
		&inv.ClinicalRecordID, &inv.IssueDate, &inv.DueDate, &inv.Status,
		&inv.Subtotal, &inv.TaxAmount, &inv.Total, &breakdown,
		&inv.Notes, &inv.InternalNotes, &inv.CreatedByUserID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &inv.TaxBreakdown); err != nil {
			return nil, fmt.Errorf("failed to decode tax breakdown: %w", err)
		}
	}
	return &inv, nil
}

// GetWithDetails retrieves an invoice with owner/patient names, lines and
// the paid sum.
func (r *InvoiceRepository) GetWithDetails(ctx context.Context, id int) (*models.InvoiceWithDetails, error) {
	inv, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &models.InvoiceWithDetails{Invoice: *inv}

	err = r.DB.QueryRow(ctx,
		`SELECT COALESCE(o.name, ''), COALESCE(p.name, '')
		 FROM invoices i
		 LEFT JOIN owners o ON i.owner_id = o.id
		 LEFT JOIN patients p ON i.patient_id = p.id
		 WHERE i.id = $1`, id,
	).Scan(&details.OwnerName, &details.PatientName)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx,
		`SELECT id, invoice_id, description, quantity, unit_price, tax_rate,
		        net_amount, tax_amount, total, procedure_id, product_id
		 FROM invoice_items WHERE invoice_id = $1 ORDER BY id`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.InvoiceItem
		err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity,
			&item.UnitPrice, &item.TaxRate, &item.NetAmount, &item.TaxAmount,
			&item.Total, &item.ProcedureID, &item.ProductID)
		if err != nil {
			return nil, err
		}
		details.Items = append(details.Items, item)
	}

	details.PaidAmount, err = r.SumPayments(ctx, id)
	if err != nil {
		return nil, err
	}

	return details, nil
}

// ExistsNumber reports whether another invoice already uses a number
func (r *InvoiceRepository) ExistsNumber(ctx context.Context, number string, excludeID int) (bool, error) {
	var count int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE invoice_number = $1 AND id <> $2`,
		number, excludeID,
	).Scan(&count)
	return count > 0, err
}

// List returns invoice headers, optionally filtered by status
func (r *InvoiceRepository) List(ctx context.Context, status models.InvoiceStatus) ([]*models.Invoice, error) {
	query := `SELECT id, invoice_number, origin, owner_id, patient_id, clinical_record_id,
	                 issue_date, due_date, status, subtotal, tax_amount, total, tax_breakdown,
	                 notes, internal_notes, created_by_user_id, created_at, updated_at
	          FROM invoices`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY issue_date DESC, id DESC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

// ListByOwner returns all invoices of one owner, newest first
func (r *InvoiceRepository) ListByOwner(ctx context.Context, ownerID int) ([]*models.Invoice, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, invoice_number, origin, owner_id, patient_id, clinical_record_id,
		        issue_date, due_date, status, subtotal, tax_amount, total, tax_breakdown,
		        notes, internal_notes, created_by_user_id, created_at, updated_at
		 FROM invoices WHERE owner_id = $1 ORDER BY issue_date DESC, id DESC`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

// UpdateStatus persists a status change
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id int, status models.InvoiceStatus) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SumPayments returns the current paid sum for an invoice
func (r *InvoiceRepository) SumPayments(ctx context.Context, invoiceID int) (float64, error) {
	var sum float64
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID,
	).Scan(&sum)
	return sum, err
}

// Reconcile re-derives and persists the invoice status from its payments
// and due date, inside one transaction with a row lock on the header.
// Draft and void invoices are left untouched.
func (r *InvoiceRepository) Reconcile(ctx context.Context, invoiceID int) (models.InvoiceStatus, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	status, err := reconcileInTx(ctx, tx, invoiceID, timeutil.Now())
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return status, nil
}

// reconcileInTx is the shared reconciliation step used by Reconcile and by
// the payment repository's transactional mutations.
func reconcileInTx(ctx context.Context, tx pgx.Tx, invoiceID int, today time.Time) (models.InvoiceStatus, error) {
	var stored models.InvoiceStatus
	var total float64
	var dueDate *time.Time
	err := tx.QueryRow(ctx,
		`SELECT status, total, due_date FROM invoices WHERE id = $1 FOR UPDATE`, invoiceID,
	).Scan(&stored, &total, &dueDate)
	if err != nil {
		return "", err
	}

	if stored == models.InvoiceStatusDraft || stored == models.InvoiceStatusVoid {
		return stored, nil
	}

	var paidSum float64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID,
	).Scan(&paidSum)
	if err != nil {
		return "", err
	}

	derived := models.DeriveStatus(paidSum, total, dueDate, today)
	if derived == stored {
		return stored, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2`,
		derived, invoiceID,
	)
	if err != nil {
		return "", err
	}
	return derived, nil
}

// LinkClinicalRecord writes the invoice back-reference onto a clinical
// record (best-effort caller side).
func (r *InvoiceRepository) LinkClinicalRecord(ctx context.Context, recordID, invoiceID int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE clinical_records SET invoice_id = $1, updated_at = NOW() WHERE id = $2`,
		invoiceID, recordID,
	)
	return err
}
