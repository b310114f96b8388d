package repositories

import (
	"context"

	"vet-backend/internal/models"
	"vet-backend/internal/timeutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OverpaymentError reports a payment mutation that would push the paid sum
// past the invoice total. The check runs inside the same transaction as
// the write, so concurrent submissions cannot jointly overpay.
type OverpaymentError struct {
	Remaining float64
}

func (e *OverpaymentError) Error() string {
	return "payment exceeds the remaining invoice balance"
}

type PaymentRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// Create inserts a payment, checks the cumulative sum against the invoice
// total and reconciles the invoice status, all in one transaction.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment, invoiceTotal float64) (models.InvoiceStatus, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	// Lock the header first so concurrent payment writes serialize
	_, err = tx.Exec(ctx, `SELECT id FROM invoices WHERE id = $1 FOR UPDATE`, payment.InvoiceID)
	if err != nil {
		return "", err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO payments(invoice_id, payment_date, amount, method, reference, notes, created_by_user_id)
		 VALUES($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		payment.InvoiceID, payment.PaymentDate, payment.Amount, payment.Method,
		payment.Reference, payment.Notes, payment.CreatedByUserID,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return "", err
	}

	if err := checkOverpayment(ctx, tx, payment.InvoiceID, invoiceTotal, payment.Amount); err != nil {
		return "", err
	}

	status, err := reconcileInTx(ctx, tx, payment.InvoiceID, timeutil.Now())
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return status, nil
}

// Update rewrites a payment and reconciles under the same overpayment guard
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment, invoiceTotal float64) (models.InvoiceStatus, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `SELECT id FROM invoices WHERE id = $1 FOR UPDATE`, payment.InvoiceID)
	if err != nil {
		return "", err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE payments SET payment_date = $1, amount = $2, method = $3, reference = $4, notes = $5
		 WHERE id = $6`,
		payment.PaymentDate, payment.Amount, payment.Method, payment.Reference,
		payment.Notes, payment.ID,
	)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		return "", pgx.ErrNoRows
	}

	if err := checkOverpayment(ctx, tx, payment.InvoiceID, invoiceTotal, payment.Amount); err != nil {
		return "", err
	}

	status, err := reconcileInTx(ctx, tx, payment.InvoiceID, timeutil.Now())
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return status, nil
}

// Delete removes a payment and reconciles the invoice in one transaction
func (r *PaymentRepository) Delete(ctx context.Context, paymentID, invoiceID int) (models.InvoiceStatus, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM payments WHERE id = $1`, paymentID)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		return "", pgx.ErrNoRows
	}

	status, err := reconcileInTx(ctx, tx, invoiceID, timeutil.Now())
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return status, nil
}

// overpayment checks the paid sum after a mutation against the invoice
// total. Remaining is the balance that was still payable before the
// rejected write: total minus the payments that stand without it.
func overpayment(total, sum, amount float64) *OverpaymentError {
	if sum > total+models.MoneyEpsilon {
		return &OverpaymentError{Remaining: total - (sum - amount)}
	}
	return nil
}

func checkOverpayment(ctx context.Context, tx pgx.Tx, invoiceID int, total, amount float64) error {
	var sum float64
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID,
	).Scan(&sum)
	if err != nil {
		return err
	}
	if over := overpayment(total, sum, amount); over != nil {
		return over
	}
	return nil
}

// Get retrieves a payment by ID
func (r *PaymentRepository) Get(ctx context.Context, id int) (*models.Payment, error) {
	var p models.Payment
	err := r.DB.QueryRow(ctx,
		`SELECT id, invoice_id, payment_date, amount, method, reference, notes,
		        created_by_user_id, created_at
		 FROM payments WHERE id = $1`, id,
	).Scan(&p.ID, &p.InvoiceID, &p.PaymentDate, &p.Amount, &p.Method, &p.Reference,
		&p.Notes, &p.CreatedByUserID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByInvoice returns all payments of an invoice in payment order
func (r *PaymentRepository) ListByInvoice(ctx context.Context, invoiceID int) ([]*models.Payment, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, invoice_id, payment_date, amount, method, reference, notes,
		        created_by_user_id, created_at
		 FROM payments WHERE invoice_id = $1 ORDER BY payment_date, id`, invoiceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		err := rows.Scan(&p.ID, &p.InvoiceID, &p.PaymentDate, &p.Amount, &p.Method,
			&p.Reference, &p.Notes, &p.CreatedByUserID, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, nil
}
