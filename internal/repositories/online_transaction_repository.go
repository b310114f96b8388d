package repositories

import (
	"context"

	"vet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OnlineTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewOnlineTransactionRepository(db *pgxpool.Pool) *OnlineTransactionRepository {
	return &OnlineTransactionRepository{DB: db}
}

// Create records a freshly created gateway order
func (r *OnlineTransactionRepository) Create(ctx context.Context, t *models.OnlineTransaction) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO online_transactions(razorpay_order_id, owner_id, invoice_id, amount,
		        fee_amount, total_amount, status)
		 VALUES($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		t.RazorpayOrderID, t.OwnerID, t.InvoiceID, t.Amount, t.FeeAmount,
		t.TotalAmount, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByOrderID retrieves a transaction by the gateway order ID
func (r *OnlineTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*models.OnlineTransaction, error) {
	var t models.OnlineTransaction
	err := r.DB.QueryRow(ctx,
		`SELECT id, razorpay_order_id, razorpay_payment_id, owner_id, invoice_id, amount,
		        fee_amount, total_amount, status, failure_reason, payment_id,
		        created_at, updated_at
		 FROM online_transactions WHERE razorpay_order_id = $1`, orderID,
	).Scan(&t.ID, &t.RazorpayOrderID, &t.RazorpayPaymentID, &t.OwnerID, &t.InvoiceID,
		&t.Amount, &t.FeeAmount, &t.TotalAmount, &t.Status, &t.FailureReason,
		&t.PaymentID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkSuccess transitions a created transaction to success, guarding
// against double verification of the same callback.
func (r *OnlineTransactionRepository) MarkSuccess(ctx context.Context, id int, razorpayPaymentID string, paymentID int) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE online_transactions
		 SET status = $1, razorpay_payment_id = $2, payment_id = $3, updated_at = NOW()
		 WHERE id = $4 AND status = $5`,
		models.OnlineTxStatusSuccess, razorpayPaymentID, paymentID, id,
		models.OnlineTxStatusCreated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkFailed records a failed or rejected payment attempt
func (r *OnlineTransactionRepository) MarkFailed(ctx context.Context, id int, reason string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE online_transactions
		 SET status = $1, failure_reason = $2, updated_at = NOW()
		 WHERE id = $3`,
		models.OnlineTxStatusFailed, reason, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByOwner returns an owner's online payment attempts, newest first
func (r *OnlineTransactionRepository) ListByOwner(ctx context.Context, ownerID int) ([]*models.OnlineTransaction, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, razorpay_order_id, razorpay_payment_id, owner_id, invoice_id, amount,
		        fee_amount, total_amount, status, failure_reason, payment_id,
		        created_at, updated_at
		 FROM online_transactions WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*models.OnlineTransaction
	for rows.Next() {
		var t models.OnlineTransaction
		err := rows.Scan(&t.ID, &t.RazorpayOrderID, &t.RazorpayPaymentID, &t.OwnerID,
			&t.InvoiceID, &t.Amount, &t.FeeAmount, &t.TotalAmount, &t.Status,
			&t.FailureReason, &t.PaymentID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		txns = append(txns, &t)
	}
	return txns, nil
}
