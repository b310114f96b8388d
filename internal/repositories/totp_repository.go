package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TOTPRepository struct {
	DB *pgxpool.Pool
}

func NewTOTPRepository(db *pgxpool.Pool) *TOTPRepository {
	return &TOTPRepository{DB: db}
}

// SavePendingSecret stores a provisioned secret awaiting first verification
func (r *TOTPRepository) SavePendingSecret(ctx context.Context, userID int, secret string) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO totp_secrets(user_id, secret, confirmed)
		 VALUES($1, $2, false)
		 ON CONFLICT (user_id)
		 DO UPDATE SET secret = EXCLUDED.secret, confirmed = false, updated_at = NOW()`,
		userID, secret)
	return err
}

// GetSecret returns the stored secret and whether enrollment is confirmed
func (r *TOTPRepository) GetSecret(ctx context.Context, userID int) (string, bool, error) {
	var secret string
	var confirmed bool
	err := r.DB.QueryRow(ctx,
		`SELECT secret, confirmed FROM totp_secrets WHERE user_id = $1`, userID,
	).Scan(&secret, &confirmed)
	if err != nil {
		return "", false, err
	}
	return secret, confirmed, nil
}

// Confirm marks the pending secret active and flips the user's 2FA flag,
// in one transaction.
func (r *TOTPRepository) Confirm(ctx context.Context, userID int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE totp_secrets SET confirmed = true, updated_at = NOW() WHERE user_id = $1`,
		userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	_, err = tx.Exec(ctx,
		`UPDATE users SET totp_enabled = true, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Disable removes the secret and clears the user's 2FA flag
func (r *TOTPRepository) Disable(ctx context.Context, userID int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM totp_secrets WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE users SET totp_enabled = false, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RecordAttempt logs a verification attempt for rate limiting
func (r *TOTPRepository) RecordAttempt(ctx context.Context, userID int, success bool) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO totp_attempts(user_id, success) VALUES($1, $2)`, userID, success)
	return err
}

// CountRecentFailures counts failed attempts since the cutoff
func (r *TOTPRepository) CountRecentFailures(ctx context.Context, userID int, since time.Time) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM totp_attempts
		 WHERE user_id = $1 AND success = false AND created_at >= $2`,
		userID, since).Scan(&count)
	return count, err
}
