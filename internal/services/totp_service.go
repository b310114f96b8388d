package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/png"
	"time"

	"vet-backend/internal/auth"
	"vet-backend/internal/models"
	"vet-backend/internal/repositories"
	"vet-backend/internal/timeutil"

	"github.com/jackc/pgx/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpIssuer        = "VetClinic"
	maxFailedAttempts = 5
	rateLimitWindow   = 15 * time.Minute
)

var (
	ErrTooManyAttempts = NewStateError("too many failed attempts, please try again later")
	ErrNoTOTPSecret    = NewStateError("2FA setup not initiated")
	ErrInvalidTOTPCode = NewStateError("invalid verification code")
	ErrTOTPNotEnabled  = NewStateError("2FA is not enabled")
)

type TOTPService struct {
	UserRepo *repositories.UserRepository
	TOTPRepo *repositories.TOTPRepository
}

func NewTOTPService(userRepo *repositories.UserRepository, totpRepo *repositories.TOTPRepository) *TOTPService {
	return &TOTPService{
		UserRepo: userRepo,
		TOTPRepo: totpRepo,
	}
}

// GenerateSetup provisions a new TOTP secret and QR code for enrollment.
// The secret stays pending until the first code verifies.
func (s *TOTPService) GenerateSetup(ctx context.Context, user *models.User) (*models.TOTPSetupResponse, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	if err := s.TOTPRepo.SavePendingSecret(ctx, user.ID, key.Secret()); err != nil {
		return nil, err
	}

	qrImage, err := key.Image(200, 200)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qrImage); err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{
		Secret:     key.Secret(),
		QRCodePNG:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		OTPAuthURL: key.URL(),
	}, nil
}

// VerifyAndEnable confirms the pending secret with a first valid code
func (s *TOTPService) VerifyAndEnable(ctx context.Context, userID int, code string) error {
	limited, err := s.isRateLimited(ctx, userID)
	if err != nil {
		return err
	}
	if limited {
		return ErrTooManyAttempts
	}

	secret, _, err := s.TOTPRepo.GetSecret(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoTOTPSecret
		}
		return err
	}

	if !totp.Validate(code, secret) {
		s.TOTPRepo.RecordAttempt(ctx, userID, false)
		return ErrInvalidTOTPCode
	}
	s.TOTPRepo.RecordAttempt(ctx, userID, true)

	return s.TOTPRepo.Confirm(ctx, userID)
}

// Verify validates a TOTP code during login step 2
func (s *TOTPService) Verify(ctx context.Context, userID int, code string) error {
	limited, err := s.isRateLimited(ctx, userID)
	if err != nil {
		return err
	}
	if limited {
		return ErrTooManyAttempts
	}

	secret, confirmed, err := s.TOTPRepo.GetSecret(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTOTPNotEnabled
		}
		return err
	}
	if !confirmed {
		return ErrTOTPNotEnabled
	}

	if !totp.Validate(code, secret) {
		s.TOTPRepo.RecordAttempt(ctx, userID, false)
		return ErrInvalidTOTPCode
	}

	s.TOTPRepo.RecordAttempt(ctx, userID, true)
	return nil
}

// Disable turns 2FA off after verifying the password and a current code
func (s *TOTPService) Disable(ctx context.Context, userID int, password, code string) error {
	user, err := s.UserRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return NewFieldError("password", "is incorrect")
	}

	if err := s.Verify(ctx, userID, code); err != nil {
		return err
	}
	return s.TOTPRepo.Disable(ctx, userID)
}

func (s *TOTPService) isRateLimited(ctx context.Context, userID int) (bool, error) {
	failures, err := s.TOTPRepo.CountRecentFailures(ctx, userID, timeutil.Now().Add(-rateLimitWindow))
	if err != nil {
		return false, err
	}
	return failures >= maxFailedAttempts, nil
}
