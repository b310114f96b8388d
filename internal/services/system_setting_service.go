package services

import (
	"context"
	"errors"
	"log"
	"strconv"

	"vet-backend/internal/cache"
	"vet-backend/internal/models"
	"vet-backend/internal/repositories"

	"github.com/jackc/pgx/v5"
)

// Setting keys the engines read
const (
	SettingClinicName           = "clinic_name"
	SettingClinicLogoURL        = "clinic_logo_url"
	SettingInvoiceDueDays       = "invoice_default_due_days"
	SettingOnlinePaymentEnabled = "online_payment_enabled"
	SettingOnlinePaymentFee     = "online_payment_fee_percent"
)

type SystemSettingService struct {
	Repo *repositories.SystemSettingRepository
}

func NewSystemSettingService(repo *repositories.SystemSettingRepository) *SystemSettingService {
	return &SystemSettingService{Repo: repo}
}

func (s *SystemSettingService) GetSetting(ctx context.Context, key string) (*models.SystemSetting, error) {
	setting, err := s.Repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return setting, nil
}

func (s *SystemSettingService) ListSettings(ctx context.Context) ([]*models.SystemSetting, error) {
	return s.Repo.List(ctx)
}

// UpdateSetting writes a value after checking the ones the engines parse
func (s *SystemSettingService) UpdateSetting(ctx context.Context, key, value string) error {
	switch key {
	case SettingInvoiceDueDays:
		if n, err := strconv.Atoi(value); err != nil || n < 0 {
			return NewFieldError("setting_value", "must be a non-negative number of days")
		}
	case SettingOnlinePaymentEnabled:
		if value != "true" && value != "false" {
			return NewFieldError("setting_value", "must be true or false")
		}
	case SettingOnlinePaymentFee:
		if f, err := strconv.ParseFloat(value, 64); err != nil || f < 0 || f > 100 {
			return NewFieldError("setting_value", "must be a percentage between 0 and 100")
		}
	}

	if err := s.Repo.Upsert(ctx, key, value); err != nil {
		return err
	}

	cache.InvalidateSettingCaches(ctx)
	log.Printf("[Settings] Updated %s", key)
	return nil
}
