package repositories

import (
	"context"

	"vet-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SystemSettingRepository struct {
	DB *pgxpool.Pool
}

func NewSystemSettingRepository(db *pgxpool.Pool) *SystemSettingRepository {
	return &SystemSettingRepository{DB: db}
}

// Get retrieves a setting by key
func (r *SystemSettingRepository) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	var s models.SystemSetting
	err := r.DB.QueryRow(ctx,
		`SELECT id, setting_key, setting_value, description, updated_at
		 FROM system_settings WHERE setting_key = $1`, key,
	).Scan(&s.ID, &s.SettingKey, &s.SettingValue, &s.Description, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all settings
func (r *SystemSettingRepository) List(ctx context.Context) ([]*models.SystemSetting, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, setting_key, setting_value, description, updated_at
		 FROM system_settings ORDER BY setting_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []*models.SystemSetting
	for rows.Next() {
		var s models.SystemSetting
		err := rows.Scan(&s.ID, &s.SettingKey, &s.SettingValue, &s.Description, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		settings = append(settings, &s)
	}
	return settings, nil
}

// Upsert sets a setting value, creating the row if the key is new
func (r *SystemSettingRepository) Upsert(ctx context.Context, key, value string) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO system_settings(setting_key, setting_value)
		 VALUES($1, $2)
		 ON CONFLICT (setting_key)
		 DO UPDATE SET setting_value = EXCLUDED.setting_value, updated_at = NOW()`,
		key, value)
	return err
}
