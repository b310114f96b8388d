package models

import "time"

// SystemSetting is a key/value configuration row (clinic name, online
// payment toggle/fee, default due days, logo URL)
type SystemSetting struct {
	ID           int       `json:"id"`
	SettingKey   string    `json:"setting_key"`
	SettingValue string    `json:"setting_value"`
	Description  string    `json:"description"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpdateSettingRequest updates a single setting value
type UpdateSettingRequest struct {
	SettingValue string `json:"setting_value"`
}
