package models

import "time"

// TOTPSetupResponse carries the provisioning data for enrolling 2FA
type TOTPSetupResponse struct {
	Secret    string `json:"secret"`
	QRCodePNG string `json:"qr_code_png"` // base64 PNG
	OTPAuthURL string `json:"otpauth_url"`
}

// TOTPVerifyRequest confirms a 6-digit code
type TOTPVerifyRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

// TOTPAttempt is a verification attempt, kept for rate limiting
type TOTPAttempt struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}
