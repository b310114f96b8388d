package models

import "time"

// Staff roles
const (
	RoleAdmin     = "admin"
	RoleVet       = "vet"
	RoleAssistant = "assistant"
)

// User is a staff member (admin, vet or assistant)
type User struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             string    `json:"role"` // admin, vet, assistant
	HasBillingAccess bool      `json:"has_billing_access"`
	IsActive         bool      `json:"is_active"`
	TOTPEnabled      bool      `json:"totp_enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SignupRequest creates a staff account
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin vet assistant"`
}

// LoginRequest authenticates a staff account
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token. When 2FA is enabled the token is
// a short-lived pending token and RequiresTOTP is set.
type LoginResponse struct {
	Token        string `json:"token"`
	RequiresTOTP bool   `json:"requires_totp,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// UpdateUserRequest edits a staff account (admin only)
type UpdateUserRequest struct {
	Name             string `json:"name" validate:"required"`
	Role             string `json:"role" validate:"required,oneof=admin vet assistant"`
	HasBillingAccess bool   `json:"has_billing_access"`
}
