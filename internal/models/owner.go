package models

import "time"

// Owner is a client of the clinic (the animal's owner)
type Owner struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateOwnerRequest is the form payload for creating/updating an owner
type CreateOwnerRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// OwnerLoginRequest starts a portal login by requesting an SMS code
type OwnerLoginRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// OwnerVerifyRequest exchanges a received SMS code for a portal token
type OwnerVerifyRequest struct {
	Phone      string `json:"phone" validate:"required"`
	Code       string `json:"code" validate:"required,len=6"`
	RememberMe bool   `json:"remember_me"`
}

// OwnerLoginResponse carries the portal session token
type OwnerLoginResponse struct {
	Token string `json:"token"`
	Owner *Owner `json:"owner"`
}
