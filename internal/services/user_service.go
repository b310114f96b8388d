package services

import (
	"context"
	"errors"
	"log"

	"vet-backend/internal/auth"
	"vet-backend/internal/cache"
	"vet-backend/internal/models"
	"vet-backend/internal/repositories"
	"vet-backend/internal/validation"

	"github.com/jackc/pgx/v5"
)

type UserService struct {
	Repo       *repositories.UserRepository
	JWTManager *auth.JWTManager
}

func NewUserService(repo *repositories.UserRepository, jwtManager *auth.JWTManager) *UserService {
	return &UserService{
		Repo:       repo,
		JWTManager: jwtManager,
	}
}

// Signup creates a staff account. Only admins reach this endpoint; role
// enforcement happens in the middleware.
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	taken, err := s.Repo.ExistsEmail(ctx, req.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewFieldError("email", "an account with this email already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[User] Created account %s (role=%s)", user.Email, user.Role)
	return user, nil
}

// Login authenticates a staff account. When 2FA is enabled the response
// carries a short-lived pending token instead of a session token.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	// Credential cache skips bcrypt on repeat logins
	if userID, ok := cache.GetCachedAuth(ctx, req.Email, req.Password); ok {
		user, err := s.Repo.Get(ctx, int(userID))
		if err == nil && user.IsActive {
			return s.loginResponse(user)
		}
	}

	user, err := s.Repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewStateError("invalid email or password")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, NewStateError("account is disabled")
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, NewStateError("invalid email or password")
	}

	cache.CacheAuth(ctx, req.Email, req.Password, int64(user.ID))
	return s.loginResponse(user)
}

func (s *UserService) loginResponse(user *models.User) (*models.LoginResponse, error) {
	if user.TOTPEnabled {
		token, err := s.JWTManager.GenerateTempToken(user)
		if err != nil {
			return nil, err
		}
		return &models.LoginResponse{Token: token, RequiresTOTP: true}, nil
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, User: user}, nil
}

// GetUser retrieves a staff account
func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns all staff accounts
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.Repo.List(ctx)
}

// ListVets returns active accounts with the vet role
func (s *UserService) ListVets(ctx context.Context) ([]*models.User, error) {
	return s.Repo.ListByRole(ctx, "vet")
}

// UpdateUser edits an account's admin-managed fields
func (s *UserService) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	user.Name = req.Name
	user.Role = req.Role
	user.HasBillingAccess = req.HasBillingAccess

	if err := s.Repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password and stores a new hash
func (s *UserService) ChangePassword(ctx context.Context, userID int, current, new string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.PasswordHash, current) {
		return NewFieldError("current_password", "is incorrect")
	}
	if len(new) < 8 {
		return NewFieldError("new_password", "must be at least 8 characters")
	}

	hash, err := auth.HashPassword(new)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	cache.InvalidateAuth(ctx, user.Email, current)
	return nil
}

// SetActive enables or disables an account
func (s *UserService) SetActive(ctx context.Context, id int, active bool) error {
	if err := s.Repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
