package services

import (
	"context"
	"errors"
	"log"

	"vet-backend/internal/cache"
	"vet-backend/internal/models"
	"vet-backend/internal/repositories"
	"vet-backend/internal/validation"

	"github.com/jackc/pgx/v5"
)

type OwnerService struct {
	Repo *repositories.OwnerRepository
}

func NewOwnerService(repo *repositories.OwnerRepository) *OwnerService {
	return &OwnerService{Repo: repo}
}

// CreateOwner registers a new client. The phone number doubles as the
// portal login identifier, so it must be unique.
func (s *OwnerService) CreateOwner(ctx context.Context, req *models.CreateOwnerRequest) (*models.Owner, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	taken, err := s.Repo.ExistsPhone(ctx, req.Phone, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewFieldError("phone", "another owner already uses this phone number")
	}

	owner := &models.Owner{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Notes:   req.Notes,
	}
	if err := s.Repo.Create(ctx, owner); err != nil {
		return nil, err
	}

	log.Printf("[Owner] Created owner %d (%s)", owner.ID, owner.Name)
	return owner, nil
}

func (s *OwnerService) UpdateOwner(ctx context.Context, id int, req *models.CreateOwnerRequest) (*models.Owner, error) {
	owner, err := s.GetOwner(ctx, id)
	if err != nil {
		return nil, err
	}

	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	taken, err := s.Repo.ExistsPhone(ctx, req.Phone, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewFieldError("phone", "another owner already uses this phone number")
	}

	owner.Name = req.Name
	owner.Phone = req.Phone
	owner.Email = req.Email
	owner.Address = req.Address
	owner.Notes = req.Notes

	if err := s.Repo.Update(ctx, owner); err != nil {
		return nil, err
	}

	cache.InvalidateOwnerCaches(ctx)
	return owner, nil
}

func (s *OwnerService) GetOwner(ctx context.Context, id int) (*models.Owner, error) {
	owner, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return owner, nil
}

// ListOwners returns all owners, optionally filtered by a name/phone/email
// substring search.
func (s *OwnerService) ListOwners(ctx context.Context, search string) ([]*models.Owner, error) {
	return s.Repo.List(ctx, search)
}

// DeleteOwner removes an owner with no patients, invoices or appointments.
// Owners with history keep their row for the billing trail.
func (s *OwnerService) DeleteOwner(ctx context.Context, id int) error {
	if _, err := s.GetOwner(ctx, id); err != nil {
		return err
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return NewStateError("owner has patients, invoices or appointments and cannot be deleted")
	}

	cache.InvalidateOwnerCaches(ctx)
	log.Printf("[Owner] Deleted owner %d", id)
	return nil
}
