package services

import (
	"context"
	"errors"
	"log"

	"vet-backend/internal/models"
	"vet-backend/internal/repositories"
	"vet-backend/internal/validation"

	"github.com/jackc/pgx/v5"
)

type ProcedureService struct {
	Repo *repositories.ProcedureRepository
}

func NewProcedureService(repo *repositories.ProcedureRepository) *ProcedureService {
	return &ProcedureService{Repo: repo}
}

// CreateProcedure adds a billable service to the catalog
func (s *ProcedureService) CreateProcedure(ctx context.Context, req *models.CreateProcedureRequest) (*models.Procedure, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	if !models.ValidTaxRate(req.TaxRate) {
		return nil, NewFieldError("tax_rate", "is not an allowed IGIC rate")
	}

	procedure := &models.Procedure{
		Name:    req.Name,
		Price:   req.Price,
		TaxRate: req.TaxRate,
	}
	if err := s.Repo.Create(ctx, procedure); err != nil {
		return nil, err
	}

	log.Printf("[Procedure] Created %d (%s)", procedure.ID, procedure.Name)
	return procedure, nil
}

func (s *ProcedureService) UpdateProcedure(ctx context.Context, id int, req *models.CreateProcedureRequest) (*models.Procedure, error) {
	procedure, err := s.GetProcedure(ctx, id)
	if err != nil {
		return nil, err
	}

	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	if !models.ValidTaxRate(req.TaxRate) {
		return nil, NewFieldError("tax_rate", "is not an allowed IGIC rate")
	}

	procedure.Name = req.Name
	procedure.Price = req.Price
	procedure.TaxRate = req.TaxRate

	if err := s.Repo.Update(ctx, procedure); err != nil {
		return nil, err
	}
	return procedure, nil
}

func (s *ProcedureService) GetProcedure(ctx context.Context, id int) (*models.Procedure, error) {
	procedure, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return procedure, nil
}

func (s *ProcedureService) ListProcedures(ctx context.Context, activeOnly bool) ([]*models.Procedure, error) {
	return s.Repo.List(ctx, activeOnly)
}

// SetActive retires a procedure from the catalog or brings it back.
// Historical invoice lines keep their copied description and price.
func (s *ProcedureService) SetActive(ctx context.Context, id int, active bool) error {
	procedure, err := s.GetProcedure(ctx, id)
	if err != nil {
		return err
	}
	procedure.Active = active
	return s.Repo.Update(ctx, procedure)
}
