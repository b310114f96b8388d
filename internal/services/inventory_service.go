package services

import (
	"context"
	"errors"
	"log"
	"time"

	"vet-backend/internal/metrics"
	"vet-backend/internal/models"
	"vet-backend/internal/repositories"
	"vet-backend/internal/timeutil"
	"vet-backend/internal/validation"

	"github.com/jackc/pgx/v5"
)

type InventoryService struct {
	MovementRepo *repositories.MovementRepository
	LotRepo      *repositories.LotRepository
	ProductRepo  *repositories.ProductRepository
}

func NewInventoryService(movementRepo *repositories.MovementRepository, lotRepo *repositories.LotRepository, productRepo *repositories.ProductRepository) *InventoryService {
	return &InventoryService{
		MovementRepo: movementRepo,
		LotRepo:      lotRepo,
		ProductRepo:  productRepo,
	}
}

// RecordMovement applies a manual stock movement. The quantity mutation
// and the ledger entry commit together; an outbound movement against
// insufficient stock writes nothing.
func (s *InventoryService) RecordMovement(ctx context.Context, req *models.RecordMovementRequest, userID int) (*models.Movement, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	if !models.ValidMovementType(req.Type) {
		return nil, NewFieldError("type", "unknown movement type")
	}

	variant, err := s.ProductRepo.GetVariant(ctx, req.VariantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewFieldError("variant_id", "variant does not exist")
		}
		return nil, err
	}

	product, err := s.ProductRepo.Get(ctx, variant.ProductID)
	if err != nil {
		return nil, err
	}
	if product.LotTracked && req.LotID == nil {
		return nil, NewFieldError("lot_id", "lot-tracked products require a lot")
	}
	if !product.LotTracked && req.LotID != nil {
		return nil, NewFieldError("lot_id", "product is not lot-tracked")
	}
	if req.LotID != nil {
		lot, err := s.LotRepo.Get(ctx, *req.LotID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, NewFieldError("lot_id", "lot does not exist")
			}
			return nil, err
		}
		if lot.VariantID != req.VariantID {
			return nil, NewFieldError("lot_id", "lot does not belong to the selected variant")
		}
		if !lot.Active && !req.Type.IsInbound() {
			return nil, NewStateError("cannot draw stock from an inactive lot")
		}
	}

	movement := &models.Movement{
		VariantID:       req.VariantID,
		LotID:           req.LotID,
		Type:            req.Type,
		Quantity:        req.Quantity,
		Notes:           req.Notes,
		CreatedByUserID: userID,
	}
	if err := s.MovementRepo.Apply(ctx, movement); err != nil {
		return nil, mapStockError(err)
	}

	metrics.StockMovements.WithLabelValues(string(movement.Type)).Inc()
	log.Printf("[Stock] %s %d on variant %d", movement.Type, movement.Quantity, movement.VariantID)
	return movement, nil
}

// RegisterLot creates a lot for a lot-tracked product together with its
// opening purchase movement.
func (s *InventoryService) RegisterLot(ctx context.Context, req *models.RegisterLotRequest, userID int) (*models.Lot, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	product, err := s.ProductRepo.Get(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewFieldError("product_id", "product does not exist")
		}
		return nil, err
	}
	if !product.LotTracked {
		return nil, NewStateError("product %q is not lot-tracked", product.Name)
	}

	variant, err := s.ProductRepo.DefaultVariant(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	entryDate, expiryDate, err := parseLotDates(req.EntryDate, req.ExpiryDate)
	if err != nil {
		return nil, err
	}

	lot := &models.Lot{
		VariantID:  variant.ID,
		LotNumber:  req.LotNumber,
		Quantity:   req.Quantity,
		EntryDate:  entryDate,
		ExpiryDate: expiryDate,
	}
	if _, err := s.LotRepo.CreateWithMovement(ctx, lot, userID); err != nil {
		return nil, mapLotError(err)
	}

	log.Printf("[Stock] Registered lot %s (variant=%d, qty=%d)", lot.LotNumber, lot.VariantID, lot.Quantity)
	return lot, nil
}

// AddStock tops up a variant. Lot-tracked variants increment or create a
// lot by lot number; plain variants get a purchase movement.
func (s *InventoryService) AddStock(ctx context.Context, req *models.AddStockRequest, userID int) error {
	if fields := validation.Struct(req); fields != nil {
		return &ValidationError{Fields: fields}
	}

	variant, err := s.ProductRepo.GetVariant(ctx, req.VariantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NewFieldError("variant_id", "variant does not exist")
		}
		return err
	}
	product, err := s.ProductRepo.Get(ctx, variant.ProductID)
	if err != nil {
		return err
	}

	if !product.LotTracked {
		movement := &models.Movement{
			VariantID:       req.VariantID,
			Type:            models.MovementPurchaseIn,
			Quantity:        req.Quantity,
			CreatedByUserID: userID,
		}
		return s.MovementRepo.Apply(ctx, movement)
	}

	if req.LotNumber == "" {
		return NewFieldError("lot_number", "is required for lot-tracked products")
	}

	entryDate, expiryDate, err := parseLotDates(req.EntryDate, req.ExpiryDate)
	if err != nil {
		return err
	}

	lot := &models.Lot{
		VariantID:  req.VariantID,
		LotNumber:  req.LotNumber,
		Quantity:   req.Quantity,
		EntryDate:  entryDate,
		ExpiryDate: expiryDate,
	}
	_, err = s.LotRepo.AddStock(ctx, lot, userID)
	return mapLotError(err)
}

// EditLot rewrites lot fields. A direct quantity change does not bypass
// the ledger: the delta is recorded as an adjustment movement in the
// same transaction.
func (s *InventoryService) EditLot(ctx context.Context, lotID int, req *models.EditLotRequest, userID int) (*models.Lot, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	lot, err := s.LotRepo.Get(ctx, lotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entryDate, expiryDate, err := parseLotDates(req.EntryDate, req.ExpiryDate)
	if err != nil {
		return nil, err
	}

	lot.LotNumber = req.LotNumber
	lot.Quantity = req.Quantity
	lot.EntryDate = entryDate
	lot.ExpiryDate = expiryDate

	if _, err := s.LotRepo.UpdateWithAdjustment(ctx, lot, userID); err != nil {
		return nil, mapLotError(err)
	}
	return lot, nil
}

// DeactivateLot hides a lot from available stock and consumption
func (s *InventoryService) DeactivateLot(ctx context.Context, lotID int) error {
	return s.setLotActive(ctx, lotID, false)
}

// ReactivateLot restores a deactivated lot
func (s *InventoryService) ReactivateLot(ctx context.Context, lotID int) error {
	return s.setLotActive(ctx, lotID, true)
}

func (s *InventoryService) setLotActive(ctx context.Context, lotID int, active bool) error {
	if err := s.LotRepo.SetActive(ctx, lotID, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListLots returns a variant's lots
func (s *InventoryService) ListLots(ctx context.Context, variantID int, includeInactive bool) ([]*models.Lot, error) {
	return s.LotRepo.ListByVariant(ctx, variantID, includeInactive)
}

// MovementHistory returns the ledger of a variant
func (s *InventoryService) MovementHistory(ctx context.Context, variantID int) ([]*models.Movement, error) {
	return s.MovementRepo.ListByVariant(ctx, variantID)
}

// LotMovementHistory returns the ledger of a single lot
func (s *InventoryService) LotMovementHistory(ctx context.Context, lotID int) ([]*models.Movement, error) {
	return s.MovementRepo.ListByLot(ctx, lotID)
}

// AvailableStock returns the sellable quantity of a variant: the variant
// counter for plain products, the active-lot sum for lot-tracked ones.
func (s *InventoryService) AvailableStock(ctx context.Context, variantID int) (int, error) {
	variant, err := s.ProductRepo.GetVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	product, err := s.ProductRepo.Get(ctx, variant.ProductID)
	if err != nil {
		return 0, err
	}
	if !product.LotTracked {
		return variant.Quantity, nil
	}
	return s.LotRepo.AvailableQuantity(ctx, variantID)
}

func parseLotDates(entryStr, expiryStr string) (time.Time, *time.Time, error) {
	entryDate := timeutil.StartOfDay(timeutil.Now())
	if entryStr != "" {
		parsed, err := timeutil.ParseDate(entryStr)
		if err != nil {
			return time.Time{}, nil, NewFieldError("entry_date", "must be a date in YYYY-MM-DD format")
		}
		entryDate = parsed
	}

	var expiryDate *time.Time
	if expiryStr != "" {
		parsed, err := timeutil.ParseDate(expiryStr)
		if err != nil {
			return time.Time{}, nil, NewFieldError("expiry_date", "must be a date in YYYY-MM-DD format")
		}
		expiryDate = &parsed
	}
	return entryDate, expiryDate, nil
}

func mapStockError(err error) error {
	var stock *repositories.InsufficientStockError
	if errors.As(err, &stock) {
		metrics.InsufficientStockRejections.Inc()
		return NewFieldError("quantity", stock.Error())
	}
	return err
}

// mapLotError surfaces a duplicate lot number as a field-level conflict
func mapLotError(err error) error {
	var dup *repositories.DuplicateLotNumberError
	if errors.As(err, &dup) {
		return NewFieldError("lot_number", "is already used by another lot of this product")
	}
	return err
}
