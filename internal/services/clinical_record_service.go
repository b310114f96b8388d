package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"vet-backend/internal/models"
	"vet-backend/internal/repositories"
	"vet-backend/internal/timeutil"
	"vet-backend/internal/validation"

	"github.com/jackc/pgx/v5"
)

type ClinicalRecordService struct {
	RecordRepo   *repositories.ClinicalRecordRepository
	PatientRepo  *repositories.PatientRepository
	ProductRepo  *repositories.ProductRepository
	MovementRepo *repositories.MovementRepository
	InvoiceSvc   *InvoiceService
}

func NewClinicalRecordService(recordRepo *repositories.ClinicalRecordRepository, patientRepo *repositories.PatientRepository, productRepo *repositories.ProductRepository, movementRepo *repositories.MovementRepository, invoiceSvc *InvoiceService) *ClinicalRecordService {
	return &ClinicalRecordService{
		RecordRepo:   recordRepo,
		PatientRepo:  patientRepo,
		ProductRepo:  productRepo,
		MovementRepo: movementRepo,
		InvoiceSvc:   invoiceSvc,
	}
}

// CreateRecord stores a visit entry and draws the consumed products from
// stock as internal-use movements. Lot-tracked products drain the oldest
// active lot first.
func (s *ClinicalRecordService) CreateRecord(ctx context.Context, req *models.CreateClinicalRecordRequest, userID int) (*models.ClinicalRecord, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.PatientRepo.Get(ctx, req.PatientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewFieldError("patient_id", "patient does not exist")
		}
		return nil, err
	}

	visitDate := timeutil.StartOfDay(timeutil.Now())
	if req.VisitDate != "" {
		parsed, err := timeutil.ParseDate(req.VisitDate)
		if err != nil {
			return nil, NewFieldError("visit_date", "must be a date in YYYY-MM-DD format")
		}
		visitDate = parsed
	}

	items, consumptions, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	record := &models.ClinicalRecord{
		PatientID: req.PatientID,
		VetUserID: userID,
		VisitDate: visitDate,
		Diagnosis: req.Diagnosis,
		Treatment: req.Treatment,
		Notes:     req.Notes,
	}
	if err := s.RecordRepo.CreateWithItems(ctx, record, items); err != nil {
		return nil, err
	}

	for _, c := range consumptions {
		rid := record.ID
		if _, err := s.MovementRepo.Consume(ctx, c, models.MovementInternalUseOut, &rid, "", userID); err != nil {
			// Roll the record back so no visit exists without its stock draw
			if delErr := s.RecordRepo.Delete(ctx, record.ID); delErr != nil {
				log.Printf("[Clinical] Failed to roll back record %d after stock error: %v", record.ID, delErr)
			}
			return nil, mapStockError(err)
		}
	}

	log.Printf("[Clinical] Created record %d (patient=%d, items=%d)", record.ID, record.PatientID, len(items))
	return record, nil
}

// UpdateRecord rewrites a visit entry. Consumption is corrected by
// reversing every prior movement of the record and reapplying the new
// list inside one transaction, so a failed reapply leaves stock exactly
// as it was.
func (s *ClinicalRecordService) UpdateRecord(ctx context.Context, recordID int, req *models.CreateClinicalRecordRequest, userID int) (*models.ClinicalRecord, error) {
	existing, err := s.RecordRepo.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	visitDate := existing.VisitDate
	if req.VisitDate != "" {
		parsed, err := timeutil.ParseDate(req.VisitDate)
		if err != nil {
			return nil, NewFieldError("visit_date", "must be a date in YYYY-MM-DD format")
		}
		visitDate = parsed
	}

	items, consumptions, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	if _, err := s.MovementRepo.ReplaceClinicalConsumption(ctx, recordID, consumptions, userID); err != nil {
		return nil, mapStockError(err)
	}

	record := &existing.ClinicalRecord
	record.VisitDate = visitDate
	record.Diagnosis = req.Diagnosis
	record.Treatment = req.Treatment
	record.Notes = req.Notes
	if err := s.RecordRepo.ReplaceItems(ctx, record, items); err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteRecord restores the consumed stock, then removes the record
func (s *ClinicalRecordService) DeleteRecord(ctx context.Context, recordID, userID int) error {
	record, err := s.RecordRepo.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if record.InvoiceID != nil {
		return NewStateError("cannot delete a record with a generated invoice")
	}

	if err := s.MovementRepo.ReverseClinicalConsumption(ctx, recordID, userID); err != nil {
		return err
	}
	return s.RecordRepo.Delete(ctx, recordID)
}

// GetRecord returns a record with its consumption lines
func (s *ClinicalRecordService) GetRecord(ctx context.Context, recordID int) (*models.ClinicalRecordWithItems, error) {
	record, err := s.RecordRepo.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// ListByPatient returns a patient's clinical history
func (s *ClinicalRecordService) ListByPatient(ctx context.Context, patientID int) ([]*models.ClinicalRecord, error) {
	return s.RecordRepo.ListByPatient(ctx, patientID)
}

// GenerateInvoice bills a record's consumed products as an HCL invoice
// and links it back onto the record. The back-reference is best effort:
// the invoice stands even if the link write fails.
func (s *ClinicalRecordService) GenerateInvoice(ctx context.Context, recordID, userID int) (*models.Invoice, error) {
	record, err := s.RecordRepo.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if record.InvoiceID != nil {
		return nil, NewStateError("record already has invoice %d", *record.InvoiceID)
	}
	if len(record.Items) == 0 {
		return nil, NewStateError("record has no billable items")
	}

	patient, err := s.PatientRepo.Get(ctx, record.PatientID)
	if err != nil {
		return nil, err
	}

	var lines []models.InvoiceItemInput
	for _, item := range record.Items {
		product, err := s.ProductRepo.Get(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		variant, err := s.ProductRepo.DefaultVariant(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		pid := item.ProductID
		lines = append(lines, models.InvoiceItemInput{
			Description: product.Name,
			Quantity:    float64(item.Quantity),
			UnitPrice:   variant.Price,
			TaxRate:     product.TaxRate,
			ProductID:   &pid,
		})
	}

	invReq := &models.CreateInvoiceRequest{
		OwnerID:   patient.OwnerID,
		PatientID: &record.PatientID,
		Origin:    models.InvoiceOriginClinical,
		IssueDate: record.VisitDate.Format(timeutil.DateLayout),
		Notes:     fmt.Sprintf("Visit of %s on %s", patient.Name, record.VisitDate.Format(timeutil.DateLayout)),
		Items:     lines,
	}
	invoice, err := s.InvoiceSvc.CreateInvoice(ctx, invReq, userID)
	if err != nil {
		return nil, err
	}

	if err := s.RecordRepo.SetInvoiceID(ctx, recordID, &invoice.ID); err != nil {
		log.Printf("[Clinical] Invoice %s created but linking to record %d failed: %v", invoice.InvoiceNumber, recordID, err)
	}
	return invoice, nil
}

// resolveItems validates the product lines and maps them to variant
// consumptions (consumption always targets the product's default variant).
func (s *ClinicalRecordService) resolveItems(ctx context.Context, inputs []models.ClinicalRecordItemInput) ([]models.ClinicalRecordItem, []repositories.ConsumptionItem, error) {
	var items []models.ClinicalRecordItem
	var consumptions []repositories.ConsumptionItem
	for _, in := range inputs {
		if _, err := s.ProductRepo.Get(ctx, in.ProductID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, NewFieldError("items", fmt.Sprintf("product %d does not exist", in.ProductID))
			}
			return nil, nil, err
		}
		variant, err := s.ProductRepo.DefaultVariant(ctx, in.ProductID)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, models.ClinicalRecordItem{ProductID: in.ProductID, Quantity: in.Quantity})
		consumptions = append(consumptions, repositories.ConsumptionItem{VariantID: variant.ID, Quantity: in.Quantity})
	}
	return items, consumptions, nil
}
