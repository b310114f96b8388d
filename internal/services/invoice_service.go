package services

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"vet-backend/internal/metrics"
	"vet-backend/internal/models"
	"vet-backend/internal/repositories"
	"vet-backend/internal/timeutil"
	"vet-backend/internal/validation"

	"github.com/jackc/pgx/v5"
)

type InvoiceService struct {
	InvoiceRepo *repositories.InvoiceRepository
	PaymentRepo *repositories.PaymentRepository
	OwnerRepo   *repositories.OwnerRepository
	PatientRepo *repositories.PatientRepository
	SettingRepo *repositories.SystemSettingRepository
}

func NewInvoiceService(invoiceRepo *repositories.InvoiceRepository, paymentRepo *repositories.PaymentRepository, ownerRepo *repositories.OwnerRepository, patientRepo *repositories.PatientRepository, settingRepo *repositories.SystemSettingRepository) *InvoiceService {
	return &InvoiceService{
		InvoiceRepo: invoiceRepo,
		PaymentRepo: paymentRepo,
		OwnerRepo:   ownerRepo,
		PatientRepo: patientRepo,
		SettingRepo: settingRepo,
	}
}

// CreateInvoice validates the request, computes all derived amounts and
// creates the invoice as a draft. The number is allocated in the same
// transaction as the lines, so a failed create leaves nothing behind.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest, userID int) (*models.Invoice, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	if err := validateItemTaxRates(req.Items); err != nil {
		return nil, err
	}

	if _, err := s.OwnerRepo.Get(ctx, req.OwnerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewFieldError("owner_id", "owner does not exist")
		}
		return nil, err
	}
	if req.PatientID != nil {
		patient, err := s.PatientRepo.Get(ctx, *req.PatientID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, NewFieldError("patient_id", "patient does not exist")
			}
			return nil, err
		}
		if patient.OwnerID != req.OwnerID {
			return nil, NewFieldError("patient_id", "patient does not belong to the selected owner")
		}
	}

	issueDate, dueDate, err := s.parseInvoiceDates(ctx, req.IssueDate, req.DueDate)
	if err != nil {
		return nil, err
	}

	origin := req.Origin
	if origin == "" {
		origin = models.InvoiceOriginManual
	}

	items, totals := models.ComputeTotals(req.Items)
	invoice := &models.Invoice{
		Origin:          origin,
		OwnerID:         req.OwnerID,
		PatientID:       req.PatientID,
		IssueDate:       issueDate,
		DueDate:         dueDate,
		Status:          models.InvoiceStatusDraft,
		Subtotal:        totals.Subtotal,
		TaxAmount:       totals.TaxAmount,
		Total:           totals.Total,
		TaxBreakdown:    totals.TaxBreakdown,
		Notes:           req.Notes,
		InternalNotes:   req.InternalNotes,
		CreatedByUserID: userID,
	}

	if err := s.InvoiceRepo.CreateWithItems(ctx, invoice, items); err != nil {
		return nil, err
	}

	metrics.InvoicesCreated.WithLabelValues(string(invoice.Origin)).Inc()
	log.Printf("[Invoice] Created %s (id=%d, total=%.2f)", invoice.InvoiceNumber, invoice.ID, invoice.Total)
	return invoice, nil
}

// UpdateInvoice rewrites a draft invoice. Issued invoices are immutable;
// corrections go through void plus a new invoice.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id int, req *models.CreateInvoiceRequest) (*models.Invoice, error) {
	invoice, err := s.getInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceStatusDraft {
		return nil, NewStateError("only draft invoices can be edited (current status: %s)", invoice.Status)
	}

	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	if err := validateItemTaxRates(req.Items); err != nil {
		return nil, err
	}

	issueDate, dueDate, err := s.parseInvoiceDates(ctx, req.IssueDate, req.DueDate)
	if err != nil {
		return nil, err
	}

	if number, changed := renamedNumber(invoice.InvoiceNumber, req.InvoiceNumber); changed {
		taken, err := s.InvoiceRepo.ExistsNumber(ctx, number, invoice.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, NewFieldError("invoice_number", "is already used by another invoice")
		}
		invoice.InvoiceNumber = number
	}

	items, totals := models.ComputeTotals(req.Items)
	invoice.OwnerID = req.OwnerID
	invoice.PatientID = req.PatientID
	invoice.IssueDate = issueDate
	invoice.DueDate = dueDate
	invoice.Subtotal = totals.Subtotal
	invoice.TaxAmount = totals.TaxAmount
	invoice.Total = totals.Total
	invoice.TaxBreakdown = totals.TaxBreakdown
	invoice.Notes = req.Notes
	invoice.InternalNotes = req.InternalNotes

	if err := s.InvoiceRepo.ReplaceItems(ctx, invoice, items); err != nil {
		return nil, err
	}
	return invoice, nil
}

// DeleteInvoice removes a draft invoice. Anything past draft is part of
// the fiscal sequence and can only be voided.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id int) error {
	invoice, err := s.getInvoice(ctx, id)
	if err != nil {
		return err
	}
	if invoice.Status != models.InvoiceStatusDraft {
		return NewStateError("only draft invoices can be deleted (current status: %s)", invoice.Status)
	}
	return s.InvoiceRepo.DeleteCascade(ctx, id)
}

// IssueInvoice transitions a draft to pending and immediately reconciles,
// so an issue with a past due date lands directly on overdue.
func (s *InvoiceService) IssueInvoice(ctx context.Context, id int) (*models.Invoice, error) {
	invoice, err := s.getInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceStatusDraft {
		return nil, NewStateError("only draft invoices can be issued (current status: %s)", invoice.Status)
	}

	if err := s.InvoiceRepo.UpdateStatus(ctx, id, models.InvoiceStatusPending); err != nil {
		return nil, err
	}
	status, err := s.InvoiceRepo.Reconcile(ctx, id)
	if err != nil {
		return nil, err
	}

	invoice.Status = status
	log.Printf("[Invoice] Issued %s (id=%d, status=%s)", invoice.InvoiceNumber, id, status)
	return invoice, nil
}

// voidOutcome decides the void transition for a stored status. Drafts
// leave the sequence through delete instead; an already-void invoice is
// an idempotent success with nothing to write.
func voidOutcome(status models.InvoiceStatus) (alreadyVoid bool, err error) {
	switch status {
	case models.InvoiceStatusDraft:
		return false, NewStateError("draft invoices are deleted, not voided")
	case models.InvoiceStatusVoid:
		return true, nil
	}
	return false, nil
}

// VoidInvoice cancels an issued invoice, keeping its number in the
// fiscal sequence. Any non-draft status can be voided, payments
// included; registered payments stay on record but the void invoice
// accepts no further payment edits. Voiding twice is a no-op.
func (s *InvoiceService) VoidInvoice(ctx context.Context, id int) (*models.Invoice, error) {
	invoice, err := s.getInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	alreadyVoid, err := voidOutcome(invoice.Status)
	if err != nil {
		return nil, err
	}
	if alreadyVoid {
		return invoice, nil
	}

	if err := s.InvoiceRepo.UpdateStatus(ctx, id, models.InvoiceStatusVoid); err != nil {
		return nil, err
	}
	invoice.Status = models.InvoiceStatusVoid
	log.Printf("[Invoice] Voided %s (id=%d)", invoice.InvoiceNumber, id)
	return invoice, nil
}

// GetInvoice reconciles and returns an invoice with names, lines and the
// paid sum. Reconciling on read keeps the overdue flag current without a
// scheduler.
func (s *InvoiceService) GetInvoice(ctx context.Context, id int) (*models.InvoiceWithDetails, error) {
	if _, err := s.InvoiceRepo.Reconcile(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	details, err := s.InvoiceRepo.GetWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return details, nil
}

// ListInvoices returns invoice headers, optionally filtered by status.
// Stored statuses may lag on overdue until the invoice is next read or
// reconciled; the list view derives the flag client-side from due_date.
func (s *InvoiceService) ListInvoices(ctx context.Context, status string) ([]*models.Invoice, error) {
	return s.InvoiceRepo.List(ctx, models.InvoiceStatus(status))
}

// ListInvoicesByOwner returns one owner's invoices for the portal
func (s *InvoiceService) ListInvoicesByOwner(ctx context.Context, ownerID int) ([]*models.Invoice, error) {
	return s.InvoiceRepo.ListByOwner(ctx, ownerID)
}

// RegisterPayment records a payment against an issued invoice. The
// overpay check and the status reconciliation run inside the insert
// transaction.
func (s *InvoiceService) RegisterPayment(ctx context.Context, invoiceID int, req *models.RegisterPaymentRequest, userID int) (*models.Payment, models.InvoiceStatus, error) {
	invoice, err := s.getInvoice(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	if err := s.paymentPrecondition(invoice); err != nil {
		return nil, "", err
	}

	if fields := validation.Struct(req); fields != nil {
		return nil, "", &ValidationError{Fields: fields}
	}
	if !models.ValidPaymentMethod(req.Method) {
		return nil, "", NewFieldError("method", "unknown payment method")
	}

	paymentDate, err := parsePaymentDate(req.PaymentDate)
	if err != nil {
		return nil, "", err
	}

	payment := &models.Payment{
		InvoiceID:       invoiceID,
		PaymentDate:     paymentDate,
		Amount:          req.Amount,
		Method:          req.Method,
		Reference:       req.Reference,
		Notes:           req.Notes,
		CreatedByUserID: staffActor(userID),
	}

	status, err := s.PaymentRepo.Create(ctx, payment, invoice.Total)
	if err != nil {
		return nil, "", mapOverpayment(err)
	}

	metrics.PaymentsRegistered.WithLabelValues(string(payment.Method)).Inc()
	log.Printf("[Payment] Registered %.2f on %s (invoice=%d, status=%s)", payment.Amount, invoice.InvoiceNumber, invoiceID, status)
	return payment, status, nil
}

// UpdatePayment rewrites a payment under the same in-transaction guard
func (s *InvoiceService) UpdatePayment(ctx context.Context, paymentID int, req *models.RegisterPaymentRequest) (*models.Payment, models.InvoiceStatus, error) {
	payment, err := s.PaymentRepo.Get(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	invoice, err := s.getInvoice(ctx, payment.InvoiceID)
	if err != nil {
		return nil, "", err
	}
	if invoice.Status == models.InvoiceStatusVoid {
		return nil, "", NewStateError("cannot edit payments of a void invoice")
	}

	if fields := validation.Struct(req); fields != nil {
		return nil, "", &ValidationError{Fields: fields}
	}
	if !models.ValidPaymentMethod(req.Method) {
		return nil, "", NewFieldError("method", "unknown payment method")
	}

	paymentDate, err := parsePaymentDate(req.PaymentDate)
	if err != nil {
		return nil, "", err
	}

	payment.PaymentDate = paymentDate
	payment.Amount = req.Amount
	payment.Method = req.Method
	payment.Reference = req.Reference
	payment.Notes = req.Notes

	status, err := s.PaymentRepo.Update(ctx, payment, invoice.Total)
	if err != nil {
		return nil, "", mapOverpayment(err)
	}
	return payment, status, nil
}

// DeletePayment removes a payment; the invoice status falls back to
// whatever the remaining payments derive.
func (s *InvoiceService) DeletePayment(ctx context.Context, paymentID int) (models.InvoiceStatus, error) {
	payment, err := s.PaymentRepo.Get(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	status, err := s.PaymentRepo.Delete(ctx, paymentID, payment.InvoiceID)
	if err != nil {
		return "", err
	}

	log.Printf("[Payment] Deleted payment %d (invoice=%d, status=%s)", paymentID, payment.InvoiceID, status)
	return status, nil
}

// ListPayments returns an invoice's payments
func (s *InvoiceService) ListPayments(ctx context.Context, invoiceID int) ([]*models.Payment, error) {
	return s.PaymentRepo.ListByInvoice(ctx, invoiceID)
}

func (s *InvoiceService) getInvoice(ctx context.Context, id int) (*models.Invoice, error) {
	invoice, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return invoice, nil
}

func (s *InvoiceService) paymentPrecondition(invoice *models.Invoice) error {
	switch invoice.Status {
	case models.InvoiceStatusDraft:
		return NewStateError("cannot register payments on a draft invoice")
	case models.InvoiceStatusVoid:
		return NewStateError("cannot register payments on a void invoice")
	case models.InvoiceStatusPaid:
		return NewStateError("invoice is already fully paid")
	}
	return nil
}

// parseInvoiceDates parses issue/due dates, defaulting the issue date to
// today and the due date to issue plus the configured default term.
func (s *InvoiceService) parseInvoiceDates(ctx context.Context, issueStr, dueStr string) (time.Time, *time.Time, error) {
	issueDate := timeutil.StartOfDay(timeutil.Now())
	if issueStr != "" {
		parsed, err := timeutil.ParseDate(issueStr)
		if err != nil {
			return time.Time{}, nil, NewFieldError("issue_date", "must be a date in YYYY-MM-DD format")
		}
		issueDate = parsed
	}

	var dueDate *time.Time
	if dueStr != "" {
		parsed, err := timeutil.ParseDate(dueStr)
		if err != nil {
			return time.Time{}, nil, NewFieldError("due_date", "must be a date in YYYY-MM-DD format")
		}
		if parsed.Before(issueDate) {
			return time.Time{}, nil, NewFieldError("due_date", "cannot be before the issue date")
		}
		dueDate = &parsed
	} else if days := s.defaultDueDays(ctx); days > 0 {
		due := issueDate.AddDate(0, 0, days)
		dueDate = &due
	}

	return issueDate, dueDate, nil
}

func (s *InvoiceService) defaultDueDays(ctx context.Context) int {
	if s.SettingRepo == nil {
		return 0
	}
	setting, err := s.SettingRepo.Get(ctx, "invoice_default_due_days")
	if err != nil || setting.SettingValue == "" {
		return 0
	}
	days, err := strconv.Atoi(setting.SettingValue)
	if err != nil || days < 0 {
		return 0
	}
	return days
}

func parsePaymentDate(value string) (time.Time, error) {
	if value == "" {
		return timeutil.StartOfDay(timeutil.Now()), nil
	}
	parsed, err := timeutil.ParseDate(value)
	if err != nil {
		return time.Time{}, NewFieldError("payment_date", "must be a date in YYYY-MM-DD format")
	}
	return parsed, nil
}

// renamedNumber reports whether an update actually changes the invoice
// number. An empty submission keeps the allocated number.
func renamedNumber(current, requested string) (string, bool) {
	if requested == "" || requested == current {
		return current, false
	}
	return requested, true
}

// staffActor turns a session user ID into the payment's actor
// reference. System-originated payments (the online gateway) carry no
// staff actor.
func staffActor(userID int) *int {
	if userID == 0 {
		return nil
	}
	return &userID
}

func validateItemTaxRates(items []models.InvoiceItemInput) error {
	for _, item := range items {
		if !models.ValidTaxRate(item.TaxRate) {
			return NewFieldError("tax_rate", "must be one of the accepted IGIC rates")
		}
	}
	return nil
}

func mapOverpayment(err error) error {
	var over *repositories.OverpaymentError
	if errors.As(err, &over) {
		return NewFieldError("amount", "exceeds the remaining invoice balance")
	}
	return err
}
