package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"vet-backend/internal/auth"
	"vet-backend/internal/models"
	"vet-backend/internal/repositories"
	"vet-backend/internal/sms"
	"vet-backend/internal/timeutil"
	"vet-backend/internal/validation"

	"github.com/jackc/pgx/v5"
)

const (
	loginCodeTTL       = 5 * time.Minute
	loginCodeResendGap = 60 * time.Second
	loginCodeMaxTries  = 5
)

type loginCode struct {
	code      string
	expiresAt time.Time
	sentAt    time.Time
	attempts  int
}

// PortalService drives the owner-facing portal: SMS-code login and
// owner-scoped reads over patients, appointments and invoices.
type PortalService struct {
	OwnerRepo       *repositories.OwnerRepository
	PatientRepo     *repositories.PatientRepository
	AppointmentRepo *repositories.AppointmentRepository
	TransactionRepo *repositories.OnlineTransactionRepository
	InvoiceSvc      *InvoiceService
	JWTManager      *auth.JWTManager
	SMS             sms.Sender

	mu    sync.Mutex
	codes map[string]*loginCode
}

func NewPortalService(
	ownerRepo *repositories.OwnerRepository,
	patientRepo *repositories.PatientRepository,
	appointmentRepo *repositories.AppointmentRepository,
	transactionRepo *repositories.OnlineTransactionRepository,
	invoiceSvc *InvoiceService,
	jwtManager *auth.JWTManager,
	smsSender sms.Sender,
) *PortalService {
	return &PortalService{
		OwnerRepo:       ownerRepo,
		PatientRepo:     patientRepo,
		AppointmentRepo: appointmentRepo,
		TransactionRepo: transactionRepo,
		InvoiceSvc:      invoiceSvc,
		JWTManager:      jwtManager,
		SMS:             smsSender,
		codes:           make(map[string]*loginCode),
	}
}

// RequestLoginCode sends a 6-digit code to a registered owner's phone
func (s *PortalService) RequestLoginCode(ctx context.Context, req *models.OwnerLoginRequest) error {
	if fields := validation.Struct(req); fields != nil {
		return &ValidationError{Fields: fields}
	}

	owner, err := s.OwnerRepo.GetByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NewFieldError("phone", "no account registered with this phone number")
		}
		return err
	}

	s.mu.Lock()
	if existing, ok := s.codes[owner.Phone]; ok {
		if timeutil.Now().Sub(existing.sentAt) < loginCodeResendGap {
			s.mu.Unlock()
			return NewStateError("a code was sent recently, please wait before requesting another")
		}
	}
	s.mu.Unlock()

	code, err := generateLoginCode()
	if err != nil {
		return err
	}

	now := timeutil.Now()
	s.mu.Lock()
	s.codes[owner.Phone] = &loginCode{
		code:      code,
		expiresAt: now.Add(loginCodeTTL),
		sentAt:    now,
	}
	s.mu.Unlock()

	message := fmt.Sprintf("Your clinic portal login code is %s. Valid for 5 minutes.", code)
	if err := s.SMS.Send(ctx, owner.Phone, message); err != nil {
		log.Printf("[Portal] Failed to send login code to %s: %v", owner.Phone, err)
		return NewStateError("could not send the login code, please try again")
	}

	log.Printf("[Portal] Login code sent to owner %d", owner.ID)
	return nil
}

// VerifyLoginCode exchanges a valid code for an owner session token
func (s *PortalService) VerifyLoginCode(ctx context.Context, req *models.OwnerVerifyRequest) (*models.OwnerLoginResponse, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	owner, err := s.OwnerRepo.GetByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewFieldError("phone", "no account registered with this phone number")
		}
		return nil, err
	}

	if err := s.consumeCode(owner.Phone, req.Code); err != nil {
		return nil, err
	}

	token, err := s.JWTManager.GenerateOwnerToken(owner, req.RememberMe)
	if err != nil {
		return nil, err
	}

	log.Printf("[Portal] Owner %d logged in", owner.ID)
	return &models.OwnerLoginResponse{Token: token, Owner: owner}, nil
}

func (s *PortalService) consumeCode(phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[phone]
	if !ok || timeutil.Now().After(entry.expiresAt) {
		delete(s.codes, phone)
		return NewStateError("the code has expired, please request a new one")
	}

	if entry.code != code {
		entry.attempts++
		if entry.attempts >= loginCodeMaxTries {
			delete(s.codes, phone)
			return NewStateError("too many wrong codes, please request a new one")
		}
		return NewFieldError("code", "is incorrect")
	}

	delete(s.codes, phone)
	return nil
}

// MyPatients lists the logged-in owner's animals
func (s *PortalService) MyPatients(ctx context.Context, ownerID int) ([]*models.Patient, error) {
	return s.PatientRepo.ListByOwner(ctx, ownerID)
}

// MyInvoices lists the logged-in owner's invoices
func (s *PortalService) MyInvoices(ctx context.Context, ownerID int) ([]*models.Invoice, error) {
	return s.InvoiceSvc.ListInvoicesByOwner(ctx, ownerID)
}

// MyInvoice returns one invoice with lines after an ownership check
func (s *PortalService) MyInvoice(ctx context.Context, ownerID, invoiceID int) (*models.InvoiceWithDetails, error) {
	invoice, err := s.InvoiceSvc.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return invoice, nil
}

// MyAppointments lists the owner's upcoming scheduled appointments
func (s *PortalService) MyAppointments(ctx context.Context, ownerID int) ([]*models.AppointmentWithNames, error) {
	return s.AppointmentRepo.ListByOwner(ctx, ownerID, timeutil.Now())
}

// MyTransactions lists the owner's online payment attempts
func (s *PortalService) MyTransactions(ctx context.Context, ownerID int) ([]*models.OnlineTransaction, error) {
	return s.TransactionRepo.ListByOwner(ctx, ownerID)
}

func generateLoginCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
