package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"vet-backend/internal/models"
	"vet-backend/internal/repositories"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayService drives the owner portal's online invoice payments: it
// creates gateway orders, verifies callbacks and converts a successful
// charge into a regular payment on the invoice.
type RazorpayService struct {
	TransactionRepo *repositories.OnlineTransactionRepository
	InvoiceSvc      *InvoiceService
	SettingRepo     *repositories.SystemSettingRepository

	// Fallback credentials from the environment, overridable per setting
	envKeyID         string
	envKeySecret     string
	envWebhookSecret string
}

func NewRazorpayService(keyID, keySecret, webhookSecret string, transactionRepo *repositories.OnlineTransactionRepository, invoiceSvc *InvoiceService, settingRepo *repositories.SystemSettingRepository) *RazorpayService {
	return &RazorpayService{
		TransactionRepo:  transactionRepo,
		InvoiceSvc:       invoiceSvc,
		SettingRepo:      settingRepo,
		envKeyID:         keyID,
		envKeySecret:     keySecret,
		envWebhookSecret: webhookSecret,
	}
}

// getCredentials returns the gateway credentials, settings first then env
func (s *RazorpayService) getCredentials(ctx context.Context) (keyID, keySecret, webhookSecret string) {
	if s.SettingRepo != nil {
		if setting, err := s.SettingRepo.Get(ctx, "razorpay_key_id"); err == nil && setting.SettingValue != "" {
			keyID = setting.SettingValue
		}
		if setting, err := s.SettingRepo.Get(ctx, "razorpay_key_secret"); err == nil && setting.SettingValue != "" {
			keySecret = setting.SettingValue
		}
		if setting, err := s.SettingRepo.Get(ctx, "razorpay_webhook_secret"); err == nil && setting.SettingValue != "" {
			webhookSecret = setting.SettingValue
		}
	}

	if keyID == "" {
		keyID = s.envKeyID
	}
	if keySecret == "" {
		keySecret = s.envKeySecret
	}
	if webhookSecret == "" {
		webhookSecret = s.envWebhookSecret
	}
	return keyID, keySecret, webhookSecret
}

func (s *RazorpayService) getClient(ctx context.Context) *razorpay.Client {
	keyID, keySecret, _ := s.getCredentials(ctx)
	if keyID == "" || keySecret == "" {
		return nil
	}
	return razorpay.NewClient(keyID, keySecret)
}

// IsEnabled checks the online payment toggle in settings
func (s *RazorpayService) IsEnabled(ctx context.Context) bool {
	setting, err := s.SettingRepo.Get(ctx, "online_payment_enabled")
	if err != nil {
		return false
	}
	return setting.SettingValue == "true"
}

// GetFeePercent returns the configured convenience fee percentage
func (s *RazorpayService) GetFeePercent(ctx context.Context) float64 {
	setting, err := s.SettingRepo.Get(ctx, "online_payment_fee_percent")
	if err != nil {
		return 0
	}
	fee, err := strconv.ParseFloat(setting.SettingValue, 64)
	if err != nil {
		return 0
	}
	return fee
}

// CalculateFee computes the fee for an amount, rounded to cents
func (s *RazorpayService) CalculateFee(amount, feePercent float64) float64 {
	return math.Round(amount*feePercent) / 100
}

// GetPaymentStatus returns the toggle, fee and key for the portal widget
func (s *RazorpayService) GetPaymentStatus(ctx context.Context) *models.PaymentStatusResponse {
	keyID, _, _ := s.getCredentials(ctx)
	return &models.PaymentStatusResponse{
		Enabled:    s.IsEnabled(ctx),
		FeePercent: s.GetFeePercent(ctx),
		KeyID:      keyID,
	}
}

// CreateOrder creates a gateway order for an invoice payment and records
// the pending transaction. The owner can only pay their own invoices and
// never more than the remaining balance.
func (s *RazorpayService) CreateOrder(ctx context.Context, ownerID int, req *models.CreateOnlinePaymentRequest) (*models.CreateOrderResponse, error) {
	if !s.IsEnabled(ctx) {
		return nil, NewStateError("online payments are currently disabled")
	}

	client := s.getClient(ctx)
	if client == nil {
		return nil, NewStateError("online payment gateway is not configured")
	}

	invoice, err := s.InvoiceSvc.GetInvoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	switch invoice.Status {
	case models.InvoiceStatusDraft, models.InvoiceStatusVoid, models.InvoiceStatusPaid:
		return nil, NewStateError("invoice %s is not payable", invoice.InvoiceNumber)
	}

	remaining := invoice.Total - invoice.PaidAmount
	if req.Amount > remaining+models.MoneyEpsilon {
		return nil, NewFieldError("amount", fmt.Sprintf("exceeds the remaining balance of %.2f", remaining))
	}

	feePercent := s.GetFeePercent(ctx)
	feeAmount := s.CalculateFee(req.Amount, feePercent)
	totalAmount := req.Amount + feeAmount
	amountCents := int(math.Round(totalAmount * 100))

	orderData := map[string]interface{}{
		"amount":   amountCents,
		"currency": "EUR",
		"receipt":  fmt.Sprintf("rcpt_%d_%d", invoice.ID, time.Now().Unix()),
		"notes": map[string]interface{}{
			"owner_id":       ownerID,
			"invoice_id":     invoice.ID,
			"invoice_number": invoice.InvoiceNumber,
		},
	}

	order, err := client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	orderID, _ := order["id"].(string)

	tx := &models.OnlineTransaction{
		RazorpayOrderID: orderID,
		OwnerID:         ownerID,
		InvoiceID:       invoice.ID,
		Amount:          req.Amount,
		FeeAmount:       feeAmount,
		TotalAmount:     totalAmount,
		Status:          models.OnlineTxStatusCreated,
	}
	if err := s.TransactionRepo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	keyID, _, _ := s.getCredentials(ctx)
	return &models.CreateOrderResponse{
		OrderID:     orderID,
		Amount:      int(math.Round(req.Amount * 100)),
		FeeAmount:   int(math.Round(feeAmount * 100)),
		TotalAmount: amountCents,
		Currency:    "EUR",
		KeyID:       keyID,
		FeePercent:  feePercent,
	}, nil
}

// VerifyPayment checks the checkout callback signature and, on success,
// registers the charge as an online payment on the invoice. Verification
// is idempotent: a second callback for the same order returns the
// existing transaction.
func (s *RazorpayService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.OnlineTransaction, error) {
	tx, err := s.TransactionRepo.GetByOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, ErrNotFound
	}
	if tx.Status == models.OnlineTxStatusSuccess {
		return tx, nil
	}

	if !s.verifySignature(ctx, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if err := s.TransactionRepo.MarkFailed(ctx, tx.ID, "invalid signature"); err != nil {
			log.Printf("[Razorpay] Failed to mark transaction %d failed: %v", tx.ID, err)
		}
		return nil, NewStateError("invalid payment signature")
	}

	return s.settleTransaction(ctx, tx, req.RazorpayPaymentID)
}

// settleTransaction registers the invoice payment and flips the
// transaction to success. The gross amount (without the fee) lands on
// the invoice; the fee stays on the transaction record.
func (s *RazorpayService) settleTransaction(ctx context.Context, tx *models.OnlineTransaction, razorpayPaymentID string) (*models.OnlineTransaction, error) {
	payReq := &models.RegisterPaymentRequest{
		Amount:    tx.Amount,
		Method:    models.PaymentMethodOnline,
		Reference: razorpayPaymentID,
		Notes:     fmt.Sprintf("Online payment, order %s", tx.RazorpayOrderID),
	}
	payment, _, err := s.InvoiceSvc.RegisterPayment(ctx, tx.InvoiceID, payReq, 0)
	if err != nil {
		if markErr := s.TransactionRepo.MarkFailed(ctx, tx.ID, err.Error()); markErr != nil {
			log.Printf("[Razorpay] Failed to mark transaction %d failed: %v", tx.ID, markErr)
		}
		return nil, fmt.Errorf("failed to register payment: %w", err)
	}

	if err := s.TransactionRepo.MarkSuccess(ctx, tx.ID, razorpayPaymentID, payment.ID); err != nil {
		return nil, err
	}

	log.Printf("[Razorpay] Settled order %s (invoice=%d, amount=%.2f)", tx.RazorpayOrderID, tx.InvoiceID, tx.Amount)
	return s.TransactionRepo.GetByOrderID(ctx, tx.RazorpayOrderID)
}

func (s *RazorpayService) verifySignature(ctx context.Context, orderID, paymentID, signature string) bool {
	_, keySecret, _ := s.getCredentials(ctx)
	if keySecret == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(keySecret))
	h.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature verifies the webhook body signature. Without a
// configured secret nothing can be verified, so every delivery is
// rejected rather than trusted.
func (s *RazorpayService) VerifyWebhookSignature(ctx context.Context, body []byte, signature string) bool {
	_, _, webhookSecret := s.getCredentials(ctx)
	if webhookSecret == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(webhookSecret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ProcessWebhook handles asynchronous gateway events, covering checkouts
// the browser never reported back.
func (s *RazorpayService) ProcessWebhook(ctx context.Context, event string, payload map[string]interface{}) error {
	switch event {
	case "payment.captured":
		return s.handlePaymentCaptured(ctx, payload)
	case "payment.failed":
		return s.handlePaymentFailed(ctx, payload)
	default:
		log.Printf("[Razorpay] Unhandled webhook event: %s", event)
		return nil
	}
}

func webhookPaymentEntity(payload map[string]interface{}) map[string]interface{} {
	entity := payload
	if p, ok := payload["payment"].(map[string]interface{}); ok {
		entity = p
	}
	if e, ok := entity["entity"].(map[string]interface{}); ok {
		entity = e
	}
	return entity
}

func (s *RazorpayService) handlePaymentCaptured(ctx context.Context, payload map[string]interface{}) error {
	entity := webhookPaymentEntity(payload)
	orderID, _ := entity["order_id"].(string)
	paymentID, _ := entity["id"].(string)
	if orderID == "" {
		return fmt.Errorf("missing order_id in webhook")
	}

	tx, err := s.TransactionRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("transaction not found: %w", err)
	}
	if tx.Status == models.OnlineTxStatusSuccess {
		return nil
	}

	_, err = s.settleTransaction(ctx, tx, paymentID)
	return err
}

func (s *RazorpayService) handlePaymentFailed(ctx context.Context, payload map[string]interface{}) error {
	entity := webhookPaymentEntity(payload)
	orderID, _ := entity["order_id"].(string)
	if orderID == "" {
		return nil
	}

	reason := "payment failed"
	if desc, ok := entity["error_description"].(string); ok && desc != "" {
		reason = desc
	}

	tx, err := s.TransactionRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil
	}
	if tx.Status == models.OnlineTxStatusSuccess {
		return nil
	}
	return s.TransactionRepo.MarkFailed(ctx, tx.ID, reason)
}

// ListOwnerTransactions returns an owner's online payment history
func (s *RazorpayService) ListOwnerTransactions(ctx context.Context, ownerID int) ([]*models.OnlineTransaction, error) {
	return s.TransactionRepo.ListByOwner(ctx, ownerID)
}
