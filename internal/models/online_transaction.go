package models

import "time"

// OnlineTxStatus is the state of an online payment attempt
type OnlineTxStatus string

const (
	OnlineTxStatusCreated OnlineTxStatus = "created"
	OnlineTxStatusSuccess OnlineTxStatus = "success"
	OnlineTxStatusFailed  OnlineTxStatus = "failed"
)

// OnlineTransaction links a Razorpay order to an invoice payment
type OnlineTransaction struct {
	ID                int            `json:"id"`
	RazorpayOrderID   string         `json:"razorpay_order_id"`
	RazorpayPaymentID string         `json:"razorpay_payment_id"`
	OwnerID           int            `json:"owner_id"`
	InvoiceID         int            `json:"invoice_id"`
	Amount            float64        `json:"amount"`
	FeeAmount         float64        `json:"fee_amount"`
	TotalAmount       float64        `json:"total_amount"`
	Status            OnlineTxStatus `json:"status"`
	FailureReason     string         `json:"failure_reason"`
	PaymentID         *int           `json:"payment_id"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// CreateOnlinePaymentRequest starts an online payment for an invoice
type CreateOnlinePaymentRequest struct {
	InvoiceID int     `json:"invoice_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"gt=0"`
}

// CreateOrderResponse is returned to the portal checkout widget
type CreateOrderResponse struct {
	OrderID     string  `json:"order_id"`
	Amount      int     `json:"amount"`       // paise/cents
	FeeAmount   int     `json:"fee_amount"`   // paise/cents
	TotalAmount int     `json:"total_amount"` // paise/cents
	Currency    string  `json:"currency"`
	KeyID       string  `json:"key_id"`
	FeePercent  float64 `json:"fee_percent"`
}

// VerifyPaymentRequest carries the checkout callback fields
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// PaymentStatusResponse tells the portal whether online payment is available
type PaymentStatusResponse struct {
	Enabled    bool    `json:"enabled"`
	FeePercent float64 `json:"fee_percent"`
	KeyID      string  `json:"key_id"`
}
