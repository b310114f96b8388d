package models

import "time"

// PaymentMethod is the enumerated set of accepted payment methods
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodOnline   PaymentMethod = "online"
)

// ValidPaymentMethod reports whether m is an accepted method
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodOnline:
		return true
	}
	return false
}

// Payment is a payment registered against an invoice. Every payment
// mutation triggers a status reconciliation on the parent invoice.
// CreatedByUserID is nil for system-originated payments (online
// gateway settlements have no staff actor).
type Payment struct {
	ID              int           `json:"id"`
	InvoiceID       int           `json:"invoice_id"`
	PaymentDate     time.Time     `json:"payment_date"`
	Amount          float64       `json:"amount"`
	Method          PaymentMethod `json:"method"`
	Reference       string        `json:"reference"`
	Notes           string        `json:"notes"`
	CreatedByUserID *int          `json:"created_by_user_id"`
	CreatedAt       time.Time     `json:"created_at"`
}

// RegisterPaymentRequest is the form payload for creating/updating a payment
type RegisterPaymentRequest struct {
	PaymentDate string        `json:"payment_date"`
	Amount      float64       `json:"amount" validate:"gt=0"`
	Method      PaymentMethod `json:"method" validate:"required"`
	Reference   string        `json:"reference"`
	Notes       string        `json:"notes"`
}
