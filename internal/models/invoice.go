package models

import (
	"fmt"
	"time"

	"vet-backend/internal/timeutil"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusPending       InvoiceStatus = "pending"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusVoid          InvoiceStatus = "void"
)

// InvoiceOrigin distinguishes how an invoice was created; it selects the
// numbering prefix.
type InvoiceOrigin string

const (
	InvoiceOriginManual   InvoiceOrigin = "manual"
	InvoiceOriginStore    InvoiceOrigin = "store"
	InvoiceOriginClinical InvoiceOrigin = "clinical"
)

// MoneyEpsilon is the tolerance used for all currency comparisons
const MoneyEpsilon = 0.001

// TaxRates is the fixed set of valid tax rates (IGIC)
var TaxRates = []float64{0, 3, 7, 9.5, 15}

// ValidTaxRate reports whether rate is one of the enumerated tax rates
func ValidTaxRate(rate float64) bool {
	for _, r := range TaxRates {
		if r == rate {
			return true
		}
	}
	return false
}

// OriginPrefix returns the invoice-number prefix for an origin.
// Unknown origins fall back to the manual prefix.
func OriginPrefix(origin InvoiceOrigin) string {
	switch origin {
	case InvoiceOriginStore:
		return "TPV"
	case InvoiceOriginClinical:
		return "HCL"
	default:
		return "FAC"
	}
}

// FormatInvoiceNumber builds "<PREFIX>-<YEAR>-<NNNN>"
func FormatInvoiceNumber(origin InvoiceOrigin, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", OriginPrefix(origin), year, seq)
}

// TaxBreakdownEntry accumulates base and tax per tax rate
type TaxBreakdownEntry struct {
	Base float64 `json:"base"`
	Tax  float64 `json:"tax"`
}

// Invoice is the billing header. Subtotal, tax amount, total and the
// breakdown are always recomputed from the line items, never entered
// directly.
type Invoice struct {
	ID               int                          `json:"id"`
	InvoiceNumber    string                       `json:"invoice_number"`
	Origin           InvoiceOrigin                `json:"origin"`
	OwnerID          int                          `json:"owner_id"`
	PatientID        *int                         `json:"patient_id"`
	ClinicalRecordID *int                         `json:"clinical_record_id"`
	IssueDate        time.Time                    `json:"issue_date"`
	DueDate          *time.Time                   `json:"due_date"`
	Status           InvoiceStatus                `json:"status"`
	Subtotal         float64                      `json:"subtotal"`
	TaxAmount        float64                      `json:"tax_amount"`
	Total            float64                      `json:"total"`
	TaxBreakdown     map[string]TaxBreakdownEntry `json:"tax_breakdown"`
	Notes            string                       `json:"notes"`
	InternalNotes    string                       `json:"internal_notes"`
	CreatedByUserID  int                          `json:"created_by_user_id"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

// InvoiceItem is a single invoice line. Net, tax and total are derived
// from quantity, unit price and tax rate.
type InvoiceItem struct {
	ID          int     `json:"id"`
	InvoiceID   int     `json:"invoice_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TaxRate     float64 `json:"tax_rate"`
	NetAmount   float64 `json:"net_amount"`
	TaxAmount   float64 `json:"tax_amount"`
	Total       float64 `json:"total"`
	ProcedureID *int    `json:"procedure_id"`
	ProductID   *int    `json:"product_id"`
}

// InvoiceItemInput is a line as submitted by the form layer
type InvoiceItemInput struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	TaxRate     float64 `json:"tax_rate"`
	ProcedureID *int    `json:"procedure_id"`
	ProductID   *int    `json:"product_id"`
}

// CreateInvoiceRequest is used for invoice create and (while draft) update.
// InvoiceNumber is honored only on update; create always allocates the
// next sequential number for the year and origin.
type CreateInvoiceRequest struct {
	InvoiceNumber string             `json:"invoice_number"`
	OwnerID       int                `json:"owner_id" validate:"required"`
	PatientID     *int               `json:"patient_id"`
	Origin        InvoiceOrigin      `json:"origin"`
	IssueDate     string             `json:"issue_date"`
	DueDate       string             `json:"due_date"`
	Notes         string             `json:"notes"`
	InternalNotes string             `json:"internal_notes"`
	Items         []InvoiceItemInput `json:"items" validate:"required,min=1,dive"`
}

// InvoiceWithDetails includes owner/patient names and the lines
type InvoiceWithDetails struct {
	Invoice
	OwnerName   string        `json:"owner_name"`
	PatientName string        `json:"patient_name"`
	Items       []InvoiceItem `json:"items"`
	PaidAmount  float64       `json:"paid_amount"`
}

// InvoiceTotals is the aggregate of a computed line set
type InvoiceTotals struct {
	Subtotal     float64
	TaxAmount    float64
	Total        float64
	TaxBreakdown map[string]TaxBreakdownEntry
}

// ComputeLine fills the derived amounts of a line:
// net = qty * price, tax = net * rate/100, total = net + tax.
func ComputeLine(in InvoiceItemInput) InvoiceItem {
	net := in.Quantity * in.UnitPrice
	tax := net * in.TaxRate / 100

	return InvoiceItem{
		Description: in.Description,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		TaxRate:     in.TaxRate,
		NetAmount:   net,
		TaxAmount:   tax,
		Total:       net + tax,
		ProcedureID: in.ProcedureID,
		ProductID:   in.ProductID,
	}
}

// ComputeTotals computes all lines and aggregates subtotal, tax amount,
// total and the per-rate breakdown.
func ComputeTotals(inputs []InvoiceItemInput) ([]InvoiceItem, InvoiceTotals) {
	items := make([]InvoiceItem, 0, len(inputs))
	totals := InvoiceTotals{
		TaxBreakdown: make(map[string]TaxBreakdownEntry),
	}

	for _, in := range inputs {
		item := ComputeLine(in)
		items = append(items, item)

		totals.Subtotal += item.NetAmount
		totals.TaxAmount += item.TaxAmount

		key := TaxRateKey(item.TaxRate)
		entry := totals.TaxBreakdown[key]
		entry.Base += item.NetAmount
		entry.Tax += item.TaxAmount
		totals.TaxBreakdown[key] = entry
	}

	totals.Total = totals.Subtotal + totals.TaxAmount
	return items, totals
}

// TaxRateKey formats a rate as the breakdown map key ("7%", "9.5%")
func TaxRateKey(rate float64) string {
	if rate == float64(int(rate)) {
		return fmt.Sprintf("%d%%", int(rate))
	}
	return fmt.Sprintf("%g%%", rate)
}

// DeriveStatus computes the status of a non-draft, non-void invoice from
// its payment sum, total and due date. A fully paid invoice is never
// overdue; an unpaid or partially paid invoice past its due date always is.
func DeriveStatus(paidSum, total float64, dueDate *time.Time, today time.Time) InvoiceStatus {
	var status InvoiceStatus
	switch {
	case paidSum >= total-MoneyEpsilon:
		status = InvoiceStatusPaid
	case paidSum > 0:
		status = InvoiceStatusPartiallyPaid
	default:
		status = InvoiceStatusPending
	}

	if status != InvoiceStatusPaid && dueDate != nil {
		due := timeutil.StartOfDay(*dueDate)
		if due.Before(timeutil.StartOfDay(today)) {
			status = InvoiceStatusOverdue
		}
	}

	return status
}
