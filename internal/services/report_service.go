package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"vet-backend/internal/models"
	"vet-backend/internal/repositories"
	"vet-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// ReportService renders invoice PDFs and billing exports
type ReportService struct {
	InvoiceRepo *repositories.InvoiceRepository
	PaymentRepo *repositories.PaymentRepository
	SettingRepo *repositories.SystemSettingRepository
}

func NewReportService(invoiceRepo *repositories.InvoiceRepository, paymentRepo *repositories.PaymentRepository, settingRepo *repositories.SystemSettingRepository) *ReportService {
	return &ReportService{
		InvoiceRepo: invoiceRepo,
		PaymentRepo: paymentRepo,
		SettingRepo: settingRepo,
	}
}

func (s *ReportService) clinicName(ctx context.Context) string {
	setting, err := s.SettingRepo.Get(ctx, "clinic_name")
	if err != nil || setting.SettingValue == "" {
		return "Veterinary Clinic"
	}
	return setting.SettingValue
}

// GenerateInvoicePDF renders a printable invoice with lines, the per-rate
// tax breakdown and the payment state.
func (s *ReportService) GenerateInvoicePDF(ctx context.Context, invoiceID int) ([]byte, error) {
	data, err := s.InvoiceRepo.GetWithDetails(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	payments, err := s.PaymentRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, s.clinicName(ctx), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(190, 8, fmt.Sprintf("Invoice %s", data.InvoiceNumber), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Issued: %s", data.IssueDate.Format("02-Jan-2006")), "", 1, "C", false, 0, "")
	if data.Status == models.InvoiceStatusDraft || data.Status == models.InvoiceStatusVoid {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(190, 6, fmt.Sprintf("*** %s ***", data.Status), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	// Billing info box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Billed To", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Owner: %s", data.OwnerName), "LB", 0, "L", false, 0, "")
	if data.PatientName != "" {
		pdf.CellFormat(95, 7, fmt.Sprintf("Patient: %s", data.PatientName), "RB", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(95, 7, "", "RB", 1, "L", false, 0, "")
	}
	if data.DueDate != nil {
		pdf.CellFormat(190, 7, fmt.Sprintf("Due: %s", data.DueDate.Format("02-Jan-2006")), "LRB", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Lines table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(75, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(18, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(26, 7, "Unit Price", "1", 0, "C", true, 0, "")
	pdf.CellFormat(18, 7, "IGIC", "1", 0, "C", true, 0, "")
	pdf.CellFormat(26, 7, "Net", "1", 0, "C", true, 0, "")
	pdf.CellFormat(27, 7, "Total", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range data.Items {
		desc := item.Description
		if len(desc) > 42 {
			desc = desc[:39] + "..."
		}
		pdf.CellFormat(75, 6, desc, "1", 0, "L", false, 0, "")
		pdf.CellFormat(18, 6, strconv.FormatFloat(item.Quantity, 'f', -1, 64), "1", 0, "C", false, 0, "")
		pdf.CellFormat(26, 6, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(18, 6, models.TaxRateKey(item.TaxRate), "1", 0, "C", false, 0, "")
		pdf.CellFormat(26, 6, fmt.Sprintf("%.2f", item.NetAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(27, 6, fmt.Sprintf("%.2f", item.Total), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Tax breakdown
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(190, 8, "Tax Breakdown", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(64, 7, "Rate", "1", 0, "C", true, 0, "")
	pdf.CellFormat(63, 7, "Base", "1", 0, "C", true, 0, "")
	pdf.CellFormat(63, 7, "Tax", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, rate := range models.TaxRates {
		key := models.TaxRateKey(rate)
		entry, ok := data.TaxBreakdown[key]
		if !ok {
			continue
		}
		pdf.CellFormat(64, 6, key, "1", 0, "C", false, 0, "")
		pdf.CellFormat(63, 6, fmt.Sprintf("%.2f", entry.Base), "1", 0, "R", false, 0, "")
		pdf.CellFormat(63, 6, fmt.Sprintf("%.2f", entry.Tax), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(63, 8, fmt.Sprintf("Subtotal: %.2f", data.Subtotal), "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 8, fmt.Sprintf("Tax: %.2f", data.TaxAmount), "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 8, fmt.Sprintf("Total: %.2f", data.Total), "1", 1, "C", false, 0, "")

	outstanding := data.Total - data.PaidAmount
	if outstanding > models.MoneyEpsilon {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	balanceText := fmt.Sprintf("Balance Due: %.2f", outstanding)
	if outstanding <= models.MoneyEpsilon {
		balanceText = "FULLY PAID"
	}
	pdf.CellFormat(190, 10, balanceText, "1", 1, "C", true, 0, "")

	// Payment history
	if len(payments) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(190, 8, "Payments", "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(45, 7, "Date", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 7, "Method", "1", 0, "C", true, 0, "")
		pdf.CellFormat(50, 7, "Amount", "1", 0, "C", true, 0, "")
		pdf.CellFormat(50, 7, "Reference", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, p := range payments {
			pdf.CellFormat(45, 6, p.PaymentDate.Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
			pdf.CellFormat(45, 6, string(p.Method), "1", 0, "C", false, 0, "")
			pdf.CellFormat(50, 6, fmt.Sprintf("%.2f", p.Amount), "1", 0, "R", false, 0, "")
			ref := p.Reference
			if len(ref) > 22 {
				ref = ref[:19] + "..."
			}
			pdf.CellFormat(50, 6, ref, "1", 1, "L", false, 0, "")
		}
	}

	if data.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 10)
		pdf.MultiCell(190, 5, data.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportInvoicesCSV exports invoice headers issued in [from, to] as CSV
// for the bookkeeper.
func (s *ReportService) ExportInvoicesCSV(ctx context.Context, from, to time.Time) ([]byte, error) {
	invoices, err := s.InvoiceRepo.List(ctx, "")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"invoice_number", "origin", "issue_date", "due_date", "status", "subtotal", "tax_amount", "total"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	fromDay := timeutil.StartOfDay(from)
	toDay := timeutil.EndOfDay(to)
	for _, inv := range invoices {
		if inv.IssueDate.Before(fromDay) || inv.IssueDate.After(toDay) {
			continue
		}
		due := ""
		if inv.DueDate != nil {
			due = inv.DueDate.Format(timeutil.DateLayout)
		}
		row := []string{
			inv.InvoiceNumber,
			string(inv.Origin),
			inv.IssueDate.Format(timeutil.DateLayout),
			due,
			string(inv.Status),
			fmt.Sprintf("%.2f", inv.Subtotal),
			fmt.Sprintf("%.2f", inv.TaxAmount),
			fmt.Sprintf("%.2f", inv.Total),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
