package models

import (
	"math"
	"testing"
	"time"
)

func TestComputeTotals_BreakdownPerRate(t *testing.T) {
	items, totals := ComputeTotals([]InvoiceItemInput{
		{Description: "Consultation", Quantity: 1, UnitPrice: 30, TaxRate: 7},
		{Description: "Vaccine", Quantity: 2, UnitPrice: 10, TaxRate: 7},
		{Description: "Prescription food", Quantity: 1, UnitPrice: 20, TaxRate: 3},
	})

	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if !closeTo(totals.Subtotal, 70) {
		t.Errorf("subtotal: expected 70, got %v", totals.Subtotal)
	}
	if !closeTo(totals.TaxAmount, 3.5+0.6) {
		t.Errorf("tax amount: expected 4.1, got %v", totals.TaxAmount)
	}
	if !closeTo(totals.Total, 74.1) {
		t.Errorf("total: expected 74.1, got %v", totals.Total)
	}

	seven := totals.TaxBreakdown["7%"]
	if !closeTo(seven.Base, 50) || !closeTo(seven.Tax, 3.5) {
		t.Errorf("7%% entry: expected base 50 tax 3.5, got %+v", seven)
	}
	three := totals.TaxBreakdown["3%"]
	if !closeTo(three.Base, 20) || !closeTo(three.Tax, 0.6) {
		t.Errorf("3%% entry: expected base 20 tax 0.6, got %+v", three)
	}
	if _, ok := totals.TaxBreakdown["0%"]; ok {
		t.Error("breakdown should not contain rates with no lines")
	}
}

func TestComputeLine_DerivedAmounts(t *testing.T) {
	item := ComputeLine(InvoiceItemInput{Description: "X-ray", Quantity: 2, UnitPrice: 10, TaxRate: 7})

	if !closeTo(item.NetAmount, 20) {
		t.Errorf("net: expected 20, got %v", item.NetAmount)
	}
	if !closeTo(item.TaxAmount, 1.4) {
		t.Errorf("tax: expected 1.4, got %v", item.TaxAmount)
	}
	if !closeTo(item.Total, 21.4) {
		t.Errorf("total: expected 21.4, got %v", item.Total)
	}
}

func TestDeriveStatus(t *testing.T) {
	today := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		paid     float64
		total    float64
		dueDate  *time.Time
		expected InvoiceStatus
	}{
		{"unpaid no due date", 0, 100, nil, InvoiceStatusPending},
		{"unpaid future due", 0, 100, &future, InvoiceStatusPending},
		{"unpaid past due", 0, 100, &past, InvoiceStatusOverdue},
		{"partial", 40, 100, &future, InvoiceStatusPartiallyPaid},
		{"partial past due", 40, 100, &past, InvoiceStatusOverdue},
		{"paid exactly", 100, 100, &past, InvoiceStatusPaid},
		{"paid within epsilon", 99.9995, 100, &past, InvoiceStatusPaid},
		{"due today is not overdue", 0, 100, &today, InvoiceStatusPending},
	}

	for _, tc := range cases {
		if got := DeriveStatus(tc.paid, tc.total, tc.dueDate, today); got != tc.expected {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}

func TestFormatInvoiceNumber(t *testing.T) {
	cases := []struct {
		origin   InvoiceOrigin
		year     int
		seq      int
		expected string
	}{
		{InvoiceOriginManual, 2026, 1, "FAC-2026-0001"},
		{InvoiceOriginStore, 2026, 42, "TPV-2026-0042"},
		{InvoiceOriginClinical, 2025, 12345, "HCL-2025-12345"},
		{InvoiceOrigin("bogus"), 2026, 7, "FAC-2026-0007"},
	}
	for _, tc := range cases {
		if got := FormatInvoiceNumber(tc.origin, tc.year, tc.seq); got != tc.expected {
			t.Errorf("FormatInvoiceNumber(%s, %d, %d) = %s, expected %s", tc.origin, tc.year, tc.seq, got, tc.expected)
		}
	}
}

func TestTaxRateKey(t *testing.T) {
	cases := []struct {
		rate     float64
		expected string
	}{
		{0, "0%"},
		{3, "3%"},
		{7, "7%"},
		{9.5, "9.5%"},
		{15, "15%"},
	}
	for _, tc := range cases {
		if got := TaxRateKey(tc.rate); got != tc.expected {
			t.Errorf("TaxRateKey(%v) = %s, expected %s", tc.rate, got, tc.expected)
		}
	}
}

func TestValidTaxRate(t *testing.T) {
	for _, rate := range TaxRates {
		if !ValidTaxRate(rate) {
			t.Errorf("ValidTaxRate(%v) = false, expected true", rate)
		}
	}
	for _, rate := range []float64{1, 21, -7, 9.6} {
		if ValidTaxRate(rate) {
			t.Errorf("ValidTaxRate(%v) = true, expected false", rate)
		}
	}
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < MoneyEpsilon
}
