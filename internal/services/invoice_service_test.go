package services

import (
	"testing"

	"vet-backend/internal/models"
)

func TestVoidOutcome(t *testing.T) {
	cases := []struct {
		status      models.InvoiceStatus
		alreadyVoid bool
		wantErr     bool
	}{
		{models.InvoiceStatusDraft, false, true},
		{models.InvoiceStatusPending, false, false},
		{models.InvoiceStatusPartiallyPaid, false, false},
		{models.InvoiceStatusPaid, false, false},
		{models.InvoiceStatusOverdue, false, false},
		{models.InvoiceStatusVoid, true, false},
	}

	for _, tc := range cases {
		alreadyVoid, err := voidOutcome(tc.status)
		if (err != nil) != tc.wantErr {
			t.Errorf("voidOutcome(%s): unexpected error state: %v", tc.status, err)
			continue
		}
		if alreadyVoid != tc.alreadyVoid {
			t.Errorf("voidOutcome(%s): alreadyVoid = %v, expected %v", tc.status, alreadyVoid, tc.alreadyVoid)
		}
		if tc.wantErr {
			if _, ok := err.(*StateError); !ok {
				t.Errorf("voidOutcome(%s): expected a state error, got %T", tc.status, err)
			}
		}
	}
}

func TestVoidOutcome_PaidInvoicesVoidable(t *testing.T) {
	// A fully or partially paid invoice can still be voided; only the
	// draft status is blocked.
	for _, status := range []models.InvoiceStatus{models.InvoiceStatusPaid, models.InvoiceStatusPartiallyPaid} {
		alreadyVoid, err := voidOutcome(status)
		if err != nil {
			t.Errorf("voidOutcome(%s): unexpected error: %v", status, err)
		}
		if alreadyVoid {
			t.Errorf("voidOutcome(%s): should not report already void", status)
		}
	}
}

func TestRenamedNumber(t *testing.T) {
	cases := []struct {
		current   string
		requested string
		expected  string
		changed   bool
	}{
		{"FAC-2026-0001", "", "FAC-2026-0001", false},
		{"FAC-2026-0001", "FAC-2026-0001", "FAC-2026-0001", false},
		{"FAC-2026-0001", "FAC-2026-0099", "FAC-2026-0099", true},
	}

	for _, tc := range cases {
		number, changed := renamedNumber(tc.current, tc.requested)
		if number != tc.expected || changed != tc.changed {
			t.Errorf("renamedNumber(%q, %q) = (%q, %v), expected (%q, %v)",
				tc.current, tc.requested, number, changed, tc.expected, tc.changed)
		}
	}
}

func TestStaffActor(t *testing.T) {
	if ref := staffActor(0); ref != nil {
		t.Errorf("expected no actor for the system user, got %v", *ref)
	}
	if ref := staffActor(7); ref == nil || *ref != 7 {
		t.Errorf("expected actor 7, got %v", ref)
	}
}

func TestPaymentPrecondition(t *testing.T) {
	s := &InvoiceService{}

	cases := []struct {
		status  models.InvoiceStatus
		allowed bool
	}{
		{models.InvoiceStatusDraft, false},
		{models.InvoiceStatusVoid, false},
		{models.InvoiceStatusPaid, false},
		{models.InvoiceStatusPending, true},
		{models.InvoiceStatusPartiallyPaid, true},
		{models.InvoiceStatusOverdue, true},
	}

	for _, tc := range cases {
		err := s.paymentPrecondition(&models.Invoice{Status: tc.status})
		if tc.allowed && err != nil {
			t.Errorf("status %s: expected payments allowed, got %v", tc.status, err)
		}
		if !tc.allowed && err == nil {
			t.Errorf("status %s: expected payments rejected", tc.status)
		}
	}
}
