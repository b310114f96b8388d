package models

import "testing"

func TestMovementTypeDirection(t *testing.T) {
	inbound := []MovementType{MovementPurchaseIn, MovementAdjustmentIn, MovementReturnIn}
	outbound := []MovementType{
		MovementSaleOut, MovementOnlineSaleOut, MovementInternalUseOut,
		MovementAdjustmentOut, MovementSupplierReturnOut, MovementTransfer,
	}

	for _, mt := range inbound {
		if !mt.IsInbound() {
			t.Errorf("%s should be inbound", mt)
		}
		if got := mt.Delta(5); got != 5 {
			t.Errorf("%s.Delta(5) = %d, expected 5", mt, got)
		}
	}
	for _, mt := range outbound {
		if mt.IsInbound() {
			t.Errorf("%s should be outbound", mt)
		}
		if got := mt.Delta(5); got != -5 {
			t.Errorf("%s.Delta(5) = %d, expected -5", mt, got)
		}
	}
}

func TestMovementTypeReversal(t *testing.T) {
	if got := MovementPurchaseIn.Reversal(); got != MovementAdjustmentOut {
		t.Errorf("reversal of inbound = %s, expected %s", got, MovementAdjustmentOut)
	}
	if got := MovementInternalUseOut.Reversal(); got != MovementAdjustmentIn {
		t.Errorf("reversal of outbound = %s, expected %s", got, MovementAdjustmentIn)
	}
}

func TestValidMovementType(t *testing.T) {
	if !ValidMovementType(MovementSaleOut) {
		t.Error("sale_out should be valid")
	}
	if ValidMovementType("teleport") {
		t.Error("unknown type should be invalid")
	}
}

func TestAdjustmentForEdit(t *testing.T) {
	cases := []struct {
		name     string
		oldQty   int
		newQty   int
		mt       MovementType
		quantity int
		ok       bool
	}{
		{"increase", 5, 12, MovementAdjustmentIn, 7, true},
		{"decrease", 5, 2, MovementAdjustmentOut, 3, true},
		{"unchanged", 5, 5, "", 0, false},
		{"to zero", 5, 0, MovementAdjustmentOut, 5, true},
	}

	for _, tc := range cases {
		mt, qty, ok := AdjustmentForEdit(tc.oldQty, tc.newQty)
		if ok != tc.ok || mt != tc.mt || qty != tc.quantity {
			t.Errorf("%s: AdjustmentForEdit(%d, %d) = (%s, %d, %v), expected (%s, %d, %v)",
				tc.name, tc.oldQty, tc.newQty, mt, qty, ok, tc.mt, tc.quantity, tc.ok)
		}
	}
}
