package models

import "time"

// MovementType classifies a stock movement. Quantity is always stored
// positive; the type implies the direction.
type MovementType string

const (
	MovementPurchaseIn        MovementType = "purchase_in"
	MovementSaleOut           MovementType = "sale_out"
	MovementOnlineSaleOut     MovementType = "online_sale_out"
	MovementInternalUseOut    MovementType = "internal_use_out"
	MovementAdjustmentIn      MovementType = "adjustment_in"
	MovementAdjustmentOut     MovementType = "adjustment_out"
	MovementReturnIn          MovementType = "return_in"
	MovementSupplierReturnOut MovementType = "supplier_return_out"
	MovementTransfer          MovementType = "transfer"
)

// ValidMovementType reports whether t is a known movement type
func ValidMovementType(t MovementType) bool {
	switch t {
	case MovementPurchaseIn, MovementSaleOut, MovementOnlineSaleOut,
		MovementInternalUseOut, MovementAdjustmentIn, MovementAdjustmentOut,
		MovementReturnIn, MovementSupplierReturnOut, MovementTransfer:
		return true
	}
	return false
}

// IsInbound reports whether the movement type adds stock
func (t MovementType) IsInbound() bool {
	switch t {
	case MovementPurchaseIn, MovementAdjustmentIn, MovementReturnIn:
		return true
	}
	return false
}

// Delta returns the signed stock change for a movement of the given
// positive quantity.
func (t MovementType) Delta(quantity int) int {
	if t.IsInbound() {
		return quantity
	}
	return -quantity
}

// Reversal returns the movement type that compensates t
func (t MovementType) Reversal() MovementType {
	if t.IsInbound() {
		return MovementAdjustmentOut
	}
	return MovementAdjustmentIn
}

// Movement is an immutable stock ledger entry. Movements are never updated
// or deleted; corrections are compensating movements.
type Movement struct {
	ID               int          `json:"id"`
	VariantID        int          `json:"variant_id"`
	LotID            *int         `json:"lot_id"`
	Type             MovementType `json:"type"`
	Quantity         int          `json:"quantity"`
	ClinicalRecordID *int         `json:"clinical_record_id"`
	Notes            string       `json:"notes"`
	CreatedByUserID  int          `json:"created_by_user_id"`
	CreatedAt        time.Time    `json:"created_at"`
}

// RecordMovementRequest is the form payload for a manual stock movement
type RecordMovementRequest struct {
	VariantID int          `json:"variant_id" validate:"required"`
	LotID     *int         `json:"lot_id"`
	Type      MovementType `json:"type" validate:"required"`
	Quantity  int          `json:"quantity" validate:"gt=0"`
	Notes     string       `json:"notes"`
}

// AdjustmentForEdit returns the compensating movement for a direct quantity
// overwrite (manual lot correction): the delta new-old is logged as an
// adjustment movement so the audit trail stays complete. Returns ok=false
// when nothing changed.
func AdjustmentForEdit(oldQty, newQty int) (MovementType, int, bool) {
	switch {
	case newQty > oldQty:
		return MovementAdjustmentIn, newQty - oldQty, true
	case newQty < oldQty:
		return MovementAdjustmentOut, oldQty - newQty, true
	default:
		return "", 0, false
	}
}
