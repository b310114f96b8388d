package services

import (
	"errors"
	"testing"

	"vet-backend/internal/repositories"
)

func TestMapLotError(t *testing.T) {
	dup := &repositories.DuplicateLotNumberError{LotNumber: "L-2026-01"}
	err := mapLotError(dup)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %T", err)
	}
	msgs := verr.Fields["lot_number"]
	if len(msgs) != 1 {
		t.Fatalf("expected one lot_number message, got %v", verr.Fields)
	}

	other := errors.New("connection reset")
	if got := mapLotError(other); got != other {
		t.Errorf("unrelated errors must pass through, got %v", got)
	}
	if got := mapLotError(nil); got != nil {
		t.Errorf("nil must pass through, got %v", got)
	}
}
