package models

import "time"

// Lot is a dated batch of a variant's stock. Quantity on hand never goes
// below zero; deactivation hides the lot from available-stock sums without
// touching its movement history.
type Lot struct {
	ID         int        `json:"id"`
	VariantID  int        `json:"variant_id"`
	LotNumber  string     `json:"lot_number"`
	Quantity   int        `json:"quantity"`
	EntryDate  time.Time  `json:"entry_date"`
	ExpiryDate *time.Time `json:"expiry_date"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RegisterLotRequest creates a new lot for a non-variable product
type RegisterLotRequest struct {
	ProductID  int    `json:"product_id" validate:"required"`
	LotNumber  string `json:"lot_number" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
	EntryDate  string `json:"entry_date"`
	ExpiryDate string `json:"expiry_date"`
}

// AddStockRequest tops up a lot-tracked variant without the full new-lot
// workflow: an existing lot number is incremented in place, a new one is
// created.
type AddStockRequest struct {
	VariantID  int    `json:"variant_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
	LotNumber  string `json:"lot_number"`
	EntryDate  string `json:"entry_date"`
	ExpiryDate string `json:"expiry_date"`
}

// EditLotRequest edits lot fields; a quantity change is logged as an
// adjustment movement.
type EditLotRequest struct {
	LotNumber  string `json:"lot_number" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gte=0"`
	EntryDate  string `json:"entry_date"`
	ExpiryDate string `json:"expiry_date"`
}
