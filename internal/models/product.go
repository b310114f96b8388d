package models

import "time"

// Product is a sellable/usable catalog item. Variable products carry
// several variants; non-variable products get a single implicit variant.
type Product struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	TaxRate      float64   `json:"tax_rate"`
	LotTracked   bool      `json:"lot_tracked"`
	IsVariable   bool      `json:"is_variable"`
	Public       bool      `json:"public"`
	StoreVisible bool      `json:"store_visible"`
	ImageURLs    []string  `json:"image_urls"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Variant is the unit at which stock and price are tracked. When the
// parent product is not lot-tracked the variant carries its own quantity;
// otherwise quantity lives on the lots.
type Variant struct {
	ID         int       `json:"id"`
	ProductID  int       `json:"product_id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Quantity   int       `json:"quantity"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProductWithVariants bundles a product with its variants for detail views
type ProductWithVariants struct {
	Product
	Variants []Variant `json:"variants"`
}

// CreateProductRequest is the form payload for creating/updating a product
type CreateProductRequest struct {
	Name         string               `json:"name" validate:"required"`
	Description  string               `json:"description"`
	TaxRate      float64              `json:"tax_rate"`
	LotTracked   bool                 `json:"lot_tracked"`
	IsVariable   bool                 `json:"is_variable"`
	Public       bool                 `json:"public"`
	StoreVisible bool                 `json:"store_visible"`
	Variants     []CreateVariantInput `json:"variants"`
}

// CreateVariantInput is one variant of a create/update product request
type CreateVariantInput struct {
	SKU   string  `json:"sku" validate:"required"`
	Name  string  `json:"name"`
	Price float64 `json:"price" validate:"gte=0"`
}

// Procedure is a billable service (consultation, surgery, vaccination)
// referenced by invoice lines.
type Procedure struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	TaxRate   float64   `json:"tax_rate"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProcedureRequest is the form payload for the procedure catalog
type CreateProcedureRequest struct {
	Name    string  `json:"name" validate:"required"`
	Price   float64 `json:"price" validate:"gte=0"`
	TaxRate float64 `json:"tax_rate"`
}
