package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"vet-backend/internal/cache"
	"vet-backend/internal/models"
	"vet-backend/internal/repositories"
	"vet-backend/internal/storage"
	"vet-backend/internal/validation"

	"github.com/jackc/pgx/v5"
)

type ProductService struct {
	ProductRepo *repositories.ProductRepository
	Media       *storage.MediaStore
}

func NewProductService(productRepo *repositories.ProductRepository, media *storage.MediaStore) *ProductService {
	return &ProductService{ProductRepo: productRepo, Media: media}
}

// CreateProduct validates and creates a product with its variants. A
// non-variable product gets one implicit variant carrying price and SKU.
func (s *ProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	if !models.ValidTaxRate(req.TaxRate) {
		return nil, NewFieldError("tax_rate", "must be one of the accepted IGIC rates")
	}
	if req.IsVariable && len(req.Variants) == 0 {
		return nil, NewFieldError("variants", "variable products need at least one variant")
	}
	if !req.IsVariable && len(req.Variants) > 1 {
		return nil, NewFieldError("variants", "non-variable products have a single variant")
	}

	for _, v := range req.Variants {
		taken, err := s.ProductRepo.ExistsSKU(ctx, v.SKU, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, NewFieldError("sku", "SKU "+v.SKU+" is already in use")
		}
	}

	product := &models.Product{
		Name:         req.Name,
		Description:  req.Description,
		TaxRate:      req.TaxRate,
		LotTracked:   req.LotTracked,
		IsVariable:   req.IsVariable,
		Public:       req.Public,
		StoreVisible: req.StoreVisible,
		ImageURLs:    []string{},
	}

	variants := make([]models.Variant, 0, len(req.Variants))
	for _, in := range req.Variants {
		variants = append(variants, models.Variant{SKU: in.SKU, Name: in.Name, Price: in.Price})
	}
	if len(variants) == 0 {
		// Implicit variant for a simple product; the SKU mirrors the name
		variants = append(variants, models.Variant{SKU: req.Name, Name: req.Name})
	}

	if err := s.ProductRepo.CreateWithVariants(ctx, product, variants); err != nil {
		return nil, err
	}

	cache.InvalidateProductCaches(ctx)
	log.Printf("[Product] Created %q (id=%d, variants=%d)", product.Name, product.ID, len(variants))
	return product, nil
}

// UpdateProduct rewrites the product header
func (s *ProductService) UpdateProduct(ctx context.Context, id int, req *models.CreateProductRequest) (*models.Product, error) {
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	if !models.ValidTaxRate(req.TaxRate) {
		return nil, NewFieldError("tax_rate", "must be one of the accepted IGIC rates")
	}

	product.Name = req.Name
	product.Description = req.Description
	product.TaxRate = req.TaxRate
	product.LotTracked = req.LotTracked
	product.IsVariable = req.IsVariable
	product.Public = req.Public
	product.StoreVisible = req.StoreVisible

	if err := s.ProductRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	cache.InvalidateProductCaches(ctx)
	return product, nil
}

// GetProduct returns a product with its variants
func (s *ProductService) GetProduct(ctx context.Context, id int) (*models.ProductWithVariants, error) {
	product, err := s.ProductRepo.GetWithVariants(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

// ListProducts returns the full catalog for staff views
func (s *ProductService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.ProductRepo.List(ctx, false)
}

// ListStoreCatalog returns the public store listing, cached for 5 minutes
func (s *ProductService) ListStoreCatalog(ctx context.Context) ([]*models.Product, error) {
	if data, ok := cache.GetCached(ctx, "store:catalog"); ok {
		var products []*models.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
	}

	products, err := s.ProductRepo.List(ctx, true)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(products); err == nil {
		cache.SetCached(ctx, "store:catalog", data, 5*time.Minute)
	}
	return products, nil
}

// AddVariant creates an extra variant on a variable product
func (s *ProductService) AddVariant(ctx context.Context, productID int, req *models.CreateVariantInput) (*models.Variant, error) {
	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsVariable {
		return nil, NewStateError("product %q is not variable", product.Name)
	}

	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	taken, err := s.ProductRepo.ExistsSKU(ctx, req.SKU, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewFieldError("sku", "SKU is already in use")
	}

	variant := &models.Variant{ProductID: productID, SKU: req.SKU, Name: req.Name, Price: req.Price}
	if err := s.ProductRepo.CreateVariant(ctx, variant); err != nil {
		return nil, err
	}
	cache.InvalidateProductCaches(ctx)
	return variant, nil
}

// UpdateVariant rewrites a variant's descriptive fields; quantity only
// moves through the stock ledger.
func (s *ProductService) UpdateVariant(ctx context.Context, variantID int, req *models.CreateVariantInput, active bool) (*models.Variant, error) {
	variant, err := s.ProductRepo.GetVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if fields := validation.Struct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	taken, err := s.ProductRepo.ExistsSKU(ctx, req.SKU, variantID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewFieldError("sku", "SKU is already in use")
	}

	variant.SKU = req.SKU
	variant.Name = req.Name
	variant.Price = req.Price
	variant.Active = active

	if err := s.ProductRepo.UpdateVariant(ctx, variant); err != nil {
		return nil, err
	}
	cache.InvalidateProductCaches(ctx)
	return variant, nil
}

// UploadImage stores a product image and appends its URL to the product
func (s *ProductService) UploadImage(ctx context.Context, productID int, filename, contentType string, data []byte) (string, error) {
	if s.Media == nil {
		return "", NewStateError("media storage is not configured")
	}

	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return "", err
	}

	url, err := s.Media.UploadProductImage(ctx, productID, filename, contentType, data)
	if err != nil {
		return "", err
	}

	urls := append(product.ImageURLs, url)
	if err := s.ProductRepo.UpdateImages(ctx, productID, urls); err != nil {
		// Orphaned object; remove it so the bucket stays consistent
		if delErr := s.Media.DeleteObject(ctx, url); delErr != nil {
			log.Printf("[Product] Failed to remove orphaned image %s: %v", url, delErr)
		}
		return "", err
	}

	cache.InvalidateProductCaches(ctx)
	return url, nil
}

// DeleteImage removes an image URL from the product and the bucket
func (s *ProductService) DeleteImage(ctx context.Context, productID int, url string) error {
	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return err
	}

	urls := make([]string, 0, len(product.ImageURLs))
	found := false
	for _, u := range product.ImageURLs {
		if u == url {
			found = true
			continue
		}
		urls = append(urls, u)
	}
	if !found {
		return ErrNotFound
	}

	if err := s.ProductRepo.UpdateImages(ctx, productID, urls); err != nil {
		return err
	}
	if s.Media != nil {
		if err := s.Media.DeleteObject(ctx, url); err != nil {
			log.Printf("[Product] Failed to delete image object %s: %v", url, err)
		}
	}

	cache.InvalidateProductCaches(ctx)
	return nil
}

func (s *ProductService) getProduct(ctx context.Context, id int) (*models.Product, error) {
	product, err := s.ProductRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return product, nil
}
