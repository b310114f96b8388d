package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"vet-backend/internal/models"
	"vet-backend/internal/services"
	"vet-backend/pkg/utils"
)

// maxImageSize caps product image uploads at 5 MB
const maxImageSize = 5 << 20

type ProductHandler struct {
	Service *services.ProductService
}

func NewProductHandler(s *services.ProductService) *ProductHandler {
	return &ProductHandler{Service: s}
}

// CreateProduct adds a catalog item with its variants
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.Service.CreateProduct(r.Context(), &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, product)
}

// UpdateProduct edits a catalog item
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req models.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.Service.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, product)
}

// GetProduct returns a product with its variants
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.Service.GetProduct(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, product)
}

// ListProducts returns the full catalog
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListProducts(r.Context())
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, products)
}

// StoreCatalog returns the public, store-visible catalog (unauthenticated)
func (h *ProductHandler) StoreCatalog(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListStoreCatalog(r.Context())
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, products)
}

// AddVariant adds a variant to a variable product
func (h *ProductHandler) AddVariant(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req models.CreateVariantInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	variant, err := h.Service.AddVariant(r.Context(), productID, &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, variant)
}

// UpdateVariant edits a variant's SKU, name, price or active flag
func (h *ProductHandler) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	variantID, err := pathID(r, "variant_id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid variant ID")
		return
	}

	var req struct {
		models.CreateVariantInput
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	variant, err := h.Service.UpdateVariant(r.Context(), variantID, &req.CreateVariantInput, req.Active)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, variant)
}

// UploadImage accepts a multipart image and attaches it to the product
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		utils.Error(w, http.StatusRequestEntityTooLarge, "Image exceeds 5 MB limit")
		return
	}

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
	default:
		utils.Error(w, http.StatusBadRequest, "Only JPEG, PNG and WebP images are accepted")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to read image")
		return
	}

	url, err := h.Service.UploadImage(r.Context(), productID, header.Filename, contentType, data)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, map[string]string{"url": url})
}

// DeleteImage detaches an image from the product and removes the object
func (h *ProductHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		utils.Error(w, http.StatusBadRequest, "Missing image URL")
		return
	}

	if err := h.Service.DeleteImage(r.Context(), productID, req.URL); err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "image removed"})
}
