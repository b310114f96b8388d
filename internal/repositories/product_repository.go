package repositories

import (
	"context"

	"vet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository struct {
	DB *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{DB: db}
}

// CreateWithVariants inserts a product and its variants in one
// transaction. A non-variable product gets a single implicit variant so
// stock and pricing always hang off a variant row.
func (r *ProductRepository) CreateWithVariants(ctx context.Context, product *models.Product, variants []models.Variant) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO products(name, description, tax_rate, lot_tracked, is_variable, public, store_visible, image_urls)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		product.Name, product.Description, product.TaxRate, product.LotTracked,
		product.IsVariable, product.Public, product.StoreVisible, product.ImageURLs,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range variants {
		v := &variants[i]
		v.ProductID = product.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO variants(product_id, sku, name, price, quantity, active)
			 VALUES($1, $2, $3, $4, $5, true)
			 RETURNING id, created_at`,
			v.ProductID, v.SKU, v.Name, v.Price, v.Quantity,
		).Scan(&v.ID, &v.CreatedAt)
		if err != nil {
			return err
		}
		v.Active = true
	}

	return tx.Commit(ctx)
}

// Update rewrites the product header fields
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE products SET name = $1, description = $2, tax_rate = $3, lot_tracked = $4,
		        is_variable = $5, public = $6, store_visible = $7, updated_at = NOW()
		 WHERE id = $8`,
		product.Name, product.Description, product.TaxRate, product.LotTracked,
		product.IsVariable, product.Public, product.StoreVisible, product.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateImages replaces the product's image URL list
func (r *ProductRepository) UpdateImages(ctx context.Context, productID int, urls []string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE products SET image_urls = $1, updated_at = NOW() WHERE id = $2`, urls, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Get retrieves a product by ID
func (r *ProductRepository) Get(ctx context.Context, id int) (*models.Product, error) {
	var p models.Product
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, description, tax_rate, lot_tracked, is_variable, public,
		        store_visible, image_urls, created_at, updated_at
		 FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.TaxRate, &p.LotTracked, &p.IsVariable,
		&p.Public, &p.StoreVisible, &p.ImageURLs, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetWithVariants retrieves a product and all its variants
func (r *ProductRepository) GetWithVariants(ctx context.Context, id int) (*models.ProductWithVariants, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	variants, err := r.ListVariants(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &models.ProductWithVariants{Product: *p}
	for _, v := range variants {
		result.Variants = append(result.Variants, *v)
	}
	return result, nil
}

// List returns the product catalog, optionally public-only for the store
func (r *ProductRepository) List(ctx context.Context, publicOnly bool) ([]*models.Product, error) {
	query := `SELECT id, name, description, tax_rate, lot_tracked, is_variable, public,
	                 store_visible, image_urls, created_at, updated_at
	          FROM products`
	if publicOnly {
		query += ` WHERE public = true AND store_visible = true`
	}
	query += ` ORDER BY name`

	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		var p models.Product
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.TaxRate, &p.LotTracked,
			&p.IsVariable, &p.Public, &p.StoreVisible, &p.ImageURLs, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, nil
}

// GetVariant retrieves a variant by ID
func (r *ProductRepository) GetVariant(ctx context.Context, id int) (*models.Variant, error) {
	var v models.Variant
	err := r.DB.QueryRow(ctx,
		`SELECT id, product_id, sku, name, price, quantity, active, created_at
		 FROM variants WHERE id = $1`, id,
	).Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Price, &v.Quantity, &v.Active, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DefaultVariant returns the implicit variant of a non-variable product
func (r *ProductRepository) DefaultVariant(ctx context.Context, productID int) (*models.Variant, error) {
	var v models.Variant
	err := r.DB.QueryRow(ctx,
		`SELECT id, product_id, sku, name, price, quantity, active, created_at
		 FROM variants WHERE product_id = $1 AND active = true
		 ORDER BY id LIMIT 1`, productID,
	).Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Price, &v.Quantity, &v.Active, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVariants returns the variants of a product
func (r *ProductRepository) ListVariants(ctx context.Context, productID int) ([]*models.Variant, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, product_id, sku, name, price, quantity, active, created_at
		 FROM variants WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []*models.Variant
	for rows.Next() {
		var v models.Variant
		err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Price, &v.Quantity,
			&v.Active, &v.CreatedAt)
		if err != nil {
			return nil, err
		}
		variants = append(variants, &v)
	}
	return variants, nil
}

// CreateVariant adds a variant to an existing product
func (r *ProductRepository) CreateVariant(ctx context.Context, v *models.Variant) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO variants(product_id, sku, name, price, quantity, active)
		 VALUES($1, $2, $3, $4, $5, true)
		 RETURNING id, created_at`,
		v.ProductID, v.SKU, v.Name, v.Price, v.Quantity,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return err
	}
	v.Active = true
	return nil
}

// UpdateVariant rewrites a variant's descriptive fields. Quantity is not
// touched here; it only moves through the stock ledger.
func (r *ProductRepository) UpdateVariant(ctx context.Context, v *models.Variant) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE variants SET sku = $1, name = $2, price = $3, active = $4 WHERE id = $5`,
		v.SKU, v.Name, v.Price, v.Active, v.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ExistsSKU reports whether a SKU is taken by another variant
func (r *ProductRepository) ExistsSKU(ctx context.Context, sku string, excludeID int) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM variants WHERE sku = $1 AND id <> $2)`,
		sku, excludeID).Scan(&exists)
	return exists, err
}
