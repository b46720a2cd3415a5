package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/farmatrack/farmatrack-backend/pkg/database"
	"github.com/farmatrack/farmatrack-backend/pkg/errors"
)

// Product lifecycle states
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Product represents a pharmaceutical product identified by its GTIN
type Product struct {
	ID           string    `db:"id" json:"id"`
	GTIN         string    `db:"gtin" json:"gtin"`
	Name         string    `db:"name" json:"name"`
	Manufacturer string    `db:"manufacturer" json:"manufacturer"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new product. A duplicate GTIN surfaces as a Conflict error.
func (r *ProductRepository) Create(ctx context.Context, product *Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Status == "" {
		product.Status = StatusActive
	}

	query := `
		INSERT INTO products (id, gtin, name, manufacturer, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		product.ID, product.GTIN, product.Name, product.Manufacturer, product.Status,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}
	return nil
}

// GetByID gets a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	var product Product
	query := `SELECT * FROM products WHERE id = $1`
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product")
		}
		return nil, err
	}
	return &product, nil
}

// GetByGTIN gets a product by its GTIN code
func (r *ProductRepository) GetByGTIN(ctx context.Context, code string) (*Product, error) {
	var product Product
	query := `SELECT * FROM products WHERE gtin = $1`
	if err := r.db.GetContext(ctx, &product, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product")
		}
		return nil, err
	}
	return &product, nil
}

// List lists products, newest first
func (r *ProductRepository) List(ctx context.Context, page, perPage int) ([]*Product, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products`); err != nil {
		return nil, 0, err
	}

	var products []*Product
	query := `SELECT * FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &products, query, perPage, (page-1)*perPage); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Update updates a product's mutable fields
func (r *ProductRepository) Update(ctx context.Context, product *Product) error {
	query := `
		UPDATE products SET
			gtin = $2, name = $3, manufacturer = $4, status = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		product.ID, product.GTIN, product.Name, product.Manufacturer, product.Status,
	)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}

	return nil
}

// Delete deletes a product. Lots and movements cascade.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}

	return nil
}
