package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/farmatrack/farmatrack-backend/pkg/database"
	"github.com/farmatrack/farmatrack-backend/pkg/errors"
)

// Lot represents a batch of a product sharing one expiry date and stock counter
type Lot struct {
	ID         string    `db:"id" json:"id"`
	ProductID  string    `db:"product_id" json:"product_id"`
	LotNumber  string    `db:"lot_number" json:"lot_number"`
	ExpiryDate time.Time `db:"expiry_date" json:"expiry_date"`
	Stock      int       `db:"stock" json:"stock"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// LotExpiryView is a row of the near-expiry report
type LotExpiryView struct {
	LotID         string    `db:"lot_id" json:"lot_id"`
	ProductID     string    `db:"product_id" json:"product_id"`
	GTIN          string    `db:"gtin" json:"gtin"`
	ProductName   string    `db:"product_name" json:"product_name"`
	LotNumber     string    `db:"lot_number" json:"lot_number"`
	ExpiryDate    time.Time `db:"expiry_date" json:"expiry_date"`
	Stock         int       `db:"stock" json:"stock"`
	DaysRemaining int       `db:"days_remaining" json:"days_remaining"`
}

// LotRepository handles lot persistence
type LotRepository struct {
	db *database.DB
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *database.DB) *LotRepository {
	return &LotRepository{db: db}
}

// Create creates a new lot with zero or caller-supplied stock. A duplicate
// (product, lot_number) pair surfaces as a Conflict error.
func (r *LotRepository) Create(ctx context.Context, lot *Lot) error {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}

	query := `
		INSERT INTO lots (id, product_id, lot_number, expiry_date, stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		lot.ID, lot.ProductID, lot.LotNumber, lot.ExpiryDate, lot.Stock,
	).Scan(&lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}
	return nil
}

// GetByID gets a lot by ID
func (r *LotRepository) GetByID(ctx context.Context, id string) (*Lot, error) {
	var lot Lot
	query := `SELECT * FROM lots WHERE id = $1`
	if err := r.db.GetContext(ctx, &lot, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("lot")
		}
		return nil, err
	}
	return &lot, nil
}

// GetByProductAndNumber gets a lot by its natural key
func (r *LotRepository) GetByProductAndNumber(ctx context.Context, productID, lotNumber string) (*Lot, error) {
	var lot Lot
	query := `SELECT * FROM lots WHERE product_id = $1 AND lot_number = $2`
	if err := r.db.GetContext(ctx, &lot, query, productID, lotNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("lot")
		}
		return nil, err
	}
	return &lot, nil
}

// ListByProduct lists lots for a product, soonest expiry first
func (r *LotRepository) ListByProduct(ctx context.Context, productID string) ([]*Lot, error) {
	var lots []*Lot
	query := `SELECT * FROM lots WHERE product_id = $1 ORDER BY expiry_date, id`
	if err := r.db.SelectContext(ctx, &lots, query, productID); err != nil {
		return nil, err
	}
	return lots, nil
}

// List lists lots, newest first
func (r *LotRepository) List(ctx context.Context, page, perPage int) ([]*Lot, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM lots`); err != nil {
		return nil, 0, err
	}

	var lots []*Lot
	query := `SELECT * FROM lots ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &lots, query, perPage, (page-1)*perPage); err != nil {
		return nil, 0, err
	}

	return lots, total, nil
}

// GetForUpdateTx gets a lot by ID inside tx, locking the row for update.
// Concurrent appliers against the same lot serialize on this lock.
func (r *LotRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*Lot, error) {
	var lot Lot
	query := `SELECT * FROM lots WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &lot, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("lot")
		}
		return nil, err
	}
	return &lot, nil
}

// UpdateStockTx sets a lot's stock inside tx. Callers hold the row lock from
// GetForUpdateTx and have already validated the new value.
func (r *LotRepository) UpdateStockTx(ctx context.Context, tx *sqlx.Tx, id string, stock int) error {
	query := `UPDATE lots SET stock = $2, updated_at = NOW() WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, id, stock)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("lot")
	}

	return nil
}

// PickFEFO selects the lot of a product with the soonest expiry among those
// with stock >= quantity. Ties break on the lowest lot ID so selection is
// reproducible under identical state. The selection is advisory; the ledger
// transaction re-checks stock under the row lock.
func (r *LotRepository) PickFEFO(ctx context.Context, productID string, quantity int) (*Lot, error) {
	var lot Lot
	query := `
		SELECT * FROM lots
		WHERE product_id = $1 AND stock >= $2
		ORDER BY expiry_date, id
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &lot, query, productID, quantity); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NoSufficientLot(productID)
		}
		return nil, err
	}
	return &lot, nil
}

// ListExpiringWithin returns lots with stock > 0 expiring within the given
// number of days, ordered by expiry then product name. Already-expired lots
// are included with a negative days_remaining.
func (r *LotRepository) ListExpiringWithin(ctx context.Context, days int) ([]*LotExpiryView, error) {
	var views []*LotExpiryView
	query := `
		SELECT l.id AS lot_id, l.product_id, p.gtin, p.name AS product_name,
		       l.lot_number, l.expiry_date, l.stock,
		       (l.expiry_date::date - CURRENT_DATE) AS days_remaining
		FROM lots l
		JOIN products p ON p.id = l.product_id
		WHERE l.stock > 0 AND l.expiry_date::date <= CURRENT_DATE + $1
		ORDER BY l.expiry_date, p.name
	`
	if err := r.db.SelectContext(ctx, &views, query, days); err != nil {
		return nil, err
	}
	return views, nil
}

// Delete deletes a lot. Movements cascade.
func (r *LotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("lot")
	}

	return nil
}
