package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/farmatrack/farmatrack-backend/pkg/database"
)

// Movement kinds
const (
	KindReceipt    = "RECEIPT"
	KindIssue      = "ISSUE"
	KindAdjustment = "ADJUSTMENT"
)

// Movement is an immutable ledger entry recording one stock change. Movements
// are append-only: there is no update or delete path, by design.
type Movement struct {
	ID        int64     `db:"id" json:"id"`
	LotID     string    `db:"lot_id" json:"lot_id"`
	Kind      string    `db:"kind" json:"kind"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Reason    string    `db:"reason" json:"reason"`
	DocRef    string    `db:"doc_ref" json:"doc_ref"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MovementRepository handles the append-only movement log
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// InsertTx appends a movement inside tx. The ID is server-assigned and
// monotonic; the caller commits it together with the stock update.
func (r *MovementRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, m *Movement) error {
	query := `
		INSERT INTO movements (lot_id, kind, quantity, reason, doc_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		m.LotID, m.Kind, m.Quantity, m.Reason, m.DocRef,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}
	return nil
}

// ListByLot lists movements for a lot, newest first
func (r *MovementRepository) ListByLot(ctx context.Context, lotID string) ([]*Movement, error) {
	var movements []*Movement
	query := `SELECT * FROM movements WHERE lot_id = $1 ORDER BY id DESC`
	if err := r.db.SelectContext(ctx, &movements, query, lotID); err != nil {
		return nil, err
	}
	return movements, nil
}

// List lists movements, newest first
func (r *MovementRepository) List(ctx context.Context, page, perPage int) ([]*Movement, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM movements`); err != nil {
		return nil, 0, err
	}

	var movements []*Movement
	query := `SELECT * FROM movements ORDER BY id DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &movements, query, perPage, (page-1)*perPage); err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

// CountByLot counts movements recorded against a lot
func (r *MovementRepository) CountByLot(ctx context.Context, lotID string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM movements WHERE lot_id = $1`
	if err := r.db.GetContext(ctx, &count, query, lotID); err != nil {
		return 0, err
	}
	return count, nil
}
