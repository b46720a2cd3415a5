package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/pkg/errors"
)

// ApplyMovement validates and applies a stock movement to a lot, appending it
// to the ledger. The stock update and the movement record commit in one
// transaction holding the lot's row lock, so concurrent appliers against the
// same lot observe a strict total order of stock transitions and the stock is
// never observably negative. On failure neither the stock nor the log change.
//
// Returns the appended movement and the lot as committed.
func (s *StockService) ApplyMovement(ctx context.Context, lotID, kind string, quantity int, reason, docRef string) (*repository.Movement, *repository.Lot, error) {
	// All validation that does not need the lot happens before any DB traffic.
	switch kind {
	case repository.KindReceipt, repository.KindIssue:
		if quantity <= 0 {
			return nil, nil, errors.InvalidQuantity("quantity must be > 0")
		}
	case repository.KindAdjustment:
		// Positive or negative; zero is a recorded no-op.
	default:
		return nil, nil, errors.BadRequest("unknown movement kind: " + kind)
	}

	var (
		movement *repository.Movement
		lot      *repository.Lot
	)

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		lot, err = s.lotRepo.GetForUpdateTx(ctx, tx, lotID)
		if err != nil {
			return err
		}

		newStock := lot.Stock
		switch kind {
		case repository.KindReceipt:
			newStock += quantity
		case repository.KindIssue:
			if quantity > lot.Stock {
				return errors.InsufficientStock(lot.ID)
			}
			newStock -= quantity
		case repository.KindAdjustment:
			newStock += quantity
			if newStock < 0 {
				return errors.NegativeResult(lot.ID)
			}
		}

		if err := s.lotRepo.UpdateStockTx(ctx, tx, lot.ID, newStock); err != nil {
			return err
		}

		movement = &repository.Movement{
			LotID:    lot.ID,
			Kind:     kind,
			Quantity: quantity,
			Reason:   reason,
			DocRef:   docRef,
		}
		if err := s.movementRepo.InsertTx(ctx, tx, movement); err != nil {
			return err
		}

		lot.Stock = newStock
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Int64("movement_id", movement.ID).
		Str("lot_id", lot.ID).
		Str("kind", kind).
		Int("quantity", quantity).
		Int("stock", lot.Stock).
		Msg("movement applied")

	// Best-effort, post-commit. A publish failure never unwinds the movement.
	s.publisher.PublishMovementApplied(ctx, movement, lot)

	return movement, lot, nil
}
