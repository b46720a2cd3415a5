package service

import (
	"context"

	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/pkg/errors"
)

// fefoReselections caps how many times an issue re-selects a lot after losing
// a stock race to a concurrent issuer.
const fefoReselections = 1

// IssueFEFO issues the requested quantity from the product's soonest-expiring
// lot that holds sufficient stock (first-expiry-first-out). The issue is
// never split across lots; when no single lot suffices the call fails with
// NoSufficientLot.
//
// Lot selection is optimistic: between selection and the ledger transaction a
// concurrent issue may drain the chosen lot. The ledger's locked re-check is
// the authoritative guard, and on InsufficientStock the allocator re-selects
// once before giving up.
func (s *StockService) IssueFEFO(ctx context.Context, productID string, quantity int, reason, docRef string) (*repository.Movement, *repository.Lot, error) {
	if quantity <= 0 {
		return nil, nil, errors.InvalidQuantity("quantity must be > 0")
	}

	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, nil, err
	}

	for attempt := 0; attempt <= fefoReselections; attempt++ {
		lot, err := s.lotRepo.PickFEFO(ctx, productID, quantity)
		if err != nil {
			return nil, nil, err
		}

		movement, lotAfter, err := s.ApplyMovement(ctx, lot.ID, repository.KindIssue, quantity, reason, docRef)
		if errors.Is(err, errors.ErrInsufficientStock) {
			s.logger.Debug().
				Str("product_id", productID).
				Str("lot_id", lot.ID).
				Int("attempt", attempt+1).
				Msg("FEFO candidate drained concurrently, re-selecting")
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		return movement, lotAfter, nil
	}

	return nil, nil, errors.NoSufficientLot(productID)
}
