package service

import (
	"context"
	"time"

	"github.com/farmatrack/farmatrack-backend/internal/stock/gtin"
	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/pkg/errors"
)

// expiryLayout is the calendar date format accepted for scan expiry dates.
const expiryLayout = "2006-01-02"

// IngressInput carries one scan of a product unit into stock
type IngressInput struct {
	GTIN      string
	LotNumber string
	// Expiry is a YYYY-MM-DD date; empty means unknown (sentinel applies)
	Expiry   string
	Quantity int
	Reason   string
	DocRef   string
}

// IngressByScan finds or creates the product for the scanned GTIN and the lot
// for the scanned lot number, then records one RECEIPT for the quantity.
//
// The find-or-create steps are individually atomic, not one transaction:
// concurrent scans of the same new identity race on creation, lose to the
// unique constraint, and resolve by re-fetching the winner's row. The receipt
// itself goes through the ledger transaction.
func (s *StockService) IngressByScan(ctx context.Context, in IngressInput) (*repository.Product, *repository.Lot, *repository.Movement, error) {
	code := gtin.Normalize(in.GTIN)
	if err := gtin.Validate(code); err != nil {
		return nil, nil, nil, err
	}

	if in.Quantity <= 0 {
		return nil, nil, nil, errors.InvalidQuantity("quantity must be > 0")
	}

	expiry := FarFutureExpiry
	if in.Expiry != "" {
		parsed, err := time.Parse(expiryLayout, in.Expiry)
		if err != nil {
			return nil, nil, nil, errors.InvalidDate("expiry date must be YYYY-MM-DD")
		}
		expiry = parsed
	}

	lotNumber := in.LotNumber
	if lotNumber == "" {
		lotNumber = DefaultLotNumber
	}

	product, err := s.findOrCreateProduct(ctx, code)
	if err != nil {
		return nil, nil, nil, err
	}

	lot, err := s.findOrCreateLot(ctx, product.ID, lotNumber, expiry)
	if err != nil {
		return nil, nil, nil, err
	}

	movement, lotAfter, err := s.ApplyMovement(ctx, lot.ID, repository.KindReceipt, in.Quantity, in.Reason, in.DocRef)
	if err != nil {
		return nil, nil, nil, err
	}

	return product, lotAfter, movement, nil
}

// findOrCreateProduct fetches the product for code, creating a placeholder
// if none exists. A creation race resolves as Conflict and re-fetches.
func (s *StockService) findOrCreateProduct(ctx context.Context, code string) (*repository.Product, error) {
	product, err := s.productRepo.GetByGTIN(ctx, code)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	product = &repository.Product{
		GTIN:   code,
		Name:   "Product " + code,
		Status: repository.StatusActive,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, errors.ErrConflict) {
			return s.productRepo.GetByGTIN(ctx, code)
		}
		return nil, err
	}

	s.logger.Info().Str("gtin", code).Str("product_id", product.ID).Msg("product created from scan")
	return product, nil
}

// findOrCreateLot fetches the lot for (productID, lotNumber), creating it
// with zero stock if none exists. A creation race resolves as Conflict and
// re-fetches.
func (s *StockService) findOrCreateLot(ctx context.Context, productID, lotNumber string, expiry time.Time) (*repository.Lot, error) {
	lot, err := s.lotRepo.GetByProductAndNumber(ctx, productID, lotNumber)
	if err == nil {
		return lot, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	lot = &repository.Lot{
		ProductID:  productID,
		LotNumber:  lotNumber,
		ExpiryDate: expiry,
		Stock:      0,
	}
	if err := s.lotRepo.Create(ctx, lot); err != nil {
		if errors.Is(err, errors.ErrConflict) {
			return s.lotRepo.GetByProductAndNumber(ctx, productID, lotNumber)
		}
		return nil, err
	}

	s.logger.Info().Str("lot_id", lot.ID).Str("lot_number", lotNumber).Msg("lot created from scan")
	return lot, nil
}
