package service

import (
	"context"
	"time"

	"github.com/farmatrack/farmatrack-backend/internal/stock/gtin"
	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/pkg/errors"
)

// CreateProductInput carries the fields for registering a product
type CreateProductInput struct {
	GTIN         string
	Name         string
	Manufacturer string
	Status       string
}

// UpdateProductInput carries the mutable product fields. Nil fields are left
// unchanged. The GTIN is the product's identity and cannot be updated.
type UpdateProductInput struct {
	Name         *string
	Manufacturer *string
	Status       *string
}

// CreateLotInput carries the fields for registering a lot. Lots start with
// zero stock; stock only changes through movements.
type CreateLotInput struct {
	ProductID string
	LotNumber string
	// Expiry is a YYYY-MM-DD date; empty means unknown (sentinel applies)
	Expiry string
}

// CreateProduct registers a product after validating its GTIN
func (s *StockService) CreateProduct(ctx context.Context, in CreateProductInput) (*repository.Product, error) {
	code := gtin.Normalize(in.GTIN)
	if err := gtin.Validate(code); err != nil {
		return nil, err
	}

	product := &repository.Product{
		GTIN:         code,
		Name:         in.Name,
		Manufacturer: in.Manufacturer,
		Status:       in.Status,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info().Str("product_id", product.ID).Str("gtin", code).Msg("product created")
	return product, nil
}

// GetProduct gets a product with its lots, soonest expiry first
func (s *StockService) GetProduct(ctx context.Context, id string) (*ProductWithLots, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	lots, err := s.lotRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	return enrichProduct(product, lots), nil
}

// GetProductByGTIN resolves a scanned code to its product, reading through
// the cache when one is configured.
func (s *StockService) GetProductByGTIN(ctx context.Context, code string) (*repository.Product, error) {
	code = gtin.Normalize(code)
	if err := gtin.Validate(code); err != nil {
		return nil, err
	}

	if cached, err := s.cache.Get(ctx, code); err == nil && cached != nil {
		return cached, nil
	}

	product, err := s.productRepo.GetByGTIN(ctx, code)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, code, product)
	return product, nil
}

// ListProducts lists products, newest first
func (s *StockService) ListProducts(ctx context.Context, page, perPage int) ([]*repository.Product, int64, error) {
	return s.productRepo.List(ctx, page, perPage)
}

// UpdateProduct updates a product's mutable fields
func (s *StockService) UpdateProduct(ctx context.Context, id string, in UpdateProductInput) (*repository.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Manufacturer != nil {
		product.Manufacturer = *in.Manufacturer
	}
	if in.Status != nil {
		if *in.Status != repository.StatusActive && *in.Status != repository.StatusInactive {
			return nil, errors.BadRequest("status must be active or inactive")
		}
		product.Status = *in.Status
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, product.GTIN)
	return product, nil
}

// DeleteProduct deletes a product with its lots and movements
func (s *StockService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, product.GTIN)
	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

// CreateLot registers a lot for a product
func (s *StockService) CreateLot(ctx context.Context, in CreateLotInput) (*repository.Lot, error) {
	if _, err := s.productRepo.GetByID(ctx, in.ProductID); err != nil {
		return nil, err
	}

	lotNumber := in.LotNumber
	if lotNumber == "" {
		lotNumber = DefaultLotNumber
	}

	expiry := FarFutureExpiry
	if in.Expiry != "" {
		parsed, err := time.Parse(expiryLayout, in.Expiry)
		if err != nil {
			return nil, errors.InvalidDate("expiry date must be YYYY-MM-DD")
		}
		expiry = parsed
	}

	lot := &repository.Lot{
		ProductID:  in.ProductID,
		LotNumber:  lotNumber,
		ExpiryDate: expiry,
		Stock:      0,
	}
	if err := s.lotRepo.Create(ctx, lot); err != nil {
		return nil, err
	}

	s.logger.Info().Str("lot_id", lot.ID).Str("product_id", in.ProductID).Msg("lot created")
	return lot, nil
}

// GetLot gets a lot by ID
func (s *StockService) GetLot(ctx context.Context, id string) (*repository.Lot, error) {
	return s.lotRepo.GetByID(ctx, id)
}

// ListLots lists lots, newest first
func (s *StockService) ListLots(ctx context.Context, page, perPage int) ([]*repository.Lot, int64, error) {
	return s.lotRepo.List(ctx, page, perPage)
}

// ListLotsByProduct lists a product's lots, soonest expiry first
func (s *StockService) ListLotsByProduct(ctx context.Context, productID string) ([]*repository.Lot, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.lotRepo.ListByProduct(ctx, productID)
}

// DeleteLot deletes a lot and its movements
func (s *StockService) DeleteLot(ctx context.Context, id string) error {
	if err := s.lotRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("lot_id", id).Msg("lot deleted")
	return nil
}

// ListMovements lists movements across all lots, newest first
func (s *StockService) ListMovements(ctx context.Context, page, perPage int) ([]*repository.Movement, int64, error) {
	return s.movementRepo.List(ctx, page, perPage)
}

// ListMovementsByLot lists a lot's movements, newest first
func (s *StockService) ListMovementsByLot(ctx context.Context, lotID string) ([]*repository.Movement, error) {
	if _, err := s.lotRepo.GetByID(ctx, lotID); err != nil {
		return nil, err
	}
	return s.movementRepo.ListByLot(ctx, lotID)
}
