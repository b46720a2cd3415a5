package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/internal/stock/service"
	"github.com/farmatrack/farmatrack-backend/pkg/errors"
)

func TestCreateProduct_ValidatesGTIN(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	_, err := svc.CreateProduct(ctx, service.CreateProductInput{
		GTIN: "7791234567895",
		Name: "Amoxicilina 500mg",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrChecksumMismatch))

	product, err := svc.CreateProduct(ctx, service.CreateProductInput{
		GTIN: "779-1234-567898", // separators are stripped before validation
		Name: "Amoxicilina 500mg",
	})
	require.NoError(t, err)
	assert.Equal(t, "7791234567898", product.GTIN)
	assert.Equal(t, repository.StatusActive, product.Status)
}

func TestCreateProduct_DuplicateGTIN(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	code := suite.Fixtures.GTIN()

	_, err := svc.CreateProduct(ctx, service.CreateProductInput{GTIN: code, Name: "First"})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, service.CreateProductInput{GTIN: code, Name: "Second"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestGetProduct_WithLots(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	product := createTestProduct(t, suite)
	now := time.Now()

	createTestLot(t, suite, product.ID, now.AddDate(1, 0, 0), 10)
	createTestLot(t, suite, product.ID, now.AddDate(0, 1, 0), 7)

	got, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, got.Lots, 2)
	assert.Equal(t, 17, got.TotalStock)
	// Soonest expiry leads.
	assert.Equal(t, 7, got.Lots[0].Stock)
}

func TestUpdateProduct_PartialFields(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	product := createTestProduct(t, suite)
	name := "Renamed"

	updated, err := svc.UpdateProduct(ctx, product.ID, service.UpdateProductInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, product.Manufacturer, updated.Manufacturer)

	bad := "discontinued"
	_, err = svc.UpdateProduct(ctx, product.ID, service.UpdateProductInput{Status: &bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestGetProductByGTIN_NoCache(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	product := createTestProduct(t, suite)

	got, err := svc.GetProductByGTIN(ctx, product.GTIN)
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)

	_, err = svc.GetProductByGTIN(ctx, suite.Fixtures.GTIN())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCreateLot_Defaults(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	product := createTestProduct(t, suite)

	lot, err := svc.CreateLot(ctx, service.CreateLotInput{ProductID: product.ID})
	require.NoError(t, err)
	assert.Equal(t, service.DefaultLotNumber, lot.LotNumber)
	assert.Equal(t, 2099, lot.ExpiryDate.Year())
	assert.Equal(t, 0, lot.Stock)

	_, err = svc.CreateLot(ctx, service.CreateLotInput{
		ProductID: product.ID,
		LotNumber: "L-9001",
		Expiry:    "not-a-date",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidDate))
}
