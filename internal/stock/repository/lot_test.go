package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/pkg/errors"
	"github.com/farmatrack/farmatrack-backend/pkg/testutil"
)

func TestLotRepository_Create_DuplicateNumber(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	repo := repository.NewLotRepository(suite.DB)

	product := createTestProduct(t, suite)
	expiry := time.Now().AddDate(1, 0, 0)

	lot := &repository.Lot{
		ProductID:  product.ID,
		LotNumber:  "L-0001",
		ExpiryDate: expiry,
	}
	require.NoError(t, repo.Create(ctx, lot))

	dup := &repository.Lot{
		ProductID:  product.ID,
		LotNumber:  "L-0001",
		ExpiryDate: expiry,
	}
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	// The same lot number under a different product is fine.
	other := createTestProduct(t, suite)
	second := &repository.Lot{
		ProductID:  other.ID,
		LotNumber:  "L-0001",
		ExpiryDate: expiry,
	}
	require.NoError(t, repo.Create(ctx, second))
}

func TestLotRepository_PickFEFO_SoonestSufficient(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	repo := repository.NewLotRepository(suite.DB)

	product := createTestProduct(t, suite)
	now := time.Now()

	soonest := createTestLot(t, suite, product.ID, now.AddDate(0, 1, 0), 5)
	middle := createTestLot(t, suite, product.ID, now.AddDate(0, 6, 0), 20)
	createTestLot(t, suite, product.ID, now.AddDate(1, 0, 0), 50)

	// Small quantity fits the soonest-expiring lot.
	picked, err := repo.PickFEFO(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, soonest.ID, picked.ID)

	// A quantity the soonest lot cannot cover skips to the next expiry.
	picked, err = repo.PickFEFO(ctx, product.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, middle.ID, picked.ID)
}

func TestLotRepository_PickFEFO_TieBreaksOnID(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	repo := repository.NewLotRepository(suite.DB)

	product := createTestProduct(t, suite)
	expiry := time.Now().AddDate(0, 3, 0)

	a := createTestLot(t, suite, product.ID, expiry, 10)
	b := createTestLot(t, suite, product.ID, expiry, 10)

	want := a.ID
	if b.ID < a.ID {
		want = b.ID
	}

	// Identical expiry and stock: the pick must be stable across calls.
	for i := 0; i < 3; i++ {
		picked, err := repo.PickFEFO(ctx, product.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, want, picked.ID)
	}
}

func TestLotRepository_PickFEFO_NoSufficientLot(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	repo := repository.NewLotRepository(suite.DB)

	product := createTestProduct(t, suite)
	createTestLot(t, suite, product.ID, time.Now().AddDate(0, 1, 0), 4)
	createTestLot(t, suite, product.ID, time.Now().AddDate(0, 2, 0), 4)

	// 8 units exist in total but no single lot can cover the issue.
	_, err := repo.PickFEFO(ctx, product.ID, 8)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoSufficientLot))
}

func TestLotRepository_UpdateStockTx_NonNegativeConstraint(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	repo := repository.NewLotRepository(suite.DB)

	product := createTestProduct(t, suite)
	lot := createTestLot(t, suite, product.ID, time.Now().AddDate(1, 0, 0), 10)

	err := suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		locked, err := repo.GetForUpdateTx(ctx, tx, lot.ID)
		if err != nil {
			return err
		}
		return repo.UpdateStockTx(ctx, tx, locked.ID, -1)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNegativeResult))

	// The rollback leaves the original stock intact.
	got, err := repo.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
}

func TestLotRepository_ListExpiringWithin(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	repo := repository.NewLotRepository(suite.DB)

	product := createTestProduct(t, suite)
	now := time.Now()

	near := createTestLot(t, suite, product.ID, now.AddDate(0, 0, 10), 5)
	expired := createTestLot(t, suite, product.ID, now.AddDate(0, 0, -3), 2)
	createTestLot(t, suite, product.ID, now.AddDate(1, 0, 0), 50)  // beyond horizon
	createTestLot(t, suite, product.ID, now.AddDate(0, 0, 5), 0)   // no stock

	views, err := repo.ListExpiringWithin(ctx, 60)
	require.NoError(t, err)
	require.Len(t, views, 2)

	// Soonest expiry first, so the expired lot leads with negative days.
	assert.Equal(t, expired.ID, views[0].LotID)
	assert.Negative(t, views[0].DaysRemaining)
	assert.Equal(t, near.ID, views[1].LotID)
	assert.LessOrEqual(t, views[1].DaysRemaining, 10)
	assert.Equal(t, product.GTIN, views[1].GTIN)
}

func TestLotRepository_ListExpiringWithin_TieBreaksOnProductName(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	productRepo := repository.NewProductRepository(suite.DB)
	lotRepo := repository.NewLotRepository(suite.DB)

	expiry := time.Now().AddDate(0, 0, 10)

	// Insert in reverse name order so the sort is doing the work.
	zeta := suite.Fixtures.Product(testutil.WithProductName("Zolpidem 10mg"))
	zolpidem := &repository.Product{GTIN: zeta.GTIN, Name: zeta.Name, Manufacturer: zeta.Manufacturer}
	require.NoError(t, productRepo.Create(ctx, zolpidem))

	alpha := suite.Fixtures.Product(testutil.WithProductName("Amoxicilina 500mg"))
	amoxicilina := &repository.Product{GTIN: alpha.GTIN, Name: alpha.Name, Manufacturer: alpha.Manufacturer}
	require.NoError(t, productRepo.Create(ctx, amoxicilina))

	lotZ := createTestLot(t, suite, zolpidem.ID, expiry, 3)
	lotA := createTestLot(t, suite, amoxicilina.ID, expiry, 3)

	views, err := lotRepo.ListExpiringWithin(ctx, 30)
	require.NoError(t, err)
	require.Len(t, views, 2)

	// Equal expiry falls back to product name ascending.
	assert.Equal(t, lotA.ID, views[0].LotID)
	assert.Equal(t, "Amoxicilina 500mg", views[0].ProductName)
	assert.Equal(t, lotZ.ID, views[1].LotID)
}

func TestLotRepository_ListByProduct_OrderedByExpiry(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	repo := repository.NewLotRepository(suite.DB)

	product := createTestProduct(t, suite)
	now := time.Now()

	late := createTestLot(t, suite, product.ID, now.AddDate(2, 0, 0), 1)
	early := createTestLot(t, suite, product.ID, now.AddDate(0, 1, 0), 1)

	lots, err := repo.ListByProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, early.ID, lots[0].ID)
	assert.Equal(t, late.ID, lots[1].ID)
}
