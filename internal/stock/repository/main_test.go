package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/pkg/testutil"
)

// setupSuite spins up (or reuses) the shared postgres container and gives the
// test a clean schema. Integration tests skip under -short.
func setupSuite(t *testing.T) *testutil.IntegrationSuite {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	suite, err := testutil.NewIntegrationSuite(ctx)
	require.NoError(t, err)
	suite.Reset(t, ctx)
	return suite
}

// createTestProduct inserts a product fixture and returns it
func createTestProduct(t *testing.T, suite *testutil.IntegrationSuite) *repository.Product {
	t.Helper()

	fixture := suite.Fixtures.Product()
	product := &repository.Product{
		GTIN:         fixture.GTIN,
		Name:         fixture.Name,
		Manufacturer: fixture.Manufacturer,
		Status:       fixture.Status,
	}

	repo := repository.NewProductRepository(suite.DB)
	require.NoError(t, repo.Create(context.Background(), product))
	return product
}

// createTestLot inserts a lot with the given expiry and stock
func createTestLot(t *testing.T, suite *testutil.IntegrationSuite, productID string, expiry time.Time, stock int) *repository.Lot {
	t.Helper()

	fixture := suite.Fixtures.Lot(productID, testutil.WithExpiry(expiry), testutil.WithStock(stock))
	lot := &repository.Lot{
		ProductID:  fixture.ProductID,
		LotNumber:  fixture.LotNumber,
		ExpiryDate: fixture.ExpiryDate,
		Stock:      fixture.Stock,
	}

	repo := repository.NewLotRepository(suite.DB)
	require.NoError(t, repo.Create(context.Background(), lot))
	return lot
}
