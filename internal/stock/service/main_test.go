package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/internal/stock/service"
	"github.com/farmatrack/farmatrack-backend/pkg/logger"
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

// newTestService builds a stock service without event publishing or caching
func newTestService(suite *testutil.IntegrationSuite) *service.StockService {
	productRepo := repository.NewProductRepository(suite.DB)
	lotRepo := repository.NewLotRepository(suite.DB)
	movementRepo := repository.NewMovementRepository(suite.DB)
	log := logger.New("test", "test")

	return service.NewStockService(suite.DB, productRepo, lotRepo, movementRepo, nil, nil, log)
}

func createTestProduct(t *testing.T, suite *testutil.IntegrationSuite) *repository.Product {
	t.Helper()

	fixture := suite.Fixtures.Product()
	product := &repository.Product{
		GTIN:         fixture.GTIN,
		Name:         fixture.Name,
		Manufacturer: fixture.Manufacturer,
		Status:       fixture.Status,
	}
	require.NoError(t, repository.NewProductRepository(suite.DB).Create(context.Background(), product))
	return product
}

func createTestLot(t *testing.T, suite *testutil.IntegrationSuite, productID string, expiry time.Time, stock int) *repository.Lot {
	t.Helper()

	fixture := suite.Fixtures.Lot(productID, testutil.WithExpiry(expiry), testutil.WithStock(stock))
	lot := &repository.Lot{
		ProductID:  fixture.ProductID,
		LotNumber:  fixture.LotNumber,
		ExpiryDate: fixture.ExpiryDate,
		Stock:      fixture.Stock,
	}
	require.NoError(t, repository.NewLotRepository(suite.DB).Create(context.Background(), lot))
	return lot
}
