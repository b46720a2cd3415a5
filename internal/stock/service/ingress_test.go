package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/internal/stock/service"
	"github.com/farmatrack/farmatrack-backend/pkg/errors"
)

func TestIngressByScan_CreatesProductAndLot(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	code := suite.Fixtures.GTIN()

	product, lot, movement, err := svc.IngressByScan(ctx, service.IngressInput{
		GTIN:     code,
		Quantity: 1,
		Reason:   "Ingreso SCAN",
		DocRef:   "SCAN",
	})
	require.NoError(t, err)

	// First sight of the code creates a placeholder product.
	assert.Equal(t, code, product.GTIN)
	assert.Equal(t, "Product "+code, product.Name)
	assert.Equal(t, repository.StatusActive, product.Status)

	// Missing lot data falls back to the placeholder lot number and the
	// far-future expiry sentinel.
	assert.Equal(t, service.DefaultLotNumber, lot.LotNumber)
	assert.Equal(t, 2099, lot.ExpiryDate.Year())
	assert.Equal(t, time.December, lot.ExpiryDate.Month())
	assert.Equal(t, 31, lot.ExpiryDate.Day())
	assert.Equal(t, 1, lot.Stock)

	assert.Equal(t, repository.KindReceipt, movement.Kind)
	assert.Equal(t, 1, movement.Quantity)
	assert.Equal(t, "SCAN", movement.DocRef)
}

func TestIngressByScan_RepeatScansAccumulate(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	in := service.IngressInput{
		GTIN:      suite.Fixtures.GTIN(),
		LotNumber: "L-7001",
		Expiry:    "2027-03-31",
		Quantity:  2,
		Reason:    "Ingreso SCAN",
		DocRef:    "SCAN",
	}

	product1, lot1, _, err := svc.IngressByScan(ctx, in)
	require.NoError(t, err)

	product2, lot2, _, err := svc.IngressByScan(ctx, in)
	require.NoError(t, err)

	// Same product and lot rows, accumulated stock.
	assert.Equal(t, product1.ID, product2.ID)
	assert.Equal(t, lot1.ID, lot2.ID)
	assert.Equal(t, 4, lot2.Stock)
	assert.Equal(t, "2027-03-31", lot2.ExpiryDate.Format("2006-01-02"))

	count, err := repository.NewMovementRepository(suite.DB).CountByLot(ctx, lot2.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestIngressByScan_NormalizesCode(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	code := suite.Fixtures.GTIN()
	spaced := " " + code[:3] + "-" + code[3:] + " "

	product, _, _, err := svc.IngressByScan(ctx, service.IngressInput{
		GTIN:     spaced,
		Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, code, product.GTIN)
}

func TestIngressByScan_InvalidInput(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	tests := []struct {
		name     string
		in       service.IngressInput
		sentinel error
	}{
		{"short code", service.IngressInput{GTIN: "123", Quantity: 1}, errors.ErrInvalidFormat},
		{"bad check digit", service.IngressInput{GTIN: "7791234567895", Quantity: 1}, errors.ErrChecksumMismatch},
		{"zero quantity", service.IngressInput{GTIN: suite.Fixtures.GTIN(), Quantity: 0}, errors.ErrInvalidQuantity},
		{"bad expiry", service.IngressInput{GTIN: suite.Fixtures.GTIN(), Quantity: 1, Expiry: "31/03/2027"}, errors.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := svc.IngressByScan(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
		})
	}

	// Nothing was created along the way.
	products, total, err := repository.NewProductRepository(suite.DB).List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, int64(0), total)
}

func TestIngressByScan_ConcurrentFirstScan(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	code := suite.Fixtures.GTIN()

	// All workers scan a brand-new code at once: creation races resolve by
	// fetching the winner's rows, so exactly one product and one lot exist.
	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _, errs[i] = svc.IngressByScan(ctx, service.IngressInput{
				GTIN:     code,
				Quantity: 1,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}

	product, err := repository.NewProductRepository(suite.DB).GetByGTIN(ctx, code)
	require.NoError(t, err)

	lots, err := repository.NewLotRepository(suite.DB).ListByProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, workers, lots[0].Stock)
}
