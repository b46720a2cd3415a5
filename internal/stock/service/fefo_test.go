package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/pkg/errors"
)

func TestIssueFEFO_PicksSoonestSufficientLot(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	product := createTestProduct(t, suite)
	now := time.Now()

	soonest := createTestLot(t, suite, product.ID, now.AddDate(0, 1, 0), 5)
	later := createTestLot(t, suite, product.ID, now.AddDate(0, 6, 0), 20)

	// Fits the soonest lot.
	movement, lot, err := svc.IssueFEFO(ctx, product.ID, 3, "dispense", "")
	require.NoError(t, err)
	assert.Equal(t, soonest.ID, lot.ID)
	assert.Equal(t, 2, lot.Stock)
	assert.Equal(t, repository.KindIssue, movement.Kind)

	// Too big for the soonest lot: issued whole from the later one, never
	// split across lots.
	_, lot, err = svc.IssueFEFO(ctx, product.ID, 10, "dispense", "")
	require.NoError(t, err)
	assert.Equal(t, later.ID, lot.ID)
	assert.Equal(t, 10, lot.Stock)

	// The soonest lot keeps its remainder.
	got, err := repository.NewLotRepository(suite.DB).GetByID(ctx, soonest.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

func TestIssueFEFO_NoSufficientLot(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	product := createTestProduct(t, suite)
	createTestLot(t, suite, product.ID, time.Now().AddDate(0, 1, 0), 4)
	createTestLot(t, suite, product.ID, time.Now().AddDate(0, 2, 0), 4)

	_, _, err := svc.IssueFEFO(ctx, product.ID, 8, "dispense", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoSufficientLot))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, product.ID, appErr.Details["product_id"])
}

func TestIssueFEFO_ProductNotFound(t *testing.T) {
	suite := setupSuite(t)
	svc := newTestService(suite)

	_, _, err := svc.IssueFEFO(context.Background(), "00000000-0000-0000-0000-000000000000", 1, "", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestIssueFEFO_InvalidQuantity(t *testing.T) {
	suite := setupSuite(t)
	svc := newTestService(suite)

	product := createTestProduct(t, suite)

	for _, quantity := range []int{0, -3} {
		_, _, err := svc.IssueFEFO(context.Background(), product.ID, quantity, "", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidQuantity))
	}
}

func TestIssueFEFO_ConcurrentDrain(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	product := createTestProduct(t, suite)
	now := time.Now()

	createTestLot(t, suite, product.ID, now.AddDate(0, 1, 0), 40)
	createTestLot(t, suite, product.ID, now.AddDate(0, 2, 0), 40)

	// 8 workers × 10 units exactly drain both lots. Losing a stock race on
	// the first lot re-selects into the second.
	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.IssueFEFO(ctx, product.ID, 10, "load test", "")
		}(i)
	}
	wg.Wait()

	issued := 0
	for _, err := range errs {
		if err == nil {
			issued += 10
			continue
		}
		assert.True(t, errors.Is(err, errors.ErrNoSufficientLot))
	}

	lots, err := repository.NewLotRepository(suite.DB).ListByProduct(ctx, product.ID)
	require.NoError(t, err)

	remaining := 0
	for _, lot := range lots {
		assert.GreaterOrEqual(t, lot.Stock, 0)
		remaining += lot.Stock
	}
	assert.Equal(t, 80, issued+remaining)
}
