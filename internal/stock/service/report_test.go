package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotsExpiringWithin(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	product := createTestProduct(t, suite)
	now := time.Now()

	near := createTestLot(t, suite, product.ID, now.AddDate(0, 0, 15), 5)
	createTestLot(t, suite, product.ID, now.AddDate(0, 0, 200), 5)

	views, err := svc.LotsExpiringWithin(ctx, 30)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, near.ID, views[0].LotID)
}

func TestLotsExpiringWithin_ZeroAndNegativeHorizons(t *testing.T) {
	suite := setupSuite(t)
	ctx := context.Background()
	svc := newTestService(suite)

	product := createTestProduct(t, suite)
	now := time.Now().UTC()

	expired := createTestLot(t, suite, product.ID, now.AddDate(0, 0, -5), 2)
	today := createTestLot(t, suite, product.ID, now, 5)
	createTestLot(t, suite, product.ID, now.AddDate(0, 0, 30), 5)

	// A zero horizon means expired or expiring today.
	views, err := svc.LotsExpiringWithin(ctx, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, expired.ID, views[0].LotID)
	assert.Equal(t, today.ID, views[1].LotID)

	// A negative horizon narrows to lots already past expiry.
	views, err = svc.LotsExpiringWithin(ctx, -3)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, expired.ID, views[0].LotID)
}
