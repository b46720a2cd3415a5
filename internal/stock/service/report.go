package service

import (
	"context"

	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
)

// LotsExpiringWithin reports lots holding stock whose expiry date falls within
// the given horizon in days. A zero horizon covers lots expired or expiring
// today; a negative one narrows to lots already past expiry. Expired lots are
// included with a negative days_remaining.
func (s *StockService) LotsExpiringWithin(ctx context.Context, days int) ([]*repository.LotExpiryView, error) {
	return s.lotRepo.ListExpiringWithin(ctx, days)
}
