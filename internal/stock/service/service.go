package service

import (
	"time"

	"github.com/farmatrack/farmatrack-backend/internal/stock/cache"
	"github.com/farmatrack/farmatrack-backend/internal/stock/events"
	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/pkg/database"
	"github.com/farmatrack/farmatrack-backend/pkg/logger"
)

// FarFutureExpiry is the sentinel expiry date assigned to lots created by a
// scan that carries no expiry date.
var FarFutureExpiry = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)

// DefaultLotNumber is assigned to lots created by a scan that carries no lot
// number.
const DefaultLotNumber = "SIN-LOTE"

// DefaultReportDays is the near-expiry report horizon when the caller does
// not supply one.
const DefaultReportDays = 60

// StockService handles catalog and stock ledger business logic
type StockService struct {
	db           *database.DB
	productRepo  *repository.ProductRepository
	lotRepo      *repository.LotRepository
	movementRepo *repository.MovementRepository
	publisher    *events.StockEventPublisher
	cache        *cache.ProductCache
	logger       *logger.Logger
}

// NewStockService creates a new stock service. publisher and productCache may
// be nil; the service then runs without event publishing or caching.
func NewStockService(
	db *database.DB,
	productRepo *repository.ProductRepository,
	lotRepo *repository.LotRepository,
	movementRepo *repository.MovementRepository,
	publisher *events.StockEventPublisher,
	productCache *cache.ProductCache,
	log *logger.Logger,
) *StockService {
	return &StockService{
		db:           db,
		productRepo:  productRepo,
		lotRepo:      lotRepo,
		movementRepo: movementRepo,
		publisher:    publisher,
		cache:        productCache,
		logger:       log,
	}
}

// ProductWithLots represents a product with its lots, soonest expiry first
type ProductWithLots struct {
	*repository.Product
	Lots       []*repository.Lot `json:"lots"`
	TotalStock int               `json:"total_stock"`
}

func enrichProduct(product *repository.Product, lots []*repository.Lot) *ProductWithLots {
	total := 0
	for _, lot := range lots {
		total += lot.Stock
	}
	return &ProductWithLots{
		Product:    product,
		Lots:       lots,
		TotalStock: total,
	}
}
