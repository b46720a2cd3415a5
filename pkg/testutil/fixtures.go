package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ProductFixture represents test product data
type ProductFixture struct {
	ID           string
	GTIN         string
	Name         string
	Manufacturer string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LotFixture represents test lot data
type LotFixture struct {
	ID         string
	ProductID  string
	LotNumber  string
	ExpiryDate time.Time
	Stock      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	mu       sync.Mutex
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

func (f *FixtureFactory) nextSeq() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequence++
	return f.sequence
}

// GTIN returns a unique, checksum-valid EAN-13 code
func (f *FixtureFactory) GTIN() string {
	base := fmt.Sprintf("779%09d", f.nextSeq())
	return base + checkDigit(base)
}

func checkDigit(base string) string {
	sum := 0
	for i, r := range base {
		d := int(r - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	return fmt.Sprintf("%d", (10-sum%10)%10)
}

// Product builds a product fixture
func (f *FixtureFactory) Product(opts ...func(*ProductFixture)) ProductFixture {
	seq := f.nextSeq()

	product := ProductFixture{
		ID:           uuid.New().String(),
		GTIN:         f.GTIN(),
		Name:         fmt.Sprintf("Ibuprofeno 400mg #%d", seq),
		Manufacturer: "Laboratorio Test",
		Status:       "active",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	for _, opt := range opts {
		opt(&product)
	}

	return product
}

// WithGTIN sets the product GTIN
func WithGTIN(gtin string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.GTIN = gtin
	}
}

// WithProductName sets the product name
func WithProductName(name string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.Name = name
	}
}

// WithProductStatus sets the product status
func WithProductStatus(status string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.Status = status
	}
}

// Lot builds a lot fixture for a product
func (f *FixtureFactory) Lot(productID string, opts ...func(*LotFixture)) LotFixture {
	seq := f.nextSeq()

	lot := LotFixture{
		ID:         uuid.New().String(),
		ProductID:  productID,
		LotNumber:  fmt.Sprintf("L-%04d", seq),
		ExpiryDate: time.Now().AddDate(1, 0, 0),
		Stock:      0,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	for _, opt := range opts {
		opt(&lot)
	}

	return lot
}

// WithLotNumber sets the lot number
func WithLotNumber(number string) func(*LotFixture) {
	return func(l *LotFixture) {
		l.LotNumber = number
	}
}

// WithExpiry sets the lot expiry date
func WithExpiry(expiry time.Time) func(*LotFixture) {
	return func(l *LotFixture) {
		l.ExpiryDate = expiry
	}
}

// WithStock sets the lot stock
func WithStock(stock int) func(*LotFixture) {
	return func(l *LotFixture) {
		l.Stock = stock
	}
}
