// Package testutil provides testing utilities for the FarmaTrack backend.
// It includes testcontainers for PostgreSQL, a mock database factory, and
// common test fixtures.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "farmatrack_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "farmatrack_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// CreateStockSchema creates the stock tables used by the service
func (c *PostgresContainer) CreateStockSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			gtin TEXT NOT NULL,
			name TEXT NOT NULL,
			manufacturer TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT products_gtin_key UNIQUE (gtin),
			CONSTRAINT products_status_valid CHECK (status IN ('active', 'inactive'))
		);

		CREATE TABLE IF NOT EXISTS lots (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			lot_number TEXT NOT NULL,
			expiry_date DATE NOT NULL,
			stock INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT lots_product_lot_number_key UNIQUE (product_id, lot_number),
			CONSTRAINT lots_stock_non_negative CHECK (stock >= 0)
		);

		CREATE TABLE IF NOT EXISTS movements (
			id BIGSERIAL PRIMARY KEY,
			lot_id UUID NOT NULL REFERENCES lots(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			quantity INT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			doc_ref TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT movements_kind_valid CHECK (kind IN ('RECEIPT', 'ISSUE', 'ADJUSTMENT'))
		);

		CREATE INDEX IF NOT EXISTS idx_lots_fefo ON lots (product_id, expiry_date, id);
		CREATE INDEX IF NOT EXISTS idx_lots_expiry ON lots (expiry_date) WHERE stock > 0;
		CREATE INDEX IF NOT EXISTS idx_movements_lot ON movements (lot_id);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create stock schema: %w", err)
	}
	return nil
}

// TruncateStockTables empties the stock tables between tests
func (c *PostgresContainer) TruncateStockTables(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `TRUNCATE products, lots, movements RESTART IDENTITY CASCADE`)
	return err
}
