package postgres

import (
	"context"
	"fmt"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
)

// Manager implements interfaces.StorageManager on PostgreSQL.
type Manager struct {
	db     *DB
	logger *common.Logger

	purchaseStore *PurchaseStore
	marketStore   *MarketStore
}

// NewManager opens the pool, applies the schema and builds the stores.
func NewManager(ctx context.Context, logger *common.Logger, config *common.Config) (*Manager, error) {
	db, err := Open(ctx, config.Storage.PostgresURL, config.Storage.PoolMax)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info().Int("pool_max", config.Storage.PoolMax).Msg("Postgres storage manager initialized")
	return newManager(db, logger), nil
}

func newManager(db *DB, logger *common.Logger) *Manager {
	return &Manager{
		db:            db,
		logger:        logger,
		purchaseStore: NewPurchaseStore(db, logger),
		marketStore:   NewMarketStore(db, logger),
	}
}

func (m *Manager) PurchaseStore() interfaces.PurchaseStore {
	return m.purchaseStore
}

func (m *Manager) MarketDataStore() interfaces.MarketDataStore {
	return m.marketStore
}

func (m *Manager) Driver() string {
	return "postgres"
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
