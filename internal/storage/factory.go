// Package storage selects the persistence backend and adapts stored market
// history into the performance engine's MarketDataSource.
package storage

import (
	"context"
	"fmt"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/storage/postgres"
	"github.com/bobmcallan/carteira/internal/storage/surrealdb"
)

// Driver constants.
const (
	DriverSurrealDB = "surrealdb"
	DriverPostgres  = "postgres"
)

// NewStorageManager creates a storage manager based on the configured driver.
// Supported drivers: "surrealdb" (default), "postgres".
func NewStorageManager(ctx context.Context, logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	driver := config.Storage.Driver
	if driver == "" {
		driver = DriverSurrealDB
	}

	switch driver {
	case DriverSurrealDB:
		m, err := surrealdb.NewManager(logger, config)
		if err != nil {
			return nil, err
		}
		return m, nil

	case DriverPostgres:
		m, err := postgres.NewManager(ctx, logger, config)
		if err != nil {
			return nil, err
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %s (supported: surrealdb, postgres)", driver)
	}
}
