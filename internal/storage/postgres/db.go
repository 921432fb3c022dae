// Package postgres implements the storage interfaces on PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// DB wraps a pooled *sql.DB.
type DB struct {
	*sql.DB
}

// Open connects to Postgres and verifies the connection with a short ping.
func Open(ctx context.Context, databaseURL string, poolMax int) (*DB, error) {
	url := strings.TrimSpace(databaseURL)
	if url == "" {
		return nil, fmt.Errorf("postgres_url is required")
	}

	d, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}

	poolSize := poolMax
	if poolSize <= 0 {
		poolSize = 2
	}

	d.SetMaxOpenConns(poolSize)
	d.SetMaxIdleConns(poolSize)
	d.SetConnMaxLifetime(5 * time.Minute)
	d.SetConnMaxIdleTime(30 * time.Second)

	if ctx == nil {
		ctx = context.Background()
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := d.PingContext(pingCtx); err != nil {
		_ = d.Close()
		return nil, err
	}

	return &DB{DB: d}, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS asset_purchases (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		ticker TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		qty DOUBLE PRECISION NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		trade_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_asset_purchases_user ON asset_purchases (user_id, trade_date)`,
	`CREATE TABLE IF NOT EXISTS b3_prices (
		ticker TEXT NOT NULL,
		trade_date DATE NOT NULL,
		close DOUBLE PRECISION,
		dividend_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (ticker, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS cdi_history (
		trade_date DATE PRIMARY KEY,
		value DOUBLE PRECISION
	)`,
}

// indexTables hold one close_value per day.
var indexTables = []string{"ibov_history", "ifix_history", "sp500_history"}

// EnsureSchema creates the tables used by the stores if they are missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	stmts := append([]string{}, schema...)
	for _, t := range indexTables {
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		trade_date DATE PRIMARY KEY,
		close_value DOUBLE PRECISION
	)`, pq.QuoteIdentifier(t)))
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
