package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/models"
)

const purchaseColumns = `id, user_id, ticker, name, type, qty, price, trade_date, created_at, updated_at`

// PurchaseStore implements interfaces.PurchaseStore on the asset_purchases table.
type PurchaseStore struct {
	db     *DB
	logger *common.Logger
}

// NewPurchaseStore creates a new PurchaseStore.
func NewPurchaseStore(db *DB, logger *common.Logger) *PurchaseStore {
	return &PurchaseStore{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPurchase(r rowScanner) (models.Purchase, error) {
	var (
		p         models.Purchase
		class     string
		tradeDate time.Time
	)
	if err := r.Scan(&p.ID, &p.UserID, &p.Ticker, &p.Name, &class, &p.Quantity, &p.Price, &tradeDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Purchase{}, err
	}
	p.Type = models.AssetClass(class)
	p.TradeDate = models.Day(tradeDate)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (s *PurchaseStore) ListPurchases(ctx context.Context, userID string) ([]models.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM asset_purchases
		WHERE user_id = $1
		ORDER BY trade_date ASC, created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	out := []models.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return out, nil
}

func (s *PurchaseStore) GetPurchase(ctx context.Context, userID, id string) (*models.Purchase, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM asset_purchases
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	p, err := scanPurchase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	return &p, nil
}

func (s *PurchaseStore) SavePurchase(ctx context.Context, p *models.Purchase) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO asset_purchases (`+purchaseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			ticker = EXCLUDED.ticker,
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			qty = EXCLUDED.qty,
			price = EXCLUDED.price,
			trade_date = EXCLUDED.trade_date,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.UserID, p.Ticker, p.Name, string(p.Type), p.Quantity, p.Price,
		models.FormatDate(p.TradeDate), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save purchase: %w", err)
	}
	return nil
}

func (s *PurchaseStore) DeletePurchase(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM asset_purchases WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}
	if n == 0 {
		return models.ErrPurchaseNotFound
	}
	return nil
}

// Compile-time check
var _ interfaces.PurchaseStore = (*PurchaseStore)(nil)
