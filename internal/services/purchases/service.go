// Package purchases manages a user's purchase records
package purchases

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/models"
)

// CacheInvalidator drops derived state for a user after purchases change.
type CacheInvalidator interface {
	Invalidate(userID string)
}

// Service implements PurchaseService
type Service struct {
	store  interfaces.PurchaseStore
	cache  CacheInvalidator
	now    func() time.Time
	logger *common.Logger
}

// NewService creates a new purchase service
func NewService(store interfaces.PurchaseStore, cache CacheInvalidator, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		now:    time.Now,
		logger: logger,
	}
}

func (s *Service) invalidate(userID string) {
	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
}

// Normalize upper-cases the ticker, lower-cases the type and validates the
// fields the performance engine depends on.
func Normalize(p models.Purchase) (models.Purchase, error) {
	p.Ticker = strings.ToUpper(strings.TrimSpace(p.Ticker))
	p.Name = strings.TrimSpace(p.Name)

	if p.Ticker == "" {
		return p, fmt.Errorf("%w: ticker is required", models.ErrInvalidPurchase)
	}
	class, ok := models.ParseAssetClass(string(p.Type))
	if !ok {
		return p, fmt.Errorf("%w: unknown type %q", models.ErrInvalidPurchase, p.Type)
	}
	p.Type = class
	if !(p.Quantity > 0) || math.IsInf(p.Quantity, 0) {
		return p, fmt.Errorf("%w: qty must be positive", models.ErrInvalidPurchase)
	}
	if !(p.Price >= 0) || math.IsInf(p.Price, 0) {
		return p, fmt.Errorf("%w: price must not be negative", models.ErrInvalidPurchase)
	}
	if p.TradeDate.IsZero() {
		return p, fmt.Errorf("%w: trade_date is required (YYYY-MM-DD)", models.ErrInvalidPurchase)
	}
	p.TradeDate = models.Day(p.TradeDate)
	return p, nil
}

// ListPurchases returns all purchases of a user
func (s *Service) ListPurchases(ctx context.Context, userID string) ([]models.Purchase, error) {
	purchases, err := s.store.ListPurchases(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

// CreatePurchase validates and stores a new purchase
func (s *Service) CreatePurchase(ctx context.Context, userID string, p models.Purchase) (*models.Purchase, error) {
	p, err := Normalize(p)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p.ID = uuid.New().String()
	p.UserID = userID
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.store.SavePurchase(ctx, &p); err != nil {
		return nil, fmt.Errorf("failed to save purchase: %w", err)
	}
	s.invalidate(userID)

	s.logger.Info().Str("user", userID).Str("ticker", p.Ticker).Str("id", p.ID).Msg("Purchase created")
	return &p, nil
}

// UpdatePurchase replaces the fields of an existing purchase
func (s *Service) UpdatePurchase(ctx context.Context, userID, id string, p models.Purchase) (*models.Purchase, error) {
	existing, err := s.store.GetPurchase(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	p, err = Normalize(p)
	if err != nil {
		return nil, err
	}

	p.ID = existing.ID
	p.UserID = userID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now().UTC()

	if err := s.store.SavePurchase(ctx, &p); err != nil {
		return nil, fmt.Errorf("failed to save purchase: %w", err)
	}
	s.invalidate(userID)

	s.logger.Info().Str("user", userID).Str("ticker", p.Ticker).Str("id", p.ID).Msg("Purchase updated")
	return &p, nil
}

// DeletePurchase removes a purchase
func (s *Service) DeletePurchase(ctx context.Context, userID, id string) error {
	if err := s.store.DeletePurchase(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)

	s.logger.Info().Str("user", userID).Str("id", id).Msg("Purchase deleted")
	return nil
}

// ImportPurchases stores a batch of purchases. The whole batch is validated
// first; nothing is written when any item is invalid.
func (s *Service) ImportPurchases(ctx context.Context, userID string, items []models.Purchase) (*models.ImportResult, error) {
	normalized := make([]models.Purchase, 0, len(items))
	for i, item := range items {
		p, err := Normalize(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		normalized = append(normalized, p)
	}

	now := s.now().UTC()
	result := &models.ImportResult{}
	defer func() {
		if result.Count > 0 {
			s.invalidate(userID)
		}
	}()

	for i := range normalized {
		p := &normalized[i]
		p.ID = uuid.New().String()
		p.UserID = userID
		p.CreatedAt = now
		p.UpdatedAt = now

		if err := s.store.SavePurchase(ctx, p); err != nil {
			return result, fmt.Errorf("failed to save item %d (%s): %w", i, p.Ticker, err)
		}
		result.Count++
	}

	s.logger.Info().Str("user", userID).Int("count", result.Count).Msg("Purchases imported")
	return result, nil
}

// ListPositions returns the user's purchases consolidated by ticker
func (s *Service) ListPositions(ctx context.Context, userID string) ([]models.Position, error) {
	purchases, err := s.ListPurchases(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ConsolidatePositions(purchases), nil
}

// ConsolidatePositions groups purchases by ticker: quantities are summed,
// the price is the quantity-weighted average and the date is the earliest.
func ConsolidatePositions(purchases []models.Purchase) []models.Position {
	byTicker := make(map[string]*models.Position)
	for _, p := range purchases {
		pos := p.Position()
		existing, ok := byTicker[pos.Ticker]
		if !ok {
			byTicker[pos.Ticker] = &pos
			continue
		}

		totalQty := existing.Quantity + pos.Quantity
		if totalQty > 0 {
			totalCost := existing.PurchasePrice*existing.Quantity + pos.PurchasePrice*pos.Quantity
			existing.PurchasePrice = totalCost / totalQty
		}
		existing.Quantity = totalQty
		if pos.PurchaseDate.Before(existing.PurchaseDate) {
			existing.PurchaseDate = pos.PurchaseDate
		}
		if existing.Name == "" {
			existing.Name = pos.Name
		}
	}

	out := make([]models.Position, 0, len(byTicker))
	for _, p := range byTicker {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}
