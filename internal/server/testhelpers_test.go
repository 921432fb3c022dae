package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bobmcallan/carteira/internal/app"
	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/models"
)

const testSecret = "test-secret"

// mockPerformanceService implements interfaces.PerformanceService for testing.
type mockPerformanceService struct {
	history func(ctx context.Context, userID string, opts models.HistoryOptions) (*models.PerformanceHistory, error)
	asset   func(ctx context.Context, userID, ticker string, months int) (*models.AssetHistory, error)
	chart   func(ctx context.Context, userID, series string, months int) ([]byte, error)
}

func (m *mockPerformanceService) GetPerformanceHistory(ctx context.Context, userID string, opts models.HistoryOptions) (*models.PerformanceHistory, error) {
	if m.history != nil {
		return m.history(ctx, userID, opts)
	}
	return &models.PerformanceHistory{}, nil
}

func (m *mockPerformanceService) GetAssetHistory(ctx context.Context, userID, ticker string, months int) (*models.AssetHistory, error) {
	if m.asset != nil {
		return m.asset(ctx, userID, ticker, months)
	}
	return &models.AssetHistory{Ticker: ticker}, nil
}

func (m *mockPerformanceService) RenderChart(ctx context.Context, userID, series string, months int) ([]byte, error) {
	if m.chart != nil {
		return m.chart(ctx, userID, series, months)
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

// mockPurchaseService implements interfaces.PurchaseService for testing.
type mockPurchaseService struct {
	list      func(ctx context.Context, userID string) ([]models.Purchase, error)
	create    func(ctx context.Context, userID string, p models.Purchase) (*models.Purchase, error)
	update    func(ctx context.Context, userID, id string, p models.Purchase) (*models.Purchase, error)
	remove    func(ctx context.Context, userID, id string) error
	importFn  func(ctx context.Context, userID string, items []models.Purchase) (*models.ImportResult, error)
	positions func(ctx context.Context, userID string) ([]models.Position, error)
}

func (m *mockPurchaseService) ListPurchases(ctx context.Context, userID string) ([]models.Purchase, error) {
	if m.list != nil {
		return m.list(ctx, userID)
	}
	return []models.Purchase{}, nil
}

func (m *mockPurchaseService) CreatePurchase(ctx context.Context, userID string, p models.Purchase) (*models.Purchase, error) {
	if m.create != nil {
		return m.create(ctx, userID, p)
	}
	p.ID = "new"
	p.UserID = userID
	return &p, nil
}

func (m *mockPurchaseService) UpdatePurchase(ctx context.Context, userID, id string, p models.Purchase) (*models.Purchase, error) {
	if m.update != nil {
		return m.update(ctx, userID, id, p)
	}
	p.ID = id
	return &p, nil
}

func (m *mockPurchaseService) DeletePurchase(ctx context.Context, userID, id string) error {
	if m.remove != nil {
		return m.remove(ctx, userID, id)
	}
	return nil
}

func (m *mockPurchaseService) ImportPurchases(ctx context.Context, userID string, items []models.Purchase) (*models.ImportResult, error) {
	if m.importFn != nil {
		return m.importFn(ctx, userID, items)
	}
	return &models.ImportResult{Count: len(items)}, nil
}

func (m *mockPurchaseService) ListPositions(ctx context.Context, userID string) ([]models.Position, error) {
	if m.positions != nil {
		return m.positions(ctx, userID)
	}
	return []models.Position{}, nil
}

func newTestApp(perf *mockPerformanceService, purch *mockPurchaseService) *app.App {
	if perf == nil {
		perf = &mockPerformanceService{}
	}
	if purch == nil {
		purch = &mockPurchaseService{}
	}
	cfg := common.NewDefaultConfig()
	cfg.Auth.JWTSecret = testSecret
	return &app.App{
		Config:             cfg,
		Logger:             common.NewSilentLogger(),
		PerformanceService: perf,
		PurchaseService:    purch,
	}
}

// newTestHandler returns the full middleware-wrapped handler.
func newTestHandler(a *app.App) http.Handler {
	return NewServer(a).Handler()
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func doRequest(h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
