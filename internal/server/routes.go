package server

import (
	"net/http"

	"github.com/bobmcallan/carteira/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Performance
	mux.HandleFunc("/api/performance/history", s.handlePerformanceHistory)
	mux.HandleFunc("/api/performance/assets/", s.handleAssetHistory)
	mux.HandleFunc("/api/performance/chart", s.handlePerformanceChart)

	// Market data
	mux.HandleFunc("/api/market/collect", s.handleMarketCollect)

	// Holdings
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/purchases/import", s.handlePurchaseImport)
	mux.HandleFunc("/api/purchases/", s.routePurchase)
	mux.HandleFunc("/api/purchases", s.handlePurchases)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.CurrentVersion())
}

// requireUser resolves the caller's user id. With require_auth set, a request
// without a validated bearer token is rejected with 401.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.app.Config.Auth.RequireAuth && common.UserContextFromContext(r.Context()) == nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return common.ResolveUserID(r.Context()), true
}
