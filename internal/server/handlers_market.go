package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/carteira/internal/models"
)

// handleMarketCollect handles POST /api/market/collect?months=&scope=benchmarks
func (s *Server) handleMarketCollect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if s.app.MarketService == nil {
		WriteErrorWithCode(w, http.StatusServiceUnavailable, "market collection requires market.base_url", "collector_disabled")
		return
	}

	months, ok := queryMonths(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "months must be an integer")
		return
	}

	var err error
	var result *models.CollectResult
	if strings.EqualFold(r.URL.Query().Get("scope"), "benchmarks") {
		result, err = s.app.MarketService.CollectBenchmarks(r.Context(), months)
	} else {
		result, err = s.app.MarketService.Collect(r.Context(), userID, months)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
