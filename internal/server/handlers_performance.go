package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/carteira/internal/models"
)

// handlePerformanceHistory handles GET /api/performance/history?months=&interval=
func (s *Server) handlePerformanceHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	months, ok := queryMonths(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "months must be an integer")
		return
	}

	interval := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("interval")))
	switch interval {
	case "", models.IntervalDaily, models.IntervalWeekly, models.IntervalMonthly:
	default:
		WriteError(w, http.StatusBadRequest, "interval must be daily, weekly or monthly")
		return
	}

	history, err := s.app.PerformanceService.GetPerformanceHistory(r.Context(), userID, models.HistoryOptions{
		Months:   months,
		Interval: interval,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Performance history failed")
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, history)
}

// handleAssetHistory handles GET /api/performance/assets/{ticker}?months=
func (s *Server) handleAssetHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	ticker := PathParam(r, "/api/performance/assets/", "")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	months, ok := queryMonths(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "months must be an integer")
		return
	}

	history, err := s.app.PerformanceService.GetAssetHistory(r.Context(), userID, ticker, months)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, history)
}

// handlePerformanceChart handles GET /api/performance/chart?class=&months= and returns a PNG.
func (s *Server) handlePerformanceChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	months, ok := queryMonths(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "months must be an integer")
		return
	}

	png, err := s.app.PerformanceService.RenderChart(r.Context(), userID, r.URL.Query().Get("class"), months)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
