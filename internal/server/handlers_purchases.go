package server

import (
	"net/http"

	"github.com/bobmcallan/carteira/internal/models"
)

// importRequest is the body of POST /api/purchases/import.
type importRequest struct {
	Purchases []models.Purchase `json:"purchases"`
}

type importResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// handlePositions handles GET /api/positions
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	positions, err := s.app.PurchaseService.ListPositions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"positions": positions})
}

// handlePurchases handles GET and POST /api/purchases
func (s *Server) handlePurchases(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		list, err := s.app.PurchaseService.ListPurchases(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"purchases": list})

	case http.MethodPost:
		var p models.Purchase
		if !DecodeJSON(w, r, &p) {
			return
		}
		created, err := s.app.PurchaseService.CreatePurchase(r.Context(), userID, p)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, created)
	}
}

// routePurchase handles PUT and DELETE /api/purchases/{id}
func (s *Server) routePurchase(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "/api/purchases/", "")
	if id == "" {
		s.handlePurchases(w, r)
		return
	}
	if !RequireMethod(w, r, http.MethodPut, http.MethodDelete) {
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPut:
		var p models.Purchase
		if !DecodeJSON(w, r, &p) {
			return
		}
		updated, err := s.app.PurchaseService.UpdatePurchase(r.Context(), userID, id, p)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.app.PurchaseService.DeletePurchase(r.Context(), userID, id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePurchaseImport handles POST /api/purchases/import
func (s *Server) handlePurchaseImport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req importRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.app.PurchaseService.ImportPurchases(r.Context(), userID, req.Purchases)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Int("items", len(req.Purchases)).Msg("Purchase import rejected")
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, importResponse{
		Success: true,
		Count:   result.Count,
		Message: "Import successful",
	})
}
