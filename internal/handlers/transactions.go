package handlers

import (
	"encoding/json"
	"net/http"

	"budget/internal/middleware"
	"budget/internal/models"
	"budget/internal/store"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	query := r.URL.Query()
	filter := store.TransactionFilter{
		CategoryIDs: query["category_id"],
	}
	if raw := query.Get("from"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		filter.From = parsed
	}
	if raw := query.Get("to"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		filter.To = parsed
	}
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 50)
	filter.Limit = limit
	filter.Offset = (page - 1) * limit
	rows, err := h.transactions.ListByUser(r.Context(), userID, filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	if rows == nil {
		rows = []models.Transaction{}
	}
	respondJSON(w, http.StatusOK, rows)
}

type setCategoryRequest struct {
	CategoryID *string `json:"category_id"`
}

// SetTransactionCategory recategorizes a transaction; a null category_id
// clears it back to uncategorized.
func (h *Handler) SetTransactionCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req setCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.CategoryID != nil {
		category, err := h.categories.GetByID(r.Context(), userID, *req.CategoryID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load category")
			return
		}
		if category == nil {
			respondError(w, http.StatusBadRequest, "unknown category")
			return
		}
	}
	affected, err := h.transactions.SetCategory(r.Context(), userID, chi.URLParam(r, "id"), req.CategoryID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update transaction")
		return
	}
	if affected == 0 {
		respondError(w, http.StatusNotFound, "transaction not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"category_id": req.CategoryID})
}
