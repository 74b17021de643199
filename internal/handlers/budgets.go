package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"budget/internal/budgets"
	"budget/internal/middleware"
	"budget/internal/models"
	"budget/internal/store"
	"budget/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type budgetRequest struct {
	CategoryID string `json:"category_id"`
	Period     string `json:"period"`
	Limit      string `json:"limit"`
	Currency   string `json:"currency"`
	StartsOn   string `json:"starts_on"`
	Active     *bool  `json:"active"`
}

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Period == "" {
		req.Period = models.PeriodMonth
	}
	limitMinor, err := parseAmountMinor(req.Limit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	startsOn, err := parseDate(req.StartsOn)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid starts_on date")
		return
	}
	if err := validator.ValidateBudget(req.CategoryID, req.Period, req.Currency, limitMinor, startsOn); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := h.categories.GetByID(r.Context(), userID, req.CategoryID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load category")
		return
	}
	if category == nil {
		respondError(w, http.StatusBadRequest, "unknown category")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	now := time.Now().UTC()
	budget := models.Budget{
		ID:         uuid.NewString(),
		UserID:     userID,
		CategoryID: req.CategoryID,
		Period:     req.Period,
		LimitMinor: limitMinor,
		Currency:   req.Currency,
		StartsOn:   startsOn,
		Active:     active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.budgets.Create(r.Context(), budget); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create budget")
		return
	}
	respondJSON(w, http.StatusCreated, budget)
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"
	rows, err := h.budgets.ListByUser(r.Context(), userID, activeOnly)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load budgets")
		return
	}
	if rows == nil {
		rows = []models.Budget{}
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	budget, err := h.budgets.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load budget")
		return
	}
	if budget == nil {
		respondError(w, http.StatusNotFound, "budget not found")
		return
	}
	respondJSON(w, http.StatusOK, budget)
}

func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	budget, err := h.budgets.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load budget")
		return
	}
	if budget == nil {
		respondError(w, http.StatusNotFound, "budget not found")
		return
	}
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Limit != "" {
		limitMinor, err := parseAmountMinor(req.Limit)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_amount")
			return
		}
		budget.LimitMinor = limitMinor
	}
	if req.Currency != "" {
		budget.Currency = req.Currency
	}
	if req.StartsOn != "" {
		startsOn, err := parseDate(req.StartsOn)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid starts_on date")
			return
		}
		budget.StartsOn = startsOn
	}
	if req.Active != nil {
		budget.Active = *req.Active
	}
	if err := validator.ValidateBudget(budget.CategoryID, budget.Period, budget.Currency, budget.LimitMinor, budget.StartsOn); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	affected, err := h.budgets.Update(r.Context(), *budget)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update budget")
		return
	}
	if affected == 0 {
		respondError(w, http.StatusNotFound, "budget not found")
		return
	}
	respondJSON(w, http.StatusOK, budget)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) SetBudgetActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	affected, err := h.budgets.SetActive(r.Context(), userID, chi.URLParam(r, "id"), req.Active)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update budget")
		return
	}
	if affected == 0 {
		respondError(w, http.StatusNotFound, "budget not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	affected, err := h.budgets.Delete(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete budget")
		return
	}
	if affected == 0 {
		respondError(w, http.StatusNotFound, "budget not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BudgetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	progress, err := h.progressForUser(r, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute progress")
		return
	}
	respondJSON(w, http.StatusOK, progress)
}

func (h *Handler) BudgetAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	activeBudgets, err := h.budgets.ListByUser(r.Context(), userID, true)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load budgets")
		return
	}
	transactions, err := h.transactions.ListByUser(r.Context(), userID, store.TransactionFilter{})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	alerts := budgets.ListAlerts(activeBudgets, transactions, h.threshold)
	if alerts == nil {
		alerts = []budgets.Alert{}
	}
	respondJSON(w, http.StatusOK, alerts)
}

func (h *Handler) progressForUser(r *http.Request, userID string) ([]budgets.Progress, error) {
	activeBudgets, err := h.budgets.ListByUser(r.Context(), userID, true)
	if err != nil {
		return nil, err
	}
	transactions, err := h.transactions.ListByUser(r.Context(), userID, store.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	progress := make([]budgets.Progress, 0, len(activeBudgets))
	for _, budget := range activeBudgets {
		progress = append(progress, budgets.ComputeProgress(budget, transactions, h.threshold))
	}
	return progress, nil
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rows, err := h.categories.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load categories")
		return
	}
	if rows == nil {
		rows = []models.Category{}
	}
	respondJSON(w, http.StatusOK, rows)
}
