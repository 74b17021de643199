package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"budget/internal/connections"
	"budget/internal/middleware"
	"budget/internal/models"
	"budget/internal/provider"

	"github.com/go-chi/chi/v5"
)

type createConnectionRequest struct {
	Provider string `json:"provider"`
}

func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Provider == "" {
		respondError(w, http.StatusBadRequest, "provider is required")
		return
	}
	conn, authURL, err := h.connections.CreateConnection(r.Context(), userID, req.Provider)
	if err != nil {
		respondError(w, http.StatusBadGateway, "unable to start authorization")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"connection": conn,
		"auth_url":   authURL,
	})
}

func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	conns, err := h.connections.ListConnectionsByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load connections")
		return
	}
	if conns == nil {
		conns = []models.Connection{}
	}
	respondJSON(w, http.StatusOK, conns)
}

func (h *Handler) ConnectionCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	state := query.Get("state")
	if state == "" {
		respondError(w, http.StatusBadRequest, "state is required")
		return
	}
	if query.Get("error") != "" {
		if err := h.connections.CancelAuthorization(r.Context(), state); err != nil {
			if errors.Is(err, connections.ErrUnknownState) {
				respondError(w, http.StatusBadRequest, "unknown or already used state")
				return
			}
			respondError(w, http.StatusInternalServerError, "unable to cancel authorization")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
		return
	}
	code := query.Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}
	conn, err := h.connections.CompleteAuthorization(r.Context(), state, code)
	if err != nil {
		switch {
		case errors.Is(err, connections.ErrUnknownState):
			respondError(w, http.StatusBadRequest, "unknown or already used state")
		case errors.Is(err, connections.ErrExchangeFailed):
			respondError(w, http.StatusBadGateway, "connection failed, try again")
		default:
			respondError(w, http.StatusInternalServerError, "unable to complete authorization")
		}
		return
	}
	respondJSON(w, http.StatusOK, conn)
}

func (h *Handler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	conn, err := h.ownedConnection(w, r, userID)
	if err != nil {
		return
	}
	if err := h.connections.Revoke(r.Context(), conn.ID); err != nil {
		if errors.Is(err, connections.ErrNotFound) {
			respondError(w, http.StatusNotFound, "connection not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to delete connection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SyncConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	conn, err := h.ownedConnection(w, r, userID)
	if err != nil {
		return
	}
	from, to, err := syncWindow(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.syncer.SyncConnection(r.Context(), userID, conn.ID, from, to)
	if err != nil {
		h.respondSyncError(w, conn, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) respondSyncError(w http.ResponseWriter, conn *models.Connection, err error) {
	var provErr *provider.Error
	switch {
	case errors.Is(err, connections.ErrExpired):
		respondError(w, http.StatusConflict, "connection expired, reconnect your bank")
	case errors.Is(err, connections.ErrNotLinked):
		if conn.Status == models.ConnectionFailed {
			respondError(w, http.StatusConflict, "connection failed, try again")
			return
		}
		respondError(w, http.StatusConflict, "connection not finished")
	case errors.Is(err, connections.ErrNotFound):
		respondError(w, http.StatusNotFound, "connection not found")
	case errors.As(err, &provErr):
		respondError(w, http.StatusBadGateway, "provider rejected the request")
	default:
		respondError(w, http.StatusBadGateway, "sync failed")
	}
}

// syncWindow defaults to the last 30 days, wide enough to cover the current
// budget period at any point in the month.
func syncWindow(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now
	query := r.URL.Query()
	if raw := query.Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from date")
		}
		from = parsed
	}
	if raw := query.Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to date")
		}
		to = parsed
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to must not precede from")
	}
	return from, to, nil
}

func (h *Handler) ownedConnection(w http.ResponseWriter, r *http.Request, userID string) (*models.Connection, error) {
	conn, err := h.connections.GetConnection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, connections.ErrNotFound) {
			respondError(w, http.StatusNotFound, "connection not found")
			return nil, err
		}
		respondError(w, http.StatusInternalServerError, "unable to load connection")
		return nil, err
	}
	// A foreign id reads as missing, not forbidden.
	if conn.UserID != userID {
		respondError(w, http.StatusNotFound, "connection not found")
		return nil, connections.ErrNotFound
	}
	return conn, nil
}

func (h *Handler) ListBankAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accounts, err := h.bankAccounts.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load accounts")
		return
	}
	if accounts == nil {
		accounts = []models.BankAccount{}
	}
	respondJSON(w, http.StatusOK, accounts)
}
