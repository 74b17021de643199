package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"budget/internal/chat"
	"budget/internal/middleware"
)

type adviceRequest struct {
	Question string `json:"question"`
}

func (h *Handler) Advice(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req adviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	progress, err := h.progressForUser(r, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute progress")
		return
	}
	answer, err := h.advisor.Advise(r.Context(), req.Question, progress)
	if err != nil {
		if errors.Is(err, chat.ErrDisabled) {
			respondError(w, http.StatusServiceUnavailable, "advice is not configured")
			return
		}
		respondError(w, http.StatusBadGateway, "advice request failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"advice": answer})
}
