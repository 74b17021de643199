package websocket

import (
	"encoding/json"
	"sync"
)

// AlertUpdate is pushed to a user's open sockets when a bank sync leaves one
// of their budgets at or over its warning threshold.
type AlertUpdate struct {
	BudgetID   string `json:"budget_id"`
	CategoryID string `json:"category_id"`
	AlertType  string `json:"alert_type"`
	Spent      string `json:"spent"`
	Limit      string `json:"limit"`
	Currency   string `json:"currency"`
	Message    string `json:"message"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// BroadcastAlert drops the update for clients whose send buffer is full; a
// slow socket never blocks the sync path.
func (h *Hub) BroadcastAlert(userID string, update AlertUpdate) {
	payload, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
