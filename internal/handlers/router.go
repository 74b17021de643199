package handlers

import (
	"net/http"

	"budget/internal/config"
	"budget/internal/db"
	"budget/internal/middleware"
	"budget/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
)

type Handler struct {
	cfg          config.Config
	txRunner     db.TxRunner
	users        UserStore
	connections  ConnectionManager
	syncer       SyncService
	budgets      BudgetStore
	categories   CategoryStore
	transactions TransactionStore
	bankAccounts BankAccountStore
	advisor      Advisor
	hub          *websocket.Hub
	threshold    decimal.Decimal
}

func New(cfg config.Config, txRunner db.TxRunner, users UserStore, connections ConnectionManager, syncer SyncService, budgetStore BudgetStore, categories CategoryStore, transactions TransactionStore, bankAccounts BankAccountStore, advisor Advisor, hub *websocket.Hub, threshold decimal.Decimal) *Handler {
	return &Handler{
		cfg:          cfg,
		txRunner:     txRunner,
		users:        users,
		connections:  connections,
		syncer:       syncer,
		budgets:      budgetStore,
		categories:   categories,
		transactions: transactions,
		bankAccounts: bankAccounts,
		advisor:      advisor,
		hub:          hub,
		threshold:    threshold,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})
	// The provider redirects the user's browser here; there is no bearer
	// token on this request, the state parameter is the credential.
	router.Get("/connections/callback", h.ConnectionCallback)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/connections", h.CreateConnection)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/connections", h.ListConnections)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Delete("/connections/{id}", h.DeleteConnection)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/connections/{id}/sync", h.SyncConnection)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/accounts", h.ListBankAccounts)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/categories", h.ListCategories)
	router.Route("/budgets", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Post("/", h.CreateBudget)
		r.Get("/", h.ListBudgets)
		r.Get("/progress", h.BudgetProgress)
		r.Get("/alerts", h.BudgetAlerts)
		r.Get("/{id}", h.GetBudget)
		r.Put("/{id}", h.UpdateBudget)
		r.Put("/{id}/active", h.SetBudgetActive)
		r.Delete("/{id}", h.DeleteBudget)
	})
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/transactions", h.ListTransactions)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Put("/transactions/{id}/category", h.SetTransactionCategory)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/advice", h.Advice)
	router.Get("/ws/alerts", h.WSAlerts)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
