package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/banksync"
	"budget/internal/chat"
	"budget/internal/config"
	"budget/internal/connections"
	"budget/internal/db"
	"budget/internal/handlers"
	"budget/internal/provider"
	"budget/internal/store"
	"budget/internal/websocket"
)

// accountPermissions is the consent scope requested from the provider.
var accountPermissions = []string{"accounts", "transactions"}

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	connectionStore := store.NewConnectionStore(database)
	bankAccounts := store.NewBankAccountStore(database)
	categories := store.NewCategoryStore(database)
	transactions := store.NewTransactionStore(database)
	budgetStore := store.NewBudgetStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	adapter := newAdapter(cfg)
	manager := connections.NewManager(connectionStore, adapter, accountPermissions)

	threshold, err := decimal.NewFromString(cfg.AlertThreshold)
	if err != nil {
		log.Fatalf("invalid ALERT_THRESHOLD %q: %v", cfg.AlertThreshold, err)
	}

	syncer := banksync.NewService(txRunner, manager, adapter, bankAccounts, transactions, categories, budgetStore, hub, threshold)
	advisor := chat.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	if advisor == nil {
		log.Println("advice endpoint disabled: no OPENAI_API_KEY configured")
	}

	handler := handlers.New(cfg, txRunner, users, manager, syncer, budgetStore, categories, transactions, bankAccounts, advisor, hub, threshold)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stopCleanup := startCleanup(manager)
	defer stopCleanup()

	go func() {
		log.Printf("budget API listening on %s (provider mode %s)", server.Addr, cfg.ProviderMode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

// newAdapter picks the provider implementation from configuration. The
// sandbox is never a fallback: a misconfigured live gateway should fail
// loudly, not silently serve fake data.
func newAdapter(cfg config.Config) provider.Adapter {
	if cfg.ProviderMode == "sandbox" {
		return provider.NewSandbox()
	}
	if cfg.ProviderBaseURL == "" || cfg.ProviderClientID == "" {
		log.Fatal("PROVIDER_BASE_URL and PROVIDER_CLIENT_ID are required outside sandbox mode")
	}
	return provider.NewGateway(provider.GatewayConfig{
		BaseURL:      cfg.ProviderBaseURL,
		ClientID:     cfg.ProviderClientID,
		ClientSecret: cfg.ProviderClientSecret,
		RedirectURL:  cfg.ProviderRedirectURL,
		Timeout:      cfg.ProviderTimeout,
	})
}

// startCleanup sweeps long-expired connections once an hour.
func startCleanup(manager *connections.Manager) func() {
	ticker := time.NewTicker(time.Hour)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				removed, err := manager.CleanupExpired(context.Background())
				if err != nil {
					log.Printf("connection cleanup failed: %v", err)
					continue
				}
				if removed > 0 {
					log.Printf("connection cleanup removed %d rows", removed)
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
