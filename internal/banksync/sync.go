// Package banksync pulls accounts and transactions from the open-banking
// provider through the Connection Manager and persists them, then pushes
// budget alerts for anything the new data tipped over its threshold.
package banksync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"budget/internal/budgets"
	"budget/internal/db"
	"budget/internal/models"
	"budget/internal/money"
	"budget/internal/provider"
	"budget/internal/store"
	"budget/internal/websocket"
)

type TokenSource interface {
	GetValidAccessToken(ctx context.Context, connectionID string) (string, error)
}

type BankAccountStore interface {
	Upsert(ctx context.Context, tx store.Tx, account models.BankAccount) (string, error)
}

type TransactionStore interface {
	Upsert(ctx context.Context, tx store.Execer, input models.Transaction) error
	ListByUser(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error)
}

type CategoryStore interface {
	EnsureByName(ctx context.Context, tx store.Tx, userID, name string) (string, error)
}

type BudgetStore interface {
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.Budget, error)
}

type AlertHub interface {
	BroadcastAlert(userID string, update websocket.AlertUpdate)
}

type Service struct {
	txRunner     db.TxRunner
	tokens       TokenSource
	adapter      provider.Adapter
	accounts     BankAccountStore
	transactions TransactionStore
	categories   CategoryStore
	budgets      BudgetStore
	hub          AlertHub
	threshold    decimal.Decimal
}

func NewService(txRunner db.TxRunner, tokens TokenSource, adapter provider.Adapter, accounts BankAccountStore, transactions TransactionStore, categories CategoryStore, budgetStore BudgetStore, hub AlertHub, threshold decimal.Decimal) *Service {
	if threshold.IsZero() {
		threshold = budgets.DefaultThreshold
	}
	return &Service{
		txRunner:     txRunner,
		tokens:       tokens,
		adapter:      adapter,
		accounts:     accounts,
		transactions: transactions,
		categories:   categories,
		budgets:      budgetStore,
		hub:          hub,
		threshold:    threshold,
	}
}

type Result struct {
	Accounts     int             `json:"accounts"`
	Transactions int             `json:"transactions"`
	Alerts       []budgets.Alert `json:"alerts"`
}

// SyncConnection fetches everything from the provider first, then persists
// in one transaction. Provider calls never run inside the database
// transaction.
func (s *Service) SyncConnection(ctx context.Context, userID, connectionID string, from, to time.Time) (Result, error) {
	token, err := s.tokens.GetValidAccessToken(ctx, connectionID)
	if err != nil {
		return Result{}, err
	}
	providerAccounts, err := s.adapter.GetAccounts(ctx, token)
	if err != nil {
		return Result{}, err
	}
	type accountBatch struct {
		account      provider.Account
		transactions []provider.Transaction
	}
	batches := make([]accountBatch, 0, len(providerAccounts))
	total := 0
	for _, account := range providerAccounts {
		providerTxs, err := s.adapter.GetTransactions(ctx, token, account.ProviderRef, from, to)
		if err != nil {
			return Result{}, err
		}
		total += len(providerTxs)
		batches = append(batches, accountBatch{account: account, transactions: providerTxs})
	}

	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, batch := range batches {
			accountID, err := s.accounts.Upsert(ctx, tx, models.BankAccount{
				ID:           uuid.NewString(),
				UserID:       userID,
				ConnectionID: connectionID,
				ProviderRef:  batch.account.ProviderRef,
				Name:         batch.account.Name,
				Currency:     batch.account.Currency,
				BalanceMinor: batch.account.BalanceMinor,
			})
			if err != nil {
				return err
			}
			for _, providerTx := range batch.transactions {
				var categoryID *string
				if providerTx.Category != "" {
					id, err := s.categories.EnsureByName(ctx, tx, userID, providerTx.Category)
					if err != nil {
						return err
					}
					categoryID = &id
				}
				ref := providerTx.ProviderRef
				if err := s.transactions.Upsert(ctx, tx, models.Transaction{
					ID:            uuid.NewString(),
					UserID:        userID,
					CategoryID:    categoryID,
					AmountMinor:   providerTx.AmountMinor,
					Currency:      providerTx.Currency,
					Date:          providerTx.Date,
					Description:   providerTx.Description,
					Merchant:      providerTx.Merchant,
					BankAccountID: &accountID,
					ProviderRef:   &ref,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	alerts, err := s.alertsForUser(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	for _, alert := range alerts {
		s.hub.BroadcastAlert(userID, alertUpdate(alert))
	}
	return Result{
		Accounts:     len(providerAccounts),
		Transactions: total,
		Alerts:       alerts,
	}, nil
}

func (s *Service) alertsForUser(ctx context.Context, userID string) ([]budgets.Alert, error) {
	activeBudgets, err := s.budgets.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	if len(activeBudgets) == 0 {
		return nil, nil
	}
	transactions, err := s.transactions.ListByUser(ctx, userID, store.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	return budgets.ListAlerts(activeBudgets, transactions, s.threshold), nil
}

func alertUpdate(alert budgets.Alert) websocket.AlertUpdate {
	return websocket.AlertUpdate{
		BudgetID:   alert.BudgetID,
		CategoryID: alert.CategoryID,
		AlertType:  alert.AlertType,
		Spent:      money.FormatMinor(alert.SpentMinor),
		Limit:      money.FormatMinor(alert.LimitMinor),
		Currency:   alert.Currency,
		Message:    alert.Message,
	}
}
