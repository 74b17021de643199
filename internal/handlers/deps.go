package handlers

import (
	"context"
	"time"

	"budget/internal/banksync"
	"budget/internal/budgets"
	"budget/internal/models"
	"budget/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

type ConnectionManager interface {
	CreateConnection(ctx context.Context, userID, providerName string) (models.Connection, string, error)
	CompleteAuthorization(ctx context.Context, state, code string) (models.Connection, error)
	CancelAuthorization(ctx context.Context, state string) error
	GetConnection(ctx context.Context, connectionID string) (*models.Connection, error)
	Revoke(ctx context.Context, connectionID string) error
	ListConnectionsByUser(ctx context.Context, userID string) ([]models.Connection, error)
}

type SyncService interface {
	SyncConnection(ctx context.Context, userID, connectionID string, from, to time.Time) (banksync.Result, error)
}

type BudgetStore interface {
	Create(ctx context.Context, budget models.Budget) error
	Update(ctx context.Context, budget models.Budget) (int64, error)
	SetActive(ctx context.Context, userID, budgetID string, active bool) (int64, error)
	Delete(ctx context.Context, userID, budgetID string) (int64, error)
	GetByID(ctx context.Context, userID, budgetID string) (*models.Budget, error)
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.Budget, error)
}

type CategoryStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Category, error)
	GetByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error)
	SetCategory(ctx context.Context, userID, transactionID string, categoryID *string) (int64, error)
}

type BankAccountStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.BankAccount, error)
}

type Advisor interface {
	Advise(ctx context.Context, question string, progress []budgets.Progress) (string, error)
}
