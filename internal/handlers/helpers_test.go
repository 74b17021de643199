package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"budget/internal/auth"
	"budget/internal/banksync"
	"budget/internal/budgets"
	"budget/internal/config"
	"budget/internal/middleware"
	"budget/internal/models"
	"budget/internal/store"
	"budget/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	getByEmailFn func(ctx context.Context, email string) (*models.User, error)
	getByIDFn    func(ctx context.Context, userID string) (*models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.getByEmailFn == nil {
		return nil, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if s.getByIDFn == nil {
		return nil, nil
	}
	return s.getByIDFn(ctx, userID)
}

type stubConnectionManager struct {
	createFn   func(ctx context.Context, userID, providerName string) (models.Connection, string, error)
	completeFn func(ctx context.Context, state, code string) (models.Connection, error)
	cancelFn   func(ctx context.Context, state string) error
	getFn      func(ctx context.Context, connectionID string) (*models.Connection, error)
	revokeFn   func(ctx context.Context, connectionID string) error
	listFn     func(ctx context.Context, userID string) ([]models.Connection, error)
}

func (s stubConnectionManager) CreateConnection(ctx context.Context, userID, providerName string) (models.Connection, string, error) {
	if s.createFn == nil {
		return models.Connection{}, "", nil
	}
	return s.createFn(ctx, userID, providerName)
}

func (s stubConnectionManager) CompleteAuthorization(ctx context.Context, state, code string) (models.Connection, error) {
	if s.completeFn == nil {
		return models.Connection{}, nil
	}
	return s.completeFn(ctx, state, code)
}

func (s stubConnectionManager) CancelAuthorization(ctx context.Context, state string) error {
	if s.cancelFn == nil {
		return nil
	}
	return s.cancelFn(ctx, state)
}

func (s stubConnectionManager) GetConnection(ctx context.Context, connectionID string) (*models.Connection, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, connectionID)
}

func (s stubConnectionManager) Revoke(ctx context.Context, connectionID string) error {
	if s.revokeFn == nil {
		return nil
	}
	return s.revokeFn(ctx, connectionID)
}

func (s stubConnectionManager) ListConnectionsByUser(ctx context.Context, userID string) ([]models.Connection, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID)
}

type stubSyncService struct {
	syncFn func(ctx context.Context, userID, connectionID string, from, to time.Time) (banksync.Result, error)
}

func (s stubSyncService) SyncConnection(ctx context.Context, userID, connectionID string, from, to time.Time) (banksync.Result, error) {
	if s.syncFn == nil {
		return banksync.Result{}, nil
	}
	return s.syncFn(ctx, userID, connectionID, from, to)
}

type stubBudgetStore struct {
	createFn    func(ctx context.Context, budget models.Budget) error
	updateFn    func(ctx context.Context, budget models.Budget) (int64, error)
	setActiveFn func(ctx context.Context, userID, budgetID string, active bool) (int64, error)
	deleteFn    func(ctx context.Context, userID, budgetID string) (int64, error)
	getByIDFn   func(ctx context.Context, userID, budgetID string) (*models.Budget, error)
	listFn      func(ctx context.Context, userID string, activeOnly bool) ([]models.Budget, error)
}

func (s stubBudgetStore) Create(ctx context.Context, budget models.Budget) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, budget)
}

func (s stubBudgetStore) Update(ctx context.Context, budget models.Budget) (int64, error) {
	if s.updateFn == nil {
		return 1, nil
	}
	return s.updateFn(ctx, budget)
}

func (s stubBudgetStore) SetActive(ctx context.Context, userID, budgetID string, active bool) (int64, error) {
	if s.setActiveFn == nil {
		return 1, nil
	}
	return s.setActiveFn(ctx, userID, budgetID, active)
}

func (s stubBudgetStore) Delete(ctx context.Context, userID, budgetID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, userID, budgetID)
}

func (s stubBudgetStore) GetByID(ctx context.Context, userID, budgetID string) (*models.Budget, error) {
	if s.getByIDFn == nil {
		return nil, nil
	}
	return s.getByIDFn(ctx, userID, budgetID)
}

func (s stubBudgetStore) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.Budget, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, activeOnly)
}

type stubCategoryStore struct {
	listFn    func(ctx context.Context, userID string) ([]models.Category, error)
	getByIDFn func(ctx context.Context, userID, categoryID string) (*models.Category, error)
}

func (s stubCategoryStore) ListByUser(ctx context.Context, userID string) ([]models.Category, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID)
}

func (s stubCategoryStore) GetByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	if s.getByIDFn == nil {
		return nil, nil
	}
	return s.getByIDFn(ctx, userID, categoryID)
}

type stubTransactionStore struct {
	listFn        func(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error)
	setCategoryFn func(ctx context.Context, userID, transactionID string, categoryID *string) (int64, error)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, filter)
}

func (s stubTransactionStore) SetCategory(ctx context.Context, userID, transactionID string, categoryID *string) (int64, error) {
	if s.setCategoryFn == nil {
		return 1, nil
	}
	return s.setCategoryFn(ctx, userID, transactionID, categoryID)
}

type stubBankAccountStore struct {
	listFn func(ctx context.Context, userID string) ([]models.BankAccount, error)
}

func (s stubBankAccountStore) ListByUser(ctx context.Context, userID string) ([]models.BankAccount, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID)
}

type stubAdvisor struct {
	adviseFn func(ctx context.Context, question string, progress []budgets.Progress) (string, error)
}

func (s stubAdvisor) Advise(ctx context.Context, question string, progress []budgets.Progress) (string, error) {
	if s.adviseFn == nil {
		return "", nil
	}
	return s.adviseFn(ctx, question, progress)
}

func newTestHandler(txRunner fakeTxRunner, users stubUserStore, conns stubConnectionManager, syncer stubSyncService, budgetStore stubBudgetStore, categories stubCategoryStore, transactions stubTransactionStore, bankAccounts stubBankAccountStore, advisor stubAdvisor) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
	}
	return New(cfg, txRunner, users, conns, syncer, budgetStore, categories, transactions, bankAccounts, advisor, websocket.NewHub(), decimal.New(9, -1))
}

func serveWithAuth(t *testing.T, handler http.HandlerFunc, userID, method, target string, body io.Reader, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for key, value := range params {
			routeCtx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	}
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}
