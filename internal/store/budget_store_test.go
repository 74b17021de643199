package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"budget/internal/models"
)

func TestBudgetGetMissingReturnsNil(t *testing.T) {
	budgets := NewBudgetStore(stubDB{
		getFn: func(context.Context, any, string, ...any) error {
			return sql.ErrNoRows
		},
	})
	budget, err := budgets.GetByID(context.Background(), "user-1", "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if budget != nil {
		t.Fatalf("expected nil, got %#v", budget)
	}
}

func TestBudgetListActiveOnly(t *testing.T) {
	budgets := NewBudgetStore(stubDB{
		selectFn: func(_ context.Context, _ any, query string, args ...any) error {
			if !strings.Contains(query, "active = TRUE") {
				t.Fatalf("expected active filter: %s", query)
			}
			return nil
		},
	})
	if _, err := budgets.ListByUser(context.Background(), "user-1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBudgetSetActiveScopedToUser(t *testing.T) {
	budgets := NewBudgetStore(stubDB{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "id = $2 AND user_id = $3") {
				t.Fatalf("update must be scoped to the owner: %s", query)
			}
			return stubResult{rows: 1}, nil
		},
	})
	affected, err := budgets.SetActive(context.Background(), "user-1", "budget-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected = %d, want 1", affected)
	}
}

func TestBudgetUpdateReportsMissingRow(t *testing.T) {
	budgets := NewBudgetStore(stubDB{
		execFn: func(context.Context, string, ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	})
	affected, err := budgets.Update(context.Background(), models.Budget{ID: "missing", UserID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("affected = %d, want 0", affected)
	}
}
