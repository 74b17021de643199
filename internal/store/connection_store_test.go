package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"budget/internal/models"
)

func TestConnectionGetMissingReturnsNil(t *testing.T) {
	connections := NewConnectionStore(stubDB{
		getFn: func(context.Context, any, string, ...any) error {
			return sql.ErrNoRows
		},
	})
	conn, err := connections.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn != nil {
		t.Fatalf("expected nil for an unknown id, got %#v", conn)
	}
}

func TestConnectionPutUpserts(t *testing.T) {
	var gotQuery string
	var gotArgs []any
	connections := NewConnectionStore(stubDB{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			gotQuery = query
			gotArgs = args
			return stubResult{rows: 1}, nil
		},
	})
	access := "at"
	now := time.Now()
	err := connections.Put(context.Background(), models.Connection{
		ID: "conn-1", UserID: "user-1", Provider: "sandbox",
		Status: models.ConnectionLinked, AccessToken: &access,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "ON CONFLICT (id) DO UPDATE") {
		t.Fatalf("expected an upsert, got: %s", gotQuery)
	}
	if len(gotArgs) != 9 || gotArgs[0] != "conn-1" || gotArgs[3] != models.ConnectionLinked {
		t.Fatalf("unexpected args: %#v", gotArgs)
	}
}

func TestConnectionDeleteExpiredBeforeReportsCount(t *testing.T) {
	connections := NewConnectionStore(stubDB{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "expires_at < $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			return stubResult{rows: 3}, nil
		},
	})
	removed, err := connections.DeleteExpiredBefore(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}
}
