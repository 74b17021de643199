package store

import (
	"context"
	"database/sql"
	"errors"

	"budget/internal/models"
)

type BudgetStore struct {
	db DB
}

func NewBudgetStore(db DB) *BudgetStore {
	return &BudgetStore{db: db}
}

func (s *BudgetStore) Create(ctx context.Context, budget models.Budget) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category_id, period, limit_minor, currency, starts_on, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, budget.ID, budget.UserID, budget.CategoryID, budget.Period, budget.LimitMinor,
		budget.Currency, budget.StartsOn, budget.Active, budget.CreatedAt, budget.UpdatedAt)
	return err
}

func (s *BudgetStore) Update(ctx context.Context, budget models.Budget) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE budgets
		SET limit_minor = $1, currency = $2, starts_on = $3, active = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
	`, budget.LimitMinor, budget.Currency, budget.StartsOn, budget.Active, budget.ID, budget.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetActive soft-disables or re-enables a budget; Delete removes it for
// good. Both flows exist in the product.
func (s *BudgetStore) SetActive(ctx context.Context, userID, budgetID string, active bool) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE budgets
		SET active = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`, active, budgetID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *BudgetStore) Delete(ctx context.Context, userID, budgetID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, budgetID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *BudgetStore) GetByID(ctx context.Context, userID, budgetID string) (*models.Budget, error) {
	var row models.Budget
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, category_id, period, limit_minor, currency, starts_on, active, created_at, updated_at
		FROM budgets
		WHERE id = $1 AND user_id = $2
	`, budgetID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *BudgetStore) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.Budget, error) {
	query := `
		SELECT id, user_id, category_id, period, limit_minor, currency, starts_on, active, created_at, updated_at
		FROM budgets
		WHERE user_id = $1
	`
	if activeOnly {
		query += " AND active = TRUE"
	}
	query += " ORDER BY created_at DESC"
	var rows []models.Budget
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	return rows, nil
}
