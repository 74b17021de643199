package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"budget/internal/models"
)

type CategoryStore struct {
	db DB
}

func NewCategoryStore(db DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) ListByUser(ctx context.Context, userID string) ([]models.Category, error) {
	var rows []models.Category
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, name
		FROM categories
		WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *CategoryStore) GetByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	var row models.Category
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, name
		FROM categories
		WHERE id = $1 AND user_id = $2
	`, categoryID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// EnsureByName returns the id of the user's category with the given name,
// creating it when absent. Used by sync to map provider category labels.
func (s *CategoryStore) EnsureByName(ctx context.Context, tx Tx, userID, name string) (string, error) {
	var id string
	err := tx.GetContext(ctx, &id, `
		SELECT id FROM categories WHERE user_id = $1 AND name = $2
	`, userID, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	id = uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, name) DO NOTHING
	`, id, userID, name); err != nil {
		return "", err
	}
	// Another request may have inserted concurrently; read back the winner.
	if err := tx.GetContext(ctx, &id, `
		SELECT id FROM categories WHERE user_id = $1 AND name = $2
	`, userID, name); err != nil {
		return "", err
	}
	return id, nil
}
