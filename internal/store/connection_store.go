package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"budget/internal/models"
)

type ConnectionStore struct {
	db DB
}

func NewConnectionStore(db DB) *ConnectionStore {
	return &ConnectionStore{db: db}
}

func (s *ConnectionStore) Get(ctx context.Context, id string) (*models.Connection, error) {
	var row models.Connection
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, provider, status, access_token, refresh_token, expires_at, created_at, updated_at
		FROM connections
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *ConnectionStore) FindPending(ctx context.Context, userID, provider string) (*models.Connection, error) {
	return s.findByStatus(ctx, userID, provider, models.ConnectionPending)
}

func (s *ConnectionStore) FindLinked(ctx context.Context, userID, provider string) (*models.Connection, error) {
	return s.findByStatus(ctx, userID, provider, models.ConnectionLinked)
}

func (s *ConnectionStore) findByStatus(ctx context.Context, userID, provider, status string) (*models.Connection, error) {
	var row models.Connection
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, provider, status, access_token, refresh_token, expires_at, created_at, updated_at
		FROM connections
		WHERE user_id = $1 AND provider = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, provider, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *ConnectionStore) Put(ctx context.Context, conn models.Connection) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO connections (id, user_id, provider, status, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
	`, conn.ID, conn.UserID, conn.Provider, conn.Status, conn.AccessToken, conn.RefreshToken, conn.ExpiresAt, conn.CreatedAt, conn.UpdatedAt)
	return err
}

func (s *ConnectionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM connections WHERE id = $1`, id)
	return err
}

func (s *ConnectionStore) ListByUser(ctx context.Context, userID string) ([]models.Connection, error) {
	var rows []models.Connection
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, provider, status, access_token, refresh_token, expires_at, created_at, updated_at
		FROM connections
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteExpiredBefore sweeps terminal rows only; a linked connection whose
// token lapsed is still refreshable and must survive.
func (s *ConnectionStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM connections
		WHERE (status = 'expired' AND expires_at IS NOT NULL AND expires_at < $1)
		   OR (status = 'failed' AND updated_at < $1)
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
