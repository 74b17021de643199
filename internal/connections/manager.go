// Package connections owns the bank-connection lifecycle: authorization-URL
// issuance, code-for-token exchange, expiry tracking with just-in-time
// refresh, and revocation. All mutations of a connection record go through
// the Manager; route handlers never write the store directly.
package connections

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"budget/internal/models"
	"budget/internal/provider"
)

// RefreshSkew is the margin before actual token expiry at which a proactive
// refresh is triggered, so a token never expires mid-request downstream.
const RefreshSkew = 5 * time.Minute

// cleanupGrace is how long an expired link is kept around before the sweep
// removes it; the record is still useful for "reconnect your bank" messaging.
const cleanupGrace = 30 * 24 * time.Hour

var (
	ErrNotFound       = errors.New("connection not found")
	ErrUnknownState   = errors.New("unknown or already used state")
	ErrExchangeFailed = errors.New("authorization exchange failed")
	ErrNotLinked      = errors.New("connection not linked")
	ErrExpired        = errors.New("connection expired, reauthorization required")
)

// Store is the durable keyed storage for connection records. Get and
// FindPending/FindLinked return nil (not an error) when no row matches.
type Store interface {
	Get(ctx context.Context, id string) (*models.Connection, error)
	FindPending(ctx context.Context, userID, providerName string) (*models.Connection, error)
	FindLinked(ctx context.Context, userID, providerName string) (*models.Connection, error)
	Put(ctx context.Context, conn models.Connection) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]models.Connection, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Manager struct {
	store       Store
	adapter     provider.Adapter
	permissions []string
	refreshes   singleflight.Group
}

func NewManager(store Store, adapter provider.Adapter, permissions []string) *Manager {
	return &Manager{
		store:       store,
		adapter:     adapter,
		permissions: permissions,
	}
}

// CreateConnection issues an authorization URL and records a pending
// connection whose id is the OAuth state. An existing pending row for the
// same (user, provider) pair is replaced rather than accumulated, with a
// fresh state so an abandoned authorization URL cannot complete later.
func (m *Manager) CreateConnection(ctx context.Context, userID, providerName string) (models.Connection, string, error) {
	authReq, err := m.adapter.GenerateAuthURL(ctx, userID, m.permissions)
	if err != nil {
		return models.Connection{}, "", err
	}
	previous, err := m.store.FindPending(ctx, userID, providerName)
	if err != nil {
		return models.Connection{}, "", err
	}
	if previous != nil {
		if err := m.store.Delete(ctx, previous.ID); err != nil {
			return models.Connection{}, "", err
		}
	}
	now := time.Now().UTC()
	conn := models.Connection{
		ID:        authReq.State,
		UserID:    userID,
		Provider:  providerName,
		Status:    models.ConnectionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Put(ctx, conn); err != nil {
		return models.Connection{}, "", err
	}
	return conn, authReq.AuthURL, nil
}

// CompleteAuthorization exchanges the redirect's code for tokens. The state
// is single-use: only a pending row completes. Any exchange failure marks
// the connection failed, since authorization codes cannot be retried.
func (m *Manager) CompleteAuthorization(ctx context.Context, state, code string) (models.Connection, error) {
	conn, err := m.store.Get(ctx, state)
	if err != nil {
		return models.Connection{}, err
	}
	if conn == nil || conn.Status != models.ConnectionPending {
		return models.Connection{}, ErrUnknownState
	}
	grant, err := m.adapter.ExchangeCodeForToken(ctx, code, state)
	if err != nil {
		log.Printf("connections: exchange failed for state %s: %v", state, err)
		conn.Status = models.ConnectionFailed
		conn.UpdatedAt = time.Now().UTC()
		if putErr := m.store.Put(ctx, *conn); putErr != nil {
			return models.Connection{}, putErr
		}
		return models.Connection{}, ErrExchangeFailed
	}
	// At most one linked connection per (user, provider): the previous link
	// is revoked upstream best-effort and removed.
	if existing, err := m.store.FindLinked(ctx, conn.UserID, conn.Provider); err != nil {
		return models.Connection{}, err
	} else if existing != nil {
		if existing.AccessToken != nil {
			if err := m.adapter.RevokeToken(ctx, *existing.AccessToken); err != nil {
				log.Printf("connections: revoking superseded link %s failed: %v", existing.ID, err)
			}
		}
		if err := m.store.Delete(ctx, existing.ID); err != nil {
			return models.Connection{}, err
		}
	}
	now := time.Now().UTC()
	expiresAt := now.Add(time.Duration(grant.ExpiresInSeconds) * time.Second)
	conn.Status = models.ConnectionLinked
	conn.AccessToken = &grant.AccessToken
	conn.RefreshToken = &grant.RefreshToken
	conn.ExpiresAt = &expiresAt
	conn.UpdatedAt = now
	if err := m.store.Put(ctx, *conn); err != nil {
		return models.Connection{}, err
	}
	return *conn, nil
}

// CancelAuthorization marks a pending connection failed when the provider
// redirect carries an error parameter (user declined consent).
func (m *Manager) CancelAuthorization(ctx context.Context, state string) error {
	conn, err := m.store.Get(ctx, state)
	if err != nil {
		return err
	}
	if conn == nil || conn.Status != models.ConnectionPending {
		return ErrUnknownState
	}
	conn.Status = models.ConnectionFailed
	conn.UpdatedAt = time.Now().UTC()
	return m.store.Put(ctx, *conn)
}

// GetValidAccessToken returns a token usable for at least RefreshSkew, or a
// sentinel error when the connection cannot currently produce one. Refreshes
// for the same connection id are coalesced: at most one in-flight refresh
// per id, concurrent callers share its outcome.
func (m *Manager) GetValidAccessToken(ctx context.Context, connectionID string) (string, error) {
	conn, err := m.store.Get(ctx, connectionID)
	if err != nil {
		return "", err
	}
	if conn == nil {
		return "", ErrNotFound
	}
	switch conn.Status {
	case models.ConnectionExpired:
		return "", ErrExpired
	case models.ConnectionPending, models.ConnectionFailed:
		return "", ErrNotLinked
	}
	if conn.AccessToken != nil && conn.ExpiresAt != nil && conn.ExpiresAt.After(time.Now().Add(RefreshSkew)) {
		return *conn.AccessToken, nil
	}
	token, err, _ := m.refreshes.Do(connectionID, func() (any, error) {
		return m.refreshLocked(ctx, connectionID)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// refreshLocked runs inside the single-flight group. It re-reads the record
// because a flight that finished just before this one started may already
// have stored fresh tokens.
func (m *Manager) refreshLocked(ctx context.Context, connectionID string) (string, error) {
	conn, err := m.store.Get(ctx, connectionID)
	if err != nil {
		return "", err
	}
	if conn == nil {
		return "", ErrNotFound
	}
	if conn.Status != models.ConnectionLinked {
		return "", ErrExpired
	}
	if conn.AccessToken != nil && conn.ExpiresAt != nil && conn.ExpiresAt.After(time.Now().Add(RefreshSkew)) {
		return *conn.AccessToken, nil
	}
	if conn.RefreshToken == nil {
		return "", m.markExpired(ctx, conn)
	}
	grant, err := m.adapter.RefreshToken(ctx, *conn.RefreshToken)
	if err != nil {
		log.Printf("connections: refresh failed for %s: %v", connectionID, err)
		return "", m.markExpired(ctx, conn)
	}
	now := time.Now().UTC()
	expiresAt := now.Add(time.Duration(grant.ExpiresInSeconds) * time.Second)
	conn.AccessToken = &grant.AccessToken
	conn.ExpiresAt = &expiresAt
	conn.UpdatedAt = now
	if err := m.store.Put(ctx, *conn); err != nil {
		return "", err
	}
	return grant.AccessToken, nil
}

func (m *Manager) markExpired(ctx context.Context, conn *models.Connection) error {
	// Tokens are kept on the row for audit; status expired means they are
	// never used for calls again.
	conn.Status = models.ConnectionExpired
	conn.UpdatedAt = time.Now().UTC()
	if err := m.store.Put(ctx, *conn); err != nil {
		return err
	}
	return ErrExpired
}

// Revoke attempts provider-side revocation, then deletes the local record.
// A provider failure is logged but never blocks the local delete: local
// state must not get stuck because of a remote error.
func (m *Manager) Revoke(ctx context.Context, connectionID string) error {
	conn, err := m.store.Get(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn == nil {
		return ErrNotFound
	}
	if conn.Status == models.ConnectionLinked && conn.AccessToken != nil {
		if err := m.adapter.RevokeToken(ctx, *conn.AccessToken); err != nil {
			log.Printf("connections: provider revocation failed for %s: %v", connectionID, err)
		}
	}
	return m.store.Delete(ctx, connectionID)
}

// GetConnection returns the record for ownership checks; ErrNotFound when
// no row matches.
func (m *Manager) GetConnection(ctx context.Context, connectionID string) (*models.Connection, error) {
	conn, err := m.store.Get(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, ErrNotFound
	}
	return conn, nil
}

func (m *Manager) ListConnectionsByUser(ctx context.Context, userID string) ([]models.Connection, error) {
	return m.store.ListByUser(ctx, userID)
}

// CleanupExpired sweeps long-dead links. Advisory, not required for
// correctness; never on a hot request path.
func (m *Manager) CleanupExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredBefore(ctx, time.Now().UTC().Add(-cleanupGrace))
}
