// Package provider is the boundary to an external PSD2-style open-banking
// provider. Implementations normalize provider payloads into the shapes
// below; nothing provider-specific leaks past this package.
package provider

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

type AuthRequest struct {
	AuthURL string
	State   string
}

type TokenGrant struct {
	AccessToken      string
	RefreshToken     string
	ExpiresInSeconds int64
}

type RefreshGrant struct {
	AccessToken      string
	ExpiresInSeconds int64
}

type Account struct {
	ProviderRef  string
	Name         string
	Currency     string
	BalanceMinor int64
}

type Transaction struct {
	ProviderRef string
	AmountMinor int64
	Currency    string
	Date        time.Time
	Description string
	Merchant    string
	Category    string
}

// Error is a provider-side rejection with a machine-readable code, as
// opposed to a transport failure which surfaces as a plain wrapped error.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error %s (%d): %s", e.Code, e.Status, e.Message)
}

type Adapter interface {
	GenerateAuthURL(ctx context.Context, userID string, permissions []string) (AuthRequest, error)
	ExchangeCodeForToken(ctx context.Context, code, state string) (TokenGrant, error)
	RefreshToken(ctx context.Context, refreshToken string) (RefreshGrant, error)
	RevokeToken(ctx context.Context, accessToken string) error
	GetAccounts(ctx context.Context, accessToken string) ([]Account, error)
	GetTransactions(ctx context.Context, accessToken, accountRef string, from, to time.Time) ([]Transaction, error)
}

// NewState returns 192 bits of url-safe entropy. The state correlates the
// provider redirect back to a connection record and must not be guessable.
func NewState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
