package provider

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sandbox is an in-memory provider used in development and tests. It is
// selected explicitly through PROVIDER_MODE=sandbox and is never substituted
// for the live gateway on error.
type Sandbox struct {
	mu            sync.Mutex
	pendingStates map[string]struct{}
	refreshTokens map[string]struct{}
	accessTokens  map[string]struct{}
	tokenTTL      time.Duration
}

func NewSandbox() *Sandbox {
	return &Sandbox{
		pendingStates: make(map[string]struct{}),
		refreshTokens: make(map[string]struct{}),
		accessTokens:  make(map[string]struct{}),
		tokenTTL:      time.Hour,
	}
}

func (s *Sandbox) GenerateAuthURL(_ context.Context, _ string, _ []string) (AuthRequest, error) {
	state, err := NewState()
	if err != nil {
		return AuthRequest{}, err
	}
	s.mu.Lock()
	s.pendingStates[state] = struct{}{}
	s.mu.Unlock()
	return AuthRequest{
		AuthURL: "https://sandbox.invalid/authorize?state=" + state,
		State:   state,
	}, nil
}

func (s *Sandbox) ExchangeCodeForToken(_ context.Context, code, state string) (TokenGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == "" {
		return TokenGrant{}, &Error{Code: "invalid_grant", Message: "missing authorization code", Status: 400}
	}
	if _, ok := s.pendingStates[state]; !ok {
		return TokenGrant{}, &Error{Code: "invalid_state", Message: "unknown or reused state", Status: 400}
	}
	delete(s.pendingStates, state)
	access := "sandbox-access-" + uuid.NewString()
	refresh := "sandbox-refresh-" + uuid.NewString()
	s.accessTokens[access] = struct{}{}
	s.refreshTokens[refresh] = struct{}{}
	return TokenGrant{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresInSeconds: int64(s.tokenTTL / time.Second),
	}, nil
}

func (s *Sandbox) RefreshToken(_ context.Context, refreshToken string) (RefreshGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.refreshTokens[refreshToken]; !ok {
		return RefreshGrant{}, &Error{Code: "invalid_grant", Message: "refresh token revoked", Status: 400}
	}
	access := "sandbox-access-" + uuid.NewString()
	s.accessTokens[access] = struct{}{}
	return RefreshGrant{
		AccessToken:      access,
		ExpiresInSeconds: int64(s.tokenTTL / time.Second),
	}, nil
}

func (s *Sandbox) RevokeToken(_ context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accessTokens, accessToken)
	return nil
}

func (s *Sandbox) GetAccounts(_ context.Context, accessToken string) ([]Account, error) {
	if err := s.checkAccess(accessToken); err != nil {
		return nil, err
	}
	return []Account{
		{ProviderRef: "sandbox-checking", Name: "Sandbox Checking", Currency: "EUR", BalanceMinor: 245099},
		{ProviderRef: "sandbox-savings", Name: "Sandbox Savings", Currency: "EUR", BalanceMinor: 1200000},
	}, nil
}

func (s *Sandbox) GetTransactions(_ context.Context, accessToken, accountRef string, from, to time.Time) ([]Transaction, error) {
	if err := s.checkAccess(accessToken); err != nil {
		return nil, err
	}
	if accountRef != "sandbox-checking" {
		return nil, nil
	}
	all := []Transaction{
		{ProviderRef: "sandbox-tx-1", AmountMinor: -4250, Currency: "EUR", Date: monthDay(from, 3), Description: "Weekly shop", Merchant: "Grocer & Co", Category: "groceries"},
		{ProviderRef: "sandbox-tx-2", AmountMinor: -1299, Currency: "EUR", Date: monthDay(from, 7), Description: "Streaming subscription", Merchant: "Streamify", Category: "entertainment"},
		{ProviderRef: "sandbox-tx-3", AmountMinor: 250000, Currency: "EUR", Date: monthDay(from, 25), Description: "Salary", Merchant: "Employer Ltd", Category: ""},
	}
	var out []Transaction
	for _, tx := range all {
		if !tx.Date.Before(from) && tx.Date.Before(to) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Sandbox) checkAccess(accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accessTokens[accessToken]; !ok {
		return &Error{Code: "invalid_token", Message: "access token unknown or revoked", Status: 401}
	}
	return nil
}

func monthDay(anchor time.Time, day int) time.Time {
	return time.Date(anchor.Year(), anchor.Month(), day, 12, 0, 0, 0, time.UTC)
}
