package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Gateway talks JSON over HTTP to the configured open-banking provider.
// Every call has a bounded timeout through the underlying client. Reads are
// retried once on transport errors; token exchange never is, authorization
// codes are single-use.
type Gateway struct {
	baseURL      string
	clientID     string
	clientSecret string
	redirectURL  string
	client       *http.Client
}

type GatewayConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
}

func NewGateway(cfg GatewayConfig) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Gateway{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURL:  cfg.RedirectURL,
		client:       &http.Client{Timeout: timeout},
	}
}

func (g *Gateway) GenerateAuthURL(_ context.Context, userID string, permissions []string) (AuthRequest, error) {
	state, err := NewState()
	if err != nil {
		return AuthRequest{}, err
	}
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", g.clientID)
	query.Set("redirect_uri", g.redirectURL)
	query.Set("scope", strings.Join(permissions, " "))
	query.Set("state", state)
	return AuthRequest{
		AuthURL: g.baseURL + "/authorize?" + query.Encode(),
		State:   state,
	}, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (g *Gateway) ExchangeCodeForToken(ctx context.Context, code, state string) (TokenGrant, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("state", state)
	form.Set("redirect_uri", g.redirectURL)
	var parsed tokenResponse
	if err := g.postForm(ctx, "/oauth/token", form, &parsed); err != nil {
		return TokenGrant{}, err
	}
	return TokenGrant{
		AccessToken:      parsed.AccessToken,
		RefreshToken:     parsed.RefreshToken,
		ExpiresInSeconds: parsed.ExpiresIn,
	}, nil
}

func (g *Gateway) RefreshToken(ctx context.Context, refreshToken string) (RefreshGrant, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	var parsed tokenResponse
	if err := g.postForm(ctx, "/oauth/token", form, &parsed); err != nil {
		return RefreshGrant{}, err
	}
	return RefreshGrant{
		AccessToken:      parsed.AccessToken,
		ExpiresInSeconds: parsed.ExpiresIn,
	}, nil
}

func (g *Gateway) RevokeToken(ctx context.Context, accessToken string) error {
	form := url.Values{}
	form.Set("token", accessToken)
	return g.postForm(ctx, "/oauth/revoke", form, nil)
}

type accountPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Currency     string `json:"currency"`
	BalanceMinor int64  `json:"balance_minor"`
}

func (g *Gateway) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	var payload struct {
		Accounts []accountPayload `json:"accounts"`
	}
	if err := g.getJSON(ctx, "/accounts", accessToken, &payload); err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(payload.Accounts))
	for _, raw := range payload.Accounts {
		accounts = append(accounts, Account{
			ProviderRef:  raw.ID,
			Name:         raw.Name,
			Currency:     raw.Currency,
			BalanceMinor: raw.BalanceMinor,
		})
	}
	return accounts, nil
}

type transactionPayload struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Merchant    string `json:"merchant"`
	Category    string `json:"category"`
}

func (g *Gateway) GetTransactions(ctx context.Context, accessToken, accountRef string, from, to time.Time) ([]Transaction, error) {
	path := fmt.Sprintf("/accounts/%s/transactions?from=%s&to=%s",
		url.PathEscape(accountRef), from.Format("2006-01-02"), to.Format("2006-01-02"))
	var payload struct {
		Transactions []transactionPayload `json:"transactions"`
	}
	if err := g.getJSON(ctx, path, accessToken, &payload); err != nil {
		return nil, err
	}
	transactions := make([]Transaction, 0, len(payload.Transactions))
	for _, raw := range payload.Transactions {
		date, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			return nil, fmt.Errorf("malformed transaction date %q: %w", raw.Date, err)
		}
		transactions = append(transactions, Transaction{
			ProviderRef: raw.ID,
			AmountMinor: raw.AmountMinor,
			Currency:    raw.Currency,
			Date:        date,
			Description: raw.Description,
			Merchant:    raw.Merchant,
			Category:    raw.Category,
		})
	}
	return transactions, nil
}

func (g *Gateway) postForm(ctx context.Context, path string, form url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(g.clientID, g.clientSecret)
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, dest)
}

func (g *Gateway) getJSON(ctx context.Context, path, accessToken string, dest any) error {
	var lastErr error
	// One retry on transport errors only; a provider rejection is final.
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		resp, err := g.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("provider request failed: %w", err)
			continue
		}
		err = decodeResponse(resp, dest)
		resp.Body.Close()
		return err
	}
	return lastErr
}

func decodeResponse(resp *http.Response, dest any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		code := payload.Error
		if code == "" {
			code = "provider_error"
		}
		return &Error{Code: code, Message: payload.Description, Status: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("malformed provider payload: %w", err)
	}
	return nil
}
