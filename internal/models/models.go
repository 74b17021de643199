package models

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Connection statuses. A connection starts pending, becomes linked once the
// authorization code is exchanged, and moves to expired when a refresh is
// rejected upstream. failed means the exchange itself never succeeded.
const (
	ConnectionPending = "pending"
	ConnectionLinked  = "linked"
	ConnectionFailed  = "failed"
	ConnectionExpired = "expired"
)

// Connection is one user's authorization with one open-banking provider.
// The id doubles as the OAuth state parameter, so it must not be guessable.
type Connection struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	Provider     string     `db:"provider" json:"provider"`
	Status       string     `db:"status" json:"status"`
	AccessToken  *string    `db:"access_token" json:"-"`
	RefreshToken *string    `db:"refresh_token" json:"-"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

type BankAccount struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	ConnectionID string    `db:"connection_id" json:"connection_id"`
	ProviderRef  string    `db:"provider_ref" json:"provider_ref"`
	Name         string    `db:"name" json:"name"`
	Currency     string    `db:"currency" json:"currency"`
	BalanceMinor int64     `db:"balance_minor" json:"balance_minor"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Category struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	Name   string `db:"name" json:"name"`
}

// PeriodMonth is the only budget period modeled today; the column stays text
// so new periods do not need a migration.
const PeriodMonth = "month"

type Budget struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	CategoryID string    `db:"category_id" json:"category_id"`
	Period     string    `db:"period" json:"period"`
	LimitMinor int64     `db:"limit_minor" json:"limit_minor"`
	Currency   string    `db:"currency" json:"currency"`
	StartsOn   time.Time `db:"starts_on" json:"starts_on"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction amounts are signed minor units: negative = outflow/expense,
// positive = inflow. Aggregation branches on this sign, keep it intact.
type Transaction struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	CategoryID    *string   `db:"category_id" json:"category_id,omitempty"`
	AmountMinor   int64     `db:"amount_minor" json:"amount_minor"`
	Currency      string    `db:"currency" json:"currency"`
	Date          time.Time `db:"date" json:"date"`
	Description   string    `db:"description" json:"description"`
	Merchant      string    `db:"merchant" json:"merchant"`
	BankAccountID *string   `db:"bank_account_id" json:"bank_account_id,omitempty"`
	ProviderRef   *string   `db:"provider_ref" json:"provider_ref,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
