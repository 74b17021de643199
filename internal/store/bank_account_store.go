package store

import (
	"context"

	"budget/internal/models"
)

type BankAccountStore struct {
	db DB
}

func NewBankAccountStore(db DB) *BankAccountStore {
	return &BankAccountStore{db: db}
}

// Upsert keys on (connection_id, provider_ref) so each provider account maps
// to exactly one local row across repeated syncs. Returns the surviving
// row's id, which may differ from account.ID when the row already existed.
func (s *BankAccountStore) Upsert(ctx context.Context, tx Tx, account models.BankAccount) (string, error) {
	var id string
	err := tx.GetContext(ctx, &id, `
		INSERT INTO bank_accounts (id, user_id, connection_id, provider_ref, name, currency, balance_minor)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (connection_id, provider_ref) DO UPDATE
		SET name = EXCLUDED.name,
		    currency = EXCLUDED.currency,
		    balance_minor = EXCLUDED.balance_minor
		RETURNING id
	`, account.ID, account.UserID, account.ConnectionID, account.ProviderRef,
		account.Name, account.Currency, account.BalanceMinor)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *BankAccountStore) ListByConnection(ctx context.Context, connectionID string) ([]models.BankAccount, error) {
	var rows []models.BankAccount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, connection_id, provider_ref, name, currency, balance_minor, created_at
		FROM bank_accounts
		WHERE connection_id = $1
		ORDER BY name
	`, connectionID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *BankAccountStore) ListByUser(ctx context.Context, userID string) ([]models.BankAccount, error) {
	var rows []models.BankAccount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, connection_id, provider_ref, name, currency, balance_minor, created_at
		FROM bank_accounts
		WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
