package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"budget/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// TransactionFilter narrows ListByUser. Zero values mean "no filter".
type TransactionFilter struct {
	From        time.Time
	To          time.Time
	CategoryIDs []string
	Limit       int
	Offset      int
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, category_id, amount_minor, currency, date, description, merchant, bank_account_id, provider_ref, created_at
		FROM transactions
		WHERE user_id = $1
	`
	args := []any{userID}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += " AND date >= $" + itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += " AND date < $" + itoa(len(args))
	}
	if len(filter.CategoryIDs) > 0 {
		args = append(args, pq.Array(filter.CategoryIDs))
		query += " AND category_id = ANY($" + itoa(len(args)) + ")"
	}
	query += " ORDER BY date DESC, created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + itoa(len(args))
	}
	var rows []models.Transaction
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert keys on (user_id, provider_ref) so re-syncing a window is
// idempotent; manually entered transactions have no provider_ref and always
// insert.
func (s *TransactionStore) Upsert(ctx context.Context, tx Execer, input models.Transaction) error {
	if input.ProviderRef == nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, user_id, category_id, amount_minor, currency, date, description, merchant, bank_account_id, provider_ref)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL)
		`, input.ID, input.UserID, input.CategoryID, input.AmountMinor, input.Currency,
			input.Date, input.Description, input.Merchant, input.BankAccountID)
		return err
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, category_id, amount_minor, currency, date, description, merchant, bank_account_id, provider_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, provider_ref) DO UPDATE
		SET category_id = EXCLUDED.category_id,
		    amount_minor = EXCLUDED.amount_minor,
		    currency = EXCLUDED.currency,
		    date = EXCLUDED.date,
		    description = EXCLUDED.description,
		    merchant = EXCLUDED.merchant,
		    bank_account_id = EXCLUDED.bank_account_id
	`, input.ID, input.UserID, input.CategoryID, input.AmountMinor, input.Currency,
		input.Date, input.Description, input.Merchant, input.BankAccountID, input.ProviderRef)
	return err
}

func (s *TransactionStore) SetCategory(ctx context.Context, userID, transactionID string, categoryID *string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = $1
		WHERE id = $2 AND user_id = $3
	`, categoryID, transactionID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func itoa(value int) string {
	return fmt.Sprintf("%d", value)
}
