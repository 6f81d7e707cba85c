package postgres

import (
	"context"

	"custodial-wallet-service/internal/core/domain"
	"custodial-wallet-service/pkg/apperror"

	"github.com/shopspring/decimal"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create records a broadcast transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `INSERT INTO transactions (tx_hash, user_id, recipient, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		tx.TxHash, tx.UserID, tx.Recipient, tx.Amount.String(),
		tx.Status, tx.CreatedAt,
	)
	if err != nil {
		return apperror.ErrStorageFailure(err)
	}
	return nil
}

// ListByUserID returns the user's transactions in insertion order. The seq
// column orders rows even when two inserts share a created_at timestamp.
// The amount comes back as text to round-trip NUMERIC without float loss.
func (r *TransactionRepo) ListByUserID(ctx context.Context, userID string) ([]domain.Transaction, error) {
	query := `SELECT tx_hash, user_id, recipient, amount::text, status, created_at
		FROM transactions WHERE user_id = $1 ORDER BY seq`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, apperror.ErrStorageFailure(err)
	}
	defer rows.Close()

	var records []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var amount string
		if err := rows.Scan(&tx.TxHash, &tx.UserID, &tx.Recipient, &amount, &tx.Status, &tx.CreatedAt); err != nil {
			return nil, apperror.ErrStorageFailure(err)
		}
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, apperror.ErrStorageFailure(err)
		}
		records = append(records, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.ErrStorageFailure(err)
	}
	return records, nil
}
