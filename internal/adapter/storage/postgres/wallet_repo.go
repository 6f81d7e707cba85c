package postgres

import (
	"context"
	"errors"

	"custodial-wallet-service/internal/core/domain"
	"custodial-wallet-service/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation       = "23505"
	walletUserConstraint    = "wallets_pkey"
	walletAddressConstraint = "wallets_address_key"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. The unique constraints are the authority on
// duplicates; violations map onto the duplicate error codes so callers never
// need a racy read-before-write.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (user_id, address, encrypted_private_key, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query,
		w.UserID, w.Address, w.EncryptedPrivateKey, w.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			switch pgErr.ConstraintName {
			case walletAddressConstraint:
				return apperror.ErrDuplicateAddress()
			default:
				return apperror.ErrDuplicateUser()
			}
		}
		return apperror.ErrStorageFailure(err)
	}
	return nil
}

// GetByUserID fetches a wallet by user ID. Absence is not an error.
func (r *WalletRepo) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `SELECT user_id, address, encrypted_private_key, created_at
		FROM wallets WHERE user_id = $1`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&w.UserID, &w.Address, &w.EncryptedPrivateKey, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.ErrStorageFailure(err)
	}
	return w, nil
}
