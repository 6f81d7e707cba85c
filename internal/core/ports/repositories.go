package ports

import (
	"context"

	"custodial-wallet-service/internal/core/domain"
)

// WalletRepository defines persistence operations for wallets.
// The storage-level unique constraint on user_id is the sole duplicate
// authority: Create surfaces a violation as apperror.CodeDuplicateUser.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	// GetByUserID returns (nil, nil) when no wallet exists for the user.
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
}

// TransactionRepository defines persistence for broadcast transaction records.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	// ListByUserID returns records in insertion order.
	ListByUserID(ctx context.Context, userID string) ([]domain.Transaction, error)
}

// AuditRepository defines persistence for audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// SecretStore persists opaque secret material at a fixed location.
// Implementations may be file-backed or delegate to a managed secret backend.
type SecretStore interface {
	// Load returns (nil, nil) when no material has been stored yet.
	Load(ctx context.Context) ([]byte, error)
	// Store persists material exactly once; it fails with an
	// fs.ErrExist-compatible error if material is already present.
	Store(ctx context.Context, material []byte) error
}
