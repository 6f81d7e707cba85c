package ports

import (
	"context"
	"math/big"
	"time"

	"custodial-wallet-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

// EncryptionService is an authenticated symmetric cipher for secret blobs.
// Blobs are binary-safe text (hex) and safe to persist as-is.
type EncryptionService interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(blob string) ([]byte, error)
}

// KeyStore owns key-pair generation and encrypted private-key custody.
// Plaintext key bytes exist only transiently in callers holding them.
type KeyStore interface {
	// GenerateKeyPair returns a checksummed address and the raw private key.
	GenerateKeyPair() (address string, privateKey []byte, err error)
	EncryptKey(privateKey []byte) (string, error)
	DecryptKey(blob string) ([]byte, error)
}

// ChainGateway is a narrow synchronous facade over the chain RPC boundary.
// Reads are point-in-time and uncached.
type ChainGateway interface {
	// Ping verifies node connectivity; failure at startup is fatal.
	Ping(ctx context.Context) error
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	PendingNonce(ctx context.Context, address string) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	// Broadcast submits a signed raw payload and returns the tx hash.
	Broadcast(ctx context.Context, rawTx []byte) (string, error)
}

// TransactionSigner assembles and signs value transfers.
type TransactionSigner interface {
	BuildAndSign(ctx context.Context, encryptedKey, from, to string, amount decimal.Decimal) ([]byte, error)
}

// BalanceCache is a best-effort short-TTL cache of address balances.
type BalanceCache interface {
	// Get returns (nil, nil) on a cache miss.
	Get(ctx context.Context, address string) (*decimal.Decimal, error)
	Set(ctx context.Context, address string, balance decimal.Decimal, ttl time.Duration) error
}

// WalletService orchestrates the user-facing wallet operations.
type WalletService interface {
	// CreateWallet returns (nil, nil) when a wallet already exists (idempotent no-op).
	CreateWallet(ctx context.Context, userID string) (*domain.WalletSummary, error)
	// GetWalletInfo returns (nil, nil) when no wallet exists.
	GetWalletInfo(ctx context.Context, userID string) (*domain.WalletSummary, error)
	// GetBalance never fails; it degrades to zero on any error.
	GetBalance(ctx context.Context, address string) decimal.Decimal
	// SendTransaction never fails; all outcomes land in the structured result.
	SendTransaction(ctx context.Context, userID, recipient string, amount decimal.Decimal) *domain.SendResult
	GetTransactionHistory(ctx context.Context, userID string) ([]domain.TransactionHistoryItem, error)
}

// AuditService records audited wallet operations (fire-and-forget).
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
