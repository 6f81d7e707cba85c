package service

import (
	"context"
	"strings"
	"time"

	"custodial-wallet-service/internal/core/domain"
	"custodial-wallet-service/internal/core/ports"
	"custodial-wallet-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	wallets    ports.WalletRepository
	txs        ports.TransactionRepository
	keys       ports.KeyStore
	chain      ports.ChainGateway
	signer     ports.TransactionSigner
	cache      ports.BalanceCache // nil = caching disabled
	audit      ports.AuditService // nil = audit logging disabled
	locks      *userLocks
	balanceTTL time.Duration
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	wallets ports.WalletRepository,
	txs ports.TransactionRepository,
	keys ports.KeyStore,
	chain ports.ChainGateway,
	signer ports.TransactionSigner,
	cache ports.BalanceCache,
	audit ports.AuditService,
	balanceTTL time.Duration,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		wallets:    wallets,
		txs:        txs,
		keys:       keys,
		chain:      chain,
		signer:     signer,
		cache:      cache,
		audit:      audit,
		locks:      newUserLocks(),
		balanceTTL: balanceTTL,
		log:        log,
	}
}

// CreateWallet generates, encrypts and persists a new wallet for userID.
// Returns (nil, nil) when a wallet already exists: creation is an idempotent
// no-op, with the user_id unique constraint as the sole duplicate authority.
func (s *WalletServiceImpl) CreateWallet(ctx context.Context, userID string) (*domain.WalletSummary, error) {
	userID = strings.TrimSpace(userID)
	if !domain.IsValidUserID(userID) {
		return nil, apperror.Validation("invalid user id")
	}

	// Fast path only; the insert below decides races.
	existing, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.log.Debug().Str("user_id", userID).Msg("wallet already exists")
		return nil, nil
	}

	address, priv, err := s.keys.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	blob, err := s.keys.EncryptKey(priv)
	Zero(priv)
	if err != nil {
		return nil, err
	}

	wallet := &domain.Wallet{
		UserID:              userID,
		Address:             address,
		EncryptedPrivateKey: blob,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.wallets.Create(ctx, wallet); err != nil {
		if apperror.IsCode(err, apperror.CodeDuplicateUser) {
			s.log.Debug().Str("user_id", userID).Msg("lost wallet creation race")
			return nil, nil
		}
		return nil, err
	}

	s.auditLog(ctx, domain.AuditActionWalletCreate, userID, address)
	s.log.Info().Str("user_id", userID).Str("address", address).Msg("wallet created")

	return s.summarize(ctx, wallet), nil
}

// GetWalletInfo returns the wallet enriched with a live balance, or (nil, nil)
// when no wallet exists for userID.
func (s *WalletServiceImpl) GetWalletInfo(ctx context.Context, userID string) (*domain.WalletSummary, error) {
	userID = strings.TrimSpace(userID)
	if !domain.IsValidUserID(userID) {
		return nil, apperror.Validation("invalid user id")
	}

	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, nil
	}
	return s.summarize(ctx, wallet), nil
}

// GetBalance returns the native-unit balance for address. It never fails:
// any validation, cache or RPC error degrades to zero with a log line.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, address string) decimal.Decimal {
	if !domain.IsValidAddress(address) {
		s.log.Warn().Str("address", address).Msg("balance requested for invalid address")
		return decimal.Zero
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, address)
		if err != nil {
			s.log.Warn().Err(err).Msg("balance cache read failed")
		} else if cached != nil {
			return *cached
		}
	}

	balance, err := s.chain.Balance(ctx, address)
	if err != nil {
		s.log.Error().Err(err).Str("address", address).Msg("balance query failed")
		return decimal.Zero
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, address, balance, s.balanceTTL); err != nil {
			s.log.Warn().Err(err).Msg("balance cache write failed")
		}
	}
	return balance
}

// SendTransaction builds, signs, broadcasts and records a value transfer.
// It never returns an error; every failure lands in the structured result.
// The per-user lock holds across nonce fetch, sign and broadcast so that
// concurrent sends from one wallet are serialized.
func (s *WalletServiceImpl) SendTransaction(ctx context.Context, userID, recipient string, amount decimal.Decimal) *domain.SendResult {
	userID = strings.TrimSpace(userID)
	if !domain.IsValidUserID(userID) {
		return sendError("invalid user id")
	}
	if !domain.IsValidAddress(recipient) {
		return sendError("invalid recipient address")
	}
	if !amount.IsPositive() {
		return sendError("amount must be positive")
	}

	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("wallet lookup failed")
		return sendError(apperror.Message(err))
	}
	if wallet == nil {
		return sendError("Wallet not found")
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	raw, err := s.signer.BuildAndSign(ctx, wallet.EncryptedPrivateKey, wallet.Address, recipient, amount)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("transaction build failed")
		return sendError(apperror.Message(err))
	}

	txHash, err := s.chain.Broadcast(ctx, raw)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("transaction broadcast failed")
		return sendError(apperror.Message(err))
	}

	record := &domain.Transaction{
		TxHash:    txHash,
		UserID:    userID,
		Recipient: domain.ToChecksumAddress(recipient),
		Amount:    amount,
		Status:    domain.TransactionStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.txs.Create(ctx, record); err != nil {
		// The transfer is on chain; only the bookkeeping failed.
		s.log.Error().Err(err).Str("tx_hash", txHash).Msg("failed to record broadcast transaction")
		return sendError(apperror.Message(err))
	}

	s.auditLog(ctx, domain.AuditActionTransactionSend, userID, txHash)
	s.log.Info().
		Str("user_id", userID).
		Str("tx_hash", txHash).
		Str("amount", amount.String()).
		Msg("transaction sent")

	return &domain.SendResult{Status: domain.SendStatusSuccess, TxHash: txHash}
}

// GetTransactionHistory lists the user's records in insertion order with
// human-readable timestamps. A user with no transactions gets an empty slice.
func (s *WalletServiceImpl) GetTransactionHistory(ctx context.Context, userID string) ([]domain.TransactionHistoryItem, error) {
	userID = strings.TrimSpace(userID)
	if !domain.IsValidUserID(userID) {
		return nil, apperror.Validation("invalid user id")
	}

	records, err := s.txs.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.TransactionHistoryItem, 0, len(records))
	for _, r := range records {
		items = append(items, r.HistoryItem())
	}
	return items, nil
}

func (s *WalletServiceImpl) summarize(ctx context.Context, wallet *domain.Wallet) *domain.WalletSummary {
	return &domain.WalletSummary{
		UserID:    wallet.UserID,
		Address:   wallet.Address,
		Balance:   s.GetBalance(ctx, wallet.Address),
		CreatedAt: wallet.CreatedAt,
	}
}

func (s *WalletServiceImpl) auditLog(ctx context.Context, action domain.AuditAction, userID, resourceID string) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, &domain.AuditLog{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     action,
		ResourceID: resourceID,
		IPAddress:  domain.ClientIPFromContext(ctx),
		CreatedAt:  time.Now().UTC(),
	})
}

func sendError(message string) *domain.SendResult {
	return &domain.SendResult{Status: domain.SendStatusError, Message: message}
}
