package integration

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"custodial-wallet-service/internal/core/domain"
	"custodial-wallet-service/pkg/apperror"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet // by user_id
	byAddr  map[string]string         // address -> user_id
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{
		wallets: make(map[string]*domain.Wallet),
		byAddr:  make(map[string]string),
	}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[w.UserID]; ok {
		return apperror.ErrDuplicateUser()
	}
	if _, ok := r.byAddr[w.Address]; ok {
		return apperror.ErrDuplicateAddress()
	}
	cp := *w
	r.wallets[w.UserID] = &cp
	r.byAddr[w.Address] = w.UserID
	return nil
}

func (r *inMemoryWalletRepo) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[userID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu      sync.RWMutex
	records []domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.TxHash == tx.TxHash {
			return apperror.ErrStorageFailure(fmt.Errorf("duplicate tx hash %s", tx.TxHash))
		}
	}
	r.records = append(r.records, *tx)
	return nil
}

func (r *inMemoryTransactionRepo) ListByUserID(ctx context.Context, userID string) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transaction
	for _, tx := range r.records {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

// --- Fake Chain Node ---

// fakeChainGateway is a deterministic stand-in for an Ethereum node. It
// enforces strictly sequential nonces per sender, so interleaved broadcasts
// from the same address surface as errors exactly like a real node's
// "nonce too low" rejection.
type fakeChainGateway struct {
	mu       sync.Mutex
	chainID  *big.Int
	balances map[string]decimal.Decimal // by lowercased address
	nonces   map[string]uint64          // next expected nonce per sender
}

func newFakeChainGateway() *fakeChainGateway {
	return &fakeChainGateway{
		chainID:  big.NewInt(11155111),
		balances: make(map[string]decimal.Decimal),
		nonces:   make(map[string]uint64),
	}
}

func (g *fakeChainGateway) setBalance(address string, balance decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.balances[lower(address)] = balance
}

func (g *fakeChainGateway) Ping(ctx context.Context) error { return nil }

func (g *fakeChainGateway) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok := g.balances[lower(address)]; ok {
		return b, nil
	}
	return decimal.Zero, nil
}

func (g *fakeChainGateway) GasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (g *fakeChainGateway) PendingNonce(ctx context.Context, address string) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nonces[lower(address)], nil
}

func (g *fakeChainGateway) ChainID(ctx context.Context) (*big.Int, error) {
	return g.chainID, nil
}

func (g *fakeChainGateway) Broadcast(ctx context.Context, rawTx []byte) (string, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(rawTx); err != nil {
		return "", apperror.ErrRPCFailure(err)
	}
	sender, err := types.Sender(types.NewEIP155Signer(g.chainID), tx)
	if err != nil {
		return "", apperror.ErrRPCFailure(err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	key := lower(sender.Hex())
	if tx.Nonce() != g.nonces[key] {
		return "", apperror.ErrRPCFailure(fmt.Errorf("nonce too low: got %d, want %d", tx.Nonce(), g.nonces[key]))
	}
	g.nonces[key]++
	return tx.Hash().Hex(), nil
}

func lower(s string) string {
	return strings.ToLower(s)
}
