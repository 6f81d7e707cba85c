package ethereum

import (
	"context"
	"math/big"
	"time"

	"custodial-wallet-service/config"
	"custodial-wallet-service/internal/core/domain"
	"custodial-wallet-service/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// backend is the subset of ethclient.Client the gateway consumes.
// It exists so tests can substitute a scripted node.
type backend interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Gateway adapts a JSON-RPC Ethereum node to the chain port. Read calls are
// retried with a bounded linear backoff; broadcast is never retried because a
// transport error does not prove the node rejected the transaction.
type Gateway struct {
	node     backend
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	log      zerolog.Logger
}

// NewGateway dials the configured RPC endpoint. A node that cannot be dialed
// is a deployment problem, not a runtime one.
func NewGateway(ctx context.Context, cfg config.ChainConfig, log zerolog.Logger) (*Gateway, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, apperror.ErrConnectionFailure(err)
	}
	return newGateway(client, cfg, log), nil
}

func newGateway(node backend, cfg config.ChainConfig, log zerolog.Logger) *Gateway {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Gateway{
		node:     node,
		timeout:  cfg.RequestTimeout,
		attempts: attempts,
		backoff:  cfg.RetryBackoff,
		log:      log.With().Str("component", "chain_gateway").Logger(),
	}
}

// Name identifies the gateway in health reports.
func (g *Gateway) Name() string {
	return "ethereum"
}

// Ping asks for the current block number to prove end-to-end connectivity.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.withRetry(ctx, "block_number", func(ctx context.Context) error {
		_, err := g.node.BlockNumber(ctx)
		return err
	})
}

func (g *Gateway) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	var wei *big.Int
	err := g.withRetry(ctx, "balance_at", func(ctx context.Context) error {
		var err error
		wei, err = g.node.BalanceAt(ctx, common.HexToAddress(address), nil)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return domain.FromWei(wei), nil
}

func (g *Gateway) GasPrice(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := g.withRetry(ctx, "suggest_gas_price", func(ctx context.Context) error {
		var err error
		price, err = g.node.SuggestGasPrice(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return price, nil
}

func (g *Gateway) PendingNonce(ctx context.Context, address string) (uint64, error) {
	var nonce uint64
	err := g.withRetry(ctx, "pending_nonce_at", func(ctx context.Context) error {
		var err error
		nonce, err = g.node.PendingNonceAt(ctx, common.HexToAddress(address))
		return err
	})
	if err != nil {
		return 0, err
	}
	return nonce, nil
}

func (g *Gateway) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := g.withRetry(ctx, "chain_id", func(ctx context.Context) error {
		var err error
		id, err = g.node.ChainID(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

// Broadcast submits a signed raw transaction. Exactly one attempt: retrying
// after an ambiguous failure risks a double spend report to the caller.
func (g *Gateway) Broadcast(ctx context.Context, rawTx []byte) (string, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(rawTx); err != nil {
		return "", apperror.ErrRPCFailure(err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.node.SendTransaction(ctx, tx); err != nil {
		g.log.Error().Err(err).Str("tx_hash", tx.Hash().Hex()).Msg("broadcast failed")
		return "", apperror.ErrRPCFailure(err)
	}
	return tx.Hash().Hex(), nil
}

// withRetry runs a read call with a per-attempt timeout and linear backoff.
// A cancelled parent context stops the loop immediately.
func (g *Gateway) withRetry(ctx context.Context, op string, call func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		lastErr = call(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < g.attempts {
			g.log.Warn().Err(lastErr).Str("op", op).Int("attempt", attempt).Msg("rpc call failed, retrying")
			select {
			case <-time.After(g.backoff):
			case <-ctx.Done():
				return apperror.ErrRPCFailure(ctx.Err())
			}
		}
	}
	g.log.Error().Err(lastErr).Str("op", op).Int("attempts", g.attempts).Msg("rpc call exhausted retries")
	return apperror.ErrRPCFailure(lastErr)
}
