package service

import (
	"context"
	"fmt"

	"custodial-wallet-service/internal/core/domain"
	"custodial-wallet-service/internal/core/ports"
	"custodial-wallet-service/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// valueTransferGasLimit is the fixed gas cost of a plain value transfer.
const valueTransferGasLimit = 21000

// EthereumTxSigner implements ports.TransactionSigner for legacy value
// transfers. Gas price, nonce and chain id are read from the gateway at build
// time; there is no atomicity between those reads and the eventual broadcast.
type EthereumTxSigner struct {
	chain ports.ChainGateway
	keys  ports.KeyStore
}

// NewEthereumTxSigner creates a new EthereumTxSigner.
func NewEthereumTxSigner(chain ports.ChainGateway, keys ports.KeyStore) *EthereumTxSigner {
	return &EthereumTxSigner{chain: chain, keys: keys}
}

// BuildAndSign assembles a value transfer, signs it with the decrypted sender
// key and returns the raw RLP payload. Plaintext key bytes are wiped before
// returning; nothing is logged or retained on failure.
func (s *EthereumTxSigner) BuildAndSign(ctx context.Context, encryptedKey, from, to string, amount decimal.Decimal) ([]byte, error) {
	if !domain.IsValidAddress(to) {
		return nil, apperror.Validation("invalid recipient address")
	}
	if !amount.IsPositive() {
		return nil, apperror.Validation("amount must be positive")
	}

	gasPrice, err := s.chain.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	nonce, err := s.chain.PendingNonce(ctx, from)
	if err != nil {
		return nil, err
	}
	chainID, err := s.chain.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	tx := types.NewTransaction(
		nonce,
		common.HexToAddress(to),
		domain.ToWei(amount),
		valueTransferGasLimit,
		gasPrice,
		nil,
	)

	privBytes, err := s.keys.DecryptKey(encryptedKey)
	if err != nil {
		return nil, err
	}
	defer Zero(privBytes)

	priv, err := crypto.ToECDSA(privBytes)
	if err != nil {
		return nil, apperror.ErrCryptoFailure(fmt.Errorf("reconstructing private key: %w", err))
	}

	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), priv)
	if err != nil {
		return nil, apperror.ErrCryptoFailure(fmt.Errorf("signing transaction: %w", err))
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, apperror.ErrCryptoFailure(fmt.Errorf("encoding transaction: %w", err))
	}
	return raw, nil
}
