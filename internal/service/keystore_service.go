package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"custodial-wallet-service/internal/core/ports"
	"custodial-wallet-service/pkg/apperror"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/hkdf"
)

const masterKeySize = 32

// hkdfInfo binds the derived subkey to its purpose. Changing it invalidates
// every stored ciphertext.
var hkdfInfo = []byte("custodial-wallet/private-key-encryption/v1")

// LoadOrCreateMasterKey reads master key material from the secret store,
// generating and persisting it exactly once on first run. A concurrent
// first-run loser re-reads the winner's material.
func LoadOrCreateMasterKey(ctx context.Context, store ports.SecretStore) ([]byte, error) {
	material, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading master key: %w", err)
	}
	if material != nil {
		if len(material) != masterKeySize {
			return nil, fmt.Errorf("master key material is %d bytes, want %d", len(material), masterKeySize)
		}
		return material, nil
	}

	material = make([]byte, masterKeySize)
	if _, err := io.ReadFull(rand.Reader, material); err != nil {
		return nil, apperror.ErrCryptoFailure(fmt.Errorf("generating master key: %w", err))
	}

	if err := store.Store(ctx, material); err != nil {
		if errors.Is(err, fs.ErrExist) {
			// Lost the first-run race; use the winner's material.
			return LoadOrCreateMasterKey(ctx, store)
		}
		return nil, fmt.Errorf("persisting master key: %w", err)
	}
	return material, nil
}

// DeriveEncryptionKey derives the AES-256 subkey from master key material
// via HKDF-SHA256, keeping the stored material distinct from the cipher key.
func DeriveEncryptionKey(master []byte) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("deriving encryption key: %w", err)
	}
	return key, nil
}

// EthereumKeyStore implements ports.KeyStore for secp256k1 key pairs.
type EthereumKeyStore struct {
	enc ports.EncryptionService
}

// NewEthereumKeyStore creates a key store over the given cipher.
func NewEthereumKeyStore(enc ports.EncryptionService) *EthereumKeyStore {
	return &EthereumKeyStore{enc: enc}
}

// GenerateKeyPair produces a fresh key pair and its derived checksummed address.
func (s *EthereumKeyStore) GenerateKeyPair() (string, []byte, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", nil, apperror.ErrCryptoFailure(err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	return address, crypto.FromECDSA(key), nil
}

// EncryptKey seals private key bytes under the process encryption key.
func (s *EthereumKeyStore) EncryptKey(privateKey []byte) (string, error) {
	blob, err := s.enc.Encrypt(privateKey)
	if err != nil {
		return "", apperror.ErrCryptoFailure(err)
	}
	return blob, nil
}

// DecryptKey recovers private key bytes from a stored blob.
func (s *EthereumKeyStore) DecryptKey(blob string) ([]byte, error) {
	privateKey, err := s.enc.Decrypt(blob)
	if err != nil {
		return nil, apperror.ErrDecryptionFailure(err)
	}
	return privateKey, nil
}

// Zero wipes key material in place once a caller is done with it.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
