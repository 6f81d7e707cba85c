package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a custodial key pair held on behalf of a user.
// The address is derived from the key pair at creation and never changes.
type Wallet struct {
	UserID              string    `json:"user_id"`
	Address             string    `json:"address"`
	EncryptedPrivateKey string    `json:"-"` // AES-256-GCM blob, never expose
	CreatedAt           time.Time `json:"created_at"`
}

// WalletSummary is the user-facing view of a wallet, enriched with a live balance.
type WalletSummary struct {
	UserID    string          `json:"user_id"`
	Address   string          `json:"address"`
	Balance   decimal.Decimal `json:"balance"` // native units (ETH)
	CreatedAt time.Time       `json:"created_at"`
}
