package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the recorded state of a submitted transaction.
// Records are written once after broadcast; confirmation tracking is out of scope.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
)

// Transaction records a broadcast value transfer. Immutable once written;
// TxHash is assigned by the chain and globally unique.
type Transaction struct {
	TxHash    string            `json:"tx_hash"`
	UserID    string            `json:"user_id"`
	Recipient string            `json:"recipient"`
	Amount    decimal.Decimal   `json:"amount"` // native units (ETH)
	Status    TransactionStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// SendStatus is the outcome discriminator of a send attempt.
type SendStatus string

const (
	SendStatusSuccess SendStatus = "success"
	SendStatusError   SendStatus = "error"
)

// SendResult is the structured outcome of SendTransaction. Callers inspect
// Status instead of handling errors.
type SendResult struct {
	Status  SendStatus `json:"status"`
	TxHash  string     `json:"tx_hash,omitempty"`
	Message string     `json:"message,omitempty"`
}

// TransactionHistoryItem is a history entry with a human-readable timestamp.
type TransactionHistoryItem struct {
	TxHash    string            `json:"tx_hash"`
	Recipient string            `json:"recipient"`
	Amount    decimal.Decimal   `json:"amount"`
	Status    TransactionStatus `json:"status"`
	Timestamp string            `json:"timestamp"`
}

// HistoryTimeFormat renders record times for history listings.
const HistoryTimeFormat = "2006-01-02 15:04:05 MST"

// HistoryItem converts a stored record into its history representation.
func (t Transaction) HistoryItem() TransactionHistoryItem {
	return TransactionHistoryItem{
		TxHash:    t.TxHash,
		Recipient: t.Recipient,
		Amount:    t.Amount,
		Status:    t.Status,
		Timestamp: t.CreatedAt.UTC().Format(HistoryTimeFormat),
	}
}
