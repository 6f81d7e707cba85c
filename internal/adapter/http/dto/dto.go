package dto

import "github.com/shopspring/decimal"

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	UserID string `json:"user_id" binding:"required,safe_id,max=64"`
}

// SendTransactionRequest is the request body for sending a transfer.
type SendTransactionRequest struct {
	UserID    string          `json:"user_id" binding:"required,safe_id,max=64"`
	Recipient string          `json:"recipient" binding:"required,eth_address"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// WalletResponse is the response body for wallet creation and lookup.
type WalletResponse struct {
	UserID    string `json:"user_id"`
	Address   string `json:"address"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
}

// SendTransactionResponse is the response body for a send attempt.
// Status is "success" or "error"; exactly one of TxHash and Message is set.
type SendTransactionResponse struct {
	Status  string `json:"status"`
	TxHash  string `json:"tx_hash,omitempty"`
	Message string `json:"message,omitempty"`
}

// TransactionHistoryResponse wraps a user's transaction history.
type TransactionHistoryResponse struct {
	UserID       string                   `json:"user_id"`
	Transactions []TransactionHistoryItem `json:"transactions"`
}

// TransactionHistoryItem is one row of transaction history.
type TransactionHistoryItem struct {
	TxHash    string `json:"tx_hash"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// BalanceResponse is the response body for a balance query.
type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}
