package handler

import (
	"custodial-wallet-service/internal/adapter/http/dto"
	"custodial-wallet-service/internal/core/domain"
	"custodial-wallet-service/internal/core/ports"
	"custodial-wallet-service/pkg/apperror"
	"custodial-wallet-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet and transaction endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// CreateWallet handles POST /api/v1/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	summary, err := h.walletSvc.CreateWallet(c.Request.Context(), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if summary == nil {
		// Already exists; surface the existing wallet instead of failing.
		summary, err = h.walletSvc.GetWalletInfo(c.Request.Context(), req.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		if summary == nil {
			response.Error(c, apperror.ErrWalletNotFound())
			return
		}
		response.OK(c, toWalletResponse(summary))
		return
	}

	response.Created(c, toWalletResponse(summary))
}

// GetWallet handles GET /api/v1/wallets/:user_id.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID := c.Param("user_id")

	summary, err := h.walletSvc.GetWalletInfo(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if summary == nil {
		response.Error(c, apperror.ErrWalletNotFound())
		return
	}

	response.OK(c, toWalletResponse(summary))
}

// GetBalance handles GET /api/v1/balance/:address.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	address := c.Param("address")
	if !domain.IsValidAddress(address) {
		response.Error(c, apperror.Validation("invalid address"))
		return
	}

	balance := h.walletSvc.GetBalance(c.Request.Context(), address)
	response.OK(c, dto.BalanceResponse{
		Address: domain.ToChecksumAddress(address),
		Balance: balance.String(),
	})
}

// SendTransaction handles POST /api/v1/transactions.
// The outcome always arrives as HTTP 200 with a structured status field;
// only malformed request bodies produce an error envelope.
func (h *WalletHandler) SendTransaction(c *gin.Context) {
	var req dto.SendTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result := h.walletSvc.SendTransaction(c.Request.Context(), req.UserID, req.Recipient, req.Amount)
	response.OK(c, dto.SendTransactionResponse{
		Status:  string(result.Status),
		TxHash:  result.TxHash,
		Message: result.Message,
	})
}

// GetTransactionHistory handles GET /api/v1/transactions/:user_id.
func (h *WalletHandler) GetTransactionHistory(c *gin.Context) {
	userID := c.Param("user_id")

	items, err := h.walletSvc.GetTransactionHistory(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.TransactionHistoryItem, 0, len(items))
	for _, item := range items {
		out = append(out, dto.TransactionHistoryItem{
			TxHash:    item.TxHash,
			Recipient: item.Recipient,
			Amount:    item.Amount.String(),
			Status:    string(item.Status),
			Timestamp: item.Timestamp,
		})
	}

	response.OK(c, dto.TransactionHistoryResponse{
		UserID:       userID,
		Transactions: out,
	})
}

func toWalletResponse(s *domain.WalletSummary) dto.WalletResponse {
	return dto.WalletResponse{
		UserID:    s.UserID,
		Address:   s.Address,
		Balance:   s.Balance.String(),
		CreatedAt: s.CreatedAt.UTC().Format(domain.HistoryTimeFormat),
	}
}
