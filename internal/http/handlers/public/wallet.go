package public

import (
	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/repository"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetMyWallet 获取当前档案钱包
func (h *Handler) GetMyWallet(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	account, err := h.WalletService.GetAccount(profile.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"wallet":   account,
		"currency": h.WalletService.Currency(),
	})
}

// GetMyWalletTransactions 获取当前档案钱包流水
func (h *Handler) GetMyWalletTransactions(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)
	transactions, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		Page:      page,
		PageSize:  pageSize,
		ProfileID: profile.ID,
		Type:      c.Query("type"),
		Status:    c.Query("status"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, transactions, shared.BuildPagination(page, pageSize, total))
}

// WithdrawalRequest 提现申请
type WithdrawalRequest struct {
	Amount        models.Money `json:"amount"`
	PaymentMethod string       `json:"payment_method"`
	Remark        string       `json:"remark"`
}

// RequestWithdrawal 发起提现，余额转入冻结待管理员处理
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	account, txn, err := h.WalletService.RequestWithdrawal(service.WalletWithdrawalInput{
		ProfileID:     profile.ID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Remark:        req.Remark,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"wallet":      account,
		"transaction": txn,
	})
}
