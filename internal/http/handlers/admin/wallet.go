package admin

import (
	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/repository"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
)

type depositPayload struct {
	ProfileID     uint         `json:"profile_id" binding:"required"`
	Amount        models.Money `json:"amount"`
	PaymentMethod string       `json:"payment_method"`
	ExternalRef   string       `json:"external_ref"`
	Remark        string       `json:"remark"`
}

// ListWalletAccounts 钱包账户列表
func (h *Handler) ListWalletAccounts(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	accounts, total, err := h.WalletService.ListAccounts(repository.WalletAccountListFilter{
		Page:      page,
		PageSize:  pageSize,
		ProfileID: shared.QueryUint(c, "profile_id"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, accounts, shared.BuildPagination(page, pageSize, total))
}

// ListWalletTransactions 钱包流水列表
func (h *Handler) ListWalletTransactions(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	transactions, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		Page:       page,
		PageSize:   pageSize,
		ProfileID:  shared.QueryUint(c, "profile_id"),
		CampaignID: shared.QueryUint(c, "campaign_id"),
		Type:       c.Query("type"),
		Status:     c.Query("status"),
		Direction:  c.Query("direction"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, transactions, shared.BuildPagination(page, pageSize, total))
}

// CreateDeposit 确认线下付款，为档案入账
func (h *Handler) CreateDeposit(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		return
	}
	var req depositPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	account, txn, err := h.WalletService.Deposit(service.WalletDepositInput{
		ProfileID:     req.ProfileID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		ExternalRef:   req.ExternalRef,
		Remark:        req.Remark,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_wallet_deposit_created",
		"admin_id", admin.ID,
		"profile_id", req.ProfileID,
		"amount", req.Amount.String(),
	)
	response.Success(c, gin.H{
		"wallet":      account,
		"transaction": txn,
	})
}

// CompleteWithdrawal 完成提现
func (h *Handler) CompleteWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	txn, err := h.WalletService.CompleteWithdrawal(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.notifyWithdrawal(c, txn)
	response.Success(c, txn)
}

// CancelWithdrawal 取消提现并退回余额
func (h *Handler) CancelWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req rejectPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	txn, err := h.WalletService.CancelWithdrawal(id, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.notifyWithdrawal(c, txn)
	response.Success(c, txn)
}

// ReconcileWallets 校验收益流水与累计收益是否一致
func (h *Handler) ReconcileWallets(c *gin.Context) {
	rows, err := h.WalletService.Reconcile()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"consistent": len(rows) == 0,
		"mismatches": rows,
	})
}

func (h *Handler) notifyWithdrawal(c *gin.Context, txn *models.WalletTransaction) {
	if txn == nil || h.NotificationService == nil {
		return
	}
	messageKey := ""
	if txn.Status == constants.WalletTxnStatusCancelled {
		messageKey = "notification.withdrawal_cancelled.message"
	}
	h.NotificationService.Notify(c.Request.Context(), service.NotifyInput{
		ProfileID:  txn.ProfileID,
		Type:       constants.NotificationWithdrawalProcessed,
		MessageKey: messageKey,
		Args:       []interface{}{txn.Amount.StringFixed(2), h.WalletService.Currency()},
		Data:       map[string]interface{}{"transaction_id": txn.ID, "status": txn.Status},
	})
}
