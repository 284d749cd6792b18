package admin

import (
	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
)

type approveProofPayload struct {
	EstimatedViews int `json:"estimated_views" binding:"required"`
}

// ListProofs 凭证审核列表
func (h *Handler) ListProofs(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	result, err := h.ProofService.List(c.Request.Context(), service.ProofListInput{
		Page:          page,
		PageSize:      pageSize,
		Status:        c.Query("status"),
		CampaignID:    shared.QueryUint(c, "campaign_id"),
		BroadcasterID: shared.QueryUint(c, "broadcaster_id"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, result.Items, shared.BuildPagination(page, pageSize, result.Total))
}

// ApproveProof 审核通过凭证并结算收益
func (h *Handler) ApproveProof(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req approveProofPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.views_out_of_range", nil)
		return
	}
	proof, err := h.ProofService.Approve(c.Request.Context(), admin.ID, id, req.EstimatedViews)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_proof_approved", "admin_id", admin.ID, "proof_id", id, "views", req.EstimatedViews)
	response.Success(c, proof)
}

// RejectProof 驳回凭证，申请保持已接受
func (h *Handler) RejectProof(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req rejectPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	proof, err := h.ProofService.Reject(c.Request.Context(), admin.ID, id, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_proof_rejected", "admin_id", admin.ID, "proof_id", id)
	response.Success(c, proof)
}
