package admin

import (
	"strconv"

	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
)

// rejectPayload 驳回请求，原因必填由 service 校验
type rejectPayload struct {
	Reason string `json:"reason"`
}

// ListCampaigns 活动列表，pending=true 时仅返回待审核
func (h *Handler) ListCampaigns(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	pendingOnly, _ := strconv.ParseBool(c.DefaultQuery("pending", "false"))
	result, err := h.CampaignService.ListAdmin(c.Request.Context(), service.CampaignListInput{
		Page:      page,
		PageSize:  pageSize,
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}, pendingOnly)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// ApproveCampaign 审核通过活动并扣减广告主预算
func (h *Handler) ApproveCampaign(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	campaign, err := h.CampaignService.Approve(c.Request.Context(), admin.ID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_campaign_approved", "admin_id", admin.ID, "campaign_id", id)
	response.Success(c, campaign)
}

// RejectCampaign 驳回活动
func (h *Handler) RejectCampaign(c *gin.Context) {
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
	campaign, err := h.CampaignService.Reject(c.Request.Context(), admin.ID, id, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_campaign_rejected", "admin_id", admin.ID, "campaign_id", id)
	response.Success(c, campaign)
}
