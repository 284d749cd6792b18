package public

import (
	"strings"

	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAvailableCampaigns 推广者可投放活动（已按定向过滤）
func (h *Handler) ListAvailableCampaigns(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	page, limit := shared.ParsePagination(c)
	result, err := h.CampaignService.ListAvailable(c.Request.Context(), profile, page, limit, strings.TrimSpace(c.Query("search")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// GetAvailableCampaign 推广者查看活动详情
func (h *Handler) GetAvailableCampaign(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	campaign, err := h.CampaignService.Get(profile, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, campaign)
}

// ApplyToCampaign 申请投放活动
func (h *Handler) ApplyToCampaign(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	application, err := h.ApplicationService.Apply(c.Request.Context(), profile, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, application)
}

// ListMyApplications 推广者申请列表（含截止时间标记）
func (h *Handler) ListMyApplications(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)
	result, err := h.ApplicationService.ListForBroadcaster(c.Request.Context(), profile.ID, service.ApplicationListInput{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, result.Items, shared.BuildPagination(page, pageSize, result.Total))
}

// SubmitProof 上传发布截图（multipart 字段 screenshot）
func (h *Handler) SubmitProof(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("screenshot")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.upload_file_required", nil)
		return
	}
	proof, err := h.ProofService.Submit(c.Request.Context(), profile, id, file)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, proof)
}

// ListMyProofs 推广者凭证列表
func (h *Handler) ListMyProofs(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)
	result, err := h.ProofService.List(c.Request.Context(), service.ProofListInput{
		Page:          page,
		PageSize:      pageSize,
		Status:        c.Query("status"),
		BroadcasterID: profile.ID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, result.Items, shared.BuildPagination(page, pageSize, result.Total))
}
