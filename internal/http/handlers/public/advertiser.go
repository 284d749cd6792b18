package public

import (
	"strings"
	"time"

	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	Title           string       `json:"title" binding:"required"`
	Description     string       `json:"description"`
	MediaURL        string       `json:"media_url"`
	MediaType       string       `json:"media_type"`
	Caption         string       `json:"caption"`
	CostPerView     models.Money `json:"cost_per_view"`
	Budget          models.Money `json:"budget"`
	TargetViews     int          `json:"target_views"`
	TargetGender    string       `json:"target_gender"`
	TargetAgeMin    *int         `json:"target_age_min"`
	TargetAgeMax    *int         `json:"target_age_max"`
	TargetCities    []string     `json:"target_cities"`
	TargetLanguages []string     `json:"target_languages"`
	AudienceRule    string       `json:"audience_rule"`
	StartDate       *time.Time   `json:"start_date"`
	EndDate         *time.Time   `json:"end_date"`
}

// CreateCampaign 广告主创建活动（待审核）
func (h *Handler) CreateCampaign(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	campaign, err := h.CampaignService.Create(c.Request.Context(), profile, service.CreateCampaignInput{
		Title:           req.Title,
		Description:     req.Description,
		MediaURL:        req.MediaURL,
		MediaType:       req.MediaType,
		Caption:         req.Caption,
		CostPerView:     req.CostPerView,
		Budget:          req.Budget,
		TargetViews:     req.TargetViews,
		TargetGender:    req.TargetGender,
		TargetAgeMin:    req.TargetAgeMin,
		TargetAgeMax:    req.TargetAgeMax,
		TargetCities:    req.TargetCities,
		TargetLanguages: req.TargetLanguages,
		AudienceRule:    req.AudienceRule,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, campaign)
}

// ListMyCampaigns 广告主活动列表
func (h *Handler) ListMyCampaigns(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)
	result, err := h.CampaignService.ListOwn(c.Request.Context(), profile.ID, service.CampaignListInput{
		Page:      page,
		PageSize:  pageSize,
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// GetMyCampaign 广告主活动详情
func (h *Handler) GetMyCampaign(c *gin.Context) {
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

// PauseCampaign 暂停活动
func (h *Handler) PauseCampaign(c *gin.Context) {
	h.toggleCampaign(c, true)
}

// ResumeCampaign 恢复活动
func (h *Handler) ResumeCampaign(c *gin.Context) {
	h.toggleCampaign(c, false)
}

func (h *Handler) toggleCampaign(c *gin.Context, pause bool) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	var (
		campaign *models.Campaign
		err      error
	)
	if pause {
		campaign, err = h.CampaignService.Pause(c.Request.Context(), profile, id)
	} else {
		campaign, err = h.CampaignService.Resume(c.Request.Context(), profile, id)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, campaign)
}

// UploadCampaignMedia 上传活动素材（multipart 字段 media）
func (h *Handler) UploadCampaignMedia(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	if _, err := h.CampaignService.Get(profile, id); err != nil {
		respondServiceError(c, err)
		return
	}
	file, err := c.FormFile("media")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.upload_file_required", nil)
		return
	}
	url, mediaType, err := h.UploadService.SaveCampaignMedia(c.Request.Context(), file, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	campaign, err := h.CampaignService.SetMedia(c.Request.Context(), profile, id, url, mediaType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, campaign)
}

// ListCampaignApplications 广告主查看活动下的申请
func (h *Handler) ListCampaignApplications(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)
	result, err := h.ApplicationService.ListForAdvertiser(c.Request.Context(), profile.ID, id, service.ApplicationListInput{
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

// ApplicationDecisionRequest 申请审核请求
type ApplicationDecisionRequest struct {
	Reason string `json:"reason"`
}

// AcceptApplication 广告主接受申请
func (h *Handler) AcceptApplication(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	application, err := h.ApplicationService.Accept(c.Request.Context(), profile, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, application)
}

// RejectApplication 广告主拒绝申请，原因可选
func (h *Handler) RejectApplication(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req ApplicationDecisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	application, err := h.ApplicationService.Reject(c.Request.Context(), profile, id, strings.TrimSpace(req.Reason))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, application)
}
