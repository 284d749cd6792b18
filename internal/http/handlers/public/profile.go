package public

import (
	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateProfileRequest 角色选择请求
type CreateProfileRequest struct {
	Role         string                `json:"role" binding:"required"`
	FullName     string                `json:"full_name" binding:"required"`
	Email        string                `json:"email"`
	Region       string                `json:"region"`
	City         string                `json:"city"`
	Age          *int                  `json:"age"`
	Gender       string                `json:"gender"`
	Language     string                `json:"language"`
	Interests    []string              `json:"interests"`
	ReferralCode string                `json:"referral_code"`
	Company      *service.CompanyInput `json:"company"`
}

// CreateProfile 选择角色并创建档案
func (h *Handler) CreateProfile(c *gin.Context) {
	accountID, ok := shared.CurrentAccountID(c)
	if !ok {
		respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return
	}
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	profile, err := h.ProfileService.Create(c.Request.Context(), accountID, service.CreateProfileInput{
		Role:         req.Role,
		FullName:     req.FullName,
		Email:        req.Email,
		Region:       req.Region,
		City:         req.City,
		Age:          req.Age,
		Gender:       req.Gender,
		Language:     req.Language,
		Interests:    req.Interests,
		ReferralCode: req.ReferralCode,
		Company:      req.Company,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, profile)
}

// GetProfile 获取当前档案
func (h *Handler) GetProfile(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	response.Success(c, profile)
}

// UpdateProfileRequest 档案更新请求（字段为空表示不修改）
type UpdateProfileRequest struct {
	Role      *string               `json:"role"`
	FullName  *string               `json:"full_name"`
	Email     *string               `json:"email"`
	Region    *string               `json:"region"`
	City      *string               `json:"city"`
	Age       *int                  `json:"age"`
	ClearAge  bool                  `json:"clear_age"`
	Gender    *string               `json:"gender"`
	Language  *string               `json:"language"`
	Interests []string              `json:"interests"`
	AvatarURL *string               `json:"avatar_url"`
	Company   *service.CompanyInput `json:"company"`
}

// UpdateProfile 更新当前档案，角色不可修改
func (h *Handler) UpdateProfile(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	updated, err := h.ProfileService.Update(c.Request.Context(), profile, service.UpdateProfileInput{
		Role:      req.Role,
		FullName:  req.FullName,
		Email:     req.Email,
		Region:    req.Region,
		City:      req.City,
		Age:       req.Age,
		ClearAge:  req.ClearAge,
		Gender:    req.Gender,
		Language:  req.Language,
		Interests: req.Interests,
		AvatarURL: req.AvatarURL,
		Company:   req.Company,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, updated)
}

// GetReferrals 推荐码与推荐人数
func (h *Handler) GetReferrals(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	count, err := h.ReferralService.CountReferrals(profile.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"referral_code":  profile.ReferralCode,
		"referred_count": count,
	})
}

// GetDashboard 按角色返回统计面板
func (h *Handler) GetDashboard(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	dashboard, err := h.DashboardService.Get(c.Request.Context(), profile)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, dashboard)
}
