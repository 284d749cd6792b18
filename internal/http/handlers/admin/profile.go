package admin

import (
	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
)

type setActivePayload struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ListProfiles 用户档案列表
func (h *Handler) ListProfiles(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	result, err := h.ProfileService.List(c.Request.Context(), service.ProfileListInput{
		Page:     page,
		PageSize: pageSize,
		Role:     c.Query("role"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, result.Items, shared.BuildPagination(page, pageSize, result.Total))
}

// GetProfile 档案详情
func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	profile, err := h.ProfileService.GetByID(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, profile)
}

// SetProfileActive 启用或停用档案
func (h *Handler) SetProfileActive(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req setActivePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if id == admin.ID && !*req.IsActive {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	profile, err := h.ProfileService.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_profile_active_updated", "admin_id", admin.ID, "profile_id", id, "is_active", *req.IsActive)
	response.Success(c, profile)
}

// VerifyProfile 认证档案
func (h *Handler) VerifyProfile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	profile, err := h.ProfileService.Verify(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, profile)
}

// DeleteProfile 软删除档案
func (h *Handler) DeleteProfile(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if id == admin.ID {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.ProfileService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_profile_deleted", "admin_id", admin.ID, "profile_id", id)
	response.Success(c, gin.H{"deleted": true})
}
