package admin

import (
	"strings"

	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListApplications 全部投放申请，可按活动过滤
func (h *Handler) ListApplications(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	result, err := h.ApplicationService.ListAll(c.Request.Context(), shared.QueryUint(c, "campaign_id"), service.ApplicationListInput{
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

// AcceptApplication 管理员代为接受申请
func (h *Handler) AcceptApplication(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	application, err := h.ApplicationService.Accept(c.Request.Context(), admin, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, application)
}

// RejectApplication 管理员代为拒绝申请
func (h *Handler) RejectApplication(c *gin.Context) {
	admin, ok := currentAdmin(c)
	if !ok {
		return
	}
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
	application, err := h.ApplicationService.Reject(c.Request.Context(), admin, id, strings.TrimSpace(req.Reason))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, application)
}
