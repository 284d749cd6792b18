package public

import (
	"errors"

	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/i18n"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SendOTPRequest 发送验证码请求
type SendOTPRequest struct {
	Phone   string                       `json:"phone" binding:"required"`
	Captcha service.CaptchaVerifyPayload `json:"captcha_payload"`
}

// SendOTP 发送手机验证码
func (h *Handler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if h.CaptchaService != nil && h.CaptchaService.Enabled() {
		if err := h.CaptchaService.Verify(req.Captcha); err != nil {
			respondServiceError(c, err)
			return
		}
	}
	if err := h.AuthService.SendOTP(c.Request.Context(), req.Phone, i18n.ResolveLocale(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"sent": true})
}

// VerifyOTPRequest 验证码登录请求
type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// VerifyOTP 验证码登录，首次登录自动创建账号
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.AuthService.VerifyOTP(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// Me 当前登录信息；未选择角色时 profile 为空
func (h *Handler) Me(c *gin.Context) {
	accountID, ok := shared.CurrentAccountID(c)
	if !ok {
		respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return
	}
	profile, err := h.ProfileService.GetByAccountID(accountID)
	if err != nil && !errors.Is(err, service.ErrProfileNotFound) {
		respondServiceError(c, err)
		return
	}
	if profile == nil {
		response.Success(c, gin.H{
			"account_id":       accountID,
			"profile":          nil,
			"profile_required": true,
		})
		return
	}
	response.Success(c, gin.H{
		"account_id":       accountID,
		"profile":          profile,
		"profile_required": false,
	})
}

// Logout 注销当前账号全部 Token
func (h *Handler) Logout(c *gin.Context) {
	accountID, ok := shared.CurrentAccountID(c)
	if !ok {
		respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return
	}
	if err := h.AuthService.Logout(c.Request.Context(), accountID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"logged_out": true})
}
