package public

import (
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetImageCaptcha 获取图片验证码挑战
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	if h.CaptchaService == nil {
		respondError(c, response.CodeBadRequest, "error.captcha_config_invalid", nil)
		return
	}
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, challenge)
}

// GetLocations 获取省份与城市列表
func (h *Handler) GetLocations(c *gin.Context) {
	if h.LocationService == nil {
		response.Success(c, []service.Department{})
		return
	}
	response.Success(c, h.LocationService.Departments())
}
