package shared

import (
	"strconv"
	"strings"

	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/models"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	RequestIDKey = "request_id"
	AccountIDKey = "account_id"
	ProfileKey   = "profile"
)

// GetRequestID 读取请求 ID
func GetRequestID(c *gin.Context) string {
	value, ok := c.Get(RequestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// CurrentAccountID 读取鉴权中间件写入的账号 ID
func CurrentAccountID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(AccountIDKey)
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		return v, v > 0
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint(v), true
	case float64:
		if v <= 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}

// CurrentProfile 读取档案中间件写入的当前档案
func CurrentProfile(c *gin.Context) (*models.Profile, bool) {
	value, exists := c.Get(ProfileKey)
	if !exists {
		return nil, false
	}
	profile, ok := value.(*models.Profile)
	if !ok || profile == nil {
		return nil, false
	}
	return profile, true
}

// MustProfile 读取当前档案，缺失时直接写出 401 响应
func MustProfile(c *gin.Context) (*models.Profile, bool) {
	profile, ok := CurrentProfile(c)
	if !ok {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return nil, false
	}
	return profile, true
}

// ParamUint 解析路径中的正整数 ID
func ParamUint(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}

// QueryUint 解析查询参数中的可选正整数
func QueryUint(c *gin.Context, name string) uint {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
