package router

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/adstatus-next/internal/authz"
	"github.com/adstatus-next/internal/cache"
	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/i18n"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Language",
			"Authorization",
			"X-Request-ID",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(shared.RequestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"request_id", shared.GetRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if profile, ok := shared.CurrentProfile(c); ok {
			fields = append(fields, "profile_id", profile.ID, "role", profile.Role)
		}
		if len(c.Errors) > 0 {
			sugar.Errorw("request", append(fields, "errors", c.Errors.String())...)
			return
		}
		sugar.Infow("request", fields...)
	}
}

// AccountAuthMiddleware 解析 Bearer Token 并校验账号状态与 Token 版本
func AccountAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "error.auth_header_missing")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			abortUnauthorized(c, "error.auth_header_invalid")
			return
		}

		claims, err := authService.ParseJWT(strings.TrimSpace(parts[1]))
		if err != nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}

		if cached, hit, cacheErr := cache.GetAccountAuthState(c.Request.Context(), claims.AccountID); cacheErr == nil && hit && cached != nil {
			if !strings.EqualFold(cached.Status, constants.AccountStatusActive) {
				abortUnauthorized(c, "error.account_disabled")
				return
			}
			if claims.TokenVersion != cached.TokenVersion || !isIssuedAfterInvalidBeforeUnix(claims.IssuedAt, cached.TokenInvalidBefore) {
				abortUnauthorized(c, "error.token_revoked")
				return
			}
			c.Set(shared.AccountIDKey, claims.AccountID)
			c.Next()
			return
		}

		account, err := authService.ResolveAccount(c.Request.Context(), claims)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAccountDisabled):
				abortUnauthorized(c, "error.account_disabled")
			case errors.Is(err, service.ErrTokenRevoked):
				abortUnauthorized(c, "error.token_revoked")
			default:
				abortUnauthorized(c, "error.token_invalid")
			}
			return
		}
		_ = cache.SetAccountAuthState(c.Request.Context(), cache.BuildAccountAuthState(account, nil))

		c.Set(shared.AccountIDKey, account.ID)
		c.Next()
	}
}

// ProfileMiddleware 加载当前账号的档案；未选择角色返回 profile_required
func ProfileMiddleware(profileService *service.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := shared.CurrentAccountID(c)
		if !ok {
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if profileService == nil {
			shared.RespondError(c, response.CodeInternal, "error.internal", errors.New("profile service unavailable"))
			c.Abort()
			return
		}
		profile, err := profileService.GetByAccountID(accountID)
		if err != nil {
			if errors.Is(err, service.ErrProfileNotFound) {
				shared.RespondError(c, response.CodeNotFound, "error.profile_required", nil)
			} else {
				shared.RespondError(c, response.CodeInternal, "error.internal", err)
			}
			c.Abort()
			return
		}
		if profile == nil {
			shared.RespondError(c, response.CodeNotFound, "error.profile_required", nil)
			c.Abort()
			return
		}
		if !profile.IsActive {
			msg := i18n.T(i18n.ResolveLocale(c), "error.profile_inactive")
			response.Forbidden(c, msg)
			c.Abort()
			return
		}
		c.Set(shared.ProfileKey, profile)
		c.Next()
	}
}

// RoleRBACMiddleware 按档案角色对路由模式执行 RBAC 校验
func RoleRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("role_rbac_service_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		profile, ok := shared.CurrentProfile(c)
		if !ok {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceRole(profile.Role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("role_rbac_enforce_failed",
				"profile_id", profile.ID,
				"role", profile.Role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("role_rbac_permission_denied",
				"profile_id", profile.ID,
				"role", profile.Role,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			msg := i18n.T(i18n.ResolveLocale(c), "error.forbidden")
			response.Forbidden(c, msg)
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, key string) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	response.Unauthorized(c, msg)
	c.Abort()
}

func isIssuedAfterInvalidBeforeUnix(issuedAt *jwt.NumericDate, invalidBeforeUnix int64) bool {
	if invalidBeforeUnix <= 0 {
		return true
	}
	if issuedAt == nil {
		return false
	}
	return issuedAt.Time.Unix() >= invalidBeforeUnix
}
