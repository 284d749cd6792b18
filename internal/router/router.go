package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adstatus-next/internal/authz"
	"github.com/adstatus-next/internal/cache"
	"github.com/adstatus-next/internal/config"
	adminhandlers "github.com/adstatus-next/internal/http/handlers/admin"
	publichandlers "github.com/adstatus-next/internal/http/handlers/public"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/provider"
	"github.com/adstatus-next/internal/storage"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ads"
	}
	otpRule := RateLimitRuleFromConfig(fmt.Sprintf("%s:rate:otp", redisPrefix), cfg.Security.OTPRateLimit)
	otpLimiter := RateLimitMiddleware(cache.Client(), otpRule, KeyByIPAndJSONField("phone"))

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 本地存储的上传文件
	if local, ok := c.ObjectStore.(*storage.LocalStore); ok && local != nil {
		r.Static("/uploads", local.Dir())
	}

	apiV1 := r.Group("/api/v1")
	{
		public := apiV1.Group("/public")
		{
			public.GET("/locations", publicHandler.GetLocations)
			public.GET("/captcha", publicHandler.GetImageCaptcha)
		}

		auth := apiV1.Group("/auth")
		{
			auth.POST("/otp/send", otpLimiter, publicHandler.SendOTP)
			auth.POST("/otp/verify", otpLimiter, publicHandler.VerifyOTP)
		}

		// 已登录但可能尚未选择角色
		account := apiV1.Group("")
		account.Use(AccountAuthMiddleware(c.AuthService))
		{
			account.GET("/auth/me", publicHandler.Me)
			account.POST("/auth/logout", publicHandler.Logout)
			account.POST("/profile", publicHandler.CreateProfile)
		}

		// 需要档案
		member := apiV1.Group("")
		member.Use(AccountAuthMiddleware(c.AuthService), ProfileMiddleware(c.ProfileService))
		{
			member.GET("/profile", publicHandler.GetProfile)
			member.PUT("/profile", publicHandler.UpdateProfile)
			member.GET("/dashboard", publicHandler.GetDashboard)
			member.GET("/referrals", publicHandler.GetReferrals)

			member.GET("/notifications", publicHandler.ListNotifications)
			member.GET("/notifications/unread-count", publicHandler.GetUnreadNotificationCount)
			member.POST("/notifications/read-all", publicHandler.MarkAllNotificationsRead)
			member.POST("/notifications/:id/read", publicHandler.MarkNotificationRead)
			member.DELETE("/notifications/:id", publicHandler.DeleteNotification)

			member.GET("/wallet", publicHandler.GetMyWallet)
			member.GET("/wallet/transactions", publicHandler.GetMyWalletTransactions)
			member.POST("/wallet/withdrawals", publicHandler.RequestWithdrawal)

			advertiser := member.Group("/advertiser")
			advertiser.Use(RoleRBACMiddleware(c.AuthzService))
			{
				advertiser.GET("/campaigns", publicHandler.ListMyCampaigns)
				advertiser.POST("/campaigns", publicHandler.CreateCampaign)
				advertiser.GET("/campaigns/:id", publicHandler.GetMyCampaign)
				advertiser.POST("/campaigns/:id/pause", publicHandler.PauseCampaign)
				advertiser.POST("/campaigns/:id/resume", publicHandler.ResumeCampaign)
				advertiser.POST("/campaigns/:id/media", publicHandler.UploadCampaignMedia)
				advertiser.GET("/campaigns/:id/applications", publicHandler.ListCampaignApplications)
				advertiser.POST("/applications/:id/accept", publicHandler.AcceptApplication)
				advertiser.POST("/applications/:id/reject", publicHandler.RejectApplication)
			}

			broadcaster := member.Group("/broadcaster")
			broadcaster.Use(RoleRBACMiddleware(c.AuthzService))
			{
				broadcaster.GET("/campaigns", publicHandler.ListAvailableCampaigns)
				broadcaster.GET("/campaigns/:id", publicHandler.GetAvailableCampaign)
				broadcaster.POST("/campaigns/:id/apply", publicHandler.ApplyToCampaign)
				broadcaster.GET("/applications", publicHandler.ListMyApplications)
				broadcaster.POST("/applications/:id/proof", publicHandler.SubmitProof)
				broadcaster.GET("/proofs", publicHandler.ListMyProofs)
			}

			admin := member.Group("/admin")
			admin.Use(RoleRBACMiddleware(c.AuthzService))
			{
				admin.GET("/campaigns", adminHandler.ListCampaigns)
				admin.POST("/campaigns/:id/approve", adminHandler.ApproveCampaign)
				admin.POST("/campaigns/:id/reject", adminHandler.RejectCampaign)

				admin.GET("/applications", adminHandler.ListApplications)
				admin.POST("/applications/:id/accept", adminHandler.AcceptApplication)
				admin.POST("/applications/:id/reject", adminHandler.RejectApplication)

				admin.GET("/proofs", adminHandler.ListProofs)
				admin.POST("/proofs/:id/approve", adminHandler.ApproveProof)
				admin.POST("/proofs/:id/reject", adminHandler.RejectProof)

				admin.GET("/profiles", adminHandler.ListProfiles)
				admin.GET("/profiles/:id", adminHandler.GetProfile)
				admin.PATCH("/profiles/:id/active", adminHandler.SetProfileActive)
				admin.POST("/profiles/:id/verify", adminHandler.VerifyProfile)
				admin.DELETE("/profiles/:id", adminHandler.DeleteProfile)

				admin.GET("/wallet/accounts", adminHandler.ListWalletAccounts)
				admin.GET("/wallet/transactions", adminHandler.ListWalletTransactions)
				admin.POST("/wallet/deposits", adminHandler.CreateDeposit)
				admin.POST("/wallet/withdrawals/:id/complete", adminHandler.CompleteWithdrawal)
				admin.POST("/wallet/withdrawals/:id/cancel", adminHandler.CancelWithdrawal)
				admin.GET("/wallet/reconcile", adminHandler.ReconcileWallets)

				admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
				admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				admin.POST("/authz/roles/:role/policies", adminHandler.GrantAuthzRolePolicy)
				admin.DELETE("/authz/roles/:role/policies", adminHandler.RevokeAuthzRolePolicy)
				admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildPermissionCatalog(r))
				})
			}
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildPermissionCatalog 汇总受角色策略保护的路由
func buildPermissionCatalog(engine *gin.Engine) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		module := derivePermissionModule(object)
		if module == "" {
			continue
		}
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Module:     module,
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})
	return items
}

// derivePermissionModule 角色分组下的第二段作为模块名，非角色分组返回空
func derivePermissionModule(object string) string {
	segments := strings.Split(strings.TrimPrefix(strings.TrimSpace(object), "/"), "/")
	if len(segments) < 2 {
		return ""
	}
	switch segments[0] {
	case "advertiser", "broadcaster", "admin":
		return segments[0] + "." + segments[1]
	default:
		return ""
	}
}
