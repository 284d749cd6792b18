package provider

import (
	"context"
	"strings"
	"time"

	"github.com/adstatus-next/internal/authz"
	"github.com/adstatus-next/internal/cache"
	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/notifier"
	"github.com/adstatus-next/internal/querycache"
	"github.com/adstatus-next/internal/queue"
	"github.com/adstatus-next/internal/repository"
	"github.com/adstatus-next/internal/service"
	"github.com/adstatus-next/internal/storage"
)

// Container 依赖注入容器
type Container struct {
	Config         *config.Config
	QueueClient    *queue.Client
	QueryCache     *querycache.Service
	ObjectStore    storage.ObjectStore
	TelegramPusher *notifier.TelegramPusher

	// Repositories
	AccountRepo      repository.AccountRepository
	OTPCodeRepo      repository.OTPCodeRepository
	ProfileRepo      repository.ProfileRepository
	CampaignRepo     repository.CampaignRepository
	ApplicationRepo  repository.ApplicationRepository
	ProofRepo        repository.ProofRepository
	WalletRepo       repository.WalletRepository
	NotificationRepo repository.NotificationRepository
	ReferralRepo     repository.ReferralRepository
	DashboardRepo    repository.DashboardRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	CaptchaService      *service.CaptchaService
	LocationService     *service.LocationService
	TargetingService    *service.TargetingService
	WalletService       *service.WalletService
	ReferralService     *service.ReferralService
	NotificationService *service.NotificationService
	ProfileService      *service.ProfileService
	CampaignService     *service.CampaignService
	ApplicationService  *service.ApplicationService
	UploadService       *service.UploadService
	ProofService        *service.ProofService
	DashboardService    *service.DashboardService
}

// chatLinkerFunc 延迟绑定档案服务，避免推送与档案服务的初始化环
type chatLinkerFunc func(ctx context.Context, referralCode, chatID string) error

func (f chatLinkerFunc) LinkTelegramChat(ctx context.Context, referralCode, chatID string) error {
	return f(ctx, referralCode, chatID)
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		QueryCache:  NewQueryCache(cfg.Cache, cfg.Redis),
	}

	store, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		logger.Errorw("provider_init_storage_failed", "driver", cfg.Storage.Driver, "error", err)
	} else {
		c.ObjectStore = store
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

// NewQueryCache 按配置创建查询缓存，Redis 不可用时退回进程内存
func NewQueryCache(cfg config.CacheConfig, redisCfg config.RedisConfig) *querycache.Service {
	var store querycache.Store
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == constants.CacheDriverRedis && cache.Enabled() {
		store = querycache.NewRedisStore(cache.Client(), redisCfg.Prefix)
	} else {
		if driver == constants.CacheDriverRedis {
			logger.Warnw("provider_query_cache_redis_unavailable", "fallback", constants.CacheDriverMemory)
		}
		store = querycache.NewMemoryStore()
	}
	retry := querycache.DefaultRetryPolicy()
	if cfg.RetryAttempts > 0 {
		retry.Attempts = cfg.RetryAttempts
	}
	if cfg.RetryDelayMillis > 0 {
		retry.Delay = time.Duration(cfg.RetryDelayMillis) * time.Millisecond
	}
	return querycache.New(store, querycache.SystemClock{}, querycache.Options{
		StaleTime: time.Duration(cfg.StaleSeconds) * time.Second,
		Retry:     retry,
	})
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AccountRepo = repository.NewAccountRepository(db)
	c.OTPCodeRepo = repository.NewOTPCodeRepository(db)
	c.ProfileRepo = repository.NewProfileRepository(db)
	c.CampaignRepo = repository.NewCampaignRepository(db)
	c.ApplicationRepo = repository.NewApplicationRepository(db)
	c.ProofRepo = repository.NewProofRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	campaignCfg := c.Config.Campaign
	usersTTL := time.Duration(c.Config.Cache.UsersSeconds) * time.Second
	statsTTL := time.Duration(c.Config.Cache.StatsSeconds) * time.Second

	c.initTelegramPusher()
	var pusher notifier.Pusher
	if c.TelegramPusher != nil {
		pusher = c.TelegramPusher
	}

	audience, err := service.NewAudienceEvaluator()
	if err != nil {
		logger.Errorw("provider_init_audience_evaluator_failed", "error", err)
		panic(err)
	}

	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AccountRepo, c.ProfileRepo, c.OTPCodeRepo, notifier.NewOTPSender(c.Config.OTP))
	c.LocationService = service.NewLocationService()
	c.TargetingService = service.NewTargetingService(audience)
	c.WalletService = service.NewWalletService(c.WalletRepo, campaignCfg.Currency)
	c.ReferralService, err = service.NewReferralService(c.ReferralRepo, c.WalletService, campaignCfg)
	if err != nil {
		logger.Errorw("provider_init_referral_failed", "error", err)
		panic(err)
	}
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.ProfileRepo, c.QueueClient, pusher, c.Config.Telegram.AdminChatID)
	c.ProfileService = service.NewProfileService(c.ProfileRepo, c.WalletService, c.ReferralService, c.LocationService, c.QueryCache, usersTTL)
	c.CampaignService = service.NewCampaignService(c.CampaignRepo, c.ApplicationRepo, c.WalletService, c.TargetingService, c.LocationService, c.NotificationService, c.QueryCache, campaignCfg.DebitBudgetOnApproval)
	c.ApplicationService = service.NewApplicationService(c.ApplicationRepo, c.CampaignRepo, c.TargetingService, c.NotificationService, c.QueryCache, campaignCfg)
	c.UploadService = service.NewUploadService(c.Config.Upload, c.ObjectStore)
	c.ProofService = service.NewProofService(c.ProofRepo, c.ApplicationRepo, c.CampaignRepo, c.WalletService, c.ReferralService, c.NotificationService, c.UploadService, c.QueryCache, campaignCfg)

	adminDashboard, err := service.NewAdminDashboard(c.DashboardRepo, campaignCfg.Currency, campaignCfg.CommissionRate)
	if err != nil {
		logger.Errorw("provider_init_admin_dashboard_failed", "error", err)
		panic(err)
	}
	c.DashboardService = service.NewDashboardService(c.QueryCache, statsTTL,
		service.NewAdvertiserDashboard(c.DashboardRepo, campaignCfg.Currency),
		service.NewBroadcasterDashboard(c.DashboardRepo, campaignCfg.Currency, campaignCfg.ProofDeadlineHours, campaignCfg.ExpiringSoonHours),
		adminDashboard,
	)
}

func (c *Container) initTelegramPusher() {
	if !c.Config.Telegram.Enabled {
		return
	}
	linker := chatLinkerFunc(func(ctx context.Context, referralCode, chatID string) error {
		return c.ProfileService.LinkTelegramChat(ctx, referralCode, chatID)
	})
	pusher, err := notifier.NewTelegramPusher(c.Config.Telegram.BotToken, linker)
	if err != nil {
		logger.Warnw("provider_init_telegram_failed", "error", err)
		return
	}
	c.TelegramPusher = pusher
}
