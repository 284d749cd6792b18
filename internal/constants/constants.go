package constants

// 用户角色常量
const (
	RoleAdvertiser  = "advertiser"
	RoleBroadcaster = "broadcaster"
	RoleAdmin       = "admin"
)

// 账号状态常量
const (
	AccountStatusActive   = "active"
	AccountStatusDisabled = "disabled"
)

// 性别常量
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// 广告活动状态常量
const (
	CampaignStatusPending   = "pending"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
	CampaignStatusCancelled = "cancelled"
)

// 素材类型常量
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// 投放申请状态常量
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusCompleted = "completed"
)

// 发布凭证审核状态常量
const (
	ProofStatusPending  = "pending"
	ProofStatusApproved = "approved"
	ProofStatusRejected = "rejected"
)

// 钱包流水类型常量
const (
	WalletTxnTypeDeposit       = "deposit"
	WalletTxnTypeWithdrawal    = "withdrawal"
	WalletTxnTypePayment       = "payment"
	WalletTxnTypeEarning       = "earning"
	WalletTxnTypeReferralBonus = "referral_bonus"
)

// 钱包流水方向常量
const (
	WalletTxnDirectionIn  = "in"
	WalletTxnDirectionOut = "out"
)

// 钱包流水状态常量
const (
	WalletTxnStatusPending   = "pending"
	WalletTxnStatusCompleted = "completed"
	WalletTxnStatusFailed    = "failed"
	WalletTxnStatusCancelled = "cancelled"
)

// 站内通知类型常量
const (
	NotificationCampaignValidated   = "campaign_validated"
	NotificationCampaignRejected    = "campaign_rejected"
	NotificationApplicationReceived = "application_received"
	NotificationApplicationAccepted = "application_accepted"
	NotificationApplicationRejected = "application_rejected"
	NotificationProofSubmitted      = "proof_submitted"
	NotificationProofValidated      = "proof_validated"
	NotificationProofRejected       = "proof_rejected"
	NotificationProofDeadlineMissed = "proof_deadline_missed"
	NotificationWithdrawalProcessed = "withdrawal_processed"
	NotificationReferralBonus       = "referral_bonus"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 对象存储驱动常量
const (
	StorageDriverLocal = "local"
	StorageDriverMinio = "minio"
)

// 查询缓存驱动常量
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

// 上传场景常量
const (
	UploadSceneProof    = "proofs"
	UploadSceneCampaign = "campaigns"
)

// 查询缓存 key 前缀
const (
	CacheScopeUsers              = "users_"
	CacheScopeStats              = "stats_"
	CacheScopeAvailableCampaigns = "available_campaigns_"
	CacheScopeCampaigns          = "campaigns_"
	CacheScopeApplications       = "applications_"
	CacheScopeProofs             = "proofs_"
)

// 队列与任务常量
const (
	QueueDefault                = "default"
	QueueCritical               = "critical"
	TaskNotificationDispatch    = "notification:dispatch"
	TaskApplicationDeadlineScan = "application:deadline_scan"
)
