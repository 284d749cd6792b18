package service

import "errors"

// 通用错误
var (
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("operation not allowed")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

// 认证相关错误
var (
	ErrInvalidPhone         = errors.New("invalid phone number")
	ErrOTPInvalid           = errors.New("otp code invalid")
	ErrOTPExpired           = errors.New("otp code expired")
	ErrOTPAttemptsExceeded  = errors.New("otp attempts exceeded")
	ErrOTPTooFrequent       = errors.New("otp requested too frequently")
	ErrOTPSendFailed        = errors.New("otp delivery failed")
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountDisabled      = errors.New("account disabled")
)

// 档案相关错误
var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileExists       = errors.New("profile already exists")
	ErrProfileInactive     = errors.New("profile inactive")
	ErrInvalidRole         = errors.New("invalid role")
	ErrRoleImmutable       = errors.New("role cannot be changed")
	ErrFullNameRequired    = errors.New("full name required")
	ErrInvalidGender       = errors.New("invalid gender")
	ErrInvalidAge          = errors.New("invalid age")
	ErrInvalidLocation     = errors.New("invalid region or city")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrReferralCodeInvalid = errors.New("referral code invalid")
	ErrCompanyNameRequired = errors.New("company name required")
)

// 广告活动相关错误
var (
	ErrCampaignNotFound           = errors.New("campaign not found")
	ErrCampaignTitleRequired      = errors.New("campaign title required")
	ErrCampaignInvalidCostPerView = errors.New("cost per view must be positive")
	ErrCampaignInvalidBudget      = errors.New("budget must be positive")
	ErrCampaignInvalidTargetViews = errors.New("target views must be positive")
	ErrCampaignInvalidAgeRange    = errors.New("invalid target age range")
	ErrCampaignInvalidMediaType   = errors.New("invalid media type")
	ErrCampaignInvalidDates       = errors.New("invalid campaign dates")
	ErrAudienceRuleInvalid        = errors.New("audience rule invalid")
	ErrCampaignStatusInvalid      = errors.New("campaign status invalid")
	ErrCampaignNotAvailable       = errors.New("campaign not available")
	ErrRejectionReasonRequired    = errors.New("rejection reason required")
)

// 投放申请相关错误
var (
	ErrApplicationNotFound      = errors.New("application not found")
	ErrApplicationDuplicate     = errors.New("application already exists")
	ErrApplicationStatusInvalid = errors.New("application status invalid")
	ErrTargetingMismatch        = errors.New("profile does not match campaign targeting")
)

// 凭证相关错误
var (
	ErrProofNotFound            = errors.New("proof not found")
	ErrProofAlreadyUploaded     = errors.New("proof already uploaded")
	ErrProofAlreadyValidated    = errors.New("proof already validated")
	ErrEstimatedViewsOutOfRange = errors.New("estimated views out of range")
)

// 钱包相关错误
var (
	ErrWalletAccountNotFound          = errors.New("wallet account not found")
	ErrWalletInvalidAmount            = errors.New("wallet amount invalid")
	ErrWalletInsufficientBalance      = errors.New("wallet balance insufficient")
	ErrWalletAccountCreateFailed      = errors.New("wallet account create failed")
	ErrWalletAccountUpdateFailed      = errors.New("wallet account update failed")
	ErrWalletTransactionCreateFailed  = errors.New("wallet transaction create failed")
	ErrWalletTransactionNotFound      = errors.New("wallet transaction not found")
	ErrWalletTransactionStatusInvalid = errors.New("wallet transaction status invalid")
)

// 通知与上传相关错误
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUploadFileRequired   = errors.New("upload file required")
	ErrUploadTooLarge       = errors.New("upload file too large")
	ErrUploadTypeInvalid    = errors.New("upload file type not allowed")
	ErrStorageUnavailable   = errors.New("object storage unavailable")
)
