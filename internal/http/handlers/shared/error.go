package shared

import (
	"errors"

	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/i18n"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := GetRequestID(c); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	locale := i18n.ResolveLocale(c)
	msg := i18n.T(locale, key)
	appErr := response.WrapError(code, key, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"key", appErr.Key,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// mappedHandlerError 业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

var serviceErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
	{target: service.ErrForbidden, code: response.CodeForbidden, key: "error.forbidden"},
	{target: service.ErrNotFound, code: response.CodeNotFound, key: "error.not_found"},
	{target: service.ErrInvalidToken, code: response.CodeUnauthorized, key: "error.token_invalid"},
	{target: service.ErrTokenRevoked, code: response.CodeUnauthorized, key: "error.token_revoked"},

	{target: service.ErrInvalidPhone, code: response.CodeBadRequest, key: "error.phone_invalid"},
	{target: service.ErrOTPInvalid, code: response.CodeBadRequest, key: "error.otp_invalid"},
	{target: service.ErrOTPExpired, code: response.CodeBadRequest, key: "error.otp_expired"},
	{target: service.ErrOTPAttemptsExceeded, code: response.CodeTooManyRequests, key: "error.otp_attempts_exceeded"},
	{target: service.ErrOTPTooFrequent, code: response.CodeTooManyRequests, key: "error.otp_too_frequent"},
	{target: service.ErrOTPSendFailed, code: response.CodeInternal, key: "error.otp_send_failed"},
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, key: "error.captcha_required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, key: "error.captcha_invalid"},
	{target: service.ErrCaptchaConfigInvalid, code: response.CodeBadRequest, key: "error.captcha_config_invalid"},
	{target: service.ErrAccountNotFound, code: response.CodeUnauthorized, key: "error.token_invalid"},
	{target: service.ErrAccountDisabled, code: response.CodeUnauthorized, key: "error.account_disabled"},

	{target: service.ErrProfileNotFound, code: response.CodeNotFound, key: "error.profile_required"},
	{target: service.ErrProfileExists, code: response.CodeConflict, key: "error.profile_exists"},
	{target: service.ErrProfileInactive, code: response.CodeForbidden, key: "error.profile_inactive"},
	{target: service.ErrInvalidRole, code: response.CodeBadRequest, key: "error.role_invalid"},
	{target: service.ErrRoleImmutable, code: response.CodeBadRequest, key: "error.role_immutable"},
	{target: service.ErrFullNameRequired, code: response.CodeBadRequest, key: "error.full_name_required"},
	{target: service.ErrInvalidGender, code: response.CodeBadRequest, key: "error.gender_invalid"},
	{target: service.ErrInvalidAge, code: response.CodeBadRequest, key: "error.age_invalid"},
	{target: service.ErrInvalidLocation, code: response.CodeBadRequest, key: "error.location_invalid"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, key: "error.email_invalid"},
	{target: service.ErrReferralCodeInvalid, code: response.CodeBadRequest, key: "error.referral_code_invalid"},
	{target: service.ErrCompanyNameRequired, code: response.CodeBadRequest, key: "error.company_name_required"},

	{target: service.ErrCampaignNotFound, code: response.CodeNotFound, key: "error.campaign_not_found"},
	{target: service.ErrCampaignTitleRequired, code: response.CodeBadRequest, key: "error.campaign_title_required"},
	{target: service.ErrCampaignInvalidCostPerView, code: response.CodeBadRequest, key: "error.campaign_cost_per_view"},
	{target: service.ErrCampaignInvalidBudget, code: response.CodeBadRequest, key: "error.campaign_budget_invalid"},
	{target: service.ErrCampaignInvalidTargetViews, code: response.CodeBadRequest, key: "error.campaign_target_views"},
	{target: service.ErrCampaignInvalidAgeRange, code: response.CodeBadRequest, key: "error.campaign_age_range_invalid"},
	{target: service.ErrCampaignInvalidMediaType, code: response.CodeBadRequest, key: "error.campaign_media_type_invalid"},
	{target: service.ErrCampaignInvalidDates, code: response.CodeBadRequest, key: "error.campaign_dates_invalid"},
	{target: service.ErrAudienceRuleInvalid, code: response.CodeBadRequest, key: "error.audience_rule_invalid"},
	{target: service.ErrCampaignStatusInvalid, code: response.CodeConflict, key: "error.campaign_status_invalid"},
	{target: service.ErrCampaignNotAvailable, code: response.CodeBadRequest, key: "error.campaign_not_available"},
	{target: service.ErrRejectionReasonRequired, code: response.CodeBadRequest, key: "error.rejection_reason_required"},

	{target: service.ErrApplicationNotFound, code: response.CodeNotFound, key: "error.application_not_found"},
	{target: service.ErrApplicationDuplicate, code: response.CodeConflict, key: "error.application_duplicate"},
	{target: service.ErrApplicationStatusInvalid, code: response.CodeConflict, key: "error.application_status_invalid"},
	{target: service.ErrTargetingMismatch, code: response.CodeForbidden, key: "error.targeting_mismatch"},

	{target: service.ErrProofNotFound, code: response.CodeNotFound, key: "error.proof_not_found"},
	{target: service.ErrProofAlreadyUploaded, code: response.CodeConflict, key: "error.proof_already_uploaded"},
	{target: service.ErrProofAlreadyValidated, code: response.CodeConflict, key: "error.proof_already_validated"},
	{target: service.ErrEstimatedViewsOutOfRange, code: response.CodeBadRequest, key: "error.views_out_of_range"},

	{target: service.ErrWalletAccountNotFound, code: response.CodeNotFound, key: "error.wallet_not_found"},
	{target: service.ErrWalletInvalidAmount, code: response.CodeBadRequest, key: "error.wallet_amount_invalid"},
	{target: service.ErrWalletInsufficientBalance, code: response.CodeBadRequest, key: "error.wallet_insufficient_balance"},
	{target: service.ErrWalletTransactionNotFound, code: response.CodeNotFound, key: "error.wallet_transaction_not_found"},
	{target: service.ErrWalletTransactionStatusInvalid, code: response.CodeConflict, key: "error.wallet_transaction_status"},

	{target: service.ErrNotificationNotFound, code: response.CodeNotFound, key: "error.notification_not_found"},
	{target: service.ErrUploadFileRequired, code: response.CodeBadRequest, key: "error.upload_file_required"},
	{target: service.ErrUploadTooLarge, code: response.CodeBadRequest, key: "error.upload_too_large"},
	{target: service.ErrUploadTypeInvalid, code: response.CodeBadRequest, key: "error.upload_type_invalid"},
	{target: service.ErrStorageUnavailable, code: response.CodeInternal, key: "error.storage_unavailable"},
}

// RespondServiceError 将业务错误映射为国际化响应，未识别的错误按 500 处理并记录日志。
func RespondServiceError(c *gin.Context, err error) {
	if appErr, ok := response.AsAppError(err); ok && appErr.Key != "" {
		RespondError(c, appErr.Code, appErr.Key, appErr.Err)
		return
	}
	for _, rule := range serviceErrorRules {
		if errors.Is(err, rule.target) {
			RespondError(c, rule.code, rule.key, nil)
			return
		}
	}
	RespondError(c, response.CodeInternal, "error.internal", err)
}
