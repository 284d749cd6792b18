package i18n

var messagesEN = map[string]string{
	"success": "Success",

	"error.bad_request":            "Bad request",
	"error.unauthorized":           "Unauthorized",
	"error.forbidden":              "Forbidden",
	"error.not_found":              "Resource not found",
	"error.internal":               "Internal server error",
	"error.too_many_requests":      "Too many attempts, retry in %d seconds",
	"error.rate_limit_unavailable": "Rate limiting is temporarily unavailable",
	"error.token_invalid":          "Session expired, please sign in again",
	"error.token_revoked":          "Session revoked, please sign in again",
	"error.auth_header_missing":    "Missing Authorization header",
	"error.auth_header_invalid":    "Malformed Authorization header",
	"error.phone_invalid":          "Invalid phone number",
	"error.otp_invalid":            "Incorrect verification code",
	"error.otp_expired":            "Verification code expired",
	"error.otp_attempts_exceeded":  "Too many attempts, request a new code",
	"error.otp_too_frequent":       "Please wait before requesting a new code",
	"error.otp_send_failed":        "Could not send the verification code",
	"error.captcha_required":       "Captcha required",
	"error.captcha_invalid":        "Incorrect captcha",
	"error.captcha_config_invalid": "Captcha is not configured",
	"error.account_disabled":       "Account disabled",
	"error.profile_required":       "Please choose your role first",
	"error.profile_exists":         "Profile already exists",
	"error.profile_inactive":       "Profile disabled",
	"error.builtin_policy_locked":  "Builtin role policies cannot be revoked",
	"error.role_invalid":           "Invalid role",
	"error.role_immutable":         "Role cannot be changed",
	"error.full_name_required":     "Full name is required",
	"error.gender_invalid":         "Invalid gender",
	"error.age_invalid":            "Invalid age",
	"error.location_invalid":       "Invalid department or city",
	"error.email_invalid":          "Invalid email address",
	"error.referral_code_invalid":  "Invalid referral code",
	"error.company_name_required":  "Company name is required",

	"error.campaign_not_found":          "Campaign not found",
	"error.campaign_title_required":     "Title is required",
	"error.campaign_cost_per_view":      "Cost per view must be positive",
	"error.campaign_budget_invalid":     "Budget must be positive",
	"error.campaign_target_views":       "Target views must be positive",
	"error.campaign_age_range_invalid":  "Invalid age range",
	"error.campaign_media_type_invalid": "Invalid media type",
	"error.campaign_dates_invalid":      "Invalid campaign dates",
	"error.audience_rule_invalid":       "Invalid audience rule",
	"error.campaign_status_invalid":     "Campaign status does not allow this action",
	"error.campaign_not_available":      "Campaign unavailable",
	"error.rejection_reason_required":   "A rejection reason is required",

	"error.application_not_found":      "Application not found",
	"error.application_duplicate":      "You already applied to this campaign",
	"error.application_status_invalid": "Application status does not allow this action",
	"error.targeting_mismatch":         "Your profile does not match the campaign targeting",

	"error.proof_not_found":         "Proof not found",
	"error.proof_already_uploaded":  "A proof was already uploaded",
	"error.proof_already_validated": "This proof was already reviewed",
	"error.views_out_of_range":      "Views must be between 1 and 1000",

	"error.wallet_not_found":             "Wallet not found",
	"error.wallet_amount_invalid":        "Invalid amount",
	"error.wallet_insufficient_balance":  "Insufficient balance",
	"error.wallet_transaction_not_found": "Transaction not found",
	"error.wallet_transaction_status":    "Transaction status does not allow this action",

	"error.notification_not_found": "Notification not found",
	"error.upload_file_required":   "File is required",
	"error.upload_too_large":       "File too large",
	"error.upload_type_invalid":    "File type not allowed",
	"error.storage_unavailable":    "Storage unavailable",

	"otp.message": "Your AdStatus code is: %s. It expires in %d minutes.",

	"notification.campaign_validated.title":      "Campaign approved",
	"notification.campaign_validated.message":    "Your campaign \"%s\" was approved and is now active.",
	"notification.campaign_rejected.title":       "Campaign rejected",
	"notification.campaign_rejected.message":     "Your campaign \"%s\" was rejected: %s",
	"notification.application_received.title":    "New application",
	"notification.application_received.message":  "%s wants to broadcast your campaign \"%s\".",
	"notification.application_accepted.title":    "Application accepted",
	"notification.application_accepted.message":  "Your application for \"%s\" was accepted. Publish and upload the proof within %d h.",
	"notification.application_rejected.title":    "Application rejected",
	"notification.application_rejected.message":  "Your application for \"%s\" was rejected.",
	"notification.proof_submitted.title":         "New proof to review",
	"notification.proof_submitted.message":       "A proof was submitted for campaign \"%s\".",
	"notification.proof_validated.title":         "Proof approved",
	"notification.proof_validated.message":       "Your proof for \"%s\" was approved: %s %s credited to your wallet.",
	"notification.proof_rejected.title":          "Proof rejected",
	"notification.proof_rejected.message":        "Your proof for \"%s\" was rejected: %s",
	"notification.proof_deadline_missed.title":   "Proof deadline missed",
	"notification.proof_deadline_missed.message": "The %d h deadline to publish campaign \"%s\" has passed.",
	"notification.withdrawal_processed.title":    "Withdrawal processed",
	"notification.withdrawal_processed.message":  "Your withdrawal of %s %s was processed.",
	"notification.withdrawal_cancelled.message":  "Your withdrawal of %s %s was cancelled and the funds are available again.",
	"notification.referral_bonus.title":          "Referral bonus",
	"notification.referral_bonus.message":        "You received a referral bonus of %s %s.",
}
