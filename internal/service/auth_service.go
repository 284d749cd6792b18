package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/adstatus-next/internal/cache"
	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/i18n"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/notifier"
	"github.com/adstatus-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const accountStatusActive = constants.AccountStatusActive

// AuthService 手机号验证码认证服务
type AuthService struct {
	cfg         *config.Config
	accountRepo repository.AccountRepository
	profileRepo repository.ProfileRepository
	otpRepo     repository.OTPCodeRepository
	sender      notifier.OTPSender
}

// NewAuthService 创建认证服务实例
func NewAuthService(
	cfg *config.Config,
	accountRepo repository.AccountRepository,
	profileRepo repository.ProfileRepository,
	otpRepo repository.OTPCodeRepository,
	sender notifier.OTPSender,
) *AuthService {
	if sender == nil {
		sender = notifier.LogOTPSender{}
	}
	return &AuthService{
		cfg:         cfg,
		accountRepo: accountRepo,
		profileRepo: profileRepo,
		otpRepo:     otpRepo,
		sender:      sender,
	}
}

// AccountJWTClaims 账号 JWT 声明
type AccountJWTClaims struct {
	AccountID    uint   `json:"account_id"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// LoginResult 验证码登录结果
type LoginResult struct {
	Account         *models.Account `json:"account"`
	Profile         *models.Profile `json:"profile"`
	Token           string          `json:"token"`
	ExpiresAt       time.Time       `json:"expires_at"`
	ProfileRequired bool            `json:"profile_required"`
}

// SendOTP 发送登录验证码
func (s *AuthService) SendOTP(ctx context.Context, phone, locale string) error {
	normalized, err := s.NormalizePhone(phone)
	if err != nil {
		return err
	}
	latest, err := s.otpRepo.GetLatest(normalized)
	if err != nil {
		return err
	}
	now := time.Now()
	if latest != nil {
		interval := time.Duration(resolveOTPSendIntervalSeconds(s.cfg.OTP)) * time.Second
		if !latest.SentAt.IsZero() && now.Sub(latest.SentAt) < interval {
			return ErrOTPTooFrequent
		}
	}

	code, err := randomNumericCode(resolveOTPLength(s.cfg.OTP))
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	expireMinutes := resolveOTPExpireMinutes(s.cfg.OTP)
	record := &models.OTPCode{
		Phone:     normalized,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(time.Duration(expireMinutes) * time.Minute),
		SentAt:    now,
		CreatedAt: now,
	}

	message := i18n.Sprintf(i18n.NormalizeLocale(locale), "otp.message", code, expireMinutes)
	if err := s.sender.SendOTP(ctx, normalized, message); err != nil {
		logger.Warnw("auth_otp_send_failed", "phone", maskPhone(normalized), "error", err)
		return ErrOTPSendFailed
	}
	if err := s.otpRepo.Create(record); err != nil {
		return err
	}
	return nil
}

// VerifyOTP 校验验证码并登录，首次登录自动创建账号
func (s *AuthService) VerifyOTP(ctx context.Context, phone, code string) (*LoginResult, error) {
	normalized, err := s.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if err := s.verifyCode(normalized, code); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByPhone(normalized)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if account == nil {
		account = &models.Account{
			Phone:           normalized,
			Status:          accountStatusActive,
			PhoneVerifiedAt: &now,
		}
		if err := s.accountRepo.Create(account); err != nil {
			existing, queryErr := s.accountRepo.GetByPhone(normalized)
			if queryErr != nil || existing == nil {
				return nil, err
			}
			account = existing
		} else {
			logger.Infow("auth_account_created", "account_id", account.ID)
		}
	}
	if !strings.EqualFold(account.Status, accountStatusActive) {
		return nil, ErrAccountDisabled
	}
	if err := s.accountRepo.TouchLogin(account.ID, now); err != nil {
		return nil, err
	}
	account.LastLoginAt = &now

	profile, err := s.profileRepo.GetByAccountID(account.ID)
	if err != nil {
		return nil, err
	}
	if profile != nil && !profile.IsActive {
		return nil, ErrProfileInactive
	}

	token, expiresAt, err := s.GenerateJWT(account)
	if err != nil {
		return nil, err
	}
	_ = cache.SetAccountAuthState(ctx, cache.BuildAccountAuthState(account, profile))

	return &LoginResult{
		Account:         account,
		Profile:         profile,
		Token:           token,
		ExpiresAt:       expiresAt,
		ProfileRequired: profile == nil,
	}, nil
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(account *models.Account) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(resolveJWTExpireHours(s.cfg.JWT)) * time.Hour)

	claims := AccountJWTClaims{
		AccountID:    account.ID,
		TokenVersion: account.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*AccountJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &AccountJWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims, ok := token.Claims.(*AccountJWTClaims); ok && token.Valid && claims.AccountID > 0 {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// ResolveAccount 校验 Token 版本与失效时间，返回账号
func (s *AuthService) ResolveAccount(ctx context.Context, claims *AccountJWTClaims) (*models.Account, error) {
	if claims == nil {
		return nil, ErrInvalidToken
	}
	account, err := s.accountRepo.GetByID(claims.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if !strings.EqualFold(account.Status, accountStatusActive) {
		return nil, ErrAccountDisabled
	}
	if account.TokenVersion != claims.TokenVersion {
		return nil, ErrTokenRevoked
	}
	if account.TokenInvalidBefore != nil && claims.IssuedAt != nil && claims.IssuedAt.Time.Before(*account.TokenInvalidBefore) {
		return nil, ErrTokenRevoked
	}
	return account, nil
}

// Logout 注销当前账号的全部 Token
func (s *AuthService) Logout(ctx context.Context, accountID uint) error {
	if accountID == 0 {
		return ErrAccountNotFound
	}
	if err := s.accountRepo.BumpTokenVersion(accountID, time.Now()); err != nil {
		return err
	}
	_ = cache.DelAccountAuthState(ctx, accountID)
	return nil
}

// NormalizePhone 规范化手机号：去除空白与分隔符，本地号码补全默认国家区号
func (s *AuthService) NormalizePhone(phone string) (string, error) {
	countryCode := ""
	if s != nil && s.cfg != nil {
		countryCode = s.cfg.OTP.DefaultCountryCode
	}
	return NormalizePhone(phone, countryCode)
}

// NormalizePhone 规范化手机号
func NormalizePhone(phone, defaultCountryCode string) (string, error) {
	raw := strings.TrimSpace(phone)
	if raw == "" {
		return "", ErrInvalidPhone
	}
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", ErrInvalidPhone
		}
	}
	normalized := b.String()
	if strings.HasPrefix(normalized, "00") {
		normalized = "+" + strings.TrimPrefix(normalized, "00")
	}
	if !strings.HasPrefix(normalized, "+") {
		code := strings.TrimPrefix(strings.TrimSpace(defaultCountryCode), "+")
		if code == "" {
			return "", ErrInvalidPhone
		}
		normalized = "+" + code + normalized
	}
	digits := len(normalized) - 1
	if digits < 8 || digits > 15 {
		return "", ErrInvalidPhone
	}
	return normalized, nil
}

func (s *AuthService) verifyCode(phone, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrOTPInvalid
	}
	record, err := s.otpRepo.GetLatest(phone)
	if err != nil {
		return err
	}
	if record == nil || record.VerifiedAt != nil {
		return ErrOTPInvalid
	}

	now := time.Now()
	if record.ExpiresAt.Before(now) {
		return ErrOTPExpired
	}
	maxAttempts := resolveOTPMaxAttempts(s.cfg.OTP)
	if maxAttempts > 0 && record.AttemptCount >= maxAttempts {
		return ErrOTPAttemptsExceeded
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return err
		}
		_ = s.otpRepo.IncrementAttempt(record.ID)
		return ErrOTPInvalid
	}
	return s.otpRepo.MarkVerified(record.ID, now)
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

func resolveJWTExpireHours(cfg config.JWTConfig) int {
	if cfg.ExpireHours <= 0 {
		return 24
	}
	return cfg.ExpireHours
}

func resolveOTPExpireMinutes(cfg config.OTPConfig) int {
	if cfg.ExpireMinutes <= 0 {
		return 10
	}
	return cfg.ExpireMinutes
}

func resolveOTPSendIntervalSeconds(cfg config.OTPConfig) int {
	if cfg.SendIntervalSeconds <= 0 {
		return 60
	}
	return cfg.SendIntervalSeconds
}

func resolveOTPMaxAttempts(cfg config.OTPConfig) int {
	if cfg.MaxAttempts <= 0 {
		return 5
	}
	return cfg.MaxAttempts
}

func resolveOTPLength(cfg config.OTPConfig) int {
	if cfg.Length < 4 || cfg.Length > 10 {
		return 6
	}
	return cfg.Length
}

func randomNumericCode(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String(), nil
}
