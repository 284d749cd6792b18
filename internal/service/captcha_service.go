package service

import (
	"strings"
	"sync"
	"time"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"

	"github.com/mojocn/base64Captcha"
)

const (
	defaultCaptchaLength        = 5
	defaultCaptchaWidth         = 240
	defaultCaptchaHeight        = 80
	defaultCaptchaNoiseCount    = 2
	defaultCaptchaShowLine      = 2
	defaultCaptchaExpireSeconds = 300
	defaultCaptchaMaxStore      = 10240
	captchaCharset              = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// CaptchaVerifyPayload 验证码校验参数
type CaptchaVerifyPayload struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// CaptchaImageChallenge 图片验证码挑战
type CaptchaImageChallenge struct {
	CaptchaID     string `json:"captcha_id"`
	ImageBase64   string `json:"image_base64"`
	ExpireSeconds int    `json:"expire_seconds"`
}

// CaptchaService 图片验证码服务，仅用于发送验证码前的人机校验
type CaptchaService struct {
	cfg config.CaptchaConfig

	mu         sync.Mutex
	imageStore base64Captcha.Store
}

// NewCaptchaService 创建验证码服务
func NewCaptchaService(cfg config.CaptchaConfig) *CaptchaService {
	return &CaptchaService{cfg: normalizeCaptchaConfig(cfg)}
}

// Enabled 是否启用图片验证码
func (s *CaptchaService) Enabled() bool {
	if s == nil {
		return false
	}
	return s.cfg.Provider == constants.CaptchaProviderImage
}

// GenerateImageChallenge 生成图片验证码
func (s *CaptchaService) GenerateImageChallenge() (*CaptchaImageChallenge, error) {
	if !s.Enabled() {
		return nil, ErrCaptchaConfigInvalid
	}
	driver := base64Captcha.NewDriverString(
		s.cfg.Height,
		s.cfg.Width,
		s.cfg.NoiseCount,
		s.cfg.ShowLine,
		s.cfg.Length,
		captchaCharset,
		nil,
		base64Captcha.DefaultEmbeddedFonts,
		nil,
	)
	captcha := base64Captcha.NewCaptcha(driver, s.ensureImageStore())
	id, b64s, _, err := captcha.Generate()
	if err != nil {
		return nil, err
	}
	return &CaptchaImageChallenge{
		CaptchaID:     id,
		ImageBase64:   b64s,
		ExpireSeconds: s.cfg.ExpireSeconds,
	}, nil
}

// Verify 校验验证码，未启用时直接放行
func (s *CaptchaService) Verify(payload CaptchaVerifyPayload) error {
	if !s.Enabled() {
		return nil
	}
	id := strings.TrimSpace(payload.CaptchaID)
	code := strings.TrimSpace(payload.CaptchaCode)
	if id == "" || code == "" {
		return ErrCaptchaRequired
	}
	if !s.ensureImageStore().Verify(id, strings.ToUpper(code), true) {
		return ErrCaptchaInvalid
	}
	return nil
}

func (s *CaptchaService) ensureImageStore() base64Captcha.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.imageStore == nil {
		s.imageStore = base64Captcha.NewMemoryStore(s.cfg.MaxStore, time.Duration(s.cfg.ExpireSeconds)*time.Second)
	}
	return s.imageStore
}

func normalizeCaptchaConfig(cfg config.CaptchaConfig) config.CaptchaConfig {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider != constants.CaptchaProviderImage {
		cfg.Provider = constants.CaptchaProviderNone
	}
	if cfg.Length <= 0 {
		cfg.Length = defaultCaptchaLength
	}
	if cfg.Width <= 0 {
		cfg.Width = defaultCaptchaWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultCaptchaHeight
	}
	if cfg.NoiseCount < 0 {
		cfg.NoiseCount = defaultCaptchaNoiseCount
	}
	if cfg.ShowLine < 0 {
		cfg.ShowLine = defaultCaptchaShowLine
	}
	if cfg.ExpireSeconds <= 0 {
		cfg.ExpireSeconds = defaultCaptchaExpireSeconds
	}
	if cfg.MaxStore <= 0 {
		cfg.MaxStore = defaultCaptchaMaxStore
	}
	return cfg
}
