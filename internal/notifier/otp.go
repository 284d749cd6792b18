package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/logger"
)

// OTPSender 验证码投递
type OTPSender interface {
	SendOTP(ctx context.Context, phone, message string) error
}

// NewOTPSender 按配置选择投递方式
func NewOTPSender(cfg config.OTPConfig) OTPSender {
	if strings.EqualFold(strings.TrimSpace(cfg.Gateway), "whatsapp") && strings.TrimSpace(cfg.GatewayURL) != "" {
		return NewWhatsAppSender(cfg.GatewayURL, cfg.GatewayToken)
	}
	return LogOTPSender{}
}

// LogOTPSender 仅写日志（开发环境）
type LogOTPSender struct{}

// SendOTP 记录验证码内容
func (LogOTPSender) SendOTP(_ context.Context, phone, message string) error {
	logger.Infow("otp_logged", "phone", phone, "message", message)
	return nil
}

// WhatsAppSender 通过 WhatsApp HTTP 网关发送会话消息
type WhatsAppSender struct {
	baseURL string
	token   string
	client  *http.Client
}

type whatsAppMessage struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// NewWhatsAppSender 创建 WhatsApp 网关发送器
func NewWhatsAppSender(baseURL, token string) *WhatsAppSender {
	return &WhatsAppSender{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SendOTP 发送验证码消息
func (s *WhatsAppSender) SendOTP(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(whatsAppMessage{
		Phone:   strings.TrimPrefix(phone, "+"),
		Message: message,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/sendSessionMessage", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp gateway request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp gateway returned status %d", resp.StatusCode)
	}
	return nil
}
