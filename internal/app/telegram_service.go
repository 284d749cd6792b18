package app

import (
	"context"
	"errors"

	"github.com/adstatus-next/internal/notifier"
)

// TelegramService 将 Bot 长轮询纳入运行器生命周期
type TelegramService struct {
	pusher *notifier.TelegramPusher
}

// NewTelegramService 创建 Bot 轮询服务
func NewTelegramService(pusher *notifier.TelegramPusher) *TelegramService {
	return &TelegramService{pusher: pusher}
}

// Name 服务名称
func (s *TelegramService) Name() string {
	return "telegram"
}

// Start 阻塞至 ctx 结束
func (s *TelegramService) Start(ctx context.Context) error {
	if s == nil || s.pusher == nil {
		return errors.New("telegram pusher not initialized")
	}
	s.pusher.Start(ctx)
	return nil
}

// Stop 轮询随 ctx 取消退出
func (s *TelegramService) Stop(context.Context) error {
	return nil
}
