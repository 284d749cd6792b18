package notifier

import (
	"context"
	"runtime/debug"

	"github.com/adstatus-next/internal/logger"
)

// Pusher 即时推送通道
type Pusher interface {
	Push(ctx context.Context, chatID, text string) error
	Enabled() bool
}

// NopPusher 未配置推送时使用
type NopPusher struct{}

// Push 不做任何事
func (NopPusher) Push(context.Context, string, string) error { return nil }

// Enabled 始终未启用
func (NopPusher) Enabled() bool { return false }

// SafeCall 执行 fn 并吞掉 panic，只记录日志
func SafeCall(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("notifier_panic_recovered",
				"call", name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = nil
		}
	}()
	return fn()
}
