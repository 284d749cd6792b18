package app

import (
	"os"
	"strings"
	"time"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/logger"

	"go.uber.org/zap"
)

// 运行模式：api 只对外提供接口与 Bot 轮询，worker 只跑队列或定时扫描
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

type modeParts struct {
	api    bool
	worker bool
}

var modes = map[string]modeParts{
	ModeAll:    {api: true, worker: true},
	ModeAPI:    {api: true},
	ModeWorker: {worker: true},
}

// IsValidMode 校验运行模式
func IsValidMode(mode string) bool {
	_, ok := modes[mode]
	return ok
}

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

func normalizeOptions(opts Options) Options {
	opts.Mode = strings.ToLower(strings.TrimSpace(opts.Mode))
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	return opts
}
