package app

import (
	"errors"
	"net"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/provider"
	"github.com/adstatus-next/internal/router"
	"github.com/adstatus-next/internal/worker"
)

// BuildRunner 按运行模式装配服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	parts, ok := modes[mode]
	if !ok {
		return nil, errors.New("invalid mode: " + mode)
	}

	container := provider.NewContainer(cfg)

	var services []Service

	if parts.api {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(listenAddr(cfg), engine))

		// Bot 长轮询只跟随 API 进程，避免多个进程争抢 getUpdates
		if container.TelegramPusher != nil {
			services = append(services, NewTelegramService(container.TelegramPusher))
		}
	}

	if parts.worker {
		consumer := worker.NewConsumer(container)
		if cfg.Queue.Enabled && container.QueueClient != nil {
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		} else {
			logger.Warnw("app_queue_disabled_use_scheduler")
			scheduler, err := worker.NewScheduler(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, scheduler)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", listenAddr(opts.Config), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}

func listenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
}
