package worker

import (
	"context"
	"errors"
	"time"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultDeadlineScanInterval = 10 * time.Minute

// Service 异步队列服务
type Service struct {
	name         string
	server       *asynq.Server
	mux          *asynq.ServeMux
	consumer     *Consumer
	scanInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:         "worker",
		server:       server,
		mux:          mux,
		consumer:     consumer,
		scanInterval: deadlineScanInterval(cfg),
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.QueueClient.Enabled() {
		go s.runDeadlineScheduleLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runDeadlineScheduleLoop 周期投递扫描任务，多实例部署时由 Unique 去重
func (s *Service) runDeadlineScheduleLoop(ctx context.Context) {
	enqueue := func() {
		payload := queue.DeadlineScanPayload{ScheduledAt: time.Now()}
		if err := s.consumer.QueueClient.EnqueueDeadlineScan(payload, s.scanInterval); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
			logger.Warnw("worker_deadline_scan_enqueue_failed", "error", err)
		}
	}
	runEvery(ctx, s.scanInterval, func() {
		enqueue()
		s.consumer.pruneQueryCache()
	})
}

// Scheduler 未启用队列时在进程内执行周期任务
type Scheduler struct {
	consumer *Consumer
	interval time.Duration
}

// NewScheduler 创建进程内调度器
func NewScheduler(cfg *config.QueueConfig, consumer *Consumer) (*Scheduler, error) {
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	return &Scheduler{consumer: consumer, interval: deadlineScanInterval(cfg)}, nil
}

// Name 服务名称
func (s *Scheduler) Name() string {
	return "scheduler"
}

// Start 启动调度（阻塞至 ctx 结束）
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil {
		return errors.New("scheduler not initialized")
	}
	runEvery(ctx, s.interval, func() {
		_ = s.consumer.scanOverdue(ctx)
		s.consumer.pruneQueryCache()
	})
	return nil
}

// Stop 停止调度，Start 随 ctx 取消退出
func (s *Scheduler) Stop(context.Context) error {
	return nil
}

func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	fn()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func deadlineScanInterval(cfg *config.QueueConfig) time.Duration {
	if cfg == nil || cfg.DeadlineScanIntervalSecs <= 0 {
		return defaultDeadlineScanInterval
	}
	return time.Duration(cfg.DeadlineScanIntervalSecs) * time.Second
}
