package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/provider"
	"github.com/adstatus-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	now func() time.Time
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
		now:       time.Now,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
	mux.HandleFunc(queue.TaskApplicationDeadlineScan, c.handleDeadlineScan)
}

func (c *Consumer) handleNotificationDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if payload.NotificationID == 0 {
		logger.Debugw("worker_notification_dispatch_skip_invalid_payload", "notification_id", payload.NotificationID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_notification_dispatch_skip_service_nil", "notification_id", payload.NotificationID)
		return nil
	}
	if err := c.NotificationService.Dispatch(ctx, payload); err != nil {
		logger.Warnw("worker_notification_dispatch_failed", "notification_id", payload.NotificationID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleDeadlineScan(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_deadline_scan_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DeadlineScanPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Warnw("worker_deadline_scan_unmarshal_failed", "error", err)
			return err
		}
	}
	if !payload.ScheduledAt.IsZero() {
		logger.Debugw("worker_deadline_scan_received", "scheduled_at", payload.ScheduledAt)
	}
	return c.scanOverdue(ctx)
}

func (c *Consumer) scanOverdue(ctx context.Context) error {
	if c.ApplicationService == nil {
		logger.Warnw("worker_deadline_scan_skip_service_nil")
		return nil
	}
	flagged, err := c.ApplicationService.ScanOverdue(ctx, c.now())
	if err != nil {
		logger.Warnw("worker_deadline_scan_failed", "flagged", flagged, "error", err)
		return err
	}
	logger.Debugw("worker_deadline_scan_done", "flagged", flagged)
	return nil
}

// pruneQueryCache 周期清理进程内查询缓存
func (c *Consumer) pruneQueryCache() {
	if c == nil || c.Container == nil || c.QueryCache == nil {
		return
	}
	if removed := c.QueryCache.PruneExpired(); removed > 0 {
		logger.Debugw("worker_query_cache_pruned", "removed", removed)
	}
}
