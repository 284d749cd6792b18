package queue

import (
	"encoding/json"
	"time"

	"github.com/adstatus-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationDispatch 通知外发任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
	// TaskApplicationDeadlineScan 凭证截止扫描任务
	TaskApplicationDeadlineScan = constants.TaskApplicationDeadlineScan
)

// NotificationDispatchPayload 通知外发任务载荷
type NotificationDispatchPayload struct {
	NotificationID uint `json:"notification_id"`
}

// DeadlineScanPayload 凭证截止扫描任务载荷
type DeadlineScanPayload struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// NewNotificationDispatchTask 创建通知外发任务
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}

// NewDeadlineScanTask 创建凭证截止扫描任务
func NewDeadlineScanTask(payload DeadlineScanPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskApplicationDeadlineScan, body), nil
}
