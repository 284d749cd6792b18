package queue

import (
	"encoding/json"
	"testing"

	"github.com/adstatus-next/internal/config"
)

func TestNewNotificationDispatchTask(t *testing.T) {
	task, err := NewNotificationDispatchTask(NotificationDispatchPayload{NotificationID: 42})
	if err != nil {
		t.Fatalf("create task failed: %v", err)
	}
	if task.Type() != TaskNotificationDispatch {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var payload NotificationDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.NotificationID != 42 {
		t.Fatalf("unexpected payload: %s (%v)", task.Payload(), err)
	}
}

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueNotificationDispatch(NotificationDispatchPayload{NotificationID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be noop: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: "redis", Port: 6380})
	if opt.Addr != "redis:6380" {
		t.Fatalf("unexpected addr: %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[CriticalQueue] == 0 || cfg.Queues[DefaultQueue] == 0 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}

func TestTaskPoliciesRouteQueues(t *testing.T) {
	if taskPolicies[TaskApplicationDeadlineScan].queue != CriticalQueue {
		t.Fatalf("deadline scan should use critical queue")
	}
	if taskPolicies[TaskNotificationDispatch].queue != DefaultQueue || taskPolicies[TaskNotificationDispatch].maxRetry != 5 {
		t.Fatalf("unexpected notification policy: %+v", taskPolicies[TaskNotificationDispatch])
	}
	opt, cfg := BuildServerConfig(&config.QueueConfig{Concurrency: 3, Queues: map[string]int{DefaultQueue: 1}})
	if opt.Addr != "127.0.0.1:6379" || cfg.Concurrency != 3 || len(cfg.Queues) != 1 {
		t.Fatalf("unexpected overrides: %s %+v", opt.Addr, cfg)
	}
}
