package queue

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 通知等普通任务
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 凭证截止扫描等时效任务
	CriticalQueue = constants.QueueCritical

	defaultConcurrency = 10
)

type taskPolicy struct {
	queue    string
	maxRetry int
	timeout  time.Duration
}

// 每类任务的队列、重试与执行超时
var taskPolicies = map[string]taskPolicy{
	TaskNotificationDispatch:    {queue: DefaultQueue, maxRetry: 5, timeout: 30 * time.Second},
	TaskApplicationDeadlineScan: {queue: CriticalQueue, maxRetry: 1, timeout: 2 * time.Minute},
}

// Client asynq 客户端；未启用队列时所有投递都是空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(buildRedisOpt(cfg))}, nil
}

// Enabled 是否真正连接了队列
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueNotificationDispatch 投递通知外发；同一通知只保留一个待执行任务
func (c *Client) EnqueueNotificationDispatch(payload NotificationDispatchPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewNotificationDispatchTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, asynq.TaskID("notify:"+strconv.FormatUint(uint64(payload.NotificationID), 10)))
}

// EnqueueDeadlineScan 投递凭证截止扫描，window 内重复投递返回 asynq.ErrDuplicateTask
func (c *Client) EnqueueDeadlineScan(payload DeadlineScanPayload, window time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewDeadlineScanTask(payload)
	if err != nil {
		return err
	}
	var extra []asynq.Option
	if window > 0 {
		extra = append(extra, asynq.Unique(window))
	}
	return c.enqueue(task, extra...)
}

func (c *Client) enqueue(task *asynq.Task, extra ...asynq.Option) error {
	policy, ok := taskPolicies[task.Type()]
	if !ok {
		policy = taskPolicy{queue: DefaultQueue, maxRetry: 3}
	}
	opts := []asynq.Option{asynq.Queue(policy.queue), asynq.MaxRetry(policy.maxRetry)}
	if policy.timeout > 0 {
		opts = append(opts, asynq.Timeout(policy.timeout))
	}
	_, err := c.client.Enqueue(task, append(opts, extra...)...)
	return err
}

// BuildServerConfig worker 端的连接与并发配置，critical 队列权重更高
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultConcurrency,
		Queues:      map[string]int{CriticalQueue: 6, DefaultQueue: 3},
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), serverCfg
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
