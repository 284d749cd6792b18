package querycache

import (
	"context"
	"time"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
)

// SleepFunc 可被中断的等待函数
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy 读查询重试策略：固定次数，线性递增的等待时间（delay × 已尝试次数）
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	Sleep    SleepFunc
}

// DefaultRetryPolicy 3 次，间隔 1s、2s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: defaultRetryAttempts, Delay: defaultRetryDelay}
}

// Retry 按默认等待方式执行重试
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context) error) error {
	return RetryPolicy{Attempts: attempts, Delay: delay}.Do(ctx, fn)
}

// Do 执行 fn，失败时按线性退避重试，返回最后一次错误
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if sleepErr := sleep(ctx, p.Delay*time.Duration(attempt)); sleepErr != nil {
			return err
		}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
