package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/adstatus-next/internal/logger"

	"golang.org/x/sync/singleflight"
)

const defaultStaleTime = 5 * time.Minute

// Options 缓存服务配置
type Options struct {
	StaleTime time.Duration
	Retry     RetryPolicy
}

// Service 查询缓存服务
// key 约定为 {scope}_{part}_{part}...，失效按字符串前缀匹配。
type Service struct {
	store     Store
	clock     Clock
	staleTime time.Duration
	retry     RetryPolicy
	group     singleflight.Group
	// epoch 每次失效递增；加载开始后若 epoch 变化，结果不写入缓存
	epoch atomic.Uint64
}

// New 创建缓存服务
func New(store Store, clock Clock, options Options) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	staleTime := options.StaleTime
	if staleTime <= 0 {
		staleTime = defaultStaleTime
	}
	return &Service{
		store:     store,
		clock:     clock,
		staleTime: staleTime,
		retry:     options.Retry,
	}
}

// Key 拼接缓存 key：Key("users_", 1, "admin") => "users_1_admin"
func Key(scope string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(scope)
	for i, part := range parts {
		if i > 0 || (scope != "" && !strings.HasSuffix(scope, "_")) {
			b.WriteByte('_')
		}
		b.WriteString(strings.TrimSpace(fmt.Sprint(part)))
	}
	return b.String()
}

// Get 读取未过期的缓存并解码到 dest，返回是否命中
func (s *Service) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	entry, err := s.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	if entry.Expired(s.clock.Now()) {
		_ = s.store.Delete(ctx, key)
		return false, nil
	}
	if err := json.Unmarshal(entry.Data, dest); err != nil {
		_ = s.store.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// Set 写入缓存，ttl <= 0 使用默认过期时间
func (s *Service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.staleTime
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	return s.store.Set(ctx, key, Entry{
		Data:      payload,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}, ttl)
}

// Invalidate 删除单个 key
func (s *Service) Invalidate(ctx context.Context, key string) error {
	s.epoch.Add(1)
	return s.store.Delete(ctx, key)
}

// InvalidatePrefix 删除所有以 prefix 开头的 key
func (s *Service) InvalidatePrefix(ctx context.Context, prefix string) error {
	s.epoch.Add(1)
	removed, err := s.store.DeletePrefix(ctx, prefix)
	if err != nil {
		logger.Warnw("querycache_invalidate_failed", "prefix", prefix, "error", err)
		return err
	}
	logger.Debugw("querycache_invalidated", "prefix", prefix, "removed", removed)
	return nil
}

// InvalidatePrefixes 依次失效多个前缀，失败只记录日志
func (s *Service) InvalidatePrefixes(ctx context.Context, prefixes ...string) {
	for _, prefix := range prefixes {
		_ = s.InvalidatePrefix(ctx, prefix)
	}
}

// PruneExpired 清理内存存储中已过期的条目，Redis 存储由 TTL 自行过期
func (s *Service) PruneExpired() int {
	if s == nil {
		return 0
	}
	memory, ok := s.store.(*MemoryStore)
	if !ok {
		return 0
	}
	return memory.PruneExpired(s.clock.Now())
}

// Clear 清空全部缓存
func (s *Service) Clear(ctx context.Context) error {
	s.epoch.Add(1)
	return s.store.Clear(ctx)
}

// Fetch 命中缓存直接返回，否则调用 loader（按重试策略）加载并写入缓存。
// 同一 key 的并发加载合并为一次；加载期间发生失效时结果只返回不缓存。
func Fetch[T any](ctx context.Context, s *Service, key string, ttl time.Duration, loader func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	hit, err := s.Get(ctx, key, &cached)
	if err != nil {
		logger.Warnw("querycache_get_failed", "key", key, "error", err)
	}
	if hit {
		return cached, nil
	}

	startEpoch := s.epoch.Load()
	flightKey := fmt.Sprintf("%s#%d", key, startEpoch)
	value, err, _ := s.group.Do(flightKey, func() (interface{}, error) {
		var loaded T
		loadErr := s.retry.Do(ctx, func(ctx context.Context) error {
			var innerErr error
			loaded, innerErr = loader(ctx)
			return innerErr
		})
		if loadErr != nil {
			return loaded, loadErr
		}
		if s.epoch.Load() != startEpoch {
			logger.Debugw("querycache_result_superseded", "key", key)
			return loaded, nil
		}
		if setErr := s.Set(ctx, key, loaded, ttl); setErr != nil {
			logger.Warnw("querycache_set_failed", "key", key, "error", setErr)
		}
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	result, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("querycache: unexpected value type for key %s", key)
	}
	return result, nil
}
