package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisNamespace = "qc:"
	scanBatchSize  = 200
)

// RedisStore 基于 Redis 的共享存储，多实例部署时失效操作对所有实例可见
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 创建 Redis 存储，keyPrefix 为全局命名空间（例如 "ads:"）
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	keyPrefix = strings.TrimSpace(keyPrefix)
	if keyPrefix != "" && !strings.HasSuffix(keyPrefix, ":") {
		keyPrefix += ":"
	}
	return &RedisStore{client: client, prefix: keyPrefix + redisNamespace}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Get 读取条目
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// 无法解析的条目视为未命中并清理
		_ = s.client.Del(ctx, s.key(key)).Err()
		return nil, nil
	}
	return &entry, nil
}

// Set 写入条目，同时设置 Redis 过期时间
func (s *RedisStore) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), payload, ttl).Err()
}

// Delete 删除条目
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// DeletePrefix 通过 SCAN 删除前缀匹配的条目
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	return s.deleteMatching(ctx, s.key(escapeGlob(prefix))+"*")
}

// Clear 清空命名空间下的全部条目
func (s *RedisStore) Clear(ctx context.Context) error {
	_, err := s.deleteMatching(ctx, s.prefix+"*")
	return err
}

func (s *RedisStore) deleteMatching(ctx context.Context, pattern string) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func escapeGlob(raw string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)
	return replacer.Replace(raw)
}
