package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/adstatus-next/internal/config"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "ads"

// 进程内共享的 Redis 连接；未启用时为 nil，所有读写退化为未命中
var (
	rdb    *redis.Client
	prefix = defaultPrefix
)

// InitRedis 建立连接并 PING，失败时不保留客户端
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		rdb = nil
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	if p := strings.TrimSpace(cfg.Prefix); p != "" {
		prefix = p
	}

	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping: %w", err)
	}
	rdb = client
	return nil
}

// Close 进程退出时释放连接
func Close() error {
	if rdb == nil {
		return nil
	}
	err := rdb.Close()
	rdb = nil
	return err
}

// Enabled Redis 是否可用
func Enabled() bool {
	return rdb != nil
}

// Client 未启用时返回 nil，调用方据此走内存兜底
func Client() *redis.Client {
	return rdb
}

func namespaced(key string) string {
	return prefix + ":" + strings.TrimSpace(key)
}

func getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	raw, err := rdb.Get(ctx, namespaced(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, namespaced(key), payload, ttl).Err()
}

func del(ctx context.Context, key string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, namespaced(key)).Err()
}
