package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/i18n"
	"github.com/adstatus-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	MessageKey    string
}

// RateLimitRuleFromConfig 由配置构建限流规则
func RateLimitRuleFromConfig(prefix string, cfg config.RateLimitConfig) RateLimitRule {
	return RateLimitRule{
		Prefix:        prefix,
		WindowSeconds: cfg.WindowSeconds,
		MaxRequests:   cfg.MaxAttempts,
		BlockSeconds:  cfg.BlockSeconds,
		MessageKey:    "error.too_many_requests",
	}
}

// KEYS[1] 计数 key，KEYS[2] 封禁 key；返回 {count, ttl}，count=-1 表示处于封禁期
var rateLimitScript = redis.NewScript(`
local blocked = redis.call("TTL", KEYS[2])
if blocked > 0 then
	return {-1, blocked}
end
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local block = tonumber(ARGV[3])
if current > tonumber(ARGV[2]) and block > 0 then
	redis.call("SET", KEYS[2], "1", "EX", block)
	return {current, block}
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware 频率限制中间件；client 为空时退化为进程内计数
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	local := newMemoryLimiter(time.Now)
	return func(c *gin.Context) {
		if rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = fmt.Sprintf("%s:%s", rule.Prefix, key)
		}

		var (
			allowed     bool
			waitSeconds int
		)
		if client == nil {
			allowed, waitSeconds = local.hit(key, rule)
		} else {
			var err error
			allowed, waitSeconds, err = redisHit(c, client, key, rule)
			if err != nil {
				logger.Warnw("rate_limit_redis_failed", "key", key, "error", err)
				msg := i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable")
				response.Error(c, response.CodeInternal, msg)
				c.Abort()
				return
			}
		}
		if !allowed {
			if waitSeconds < 1 {
				waitSeconds = rule.WindowSeconds
			}
			if waitSeconds < 1 {
				waitSeconds = 1
			}
			msgKey := strings.TrimSpace(rule.MessageKey)
			if msgKey == "" {
				msgKey = "error.too_many_requests"
			}
			msg := i18n.Sprintf(i18n.ResolveLocale(c), msgKey, waitSeconds)
			response.TooManyRequests(c, msg)
			c.Abort()
			return
		}

		c.Next()
	}
}

func redisHit(c *gin.Context, client *redis.Client, key string, rule RateLimitRule) (bool, int, error) {
	keys := []string{key, key + ":blocked"}
	result, err := rateLimitScript.Run(c.Request.Context(), client, keys, rule.WindowSeconds, rule.MaxRequests, rule.BlockSeconds).Result()
	if err != nil {
		return false, 0, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return false, 0, fmt.Errorf("unexpected rate limit result: %v", result)
	}
	count, ok := toInt64(values[0])
	if !ok {
		return false, 0, fmt.Errorf("unexpected rate limit count: %v", values[0])
	}
	ttlSeconds, _ := toInt64(values[1])
	if count < 0 || count > int64(rule.MaxRequests) {
		return false, int(ttlSeconds), nil
	}
	return true, 0, nil
}

type memoryLimitEntry struct {
	count        int
	windowStart  time.Time
	blockedUntil time.Time
}

// memoryLimiter 固定窗口计数，超限后按 BlockSeconds 封禁
type memoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]*memoryLimitEntry
}

func newMemoryLimiter(now func() time.Time) *memoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &memoryLimiter{now: now, entries: make(map[string]*memoryLimitEntry)}
}

func (l *memoryLimiter) hit(key string, rule RateLimitRule) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	window := time.Duration(rule.WindowSeconds) * time.Second
	entry, ok := l.entries[key]
	if !ok {
		entry = &memoryLimitEntry{windowStart: now}
		l.entries[key] = entry
	}
	if now.Before(entry.blockedUntil) {
		return false, ceilSeconds(entry.blockedUntil.Sub(now))
	}
	if now.Sub(entry.windowStart) >= window {
		entry.count = 0
		entry.windowStart = now
	}
	entry.count++
	if entry.count <= rule.MaxRequests {
		return true, 0
	}
	if rule.BlockSeconds > 0 {
		entry.blockedUntil = now.Add(time.Duration(rule.BlockSeconds) * time.Second)
		return false, rule.BlockSeconds
	}
	return false, ceilSeconds(entry.windowStart.Add(window).Sub(now))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 IP + JSON 字段作为限流 key
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(strings.TrimSpace(readJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if text, ok := payload[field].(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
