package service

import (
	"context"
	"time"

	"github.com/adstatus-next/internal/querycache"
)

// cachedFetch 查询缓存读穿；未配置缓存时直接执行 loader
func cachedFetch[T any](ctx context.Context, cache *querycache.Service, key string, ttl time.Duration, loader func(ctx context.Context) (T, error)) (T, error) {
	if cache == nil {
		return loader(ctx)
	}
	return querycache.Fetch(ctx, cache, key, ttl, loader)
}

// invalidateCache 按前缀失效缓存
func invalidateCache(ctx context.Context, cache *querycache.Service, prefixes ...string) {
	if cache == nil || len(prefixes) == 0 {
		return
	}
	cache.InvalidatePrefixes(ctx, prefixes...)
}
