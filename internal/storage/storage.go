package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"
)

// ErrObjectKeyInvalid 对象 key 非法
var ErrObjectKeyInvalid = errors.New("invalid object key")

// ObjectStore 对象存储
type ObjectStore interface {
	// Put 写入对象并返回可访问地址
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// URL 返回对象的访问地址
	URL(key string) string
}

// New 按配置创建对象存储
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case constants.StorageDriverMinio:
		return NewMinioStore(ctx, cfg)
	case "", constants.StorageDriverLocal:
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// CleanKey 规范化对象 key，拒绝路径穿越
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", ErrObjectKeyInvalid
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", ErrObjectKeyInvalid
		}
	}
	return key, nil
}

func joinURL(base, key string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	return base + "/" + key
}
