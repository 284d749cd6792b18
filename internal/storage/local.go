package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultLocalDir     = "uploads"
	defaultLocalBaseURL = "/uploads"
)

// LocalStore 本地磁盘存储，由 HTTP 服务以 /uploads 静态目录对外提供
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore 创建本地存储
func NewLocalStore(dir, baseURL string) *LocalStore {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultLocalDir
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultLocalBaseURL
	}
	return &LocalStore{dir: dir, baseURL: baseURL}
}

// Dir 本地根目录
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put 写入文件
func (s *LocalStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	dst, err := os.Create(target)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, body); err != nil {
		_ = dst.Close()
		_ = os.Remove(target)
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return s.URL(cleaned), nil
}

// Delete 删除文件，不存在视为成功
func (s *LocalStore) Delete(_ context.Context, key string) error {
	cleaned, err := CleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.dir, filepath.FromSlash(cleaned)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL 返回访问地址
func (s *LocalStore) URL(key string) string {
	return joinURL(s.baseURL, key)
}
