package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/adstatus-next/internal/logger"
)

// HTTPService 对外 API 的监听与优雅关闭
type HTTPService struct {
	server *http.Server
}

// NewHTTPService 上传接口允许较长的请求体读取时间
func NewHTTPService(addr string, handler http.Handler) *HTTPService {
	return &HTTPService{server: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}}
}

// Name 服务名称
func (s *HTTPService) Name() string { return "http" }

// Start 监听成功后阻塞，直到 Stop 被调用
func (s *HTTPService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return err
	}
	logger.Infow("http_listening", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 等待进行中的请求结束
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
