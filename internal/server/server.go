package server

import (
	"context"
	"errors"
	"net/http"

	"ChatFlowServer/config"
	"ChatFlowServer/pkg/logger"
)

// Run 启动 HTTP 服务并阻塞到 ctx 取消，随后执行优雅关闭。
// onShutdown 在停止接收新连接之后、等待存量请求之前执行，
// 用于关闭 WebSocket 在线表等需要主动清理的资源。
func Run(ctx context.Context, cfg config.ServerConfig, handler http.Handler, onShutdown func()) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		// 注意：不设置 ReadTimeout/WriteTimeout，
		// 否则长连接（WebSocket）会被整体超时强制断开。
		IdleTimeout: cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP 服务启动中", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "收到退出信号，开始优雅关闭")

	if onShutdown != nil {
		onShutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info(context.Background(), "HTTP 服务已退出")
	return nil
}
