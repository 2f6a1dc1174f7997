package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heronhoga/bars-fe/cache"
	"github.com/heronhoga/bars-fe/config"
	"github.com/heronhoga/bars-fe/core/api"
	"github.com/heronhoga/bars-fe/core/live"
	"github.com/heronhoga/bars-fe/core/session"
	"github.com/heronhoga/bars-fe/logger"
	"github.com/heronhoga/bars-fe/web"
)

// Start initializes and starts the HTTP server. It blocks until SIGINT/SIGTERM.
func Start(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.AppKey, cfg.APITimeout)
	client.SetRateLimit(cfg.APIRateLimit)

	store, err := cache.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open visitor store: %w", err)
	}
	defer store.Close()

	renderer, err := web.NewRenderer(cfg.TemplateDir)
	if err != nil {
		return err
	}

	hub := live.NewHub()
	go hub.Run()
	defer hub.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := renderer.Watch(ctx); err != nil {
			logger.Warn("Template watcher stopped", logger.ErrorField(err))
		}
	}()

	sessions := session.NewStore(cfg.Production(), cfg.SessionMaxAge)
	h := NewHandler(client, sessions, store, renderer, hub, cfg.MaxUploadBytes)

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      h.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			logger.String("addr", cfg.ListenAddr),
			logger.String("api", client.BaseURL()),
			logger.Bool("redis", cfg.RedisEnabled()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	// 优雅关闭服务器; hijacked websocket connections are closed by hub.Stop
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
