// Package server 组装 gin 路由并管理 HTTP 生命周期。
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradeboard/internal/logger"
	"tradeboard/internal/metrics"
	"tradeboard/internal/server/ui"
	"tradeboard/internal/transport/http/chart"
	"tradeboard/internal/transport/http/middleware"
	"tradeboard/internal/transport/http/preset"
)

// HTTPServer 提供图表 API、preset 管理与内嵌前端。
type HTTPServer struct {
	addr            string
	shutdownTimeout time.Duration
	router          *gin.Engine
	indexHTML       []byte
}

type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	Chart           *chart.Router
	Presets         *preset.Router
	Metrics         *metrics.Metrics
	Gatherer        prometheus.Gatherer // 为空时使用默认 registry
}

func NewHTTPServer(cfg HTTPConfig) (*HTTPServer, error) {
	if cfg.Chart == nil {
		return nil, errors.New("chart router 不能为空")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9992"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	staticFS, err := ui.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("加载前端静态资源失败: %w", err)
	}
	indexHTML, err := ui.Index()
	if err != nil {
		return nil, fmt.Errorf("加载前端首页失败: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(cfg.Metrics))
	router.StaticFS("/static", staticFS)

	s := &HTTPServer{
		addr:            cfg.Addr,
		shutdownTimeout: cfg.ShutdownTimeout,
		router:          router,
		indexHTML:       indexHTML,
	}
	router.GET("/", s.handleIndex)
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	api := router.Group("/api")
	cfg.Chart.Register(api)
	if cfg.Presets != nil {
		cfg.Presets.Register(api.Group("/presets"))
	}
	return s, nil
}

// Handler 暴露底层路由，便于测试。
func (s *HTTPServer) Handler() http.Handler { return s.router }

func (s *HTTPServer) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", s.indexHTML)
}

// Start 启动 HTTP 服务，阻塞直到 ctx 取消或出现错误。
func (s *HTTPServer) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("[http] listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Warnf("[http] shutdown: %v", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
