package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"scholarhub/internal/apiclient"
	"scholarhub/internal/chat"
	"scholarhub/internal/cloudinary"
	"scholarhub/internal/config"
	"scholarhub/internal/httpmiddleware"
	"scholarhub/internal/logger"
	"scholarhub/internal/metrics"
	"scholarhub/internal/store"
	"scholarhub/internal/telemetry"
	"scholarhub/internal/views"
	"scholarhub/internal/web"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, syncLog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer syncLog()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, zlog); err != nil {
		zlog.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, zlog *zap.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Trace, zlog)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer shutdownTracing()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	api := apiclient.New(cfg.APIBaseURL, cfg.FetchTimeout, zlog, apiclient.WithMetrics(metrics.NewBackend(reg)))
	zlog.Info("records backend", zap.String("url", cfg.APIBaseURL))

	cdn := cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPISecret)
	if cdn.CloudName == "" {
		zlog.Info("cloudinary not configured, profile images need absolute URLs")
	}

	var (
		limiter httpmiddleware.Limiter
		rdb     *store.Redis
	)
	switch cfg.RateLimitBackend {
	case "redis":
		rdb = store.NewRedis(ctx, cfg.RedisAddr, zlog)
		defer rdb.Close()
		limiter = httpmiddleware.NewRedisWindow(rdb, cfg.RateLimitPerMin)
	default:
		limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	}

	catalog := views.NewCatalog(api,
		views.WithPageSize(cfg.PageSize),
		views.WithThumbnails(cdn.ThumbnailURL),
	)
	chatCfg := web.ChatConfig{
		URL:            cfg.ChatURL,
		Dialer:         chat.NewWSDialer(10 * time.Second),
		ReconnectDelay: cfg.ChatReconnectDelay,
		BannerTTL:      cfg.ChatBannerTTL,
		Metrics:        metrics.NewChat(reg),
	}

	srv := web.New(web.Deps{
		Catalog:    catalog,
		Backend:    api,
		Redis:      rdb,
		Limiter:    limiter,
		Chat:       chatCfg,
		Gatherer:   reg,
		Logger:     zlog,
		Production: cfg.IsProduction(),
		Origins:    cfg.CORSAllowOrigins,
	})

	// WriteTimeout is left unset: /ws/chat connections are long lived and
	// set their own write deadlines.
	httpSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("starting server", zap.String("addr", httpSrv.Addr), zap.String("env", cfg.Env))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		zlog.Info("shutting down server", zap.String("signal", sig.String()))
	}

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("server forced shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
	return nil
}
