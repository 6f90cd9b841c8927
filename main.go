package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/laulowcode/atm-cli/internal/app"
	"github.com/laulowcode/atm-cli/internal/platform/config"
	"github.com/laulowcode/atm-cli/internal/platform/logging"
	"github.com/laulowcode/atm-cli/internal/platform/otel"
	"github.com/laulowcode/atm-cli/internal/session"
	api "github.com/laulowcode/atm-cli/pkg"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	if cfg.SessionKey == "" {
		config.Exitf("config: ATM_SESSION_KEY is required")
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		config.Exitf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	accessLog, err := logging.NewAccessLogger(cfg.AccessLog)
	if err != nil {
		config.Exitf("access log: %v", err)
	}
	defer func() { _ = accessLog.Sync() }()

	shutdownTracing, err := otel.Setup(ctx, "atm-server", cfg.OTelEndpoint)
	if err != nil {
		logger.Fatal("tracing setup failed", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		logger.Fatal("open stores failed", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer func() { _ = stores.Close() }()

	locker, closeLocker := app.NewLocker(cfg, logger)
	defer func() { _ = closeLocker() }()

	svc, err := app.NewService(cfg, stores, locker, session.NewManager(), logger)
	if err != nil {
		logger.Fatal("build service failed", zap.Error(err))
	}

	server := api.NewServer(svc, session.NewTokens([]byte(cfg.SessionKey), cfg.SessionTTL), logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(accessLog),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("store", cfg.Store),
		zap.String("lock", cfg.Lock),
		zap.String("debt_strategy", cfg.DebtStrategy),
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
