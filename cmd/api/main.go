package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"phone-gateway/internal/auth"
	"phone-gateway/internal/config"
	"phone-gateway/internal/history"
	"phone-gateway/internal/notify"
	"phone-gateway/internal/routing"
	"phone-gateway/internal/status"
	"phone-gateway/internal/telephony"
	"phone-gateway/pkg/logger"
	"phone-gateway/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	// Redis only backs login throttling; the gateway runs without it.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.Redis.Addr})
		if err != nil {
			log.Warn("redis unavailable, login throttling disabled", "err", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	carrier, err := telephony.NewCarrierClient(telephony.CarrierConfig{
		AccountSID:   cfg.Carrier.AccountSID,
		AuthToken:    cfg.Carrier.AuthToken,
		APIKeySID:    cfg.Carrier.APIKeySID,
		APIKeySecret: cfg.Carrier.APIKeySecret,
		AppSID:       cfg.Carrier.AppSID,
	})
	if err != nil {
		log.Error("carrier init failed", "err", err)
		os.Exit(1)
	}

	routeCfg := routing.Config{
		PhoneNumber:     cfg.Gateway.PhoneNumber,
		RedirectNumber:  cfg.Gateway.RedirectNumber,
		VoicemailPrompt: cfg.Gateway.VoicemailPrompt,
		ClientIdentity:  cfg.Gateway.ClientIdentity,
	}

	dispatcher := notify.NewDispatcher(cfg.Notify.URL, cfg.Notify.Timeout, log)
	engine := routing.NewEngine(routeCfg)
	aggregator := status.NewAggregator(routeCfg, dispatcher, log)

	deps := appDeps{
		cfg:        cfg,
		auth:       authManager,
		limiter:    auth.NewLoginLimiter(rdb, cfg.Dashboard.LoginRateLimit, log),
		engine:     engine,
		aggregator: aggregator,
		notifier:   dispatcher,
		carrier:    carrier,
		history:    history.NewService(carrier, cfg.Gateway.PhoneNumber, cfg.Gateway.PublicBaseURL+"/sms/status"),
		webhookAuth: telephony.NewSignatureValidator(
			cfg.Carrier.AuthToken,
			cfg.Gateway.PublicBaseURL,
			cfg.VerifyWebhookSignatures(),
		),
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("gateway listening", "addr", srv.Addr, "env", cfg.App.Env, "number", cfg.Gateway.PhoneNumber)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
