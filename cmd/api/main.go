package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"railpass-gateway/config"
	"railpass-gateway/internal/adapter/booking"
	httpHandler "railpass-gateway/internal/adapter/http/handler"
	"railpass-gateway/internal/adapter/http/middleware"
	"railpass-gateway/internal/adapter/sms"
	"railpass-gateway/internal/adapter/storage/memory"
	pgStorage "railpass-gateway/internal/adapter/storage/postgres"
	redisStorage "railpass-gateway/internal/adapter/storage/redis"
	"railpass-gateway/internal/core/ports"
	"railpass-gateway/internal/service"
	"railpass-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Getenv("RPG_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting RailPass Gateway")

	if cfg.JWT.Secret == "" || cfg.Session.AddressSecret == "" {
		log.Fatal().Msg("jwt.secret and session.address_secret must be set")
	}

	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Repositories and stores
	walletRepo := pgStorage.NewWalletRepo(pool)
	bookingRepo := pgStorage.NewBookingRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)
	sessionStore := redisStorage.NewSessionStore(rdb)
	bookingLock := redisStorage.NewBookingLock(rdb)

	// A shared OTP store needs the cross-instance lock so attempt counting
	// stays exact when several gateways verify the same number.
	var otpStore ports.OTPStore = memory.NewOTPStore()
	var otpLock ports.KeyLock
	if cfg.OTP.Store == "redis" {
		otpStore = redisStorage.NewOTPStore(rdb)
		otpLock = redisStorage.NewOTPLock(rdb)
	}

	// Outbound clients. Per-call deadlines come from the services' contexts;
	// the client timeout is a backstop.
	smsHTTP := &http.Client{Timeout: 2 * cfg.SMS.Timeout}
	primary := sms.NewAfricasTalkingClient(cfg.SMS.Primary, smsHTTP, log)
	fallback := sms.NewTwilioClient(cfg.SMS.Fallback, smsHTTP, log)
	if !primary.Configured() && !fallback.Configured() {
		log.Warn().Msg("No SMS provider configured; code delivery will fail")
	}
	bookingGateway := booking.NewClient(cfg.Booking, &http.Client{Timeout: 2 * cfg.Booking.Timeout}, log)

	// Services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	otpSvc := service.NewOTPService(otpStore, primary, fallback, service.NewRandomCodeGenerator(), service.OTPOptions{
		TTL:         cfg.OTP.TTL,
		MaxAttempts: cfg.OTP.MaxAttempts,
		SendTimeout: cfg.SMS.Timeout,
		Lock:        otpLock,
	}, log)
	sessionSvc := service.NewSessionService(
		otpSvc,
		sessionStore,
		walletRepo,
		tokenSvc,
		service.NewHMACAddressDeriver(cfg.Session.AddressSecret),
		cfg.Session.TTL,
		log,
	)
	walletSvc := service.NewWalletService(walletRepo, bookingRepo, bookingGateway, bookingLock, transactor, service.WalletOptions{
		GatewayTimeout: cfg.Booking.Timeout,
		LockTTL:        cfg.Booking.LockTTL,
	}, log)
	auditSvc := service.NewAuditService(auditRepo, log)

	rateLimiter := middleware.WithFallback(redisStorage.NewRateLimitStore(rdb), middleware.NewLocalRateLimitStore(), log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		OTPSvc:      otpSvc,
		SessionSvc:  sessionSvc,
		WalletSvc:   walletSvc,
		TokenSvc:    tokenSvc,
		RateLimiter: rateLimiter,
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
		},
		AuditSvc: auditSvc,
		Logger:   log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
