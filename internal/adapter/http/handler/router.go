package handler

import (
	"railpass-gateway/internal/adapter/http/middleware"
	"railpass-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	OTPSvc         ports.OTPService
	SessionSvc     ports.SessionService
	WalletSvc      ports.WalletService
	TokenSvc       ports.TokenService
	RateLimiter    middleware.RateLimitBackend // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimiter == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")
	auth := middleware.SessionAuth(deps.TokenSvc, deps.SessionSvc, deps.Logger)

	// --- Public routes ---
	otpHandler := NewOTPHandler(deps.OTPSvc)
	otp := v1.Group("/otp")
	{
		otp.POST("/send", rl("otp_send"), otpHandler.Send)
		otp.POST("/resend", rl("otp_send"), otpHandler.Resend)
		otp.POST("/verify", rl("otp_verify"), otpHandler.Verify)
		otp.POST("/clear", auth, rl("otp_verify"), otpHandler.Clear)
	}

	sessionHandler := NewSessionHandler(deps.SessionSvc)
	v1.POST("/sessions", rl("sessions"), sessionHandler.Login)

	// --- Session-authenticated routes ---

	me := v1.Group("/sessions/me", auth)
	{
		me.GET("", rl("sessions"), sessionHandler.Me)
		me.DELETE("", rl("sessions"), sessionHandler.Logout)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets", auth)
	{
		wallets.GET("/balance", rl("wallet"), walletHandler.GetBalance)
		wallets.POST("/topup", rl("wallet"), walletHandler.Topup)
	}

	bookings := v1.Group("/bookings", auth)
	{
		bookings.POST("", rl("bookings"), walletHandler.BookTicket)
		bookings.GET("", rl("wallet"), walletHandler.ListBookings)
	}

	return r
}
