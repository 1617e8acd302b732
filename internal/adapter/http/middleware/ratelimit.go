package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	redisStore "railpass-gateway/internal/adapter/storage/redis"
	"railpass-gateway/pkg/apperror"
	"railpass-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules returns the rate limits per endpoint group.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"otp_send":   {Limit: 5, Window: time.Minute},
		"otp_verify": {Limit: 10, Window: time.Minute},
		"sessions":   {Limit: 10, Window: time.Minute},
		"wallet":     {Limit: 60, Window: time.Minute},
		"bookings":   {Limit: 20, Window: time.Minute},
	}
}

// RateLimitBackend counts requests per key. *redisStore.RateLimitStore and
// *LocalRateLimitStore both satisfy it.
type RateLimitBackend interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*redisStore.RateLimitResult, error)
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
func RateLimiter(store RateLimitBackend, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", extractIdentifier(c), group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Abort(c, apperror.ErrRateLimitExceeded())
			return
		}

		c.Next()
	}
}

// extractIdentifier prefers the authenticated session over the client IP.
func extractIdentifier(c *gin.Context) string {
	if sid, exists := c.Get(CtxSessionID); exists {
		return fmt.Sprintf("%v", sid)
	}
	return c.ClientIP()
}

// maxLocalKeys bounds the in-process limiter table; it is reset when full.
const maxLocalKeys = 10000

// LocalRateLimitStore is a token-bucket limiter kept in process memory,
// used when Redis is not wired. Limits are per instance.
type LocalRateLimitStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	nowF     func() time.Time
}

// NewLocalRateLimitStore creates an empty in-process limiter table.
func NewLocalRateLimitStore() *LocalRateLimitStore {
	return &LocalRateLimitStore{
		limiters: make(map[string]*rate.Limiter),
		nowF:     time.Now,
	}
}

// Allow takes one token from the bucket for key. The bucket holds limit
// tokens and refills at limit per window.
func (s *LocalRateLimitStore) Allow(_ context.Context, key string, limit int64, window time.Duration) (*redisStore.RateLimitResult, error) {
	if limit <= 0 || window <= 0 {
		return nil, fmt.Errorf("invalid rate limit rule: limit=%d window=%s", limit, window)
	}

	s.mu.Lock()
	l, ok := s.limiters[key]
	if !ok {
		if len(s.limiters) >= maxLocalKeys {
			s.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(rate.Every(window/time.Duration(limit)), int(limit))
		s.limiters[key] = l
	}
	s.mu.Unlock()

	now := s.nowF()
	allowed := l.AllowN(now, 1)
	remaining := int64(math.Floor(l.TokensAt(now)))
	if remaining < 0 {
		remaining = 0
	}

	return &redisStore.RateLimitResult{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   now.Add(window).Unix(),
	}, nil
}

// FallbackRateLimitStore consults primary and, when it errors, secondary.
// Used to keep per-instance limits in force while Redis is unreachable.
type FallbackRateLimitStore struct {
	primary   RateLimitBackend
	secondary RateLimitBackend
	log       zerolog.Logger
}

// WithFallback wraps primary with secondary.
func WithFallback(primary, secondary RateLimitBackend, log zerolog.Logger) *FallbackRateLimitStore {
	return &FallbackRateLimitStore{primary: primary, secondary: secondary, log: log}
}

// Allow implements RateLimitBackend.
func (s *FallbackRateLimitStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*redisStore.RateLimitResult, error) {
	res, err := s.primary.Allow(ctx, key, limit, window)
	if err == nil {
		return res, nil
	}
	s.log.Warn().Err(err).Msg("shared rate limit store failed, using local limits")
	return s.secondary.Allow(ctx, key, limit, window)
}
